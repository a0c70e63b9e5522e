package handlers

import (
	"errors"
	"log"
	"strings"

	"blog/internal/middleware"
	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// UserHandler handles the profile, account update, and public author pages.
type UserHandler struct {
	authService   *services.AuthService
	postService   *services.PostService
	uploadService *services.UploadService
	userRepo      repositories.UserRepository
	store         *session.Store
	validate      *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, postService *services.PostService, uploadService *services.UploadService, userRepo repositories.UserRepository, store *session.Store) *UserHandler {
	return &UserHandler{
		authService:   authService,
		postService:   postService,
		uploadService: uploadService,
		userRepo:      userRepo,
		store:         store,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/profile", middleware.RequireLogin(), h.HandleProfile)
	router.Get("/update", middleware.RequireLogin(), h.HandleUpdateAccountPage)
	router.Post("/update", middleware.RequireLogin(), h.HandleUpdateAccount)
	router.Get("/user/:username", h.HandleUserPosts)
}

// HandleProfile shows the authenticated user's own posts.
func (h *UserHandler) HandleProfile(c *fiber.Ctx) error {
	user := currentUser(c)

	posts, err := h.postService.ListPostsByAuthor(user.ID)
	if err != nil {
		log.Printf("Error listing posts for user %s: %v", user.ID, err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load your posts")
	}

	return render(c, h.store, "profile", fiber.Map{
		"title": "Profile",
		"posts": posts,
	})
}

// HandleUpdateAccountPage shows the account form prefilled with the current
// values.
func (h *UserHandler) HandleUpdateAccountPage(c *fiber.Ctx) error {
	user := currentUser(c)
	return render(c, h.store, "account", fiber.Map{
		"title": "Account",
		"form":  UpdateAccountForm{Username: user.Username, Email: user.Email},
	})
}

// HandleUpdateAccount edits username/email and optionally replaces the
// avatar.
func (h *UserHandler) HandleUpdateAccount(c *fiber.Ctx) error {
	user := currentUser(c)

	var form UpdateAccountForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing account form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "account", fiber.Map{
			"title":  "Account",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	imageFile := ""
	if fileHeader, err := c.FormFile("picture"); err == nil {
		name, saveErr := h.uploadService.SavePicture(fileHeader, services.AssetProfile)
		if saveErr != nil {
			fieldErrors := map[string]string{"Picture": "Could not save the uploaded image"}
			if errors.Is(saveErr, services.ErrUnsupportedImageType) {
				fieldErrors["Picture"] = saveErr.Error()
			} else {
				log.Printf("Error saving avatar: %v", saveErr)
			}
			c.Status(fiber.StatusBadRequest)
			return render(c, h.store, "account", fiber.Map{
				"title":  "Account",
				"form":   form,
				"errors": fieldErrors,
			})
		}
		imageFile = name
	}

	if err := h.authService.UpdateAccount(user, form.Username, form.Email, imageFile); err != nil {
		log.Printf("Error updating account for %s: %v", user.ID, err)
		fieldErrors := map[string]string{}
		switch {
		case strings.Contains(err.Error(), "already taken"):
			fieldErrors["Username"] = "That username is taken. Please choose a different one."
		case strings.Contains(err.Error(), "already registered"):
			fieldErrors["Email"] = "That email is taken. Please choose a different one."
		default:
			return renderError(c, h.store, fiber.StatusInternalServerError, "Could not update your account")
		}
		c.Status(fiber.StatusConflict)
		return render(c, h.store, "account", fiber.Map{
			"title":  "Account",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	addFlash(c, h.store, "success", "Your account has been updated!")
	return c.Redirect("/update", fiber.StatusFound)
}

// HandleUserPosts shows one author's posts, newest first; 404 for unknown
// usernames.
func (h *UserHandler) HandleUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")

	author, err := h.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return renderError(c, h.store, fiber.StatusNotFound, "That user does not exist")
		}
		log.Printf("Error loading user %s: %v", username, err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load user")
	}

	posts, err := h.postService.ListPostsByAuthor(author.ID)
	if err != nil {
		log.Printf("Error listing posts for user %s: %v", author.ID, err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load posts")
	}

	return render(c, h.store, "user_posts", fiber.Map{
		"title":  author.Username,
		"author": author,
		"posts":  posts,
	})
}

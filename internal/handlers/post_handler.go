package handlers

import (
	"errors"
	"log"

	"blog/internal/middleware"
	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// PostHandler handles the post listing, detail, and CRUD pages.
type PostHandler struct {
	postService   *services.PostService
	uploadService *services.UploadService
	store         *session.Store
	validate      *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(postService *services.PostService, uploadService *services.UploadService, store *session.Store) *PostHandler {
	return &PostHandler{
		postService:   postService,
		uploadService: uploadService,
		store:         store,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the post routes with the Fiber app.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Get("/home", h.HandleHome)
	router.Get("/post/new", middleware.RequireLogin(), h.HandleNewPostPage)
	router.Post("/post/new", middleware.RequireLogin(), h.HandleNewPost)
	router.Get("/post/:id", h.HandlePostDetail)
	router.Get("/post/:id/update", middleware.RequireLogin(), h.HandleUpdatePostPage)
	router.Post("/post/:id/update", middleware.RequireLogin(), h.HandleUpdatePost)
	router.Get("/post/:id/delete", middleware.RequireLogin(), h.HandleDeletePost)
}

// HandleHome lists all posts, newest first.
func (h *PostHandler) HandleHome(c *fiber.Ctx) error {
	posts, err := h.postService.ListPosts()
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load posts")
	}
	return render(c, h.store, "home", fiber.Map{
		"title": "Home",
		"posts": posts,
	})
}

// HandlePostDetail shows a single post.
func (h *PostHandler) HandlePostDetail(c *fiber.Ctx) error {
	post, err := h.postService.GetPostByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return renderError(c, h.store, fiber.StatusNotFound, "That post does not exist")
		}
		log.Printf("Error loading post %s: %v", c.Params("id"), err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load post")
	}
	return render(c, h.store, "post", fiber.Map{
		"title": post.Title,
		"post":  post,
	})
}

// HandleNewPostPage shows the post creation form.
func (h *PostHandler) HandleNewPostPage(c *fiber.Ctx) error {
	return render(c, h.store, "post_form", fiber.Map{
		"title":  "New Post",
		"legend": "New Post",
		"form":   PostForm{},
	})
}

// HandleNewPost creates a post for the authenticated user, with an optional
// attached image.
func (h *PostHandler) HandleNewPost(c *fiber.Ctx) error {
	user := currentUser(c)

	var form PostForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing post form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "post_form", fiber.Map{
			"title":  "New Post",
			"legend": "New Post",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	imageFile, fieldErrors := h.savePostImage(c)
	if fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "post_form", fiber.Map{
			"title":  "New Post",
			"legend": "New Post",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	post, err := h.postService.CreatePost(user.ID, form.Title, form.Content, imageFile)
	if err != nil {
		log.Printf("Error creating post: %v", err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not create post")
	}

	addFlash(c, h.store, "success", "Your post has been created!")
	return c.Redirect("/post/"+post.ID, fiber.StatusFound)
}

// HandleUpdatePostPage shows the edit form, refusing non-owners.
func (h *PostHandler) HandleUpdatePostPage(c *fiber.Ctx) error {
	user := currentUser(c)

	post, err := h.postService.GetPostByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return renderError(c, h.store, fiber.StatusNotFound, "That post does not exist")
		}
		log.Printf("Error loading post %s: %v", c.Params("id"), err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not load post")
	}
	if post.UserID != user.ID {
		return renderError(c, h.store, fiber.StatusForbidden, "You are not allowed to edit this post")
	}

	return render(c, h.store, "post_form", fiber.Map{
		"title":  "Update Post",
		"legend": "Update Post",
		"form":   PostForm{Title: post.Title, Content: post.Content},
	})
}

// HandleUpdatePost edits a post; the ownership check runs in the service
// immediately before the write.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	user := currentUser(c)

	var form PostForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing post form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "post_form", fiber.Map{
			"title":  "Update Post",
			"legend": "Update Post",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	imageFile, fieldErrors := h.savePostImage(c)
	if fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "post_form", fiber.Map{
			"title":  "Update Post",
			"legend": "Update Post",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	post, err := h.postService.UpdatePost(c.Params("id"), user.ID, form.Title, form.Content, imageFile)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return renderError(c, h.store, fiber.StatusForbidden, "You are not allowed to edit this post")
		case errors.Is(err, repositories.ErrNotFound):
			return renderError(c, h.store, fiber.StatusNotFound, "That post does not exist")
		default:
			log.Printf("Error updating post %s: %v", c.Params("id"), err)
			return renderError(c, h.store, fiber.StatusInternalServerError, "Could not update post")
		}
	}

	addFlash(c, h.store, "success", "Your post has been updated!")
	return c.Redirect("/post/"+post.ID, fiber.StatusFound)
}

// HandleDeletePost deletes a post after the service re-verifies ownership.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	user := currentUser(c)

	if err := h.postService.DeletePost(c.Params("id"), user.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return renderError(c, h.store, fiber.StatusForbidden, "You are not allowed to delete this post")
		case errors.Is(err, repositories.ErrNotFound):
			return renderError(c, h.store, fiber.StatusNotFound, "That post does not exist")
		default:
			log.Printf("Error deleting post %s: %v", c.Params("id"), err)
			return renderError(c, h.store, fiber.StatusInternalServerError, "Could not delete post")
		}
	}

	addFlash(c, h.store, "success", "Your post has been deleted!")
	return c.Redirect("/", fiber.StatusFound)
}

// savePostImage stores an attached image if one was uploaded. A missing
// file is not an error; a rejected one comes back as a field error.
func (h *PostHandler) savePostImage(c *fiber.Ctx) (string, map[string]string) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// No file attached.
		return "", nil
	}

	name, err := h.uploadService.SavePicture(fileHeader, services.AssetPost)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedImageType) {
			return "", map[string]string{"Image": err.Error()}
		}
		log.Printf("Error saving post image: %v", err)
		return "", map[string]string{"Image": "Could not save the uploaded image"}
	}
	return name, nil
}

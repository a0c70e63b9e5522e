package handlers

import (
	"log"
	"strings"

	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthHandler handles registration, login/logout, and the password-reset
// pages.
type AuthHandler struct {
	authService  *services.AuthService
	emailService *services.EmailService
	store        *session.Store
	validate     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, emailService *services.EmailService, store *session.Store) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
		store:        store,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/register", h.HandleRegisterPage)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
	router.Get("/reset_password", h.HandleResetRequestPage)
	router.Post("/reset_password", h.HandleResetRequest)
	router.Get("/reset_password/:token", h.HandleResetTokenPage)
	router.Post("/reset_password/:token", h.HandleResetToken)
}

// HandleRegisterPage shows the registration form.
func (h *AuthHandler) HandleRegisterPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return render(c, h.store, "register", fiber.Map{
		"title": "Register",
		"form":  RegisterForm{},
	})
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	var form RegisterForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing register form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "register", fiber.Map{
			"title":  "Register",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	}
	if err := h.authService.RegisterUser(user); err != nil {
		log.Printf("Error registering user: %v", err)
		fieldErrors := map[string]string{}
		switch {
		case strings.Contains(err.Error(), "already taken"):
			fieldErrors["Username"] = "That username is taken. Please choose a different one."
		case strings.Contains(err.Error(), "already registered"):
			fieldErrors["Email"] = "That email is taken. Please choose a different one."
		default:
			return renderError(c, h.store, fiber.StatusInternalServerError, "Could not create your account")
		}
		c.Status(fiber.StatusConflict)
		return render(c, h.store, "register", fiber.Map{
			"title":  "Register",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	addFlash(c, h.store, "success", "Your account has been created! You are now able to log in")
	return c.Redirect("/login", fiber.StatusFound)
}

// HandleLoginPage shows the login form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return render(c, h.store, "login", fiber.Map{
		"title": "Login",
		"form":  LoginForm{},
		"next":  safeNext(c.Query("next")),
	})
}

// HandleLogin authenticates the user and establishes the session identity.
// On success the user is sent back to the page they originally requested.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	var form LoginForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "login", fiber.Map{
			"title":  "Login",
			"form":   form,
			"errors": fieldErrors,
			"next":   safeNext(form.Next),
		})
	}

	user, err := h.authService.Authenticate(form.Email, form.Password)
	if err != nil {
		// One generic message regardless of which half was wrong.
		c.Status(fiber.StatusUnauthorized)
		return render(c, h.store, "login", fiber.Map{
			"title":   "Login",
			"form":    form,
			"next":    safeNext(form.Next),
			"flashes": []Flash{{Category: "danger", Message: "Incorrect email or password"}},
		})
	}

	sess, err := h.store.Get(c)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not establish a session")
	}
	sess.Set(middleware.SessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save session: %v", err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not establish a session")
	}

	return c.Redirect(safeNext(form.Next), fiber.StatusFound)
}

// HandleLogout clears the session identity and returns to the home page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err == nil {
		if destroyErr := sess.Destroy(); destroyErr != nil {
			log.Printf("Failed to destroy session: %v", destroyErr)
		}
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleResetRequestPage shows the "request a reset email" form.
func (h *AuthHandler) HandleResetRequestPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return render(c, h.store, "reset_request", fiber.Map{
		"title": "Reset Password",
		"form":  RequestResetForm{},
	})
}

// HandleResetRequest issues a reset token and emails it. The response is
// identical whether or not the email is registered, to prevent enumeration.
func (h *AuthHandler) HandleResetRequest(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	var form RequestResetForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing reset request form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "reset_request", fiber.Map{
			"title":  "Reset Password",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	if user := h.authService.UserByEmail(form.Email); user != nil {
		token, err := h.authService.GetResetToken(user)
		if err != nil {
			log.Printf("Error issuing reset token for %s: %v", user.ID, err)
		} else if err := h.emailService.SendPasswordResetEmail(user.Email, token); err != nil {
			// Best-effort delivery; the user still sees the neutral flash.
			log.Printf("Error sending reset email: %v", err)
		}
	}

	addFlash(c, h.store, "info", "An email has been sent with instructions to reset your password.")
	return c.Redirect("/login", fiber.StatusFound)
}

// HandleResetTokenPage verifies the token and, when valid, shows the
// new-password form.
func (h *AuthHandler) HandleResetTokenPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	user := h.authService.VerifyResetToken(c.Params("token"))
	if user == nil {
		addFlash(c, h.store, "warning", "That is an invalid or expired token")
		return c.Redirect("/reset_password", fiber.StatusFound)
	}

	return render(c, h.store, "reset_password", fiber.Map{
		"title": "Reset Password",
		"form":  ResetPasswordForm{},
	})
}

// HandleResetToken consumes a valid token and sets the new password.
func (h *AuthHandler) HandleResetToken(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	user := h.authService.VerifyResetToken(c.Params("token"))
	if user == nil {
		addFlash(c, h.store, "warning", "That is an invalid or expired token")
		return c.Redirect("/reset_password", fiber.StatusFound)
	}

	var form ResetPasswordForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing reset password form: %v", err)
		return renderError(c, h.store, fiber.StatusBadRequest, "Invalid form submission")
	}

	if fieldErrors := validateForm(h.validate, form); fieldErrors != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, h.store, "reset_password", fiber.Map{
			"title":  "Reset Password",
			"form":   form,
			"errors": fieldErrors,
		})
	}

	if err := h.authService.SetPassword(user, form.Password); err != nil {
		log.Printf("Error resetting password for %s: %v", user.ID, err)
		return renderError(c, h.store, fiber.StatusInternalServerError, "Could not update your password")
	}

	addFlash(c, h.store, "success", "Your password has been updated! You are now able to log in")
	return c.Redirect("/login", fiber.StatusFound)
}

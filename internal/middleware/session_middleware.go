package middleware

import (
	"log"

	"blog/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// SessionUserKey is the session key under which the authenticated user's ID
// is stored at login.
const SessionUserKey = "user_id"

// CurrentUserKey is the Locals key under which LoadUser exposes the
// resolved *models.User for handlers and templates.
const CurrentUserKey = "currentUser"

// LoadUser resolves the session identity to a user record on every request
// and stores it in the request Locals. No identity in the session, or a
// stale identity pointing at a deleted user, simply leaves Locals empty.
func LoadUser(store *session.Store, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			return c.Next()
		}

		userID, ok := sess.Get(SessionUserKey).(string)
		if !ok || userID == "" {
			return c.Next()
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			// Stale session; drop the identity so handlers see a guest.
			sess.Delete(SessionUserKey)
			if saveErr := sess.Save(); saveErr != nil {
				log.Printf("Failed to save session: %v", saveErr)
			}
			return c.Next()
		}

		c.Locals(CurrentUserKey, user)
		return c.Next()
	}
}

// RequireLogin is a Fiber middleware guarding authenticated pages. Guests
// are redirected to the login page with the originally requested path in
// the "next" query parameter.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals(CurrentUserKey) == nil {
			return c.Redirect("/login?next="+c.Path(), fiber.StatusFound)
		}
		return c.Next()
	}
}

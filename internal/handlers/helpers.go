package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"blog/internal/middleware"
	"blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const flashKey = "flashes"

// Flash is a one-time notification surfaced on the next rendered page.
type Flash struct {
	Category string `json:"category"` // success, info, warning, danger
	Message  string `json:"message"`
}

// currentUser returns the authenticated user loaded by the session
// middleware, or nil for guests.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(middleware.CurrentUserKey).(*models.User)
	return user
}

// addFlash appends a flash message to the session. Flashes are stored as a
// JSON blob so they survive any session storage backend.
func addFlash(c *fiber.Ctx, store *session.Store, category, message string) {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to load session for flash: %v", err)
		return
	}

	flashes := decodeFlashes(sess)
	flashes = append(flashes, Flash{Category: category, Message: message})

	encoded, err := json.Marshal(flashes)
	if err != nil {
		log.Printf("Failed to encode flashes: %v", err)
		return
	}
	sess.Set(flashKey, string(encoded))
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}

// popFlashes returns pending flash messages and clears them.
func popFlashes(c *fiber.Ctx, store *session.Store) []Flash {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to load session for flash: %v", err)
		return nil
	}

	flashes := decodeFlashes(sess)
	if len(flashes) > 0 {
		sess.Delete(flashKey)
		if err := sess.Save(); err != nil {
			log.Printf("Failed to save session: %v", err)
		}
	}
	return flashes
}

func decodeFlashes(sess *session.Session) []Flash {
	raw, ok := sess.Get(flashKey).(string)
	if !ok || raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

// render draws a template with the ambient bindings every page expects:
// the current user and pending flash messages. Handlers that must show a
// message in the same request (no redirect in between) bind "flashes"
// themselves; those take precedence over the session.
func render(c *fiber.Ctx, store *session.Store, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	bind["user"] = currentUser(c)
	if _, ok := bind["flashes"]; !ok {
		bind["flashes"] = popFlashes(c, store)
	}
	return c.Render(name, bind)
}

// renderError draws the shared error page with the given HTTP status.
func renderError(c *fiber.Ctx, store *session.Store, status int, message string) error {
	c.Status(status)
	return render(c, store, "error", fiber.Map{
		"title":   "Error",
		"status":  status,
		"message": message,
	})
}

// safeNext validates a post-login redirect target; only same-site paths are
// honored to avoid open redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

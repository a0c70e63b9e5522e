package repositories

import "blog/internal/models"

// PostRepository defines the interface for post data access.
// All listings are ordered by date_posted descending (newest first).
type PostRepository interface {
	ListAll() ([]models.Post, error)
	ListByAuthor(userID string) ([]models.Post, error)
	GetByID(id string) (*models.Post, error)
	Create(post *models.Post) error
	Update(post *models.Post) error
	Delete(id string) error
}

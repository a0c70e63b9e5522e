package repositories

import (
	"errors"
	"fmt"

	"blog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// ListAll retrieves every post, newest first.
func (r *GORMPostRepository) ListAll() ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.Preload("Author").Order("date_posted DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor retrieves all posts written by one user, newest first.
func (r *GORMPostRepository) ListByAuthor(userID string) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.Preload("Author").Where("user_id = ?", userID).
		Order("date_posted DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts for user %s: %w", userID, err)
	}
	return posts, nil
}

// GetByID retrieves a single post by its ID.
func (r *GORMPostRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by ID %s: %w", id, err)
	}
	return &post, nil
}

// Create creates a new post in the database.
func (r *GORMPostRepository) Create(post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if err := r.db.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update persists changes to an existing post.
func (r *GORMPostRepository) Update(post *models.Post) error {
	res := r.db.Omit("Author").Save(post) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post with ID %s for update: %w", post.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a post by its ID.
func (r *GORMPostRepository) Delete(id string) error {
	res := r.db.Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}

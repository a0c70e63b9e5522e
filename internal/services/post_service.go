package services

import (
	"errors"
	"time"

	"blog/internal/models"
	"blog/internal/repositories"
)

// ErrForbidden is returned when a user attempts to mutate a post they do
// not own. No mutation is performed in that case.
var ErrForbidden = errors.New("forbidden: not the author of this post")

// PostService handles business logic related to posts, including the
// ownership check guarding every mutation.
type PostService struct {
	repo repositories.PostRepository
}

// NewPostService creates a new PostService.
func NewPostService(repo repositories.PostRepository) *PostService {
	return &PostService{
		repo: repo,
	}
}

// ListPosts retrieves all posts, newest first.
func (s *PostService) ListPosts() ([]models.Post, error) {
	return s.repo.ListAll()
}

// ListPostsByAuthor retrieves one user's posts, newest first.
func (s *PostService) ListPostsByAuthor(userID string) ([]models.Post, error) {
	return s.repo.ListByAuthor(userID)
}

// GetPostByID retrieves a single post by its ID.
func (s *PostService) GetPostByID(id string) (*models.Post, error) {
	return s.repo.GetByID(id)
}

// CreatePost creates a new post owned by authorID. imageFile may be empty,
// in which case the model's default placeholder applies.
func (s *PostService) CreatePost(authorID, title, content, imageFile string) (*models.Post, error) {
	post := &models.Post{
		Title:      title,
		Content:    content,
		UserID:     authorID,
		DatePosted: time.Now(),
	}
	if imageFile != "" {
		post.ImageFile = imageFile
	}
	if err := s.repo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost edits a post's title and content, and its image when a new
// imageFile is supplied; an empty imageFile leaves the existing image
// untouched. The ownership check runs against the stored record immediately
// before the write and is never cached.
func (s *PostService) UpdatePost(postID, actorID, title, content, imageFile string) (*models.Post, error) {
	post, err := s.repo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, ErrForbidden
	}

	post.Title = title
	post.Content = content
	if imageFile != "" {
		post.ImageFile = imageFile
	}
	if err := s.repo.Update(post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post after re-verifying ownership.
func (s *PostService) DeletePost(postID, actorID string) error {
	post, err := s.repo.GetByID(postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return ErrForbidden
	}
	return s.repo.Delete(postID)
}

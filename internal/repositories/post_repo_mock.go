package repositories

import (
	"fmt"
	"sort"
	"sync"

	"blog/internal/models"

	"github.com/google/uuid"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	posts map[string]models.Post
	mu    sync.RWMutex
}

// NewMockPostRepository creates a new instance of MockPostRepository.
func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		posts: make(map[string]models.Post),
	}
}

func sortNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].DatePosted.After(posts[j].DatePosted)
	})
}

// ListAll returns every post, newest first.
func (r *MockPostRepository) ListAll() ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	postList := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		postList = append(postList, p)
	}
	sortNewestFirst(postList)
	return postList, nil
}

// ListByAuthor returns one user's posts, newest first.
func (r *MockPostRepository) ListByAuthor(userID string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var postList []models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			postList = append(postList, p)
		}
	}
	sortNewestFirst(postList)
	return postList, nil
}

// GetByID returns a post by its ID.
func (r *MockPostRepository) GetByID(id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with ID %s: %w", id, ErrNotFound)
	}
	return &post, nil
}

// Create adds a new post.
func (r *MockPostRepository) Create(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	r.posts[post.ID] = *post
	return nil
}

// Update modifies an existing post.
func (r *MockPostRepository) Update(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("post with ID %s for update: %w", post.ID, ErrNotFound)
	}
	r.posts[post.ID] = *post
	return nil
}

// Delete removes a post by its ID.
func (r *MockPostRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post with ID %s for deletion: %w", id, ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

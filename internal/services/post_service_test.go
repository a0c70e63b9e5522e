package services_test

import (
	"testing"
	"time"

	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/stretchr/testify/assert"
)

func newPostFixture(t *testing.T) (*services.PostService, *repositories.MockPostRepository) {
	t.Helper()
	repo := repositories.NewMockPostRepository()
	return services.NewPostService(repo), repo
}

func TestPostService_CreateAndGet(t *testing.T) {
	postService, _ := newPostFixture(t)

	post, err := postService.CreatePost("alice-id", "Hello", "World", "")
	assert.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "alice-id", post.UserID)
	assert.False(t, post.DatePosted.IsZero())

	got, err := postService.GetPostByID(post.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "World", got.Content)
}

func TestPostService_GetMissing(t *testing.T) {
	postService, _ := newPostFixture(t)

	_, err := postService.GetPostByID("no-such-id")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostService_OwnershipOnUpdate(t *testing.T) {
	postService, _ := newPostFixture(t)

	post, err := postService.CreatePost("alice-id", "Alice's post", "original content", "")
	assert.NoError(t, err)

	// A non-author gets forbidden and the post is unchanged.
	_, err = postService.UpdatePost(post.ID, "bob-id", "hijacked", "hijacked", "")
	assert.ErrorIs(t, err, services.ErrForbidden)

	unchanged, err := postService.GetPostByID(post.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Alice's post", unchanged.Title)
	assert.Equal(t, "original content", unchanged.Content)

	// The author can edit.
	updated, err := postService.UpdatePost(post.ID, "alice-id", "new title", "new content", "")
	assert.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
}

func TestPostService_OwnershipOnDelete(t *testing.T) {
	postService, _ := newPostFixture(t)

	post, err := postService.CreatePost("alice-id", "Alice's post", "content", "")
	assert.NoError(t, err)

	err = postService.DeletePost(post.ID, "bob-id")
	assert.ErrorIs(t, err, services.ErrForbidden)

	// Still there.
	_, err = postService.GetPostByID(post.ID)
	assert.NoError(t, err)

	err = postService.DeletePost(post.ID, "alice-id")
	assert.NoError(t, err)

	_, err = postService.GetPostByID(post.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostService_UpdateKeepsImageWhenNoneSupplied(t *testing.T) {
	postService, _ := newPostFixture(t)

	post, err := postService.CreatePost("alice-id", "title", "content", "abc123.png")
	assert.NoError(t, err)
	assert.Equal(t, "abc123.png", post.ImageFile)

	// No new image on update: the existing one must survive.
	updated, err := postService.UpdatePost(post.ID, "alice-id", "title2", "content2", "")
	assert.NoError(t, err)
	assert.Equal(t, "abc123.png", updated.ImageFile)

	// Supplying one replaces it.
	updated, err = postService.UpdatePost(post.ID, "alice-id", "title2", "content2", "def456.png")
	assert.NoError(t, err)
	assert.Equal(t, "def456.png", updated.ImageFile)
}

func TestPostService_ListingsNewestFirst(t *testing.T) {
	postService, repo := newPostFixture(t)

	// Seed with explicit timestamps out of insertion order.
	base := time.Now()
	for i, age := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		post, err := postService.CreatePost("alice-id", "post", "content", "")
		assert.NoError(t, err)
		post.Title = []string{"oldest", "middle", "newer"}[i]
		post.DatePosted = base.Add(-age)
		assert.NoError(t, repo.Update(post))
	}

	posts, err := postService.ListPosts()
	assert.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.Equal(t, "middle", posts[0].Title)
	assert.Equal(t, "newer", posts[1].Title)
	assert.Equal(t, "oldest", posts[2].Title)

	// A brand new post moves to the front of the ordering.
	newest, err := postService.CreatePost("alice-id", "breaking news", "content", "")
	assert.NoError(t, err)

	posts, err = postService.ListPosts()
	assert.NoError(t, err)
	assert.Equal(t, newest.ID, posts[0].ID)

	// Per-author listing only contains that author's posts, same ordering.
	_, err = postService.CreatePost("bob-id", "bob's post", "content", "")
	assert.NoError(t, err)

	alicePosts, err := postService.ListPostsByAuthor("alice-id")
	assert.NoError(t, err)
	assert.Len(t, alicePosts, 4)
	assert.Equal(t, "breaking news", alicePosts[0].Title)
	for _, p := range alicePosts {
		assert.Equal(t, "alice-id", p.UserID)
	}
}

package services_test

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"blog/internal/models"
	"blog/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	// Test successful registration
	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}

	mockRepo.On("GetByUsername", user.Username).Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	assert.NoError(t, err)
	// The plaintext must never survive registration.
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", user.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "username 'testuser' already taken")
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", user.Username).Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", user.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	// Successful login
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	got, err := authService.Authenticate("test@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	mockRepo.AssertExpectations(t)

	// Wrong password and unknown email must fail with the SAME error, so a
	// caller cannot tell which half was wrong.
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	_, errWrongPassword := authService.Authenticate("test@example.com", "wrongpassword")
	assert.ErrorIs(t, errWrongPassword, services.ErrInvalidCredentials)

	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, fmt.Errorf("not found")).Once()
	_, errUnknownEmail := authService.Authenticate("nobody@example.com", "password123")
	assert.ErrorIs(t, errUnknownEmail, services.ErrInvalidCredentials)

	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ResetTokenRoundTrip(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	user := &models.User{ID: "user-123", Username: "testuser", Email: "test@example.com"}

	token, err := authService.GetResetToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// A freshly issued token must resolve back to the same user.
	mockRepo.On("GetByID", user.ID).Return(user, nil).Once()
	got := authService.VerifyResetToken(token)
	assert.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_VerifyResetToken_Expired(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	// Forge a token with the right secret but an elapsed expiry.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Minute).Unix(),
		"iat":     time.Now().Add(-31 * time.Minute).Unix(),
	})
	tokenString, err := expired.SignedString([]byte("test_secret"))
	assert.NoError(t, err)

	// Must resolve to "no user", never raise, and never touch persistence.
	got := authService.VerifyResetToken(tokenString)
	assert.Nil(t, got)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestAuthService_VerifyResetToken_Tampered(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	user := &models.User{ID: "user-123"}
	token, err := authService.GetResetToken(user)
	assert.NoError(t, err)

	// Flip a byte in the signature segment.
	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	got := authService.VerifyResetToken(string(tampered))
	assert.Nil(t, got)

	// Garbage input fails closed as well.
	assert.Nil(t, authService.VerifyResetToken("not-a-token"))
	assert.Nil(t, authService.VerifyResetToken(""))
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestAuthService_VerifyResetToken_UserGone(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	user := &models.User{ID: "user-123"}
	token, err := authService.GetResetToken(user)
	assert.NoError(t, err)

	// Valid token, but the referenced user no longer exists.
	mockRepo.On("GetByID", user.ID).Return(nil, fmt.Errorf("not found")).Once()
	got := authService.VerifyResetToken(token)
	assert.Nil(t, got)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_SetPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	user := &models.User{ID: "user-123", Password: "old-hash"}
	mockRepo.On("Update", user).Return(nil).Once()

	err := authService.SetPassword(user, "newpassword")
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("newpassword")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_UpdateAccount(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_secret", 30*time.Minute)

	user := &models.User{ID: "user-123", Username: "alice", Email: "a@x.com", ImageFile: "default.jpg"}

	// Changing both fields, no new avatar: existing image must survive.
	mockRepo.On("GetByUsername", "alice2").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "a2@x.com").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Update", user).Return(nil).Once()

	err := authService.UpdateAccount(user, "alice2", "a2@x.com", "")
	assert.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "default.jpg", user.ImageFile)
	mockRepo.AssertExpectations(t)

	// A username held by someone else is rejected.
	mockRepo.On("GetByUsername", "bob").Return(&models.User{ID: "user-999"}, nil).Once()
	err = authService.UpdateAccount(user, "bob", user.Email, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
	mockRepo.AssertExpectations(t)
}

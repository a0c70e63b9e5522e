package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"blog/internal/models"
	"blog/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the single failure returned for a bad login,
// regardless of whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// dummyHash is compared against when the email is unknown, so both failure
// paths cost a bcrypt check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invalid-password-placeholder"), bcrypt.DefaultCost)

// AuthService handles registration, login verification, and the
// password-reset token lifecycle.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	resetTTL  time.Duration // validity window for reset tokens
}

// NewAuthService creates a new AuthService. resetTTL is the window during
// which an issued reset token remains valid.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, resetTTL time.Duration) *AuthService {
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		resetTTL:  resetTTL,
	}
}

// RegisterUser registers a new user, hashes their password, and saves them
// to the database.
func (s *AuthService) RegisterUser(user *models.User) error {
	// Check if username or email already exists
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s' already taken", user.Username)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered", user.Email)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword) // Store the hashed password

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// Authenticate verifies an email/password pair and returns the matching
// user. Any failure yields ErrInvalidCredentials; callers must not learn
// whether the email exists.
func (s *AuthService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Burn a hash check anyway so unknown emails cost the same.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByEmail looks up a user for the reset-request flow. It returns nil
// for an unknown email; the caller's response must not depend on the
// difference.
func (s *AuthService) UserByEmail(email string) *models.User {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil
	}
	return user
}

// UpdateAccount changes a user's username, email, and optionally their
// avatar. Uniqueness checks skip the user's own record; an empty imageFile
// keeps the current avatar.
func (s *AuthService) UpdateAccount(user *models.User, username, email, imageFile string) error {
	if username != user.Username {
		if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil && existing.ID != user.ID {
			return fmt.Errorf("username '%s' already taken", username)
		}
	}
	if email != user.Email {
		if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil && existing.ID != user.ID {
			return fmt.Errorf("email '%s' already registered", email)
		}
	}

	user.Username = username
	user.Email = email
	if imageFile != "" {
		user.ImageFile = imageFile
	}

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// SetPassword hashes a new plaintext password and persists it on the user.
func (s *AuthService) SetPassword(user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetResetToken issues a signed, time-limited token embedding the user's ID.
// The token is never persisted; possession plus the signature proves the
// reset request.
func (s *AuthService) GetResetToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     now.Add(s.resetTTL).Unix(), // Token expiration time
		"iat":     now.Unix(),                 // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return tokenString, nil
}

// VerifyResetToken decodes a reset token and returns the referenced user.
// A tampered signature, malformed payload, elapsed expiry, or missing user
// all resolve to nil; callers treat nil uniformly as "invalid or expired".
func (s *AuthService) VerifyResetToken(tokenString string) *models.User {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		log.Printf("Reset token rejected: %v", err)
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}

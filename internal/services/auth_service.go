package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// Error texts are user-facing; handlers pass them through verbatim.
var (
	ErrMissingFields      = errors.New("email, password and name are required")
	ErrEmailTaken         = errors.New("Email already in use. Please use a different email.")
	ErrAccountNotFound    = errors.New("User not found. Please check your email and password.")
	ErrInvalidCredentials = errors.New("Invalid credentials. Please check your email and password.")
	ErrWeakPassword       = errors.New("Password is too weak. Please choose a stronger password.")
)

const defaultAvatarURL = "https://images.rawpixel.com/image_800/czNmcy1wcml2YXRlL3Jhd3BpeGVsX2ltYWdlcy93ZWJzaXRlX2NvbnRlbnQvbHIvdjkzNy1hZXctMTExXzMuanBn.jpg"

const minPasswordLength = 6

// AuthService owns registration, credential checks, presence stamps and
// token issuance.
type AuthService struct {
	users     repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(users repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// Register validates input, hashes the password and creates the account with
// its default profile. Validation failures never reach the store.
func (s *AuthService) Register(ctx context.Context, email, password, name, phone string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return models.User{}, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, email, string(hash), name, phone, defaultAvatarURL)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// Login verifies the credentials, marks the account online and returns a
// signed token alongside the profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, "", ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, "", ErrAccountNotFound
		}
		return models.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	if err := s.users.SetPresence(ctx, user.ID, true); err != nil {
		return models.User{}, "", err
	}
	user.IsOnline = true
	user.LastSeen = time.Now().UTC()

	token, err := s.issueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Logout marks the account offline and stamps last_seen.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.users.SetPresence(ctx, userID, false)
}

func (s *AuthService) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"messenger-service/internal/middleware"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(new(mocks.MockUserRepository), "secret")

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  error
	}{
		{"missing email", "", "secret123", "Ann", ErrMissingFields},
		{"missing password", "a@b.c", "", "Ann", ErrMissingFields},
		{"missing name", "a@b.c", "secret123", "  ", ErrMissingFields},
		{"short password", "a@b.c", "12345", "Ann", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.userName, "")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterNormalizesEmailAndHashesPassword(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	users.On("Create", mock.Anything, "ann@example.com", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")) == nil
	}), "Ann", "", defaultAvatarURL).Return(models.User{ID: 1, Email: "ann@example.com"}, nil).Once()

	user, err := svc.Register(context.Background(), "  Ann@Example.COM ", "secret123", "Ann", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	users.AssertExpectations(t)
}

func TestRegisterEmailTaken(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	users.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	_, err := svc.Register(context.Background(), "ann@example.com", "secret123", "Ann", "")
	require.ErrorIs(t, err, ErrEmailTaken)
	users.AssertExpectations(t)
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "ann@example.com").
		Return(models.User{ID: 7, Username: "ann", PasswordHash: string(hash)}, nil).Once()
	users.On("SetPresence", mock.Anything, int64(7), true).Return(nil).Once()

	user, token, err := svc.Login(context.Background(), "ann@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, user.IsOnline)

	userID, username, err := middleware.ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "ann", username)
	users.AssertExpectations(t)
}

func TestLoginUnknownAccount(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "secret123")
	require.ErrorIs(t, err, ErrAccountNotFound)
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "ann@example.com").
		Return(models.User{ID: 7, PasswordHash: string(hash)}, nil).Once()

	_, _, err = svc.Login(context.Background(), "ann@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	users.AssertExpectations(t)
}

func TestLogoutStampsPresence(t *testing.T) {
	users := new(mocks.MockUserRepository)
	svc := NewAuthService(users, "secret")

	users.On("SetPresence", mock.Anything, int64(7), false).Return(nil).Once()

	require.NoError(t, svc.Logout(context.Background(), 7))
	users.AssertExpectations(t)
}

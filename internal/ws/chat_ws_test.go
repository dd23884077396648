package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signWSToken(t *testing.T, secret string, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  float64(userID),
		"username": "ann",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func wsTestContext(t *testing.T, authHeader, queryToken string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	target := "/ws/chats/1"
	if queryToken != "" {
		target += "?token=" + queryToken
	}
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	return c, rec
}

func TestAuthenticateBearerHeader(t *testing.T) {
	token := signWSToken(t, "secret", 7)
	c, _ := wsTestContext(t, "Bearer "+token, "")

	userID, ok := authenticate(c, "secret")
	require.True(t, ok)
	require.Equal(t, int64(7), userID)
}

func TestAuthenticateQueryToken(t *testing.T) {
	token := signWSToken(t, "secret", 7)
	c, _ := wsTestContext(t, "", token)

	userID, ok := authenticate(c, "secret")
	require.True(t, ok)
	require.Equal(t, int64(7), userID)
}

func TestAuthenticateMalformedHeaderFallsBackToQuery(t *testing.T) {
	token := signWSToken(t, "secret", 7)
	// A non-bearer header must not shadow a valid query token.
	c, _ := wsTestContext(t, "Basic dXNlcjpwYXNz", token)

	userID, ok := authenticate(c, "secret")
	require.True(t, ok)
	require.Equal(t, int64(7), userID)
}

func TestAuthenticateRejectsMissingCredentials(t *testing.T) {
	c, rec := wsTestContext(t, "", "")

	_, ok := authenticate(c, "secret")
	require.False(t, ok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	token := signWSToken(t, "other-secret", 7)
	c, rec := wsTestContext(t, "Bearer "+token, "")

	_, ok := authenticate(c, "secret")
	require.False(t, ok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

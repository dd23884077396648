package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// AuthHandler exposes registration and session endpoints.
type AuthHandler struct {
	auth  *services.AuthService
	audit *telemetry.AuditEmitter
}

func NewAuthHandler(auth *services.AuthService, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit}
}

type registerBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	requestID := requestIDFromHeader(c)

	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Register(ctx, body.Email, body.Password, body.Name, body.Phone)
	if err != nil {
		h.emitAudit(ctx, "ERROR", "registration failed", requestID, nil)
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrMissingFields), errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}

	h.emitAudit(ctx, "INFO", "account registered", requestID, &user.ID)
	c.JSON(http.StatusCreated, user)
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	requestID := requestIDFromHeader(c)

	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, token, err := h.auth.Login(ctx, body.Email, body.Password)
	if err != nil {
		h.emitAudit(ctx, "ERROR", "login failed", requestID, nil)
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	h.emitAudit(ctx, "INFO", "user logged in", requestID, &user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.auth.Logout(ctx, userID); err != nil {
		h.emitAudit(ctx, "ERROR", "logout failed", requestID, &userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	h.emitAudit(ctx, "INFO", "user logged out", requestID, &userID)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) emitAudit(ctx context.Context, level, text, requestID string, userID *int64) {
	if h.audit == nil {
		return
	}
	h.audit.EmitAudit(ctx, level, text, requestID, userID)
}

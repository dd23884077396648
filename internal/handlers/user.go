package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/storage"
)

// UserHandler exposes profile endpoints.
type UserHandler struct {
	users  repositories.UserRepository
	social repositories.SocialRepository
	blobs  storage.BlobStore
}

func NewUserHandler(users repositories.UserRepository, social repositories.SocialRepository, blobs storage.BlobStore) *UserHandler {
	return &UserHandler{users: users, social: social, blobs: blobs}
}

// GetMe returns the caller's profile together with their friend list and
// pending incoming invites.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := mustUserID(c)
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	friendIDs, err := h.social.ListFriends(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	incoming, err := h.social.ListIncomingInvites(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}

	friends := make([]models.User, 0, len(friendIDs))
	for _, fid := range friendIDs {
		friend, err := h.users.GetByID(ctx, fid)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch friend info"})
			return
		}
		friends = append(friends, friend)
	}

	invitesWithSenders := make([]gin.H, 0, len(incoming))
	for _, inv := range incoming {
		sender, err := h.users.GetByID(ctx, inv.FromUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inviter info"})
			return
		}
		invitesWithSenders = append(invitesWithSenders, gin.H{
			"id":           inv.ID,
			"from_user_id": inv.FromUserID,
			"from_name":    sender.Name,
			"avatar_url":   sender.AvatarURL,
			"created_at":   inv.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"friends":          friends,
		"incoming_invites": invitesWithSenders,
	})
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a partial update. Absent fields stay untouched.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := mustUserID(c)

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if err := h.users.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadAvatar stores the uploaded image in the blob store and records its URL.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID := mustUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("avatars/%s/%s%s",
		strconv.FormatInt(userID, 10), uuid.NewString(), filepath.Ext(file.Filename))

	ctx := c.Request.Context()
	avatarURL, err := h.blobs.Upload(ctx, objectName, src, file.Size, contentType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store file"})
		return
	}

	if err := h.users.SetAvatarURL(ctx, userID, avatarURL); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID := mustUserID(c)

	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}

	c.Status(http.StatusNoContent)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// FriendHandler manages the social graph endpoints.
type FriendHandler struct {
	social  *services.SocialService
	users   repositories.UserRepository
	invites repositories.SocialRepository
	audit   *telemetry.AuditEmitter
}

func NewFriendHandler(social *services.SocialService, users repositories.UserRepository, invites repositories.SocialRepository, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{social: social, users: users, invites: invites, audit: audit}
}

type inviteBody struct {
	ToUserID int64 `json:"to_user_id" binding:"required"`
}

func (h *FriendHandler) SendInvite(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	var body inviteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		observability.IncFriendOp("invite_send", observability.StatusFailed)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetByID(ctx, body.ToUserID); err != nil {
		h.emitAudit(ctx, "ERROR", "invite target not found", requestID, &userID)
		observability.IncFriendOp("invite_send", observability.StatusFailed)
		c.JSON(http.StatusNotFound, gin.H{"error": "target user not found"})
		return
	}

	if err := h.social.SendInvite(ctx, userID, body.ToUserID); err != nil {
		h.emitAudit(ctx, "ERROR", "invite rejected", requestID, &userID)
		observability.IncFriendOp("invite_send", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Friend invite sent to '"+strconv.FormatInt(body.ToUserID, 10)+"'", requestID, &userID)
	observability.IncFriendOp("invite_send", observability.StatusSuccess)
	c.JSON(http.StatusCreated, gin.H{"status": "invite sent"})
}

func (h *FriendHandler) CancelInvite(c *gin.Context) {
	toUserID, ok := parseIDParam(c, "user_id")
	if !ok {
		observability.IncFriendOp("invite_cancel", observability.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.social.CancelInvite(ctx, userID, toUserID); err != nil {
		h.emitAudit(ctx, "ERROR", "invite cancel failed", requestID, &userID)
		observability.IncFriendOp("invite_cancel", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Friend invite cancelled", requestID, &userID)
	observability.IncFriendOp("invite_cancel", observability.StatusSuccess)
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) AcceptInvite(c *gin.Context) {
	inviterID, ok := parseIDParam(c, "user_id")
	if !ok {
		observability.IncFriendOp("invite_accept", observability.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.social.AcceptInvite(ctx, userID, inviterID); err != nil {
		h.emitAudit(ctx, "ERROR", "invite accept failed", requestID, &userID)
		observability.IncFriendOp("invite_accept", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Friend invite accepted", requestID, &userID)
	observability.IncFriendOp("invite_accept", observability.StatusSuccess)
	c.JSON(http.StatusOK, gin.H{"status": "friends"})
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	friendID, ok := parseIDParam(c, "user_id")
	if !ok {
		observability.IncFriendOp("friend_remove", observability.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.social.RemoveFriend(ctx, userID, friendID); err != nil {
		h.emitAudit(ctx, "ERROR", "friend removal failed", requestID, &userID)
		observability.IncFriendOp("friend_remove", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Friendship removed", requestID, &userID)
	observability.IncFriendOp("friend_remove", observability.StatusSuccess)
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) BlockUser(c *gin.Context) {
	blockedID, ok := parseIDParam(c, "user_id")
	if !ok {
		observability.IncFriendOp("block", observability.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.social.BlockUser(ctx, userID, blockedID); err != nil {
		h.emitAudit(ctx, "ERROR", "block failed", requestID, &userID)
		observability.IncFriendOp("block", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "User '"+strconv.FormatInt(blockedID, 10)+"' blocked", requestID, &userID)
	observability.IncFriendOp("block", observability.StatusSuccess)
	c.JSON(http.StatusOK, gin.H{"status": "blocked"})
}

func (h *FriendHandler) UnblockUser(c *gin.Context) {
	blockedID, ok := parseIDParam(c, "user_id")
	if !ok {
		observability.IncFriendOp("unblock", observability.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := mustUserID(c)

	ctx := c.Request.Context()
	if err := h.social.UnblockUser(ctx, userID, blockedID); err != nil {
		h.emitAudit(ctx, "ERROR", "unblock failed", requestID, &userID)
		observability.IncFriendOp("unblock", observability.StatusFailed)
		h.renderSocialError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "User unblocked", requestID, &userID)
	observability.IncFriendOp("unblock", observability.StatusSuccess)
	c.Status(http.StatusNoContent)
}

// Status reports the caller's relationship to another user.
func (h *FriendHandler) Status(c *gin.Context) {
	otherID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	userID := mustUserID(c)

	status, err := h.social.RelationshipStatus(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := mustUserID(c)
	ctx := c.Request.Context()

	friendIDs, err := h.invites.ListFriends(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch friends"})
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

	c.JSON(http.StatusOK, friends)
}

func (h *FriendHandler) ListIncoming(c *gin.Context) {
	h.listInvites(c, h.invites.ListIncomingInvites, func(inv models.FriendInvite) int64 { return inv.FromUserID })
}

func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	h.listInvites(c, h.invites.ListOutgoingInvites, func(inv models.FriendInvite) int64 { return inv.ToUserID })
}

func (h *FriendHandler) listInvites(c *gin.Context, load func(ctx context.Context, userID int64) ([]models.FriendInvite, error), counterpart func(models.FriendInvite) int64) {
	userID := mustUserID(c)
	ctx := c.Request.Context()

	invites, err := load(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}

	resp := make([]gin.H, 0, len(invites))
	for _, inv := range invites {
		other, err := h.users.GetByID(ctx, counterpart(inv))
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user info"})
			return
		}
		resp = append(resp, gin.H{
			"id":         inv.ID,
			"user_id":    other.ID,
			"name":       other.Name,
			"avatar_url": other.AvatarURL,
			"created_at": inv.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FriendHandler) renderSocialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSelfAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyFriends), errors.Is(err, services.ErrInvitePending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBlockedPair):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoInvite):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func (h *FriendHandler) emitAudit(ctx context.Context, level, text, requestID string, userID *int64) {
	if h.audit == nil {
		return
	}
	h.audit.EmitAudit(ctx, level, text, requestID, userID)
}

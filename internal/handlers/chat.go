package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/events"
	"messenger-service/internal/models"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/ws"
)

// ChatHandler manages private chat endpoints.
type ChatHandler struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	social    repositories.SocialRepository
	users     repositories.UserRepository
	previews  *services.PreviewService
	hub       *ws.Hub
	bus       *events.Bus
	publisher rabbitmq.Publisher
}

func NewChatHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, social repositories.SocialRepository, users repositories.UserRepository, previews *services.PreviewService, hub *ws.Hub, bus *events.Bus, publisher rabbitmq.Publisher) *ChatHandler {
	return &ChatHandler{
		chats:     chats,
		messages:  messages,
		social:    social,
		users:     users,
		previews:  previews,
		hub:       hub,
		bus:       bus,
		publisher: publisher,
	}
}

// ListChats returns the caller's chats, most recently active first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := mustUserID(c)

	chats, err := h.chats.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	type chatResponse struct {
		ChatID        int64               `json:"chat_id"`
		FriendID      int64               `json:"friend_id"`
		MessagesCount int64               `json:"messages_count"`
		LastMessage   *models.LastMessage `json:"last_message"`
		CreatedAt     time.Time           `json:"created_at"`
		LastUpdated   time.Time           `json:"last_updated"`
	}

	resp := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		resp = append(resp, chatResponse{
			ChatID:        chat.ID,
			FriendID:      chat.OtherParticipant(userID),
			MessagesCount: chat.MessagesCount,
			LastMessage:   chat.LastMessage(),
			CreatedAt:     chat.CreatedAt,
			LastUpdated:   chat.LastUpdated,
		})
	}

	c.JSON(http.StatusOK, gin.H{"chats": resp})
}

// StartChat resolves the unique thread with a friend, creating it on first use.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		FriendID int64 `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := mustUserID(c)
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	ctx := c.Request.Context()
	friends, err := h.social.AreFriends(ctx, userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate friendship"})
		return
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return
	}

	chat, err := h.chats.ResolveOrCreateChat(ctx, userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID})
}

// GetChatMessages returns all messages of a chat, oldest first.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id")
	if !ok {
		return
	}
	userID := mustUserID(c)

	ctx := c.Request.Context()
	member, err := h.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	msgs, err := h.messages.ListMessages(ctx, chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderNames := map[int64]string{}
	for _, m := range msgs {
		if _, ok := senderNames[m.SenderID]; ok {
			continue
		}
		sender, err := h.users.GetByID(ctx, m.SenderID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				senderNames[m.SenderID] = ""
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
			return
		}
		senderNames[m.SenderID] = sender.Name
	}

	type messageResponse struct {
		models.Message
		SenderName string `json:"sender_name,omitempty"`
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderName: senderNames[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// PostChatMessage stores a message, updates the chat summary and broadcasts it.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id")
	if !ok {
		return
	}
	userID := mustUserID(c)

	ctx := c.Request.Context()
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	var req struct {
		Text     string  `json:"text"`
		ImageURL *string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && req.ImageURL == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	msg, err := h.messages.CreateMessage(ctx, chatID, userID, req.Text, req.ImageURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastChatMessage(chatID, msg)
	h.bus.Notify(chat.User1ID, chat.User2ID)
	if h.publisher != nil {
		_ = h.publisher.Publish(ctx, "chat.message.sent", gin.H{
			"chat_id":   chatID,
			"sender_id": userID,
			"sent_at":   msg.CreatedAt,
		})
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead records that the caller has seen the chat's messages.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id")
	if !ok {
		return
	}
	userID := mustUserID(c)

	ctx := c.Request.Context()
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	if err := h.messages.MarkMessagesRead(ctx, chatID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	h.hub.BroadcastRead(chatID, userID)
	h.bus.Notify(userID)
	c.Status(http.StatusNoContent)
}

// SetTyping flips the caller's typing flag on the chat.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id")
	if !ok {
		return
	}
	userID := mustUserID(c)

	var req struct {
		Typing *bool `json:"typing" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	if err := h.chats.SetTyping(ctx, chatID, userID, *req.Typing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update typing state"})
		return
	}

	h.hub.BroadcastTyping(chatID, userID, *req.Typing)
	c.Status(http.StatusNoContent)
}

// GetPreviews returns a one-shot snapshot of the caller's chat previews.
func (h *ChatHandler) GetPreviews(c *gin.Context) {
	userID := mustUserID(c)

	previews, err := h.previews.BuildPreviews(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build previews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"previews": previews})
}

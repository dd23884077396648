package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// MockUserRepository mocks UserRepository behavior for handlers and services.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, email, passwordHash, name, phone, avatarURL string) (models.User, error) {
	args := m.Called(ctx, email, passwordHash, name, phone, avatarURL)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockUserRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	args := m.Called(ctx, id, avatarURL)
	return args.Error(0)
}

func (m *MockUserRepository) SetPresence(ctx context.Context, id int64, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSocialRepository mocks SocialRepository behavior.
type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) CreateInvite(ctx context.Context, fromUserID, toUserID int64) error {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Error(0)
}

func (m *MockSocialRepository) DeleteInvite(ctx context.Context, fromUserID, toUserID int64) error {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Error(0)
}

func (m *MockSocialRepository) AcceptInvite(ctx context.Context, accepterID, inviterID int64) error {
	args := m.Called(ctx, accepterID, inviterID)
	return args.Error(0)
}

func (m *MockSocialRepository) RemoveFriendship(ctx context.Context, userID, friendID int64) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *MockSocialRepository) Block(ctx context.Context, blockerID, blockedID int64) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *MockSocialRepository) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *MockSocialRepository) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSocialRepository) HasInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSocialRepository) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSocialRepository) ListFriends(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *MockSocialRepository) ListIncomingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error) {
	args := m.Called(ctx, userID)
	var invites []models.FriendInvite
	if val := args.Get(0); val != nil {
		invites = val.([]models.FriendInvite)
	}
	return invites, args.Error(1)
}

func (m *MockSocialRepository) ListOutgoingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error) {
	args := m.Called(ctx, userID)
	var invites []models.FriendInvite
	if val := args.Get(0); val != nil {
		invites = val.([]models.FriendInvite)
	}
	return invites, args.Error(1)
}

// MockChatRepository mocks ChatRepository behavior.
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) ResolveOrCreateChat(ctx context.Context, userID, friendID int64) (models.Chat, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *MockChatRepository) GetChat(ctx context.Context, chatID int64) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *MockChatRepository) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *MockChatRepository) SetTyping(ctx context.Context, chatID, userID int64, typing bool) error {
	args := m.Called(ctx, chatID, userID, typing)
	return args.Error(0)
}

// MockMessageRepository mocks MessageRepository behavior.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, chatID, senderID int64, text string, imageURL *string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text, imageURL)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MockMessageRepository) ListMessages(ctx context.Context, chatID int64) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) MarkMessagesRead(ctx context.Context, chatID, userID int64) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

var (
	_ repositories.UserRepository    = (*MockUserRepository)(nil)
	_ repositories.SocialRepository  = (*MockSocialRepository)(nil)
	_ repositories.ChatRepository    = (*MockChatRepository)(nil)
	_ repositories.MessageRepository = (*MockMessageRepository)(nil)
)

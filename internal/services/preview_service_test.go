package services

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/events"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func chatWithLastMessage(id, user1, user2, senderID int64, text string, at time.Time, readBy []int64) models.Chat {
	return models.Chat{
		ID:                  id,
		User1ID:             user1,
		User2ID:             user2,
		LastMessageText:     &text,
		LastMessageSenderID: &senderID,
		LastMessageAt:       &at,
		LastMessageReadBy:   pq.Int64Array(readBy),
	}
}

func TestBuildPreviewsEmptyFriendList(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	chats := new(mocks.MockChatRepository)
	users := new(mocks.MockUserRepository)
	svc := NewPreviewService(social, chats, users, events.NewBus())

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{}, nil).Once()

	previews, err := svc.BuildPreviews(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, previews)
	assert.Empty(t, previews)

	chats.AssertNotCalled(t, "ListChatsForUser", mock.Anything, mock.Anything)
	social.AssertExpectations(t)
}

func TestBuildPreviewsSortsNewestFirstZerosLast(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	chats := new(mocks.MockChatRepository)
	users := new(mocks.MockUserRepository)
	svc := NewPreviewService(social, chats, users, events.NewBus())

	now := time.Now()
	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{2, 3, 4}, nil).Once()
	chats.On("ListChatsForUser", mock.Anything, int64(1)).Return([]models.Chat{
		chatWithLastMessage(10, 1, 2, 2, "old", now.Add(-time.Hour), []int64{2}),
		chatWithLastMessage(11, 1, 3, 3, "new", now, []int64{3}),
	}, nil).Once()
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2, Name: "Ann"}, nil).Once()
	users.On("GetByID", mock.Anything, int64(3)).Return(models.User{ID: 3, Name: "Bob"}, nil).Once()
	users.On("GetByID", mock.Anything, int64(4)).Return(models.User{ID: 4, Name: "Cal"}, nil).Once()

	previews, err := svc.BuildPreviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, previews, 3)

	assert.Equal(t, int64(3), previews[0].FriendID)
	assert.Equal(t, int64(2), previews[1].FriendID)
	// Friend without a chat sorts last regardless of list position.
	assert.Equal(t, int64(4), previews[2].FriendID)
	assert.Zero(t, previews[2].SortTimestamp)
}

func TestBuildPreviewsPlaceholderForNoMessages(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	chats := new(mocks.MockChatRepository)
	users := new(mocks.MockUserRepository)
	svc := NewPreviewService(social, chats, users, events.NewBus())

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{2}, nil).Once()
	chats.On("ListChatsForUser", mock.Anything, int64(1)).Return([]models.Chat{
		{ID: 10, User1ID: 1, User2ID: 2},
	}, nil).Once()
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2, Name: "Ann"}, nil).Once()

	previews, err := svc.BuildPreviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, previews, 1)

	assert.Equal(t, "Say hi!", previews[0].LastMessageText)
	assert.Empty(t, previews[0].TimeLabel)
	assert.Zero(t, previews[0].SortTimestamp)
	assert.False(t, previews[0].IsUnread)
	require.NotNil(t, previews[0].ChatID)
	assert.Equal(t, int64(10), *previews[0].ChatID)
}

func TestBuildPreviewsUnreadFlag(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		chat   models.Chat
		unread bool
	}{
		{"incoming unseen", chatWithLastMessage(10, 1, 2, 2, "hi", now, []int64{2}), true},
		{"incoming seen", chatWithLastMessage(10, 1, 2, 2, "hi", now, []int64{2, 1}), false},
		{"own message", chatWithLastMessage(10, 1, 2, 1, "hi", now, []int64{1}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			social := new(mocks.MockSocialRepository)
			chats := new(mocks.MockChatRepository)
			users := new(mocks.MockUserRepository)
			svc := NewPreviewService(social, chats, users, events.NewBus())

			social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{2}, nil).Once()
			chats.On("ListChatsForUser", mock.Anything, int64(1)).Return([]models.Chat{tt.chat}, nil).Once()
			users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2, Name: "Ann"}, nil).Once()

			previews, err := svc.BuildPreviews(context.Background(), 1)
			require.NoError(t, err)
			require.Len(t, previews, 1)
			assert.Equal(t, tt.unread, previews[0].IsUnread)
		})
	}
}

func TestBuildPreviewsDropsMissingProfiles(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	chats := new(mocks.MockChatRepository)
	users := new(mocks.MockUserRepository)
	svc := NewPreviewService(social, chats, users, events.NewBus())

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{2, 3}, nil).Once()
	chats.On("ListChatsForUser", mock.Anything, int64(1)).Return([]models.Chat{}, nil).Once()
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{}, repositories.ErrUserNotFound).Once()
	users.On("GetByID", mock.Anything, int64(3)).Return(models.User{ID: 3, Name: "Bob"}, nil).Once()

	previews, err := svc.BuildPreviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, int64(3), previews[0].FriendID)
}

func TestSubscribeEmitsInitialAndOnTrigger(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	chats := new(mocks.MockChatRepository)
	users := new(mocks.MockUserRepository)
	bus := events.NewBus()
	svc := NewPreviewService(social, chats, users, bus)

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{}, nil)

	stream := svc.Subscribe(context.Background(), 1)
	defer stream.Cancel()

	select {
	case previews := <-stream.C:
		assert.Empty(t, previews)
	case <-time.After(time.Second):
		t.Fatal("expected an initial emission")
	}

	bus.Notify(1)
	select {
	case previews := <-stream.C:
		assert.Empty(t, previews)
	case <-time.After(time.Second):
		t.Fatal("expected an emission after a trigger")
	}
}

func TestSubscribeCancelClosesStream(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	bus := events.NewBus()
	svc := NewPreviewService(social, new(mocks.MockChatRepository), new(mocks.MockUserRepository), bus)

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{}, nil)

	stream := svc.Subscribe(context.Background(), 1)
	stream.Cancel()
	stream.Cancel() // safe to repeat

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-stream.C:
			if !ok {
				require.Eventually(t, func() bool { return bus.SubscriberCount(1) == 0 }, time.Second, 10*time.Millisecond)
				return
			}
		case <-deadline:
			t.Fatal("stream channel did not close after cancel")
		}
	}
}

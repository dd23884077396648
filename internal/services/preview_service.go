package services

import (
	"context"
	"log"
	"sort"
	"sync"

	"messenger-service/internal/events"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

const noMessagePlaceholder = "Say hi!"

const timeLabelLayout = "15:04"

// PreviewService builds the per-viewer conversation list: one entry per
// friend, joined with the matching two-party thread and the friend's
// profile, newest conversation first.
type PreviewService struct {
	social repositories.SocialRepository
	chats  repositories.ChatRepository
	users  repositories.UserRepository
	bus    *events.Bus
}

func NewPreviewService(social repositories.SocialRepository, chats repositories.ChatRepository, users repositories.UserRepository, bus *events.Bus) *PreviewService {
	return &PreviewService{social: social, chats: chats, users: users, bus: bus}
}

// BuildPreviews runs one full aggregation pass for the viewer. Friends whose
// profile lookup fails are silently excluded. An empty friend list yields an
// empty (non-nil) result without touching the chat store.
func (s *PreviewService) BuildPreviews(ctx context.Context, viewerID int64) ([]models.ChatPreview, error) {
	friends, err := s.social.ListFriends(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(friends) == 0 {
		return []models.ChatPreview{}, nil
	}

	chats, err := s.chats.ListChatsForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	chatByFriend := make(map[int64]models.Chat, len(chats))
	for _, chat := range chats {
		chatByFriend[chat.OtherParticipant(viewerID)] = chat
	}

	// Profile lookups fan out concurrently and all settle before anything
	// is emitted; there are no partial emissions.
	profiles := make([]*models.User, len(friends))
	var wg sync.WaitGroup
	for i, friendID := range friends {
		wg.Add(1)
		go func(i int, friendID int64) {
			defer wg.Done()
			user, err := s.users.GetByID(ctx, friendID)
			if err != nil {
				return
			}
			profiles[i] = &user
		}(i, friendID)
	}
	wg.Wait()

	previews := make([]models.ChatPreview, 0, len(friends))
	for i, friendID := range friends {
		friend := profiles[i]
		if friend == nil {
			continue
		}

		preview := models.ChatPreview{
			FriendID:        friendID,
			DisplayName:     displayName(*friend),
			AvatarURL:       friend.AvatarURL,
			LastMessageText: noMessagePlaceholder,
			IsOnline:        friend.IsOnline,
			LastSeen:        friend.LastSeen,
		}

		if chat, ok := chatByFriend[friendID]; ok {
			chatID := chat.ID
			preview.ChatID = &chatID
			if lm := chat.LastMessage(); lm != nil {
				if lm.Text != "" {
					preview.LastMessageText = lm.Text
				}
				preview.TimeLabel = lm.CreatedAt.Local().Format(timeLabelLayout)
				preview.SortTimestamp = lm.CreatedAt.UnixMilli()
				preview.IsUnread = lm.SenderID != viewerID && !containsID(lm.ReadBy, viewerID)
			}
		}

		previews = append(previews, preview)
	}

	// Newest conversation first; never-messaged friends keep their relative
	// order at the tail.
	sort.SliceStable(previews, func(i, j int) bool {
		if previews[i].SortTimestamp == 0 || previews[j].SortTimestamp == 0 {
			return previews[j].SortTimestamp == 0 && previews[i].SortTimestamp != 0
		}
		return previews[i].SortTimestamp > previews[j].SortTimestamp
	})

	return previews, nil
}

// PreviewStream is a live, cancellable feed of aggregated previews. C closes
// after Cancel (or context cancellation); the owner must call Cancel to
// release the underlying bus subscription.
type PreviewStream struct {
	C      <-chan []models.ChatPreview
	cancel context.CancelFunc
	once   sync.Once
}

// Cancel tears the stream down. Safe to call more than once.
func (s *PreviewStream) Cancel() {
	s.once.Do(s.cancel)
}

// Subscribe starts a live preview stream for the viewer: one emission up
// front, then a fresh full aggregation whenever the viewer's social graph or
// any of the viewer's chats changes. Consecutive triggers coalesce; a slow
// consumer only ever sees the latest emission.
func (s *PreviewService) Subscribe(ctx context.Context, viewerID int64) *PreviewStream {
	ctx, cancel := context.WithCancel(ctx)
	sub := s.bus.Subscribe(viewerID)
	out := make(chan []models.ChatPreview, 1)

	go func() {
		defer close(out)
		defer sub.Cancel()

		emit := func() {
			previews, err := s.BuildPreviews(ctx, viewerID)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("preview aggregation failed for user %d: %v", viewerID, err)
				}
				return
			}
			pushLatest(out, previews)
			observability.IncPreviewEmission()
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.C:
				emit()
			}
		}
	}()

	return &PreviewStream{C: out, cancel: cancel}
}

// pushLatest replaces a pending unconsumed emission instead of blocking.
func pushLatest(out chan []models.ChatPreview, previews []models.ChatPreview) {
	for {
		select {
		case out <- previews:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func displayName(user models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

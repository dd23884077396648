package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, user1_id, user2_id, messages_count, user1_typing, user2_typing,
    last_message_text, last_message_sender_id, last_message_image_url, last_message_at, last_message_read_by,
    created_at, last_updated`

// ChatRepository abstracts chat-thread persistence.
type ChatRepository interface {
	ResolveOrCreateChat(ctx context.Context, userID, friendID int64) (models.Chat, error)
	GetChat(ctx context.Context, chatID int64) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)
	ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error)
	SetTyping(ctx context.Context, chatID, userID int64, typing bool) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// ResolveOrCreateChat finds the unique two-party thread for the pair,
// creating it on first contact. The pair is ordered before lookup and the
// table carries UNIQUE(user1_id, user2_id), so two racing first-contact
// calls converge on the same thread: the loser's insert conflicts and the
// reselect returns the winner's row.
func (r *ChatRepo) ResolveOrCreateChat(ctx context.Context, userID, friendID int64) (models.Chat, error) {
	if userID == friendID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}
	user1, user2 := orderPair(userID, friendID)

	var chat models.Chat
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user1_id=$1 AND user2_id=$2`
	err := r.db.GetContext(ctx, &chat, query, user1, user2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	err = r.db.QueryRowxContext(ctx, `
INSERT INTO chats (user1_id, user2_id) VALUES ($1, $2)
RETURNING `+chatColumns, user1, user2).StructScan(&chat)
	if err == nil {
		return chat, nil
	}
	if !isUniqueViolation(err) {
		return models.Chat{}, err
	}

	err = r.db.GetContext(ctx, &chat, query, user1, user2)
	return chat, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int64) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`,
		chatID, userID)
	return exists, err
}

// ListChatsForUser returns every chat the user participates in, most
// recently updated first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `
SELECT `+chatColumns+` FROM chats
WHERE user1_id=$1 OR user2_id=$1
ORDER BY last_updated DESC`, userID)
	return chats, err
}

// SetTyping flips the caller's typing flag on the chat.
func (r *ChatRepo) SetTyping(ctx context.Context, chatID, userID int64, typing bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE chats SET
    user1_typing = CASE WHEN user1_id=$2 THEN $3 ELSE user1_typing END,
    user2_typing = CASE WHEN user2_id=$2 THEN $3 ELSE user2_typing END
WHERE id=$1 AND (user1_id=$2 OR user2_id=$2)`, chatID, userID, typing)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrChatNotFound
	}
	return nil
}

func orderPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID, senderID int64, text string, imageURL *string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int64) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, chatID, userID int64) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and refreshes the chat's last-message
// summary and counter in the same transaction, so the preview read model
// never sees a message without its summary or vice versa. The read set is
// initialized to the sender.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID, senderID int64, text string, imageURL *string) (models.Message, error) {
	var msg models.Message
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
INSERT INTO messages (chat_id, sender_id, text, image_url, read_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, chat_id, sender_id, text, image_url, read_by, created_at`,
			chatID, senderID, text, imageURL, pq.Int64Array{senderID}).StructScan(&msg)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
UPDATE chats SET
    last_message_text = $2,
    last_message_sender_id = $3,
    last_message_image_url = $4,
    last_message_at = $5,
    last_message_read_by = $6,
    messages_count = messages_count + 1,
    last_updated = NOW()
WHERE id=$1`, chatID, msg.Text, msg.SenderID, msg.ImageURL, msg.CreatedAt, msg.ReadBy)
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
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the chat's messages in replay order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int64) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `
SELECT id, chat_id, sender_id, text, image_url, read_by, created_at
FROM messages
WHERE chat_id=$1
ORDER BY created_at ASC, id ASC`, chatID)
	return msgs, err
}

// MarkMessagesRead adds the user to the read set of every message in the
// chat and to the last-message summary. The guard keeps read sets grow-only
// and the call idempotent.
func (r *MessageRepo) MarkMessagesRead(ctx context.Context, chatID, userID int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE messages SET read_by = array_append(read_by, $2)
WHERE chat_id=$1 AND NOT ($2 = ANY(read_by))`, chatID, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
UPDATE chats SET last_message_read_by = array_append(last_message_read_by, $2)
WHERE id=$1 AND last_message_read_by IS NOT NULL AND NOT ($2 = ANY(last_message_read_by))`,
			chatID, userID)
		return err
	})
}

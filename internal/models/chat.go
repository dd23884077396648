package models

import (
	"time"

	"github.com/lib/pq"
)

// Chat is a private thread between exactly two users. The pair is stored
// ordered (user1_id < user2_id) and unique, so at most one thread can exist
// per unordered pair. The last-message summary is denormalized onto the row
// so preview aggregation needs no message scan.
type Chat struct {
	ID            int64     `db:"id" json:"id"`
	User1ID       int64     `db:"user1_id" json:"user1_id"`
	User2ID       int64     `db:"user2_id" json:"user2_id"`
	MessagesCount int64     `db:"messages_count" json:"messages_count"`
	User1Typing   bool      `db:"user1_typing" json:"user1_typing"`
	User2Typing   bool      `db:"user2_typing" json:"user2_typing"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`

	LastMessageText     *string       `db:"last_message_text" json:"-"`
	LastMessageSenderID *int64        `db:"last_message_sender_id" json:"-"`
	LastMessageImageURL *string       `db:"last_message_image_url" json:"-"`
	LastMessageAt       *time.Time    `db:"last_message_at" json:"-"`
	LastMessageReadBy   pq.Int64Array `db:"last_message_read_by" json:"-"`
}

// LastMessage is the nullable summary of the most recent message in a chat.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  int64     `json:"sender_id"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ReadBy    []int64   `json:"read_by"`
}

// LastMessage assembles the summary columns, or nil when the chat has no
// messages yet.
func (c Chat) LastMessage() *LastMessage {
	if c.LastMessageSenderID == nil || c.LastMessageAt == nil {
		return nil
	}
	summary := LastMessage{
		SenderID:  *c.LastMessageSenderID,
		CreatedAt: *c.LastMessageAt,
		ReadBy:    c.LastMessageReadBy,
	}
	if c.LastMessageText != nil {
		summary.Text = *c.LastMessageText
	}
	if c.LastMessageImageURL != nil {
		summary.ImageURL = *c.LastMessageImageURL
	}
	return &summary
}

// OtherParticipant returns the participant that is not userID.
func (c Chat) OtherParticipant(userID int64) int64 {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasParticipant reports whether userID belongs to the chat.
func (c Chat) HasParticipant(userID int64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

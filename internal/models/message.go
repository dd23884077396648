package models

import (
	"time"

	"github.com/lib/pq"
)

// Message is a single chat message. ReadBy always contains the sender and
// only ever grows.
type Message struct {
	ID        int64         `db:"id" json:"id"`
	ChatID    int64         `db:"chat_id" json:"chat_id"`
	SenderID  int64         `db:"sender_id" json:"sender_id"`
	Text      string        `db:"text" json:"text"`
	ImageURL  *string       `db:"image_url" json:"image_url,omitempty"`
	ReadBy    pq.Int64Array `db:"read_by" json:"read_by"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcast through chat websockets.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	UserID  int64    `json:"user_id,omitempty"`
	Typing  bool     `json:"typing,omitempty"`
}

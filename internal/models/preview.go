package models

import "time"

// ChatPreview is the derived, non-persisted summary of one conversation for
// list display. One preview exists per friend; ChatID is nil until a thread
// exists. SortTimestamp is epoch millis of the last message, 0 when the pair
// has never messaged.
type ChatPreview struct {
	FriendID        int64     `json:"friend_id"`
	ChatID          *int64    `json:"chat_id"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       string    `json:"avatar_url"`
	LastMessageText string    `json:"last_message"`
	TimeLabel       string    `json:"time"`
	SortTimestamp   int64     `json:"sort_timestamp"`
	IsOnline        bool      `json:"is_online"`
	LastSeen        time.Time `json:"last_seen"`
	IsUnread        bool      `json:"is_unread"`
}

package models

import "time"

// RelationshipStatus classifies one user's stance toward another. The states
// are mutually exclusive for any ordered pair.
type RelationshipStatus string

const (
	StatusFriends         RelationshipStatus = "friends"
	StatusOutgoingPending RelationshipStatus = "outgoing-pending"
	StatusIncomingPending RelationshipStatus = "incoming-pending"
	StatusBlocked         RelationshipStatus = "blocked"
	StatusNone            RelationshipStatus = "none"
)

// FriendInvite is a pending invitation from one user to another.
type FriendInvite struct {
	ID         int64     `db:"id" json:"id"`
	FromUserID int64     `db:"from_user_id" json:"from_user_id"`
	ToUserID   int64     `db:"to_user_id" json:"to_user_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

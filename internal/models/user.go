package models

import "time"

// User is a registered account with its public profile and presence state.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Username     string    `db:"username" json:"username"`
	Bio          string    `db:"bio" json:"bio"`
	Phone        string    `db:"phone" json:"phone"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	IsOnline     bool      `db:"is_online" json:"is_online"`
	LastSeen     time.Time `db:"last_seen" json:"last_seen"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProfileUpdate carries the optional fields of a partial profile update.
// Nil means "leave unchanged".
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
	State    *string `json:"state"`
}

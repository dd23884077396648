package repositories

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
	"messenger-service/internal/rabbitmq"
)

// SocialRepository owns the persisted social graph: pending invites,
// friendships and blocks. Every operation that touches both sides of a pair
// runs in a single transaction so the graph can never be observed
// half-applied.
type SocialRepository interface {
	CreateInvite(ctx context.Context, fromUserID, toUserID int64) error
	DeleteInvite(ctx context.Context, fromUserID, toUserID int64) error
	AcceptInvite(ctx context.Context, accepterID, inviterID int64) error
	RemoveFriendship(ctx context.Context, userID, friendID int64) error
	Block(ctx context.Context, blockerID, blockedID int64) error
	Unblock(ctx context.Context, blockerID, blockedID int64) error

	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
	HasInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error)
	IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error)
	ListFriends(ctx context.Context, userID int64) ([]int64, error)
	ListIncomingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error)
	ListOutgoingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error)
}

type socialRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

// NewSocialRepository constructs the sqlx implementation.
func NewSocialRepository(db *sqlx.DB, publisher rabbitmq.Publisher) SocialRepository {
	return &socialRepository{db: db, publisher: publisher}
}

// CreateInvite records a pending invite. A re-send of an identical pending
// invite is a no-op.
func (r *socialRepository) CreateInvite(ctx context.Context, fromUserID, toUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO friend_invites (from_user_id, to_user_id) VALUES ($1, $2)
ON CONFLICT (from_user_id, to_user_id) DO NOTHING
`, fromUserID, toUserID)
	if err != nil {
		return err
	}

	r.logPublish(ctx, "friend.invite.sent", map[string]any{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
	})
	return nil
}

func (r *socialRepository) DeleteInvite(ctx context.Context, fromUserID, toUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM friend_invites WHERE from_user_id=$1 AND to_user_id=$2
`, fromUserID, toUserID)
	if err != nil {
		return err
	}

	r.logPublish(ctx, "friend.invite.cancelled", map[string]any{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
	})
	return nil
}

// AcceptInvite moves the pair from invite state to friend state atomically:
// the pending invite is deleted and both friendship directions inserted in
// one transaction.
func (r *socialRepository) AcceptInvite(ctx context.Context, accepterID, inviterID int64) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM friend_invites WHERE from_user_id=$1 AND to_user_id=$2
`, inviterID, accepterID); err != nil {
			return err
		}
		if err := insertFriendship(ctx, tx, inviterID, accepterID); err != nil {
			return err
		}
		return insertFriendship(ctx, tx, accepterID, inviterID)
	})
	if err != nil {
		return err
	}

	r.logPublish(ctx, "friendship.created", map[string]any{
		"user_id":   inviterID,
		"friend_id": accepterID,
	})
	return nil
}

// RemoveFriendship deletes both directions; removing an absent friendship is
// a no-op.
func (r *socialRepository) RemoveFriendship(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM friendships
WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
`, userID, friendID)
	if err != nil {
		return err
	}

	r.logPublish(ctx, "friendship.removed", map[string]any{
		"user_id":   userID,
		"friend_id": friendID,
	})
	return nil
}

// Block records the one-directional block and, in the same transaction,
// removes any friendship and any pending invites between the pair. Invite
// cleanup keeps the friends/pending/blocked states mutually exclusive.
func (r *socialRepository) Block(ctx context.Context, blockerID, blockedID int64) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2)
ON CONFLICT (blocker_id, blocked_id) DO NOTHING
`, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM friendships
WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
`, blockerID, blockedID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
DELETE FROM friend_invites
WHERE (from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1)
`, blockerID, blockedID)
		return err
	})
	if err != nil {
		return err
	}

	r.logPublish(ctx, "user.blocked", map[string]any{
		"blocker_id": blockerID,
		"blocked_id": blockedID,
	})
	return nil
}

func (r *socialRepository) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM blocks WHERE blocker_id=$1 AND blocked_id=$2
`, blockerID, blockedID)
	if err != nil {
		return err
	}

	r.logPublish(ctx, "user.unblocked", map[string]any{
		"blocker_id": blockerID,
		"blocked_id": blockedID,
	})
	return nil
}

func (r *socialRepository) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id=$1 AND friend_id=$2)
`, userID, otherID)
	return exists, err
}

func (r *socialRepository) HasInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM friend_invites WHERE from_user_id=$1 AND to_user_id=$2)
`, fromUserID, toUserID)
	return exists, err
}

func (r *socialRepository) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM blocks WHERE blocker_id=$1 AND blocked_id=$2)
`, blockerID, blockedID)
	return exists, err
}

func (r *socialRepository) ListFriends(ctx context.Context, userID int64) ([]int64, error) {
	var friends []int64
	err := r.db.SelectContext(ctx, &friends, `
SELECT friend_id FROM friendships WHERE user_id=$1 ORDER BY friend_id
`, userID)
	return friends, err
}

func (r *socialRepository) ListIncomingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error) {
	var invites []models.FriendInvite
	err := r.db.SelectContext(ctx, &invites, `
SELECT id, from_user_id, to_user_id, created_at
FROM friend_invites WHERE to_user_id=$1 ORDER BY created_at DESC
`, userID)
	return invites, err
}

func (r *socialRepository) ListOutgoingInvites(ctx context.Context, userID int64) ([]models.FriendInvite, error) {
	var invites []models.FriendInvite
	err := r.db.SelectContext(ctx, &invites, `
SELECT id, from_user_id, to_user_id, created_at
FROM friend_invites WHERE from_user_id=$1 ORDER BY created_at DESC
`, userID)
	return invites, err
}

func insertFriendship(ctx context.Context, tx *sqlx.Tx, userID, friendID int64) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2)
ON CONFLICT (user_id, friend_id) DO NOTHING
`, userID, friendID)
	return err
}

func (r *socialRepository) logPublish(ctx context.Context, eventType string, payload any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, eventType, payload); err != nil {
		log.Printf("warning: failed to publish %s: %v", eventType, err)
	}
}

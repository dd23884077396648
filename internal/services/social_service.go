package services

import (
	"context"
	"errors"

	"messenger-service/internal/events"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

var (
	ErrSelfAction     = errors.New("cannot perform this action on yourself")
	ErrAlreadyFriends = errors.New("users are already friends")
	ErrInvitePending  = errors.New("a friend invite is already pending")
	ErrBlockedPair    = errors.New("this user cannot be invited")
	ErrNoInvite       = errors.New("friend invite not found")
)

// SocialService enforces the relationship state machine on top of the
// social repository. For any ordered pair at most one of friends, pending
// invite or block can hold; the preconditions here plus the repository's
// transactional mutations keep it that way.
type SocialService struct {
	social repositories.SocialRepository
	bus    *events.Bus
}

func NewSocialService(social repositories.SocialRepository, bus *events.Bus) *SocialService {
	return &SocialService{social: social, bus: bus}
}

// SendInvite records a pending invite from one user to another. Rejected
// when the pair is already friends, already has a pending invite in either
// direction, or is blocked in either direction.
func (s *SocialService) SendInvite(ctx context.Context, fromID, toID int64) error {
	if fromID == toID {
		return ErrSelfAction
	}

	for _, pair := range [][2]int64{{fromID, toID}, {toID, fromID}} {
		blocked, err := s.social.IsBlocked(ctx, pair[0], pair[1])
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlockedPair
		}
	}

	friends, err := s.social.AreFriends(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if friends {
		return ErrAlreadyFriends
	}

	// A pending invite from the other side means the caller should accept
	// instead of inviting back.
	incoming, err := s.social.HasInvite(ctx, toID, fromID)
	if err != nil {
		return err
	}
	if incoming {
		return ErrInvitePending
	}

	if err := s.social.CreateInvite(ctx, fromID, toID); err != nil {
		return err
	}
	s.notify(fromID, toID)
	return nil
}

// CancelInvite withdraws a pending invite; cancelling an absent invite is a
// no-op.
func (s *SocialService) CancelInvite(ctx context.Context, fromID, toID int64) error {
	if fromID == toID {
		return ErrSelfAction
	}
	if err := s.social.DeleteInvite(ctx, fromID, toID); err != nil {
		return err
	}
	s.notify(fromID, toID)
	return nil
}

// AcceptInvite turns a pending invite from inviter to accepter into a
// mutual friendship.
func (s *SocialService) AcceptInvite(ctx context.Context, accepterID, inviterID int64) error {
	if accepterID == inviterID {
		return ErrSelfAction
	}

	pending, err := s.social.HasInvite(ctx, inviterID, accepterID)
	if err != nil {
		return err
	}
	if !pending {
		return ErrNoInvite
	}

	if err := s.social.AcceptInvite(ctx, accepterID, inviterID); err != nil {
		return err
	}
	s.notify(accepterID, inviterID)
	return nil
}

// RemoveFriend dissolves the friendship in both directions. Idempotent.
func (s *SocialService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return ErrSelfAction
	}
	if err := s.social.RemoveFriendship(ctx, userID, friendID); err != nil {
		return err
	}
	s.notify(userID, friendID)
	return nil
}

// BlockUser records a one-directional block; any friendship and pending
// invites between the pair are cleared in the same transaction. Blocking a
// stranger only adds the block entry.
func (s *SocialService) BlockUser(ctx context.Context, blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return ErrSelfAction
	}
	if err := s.social.Block(ctx, blockerID, blockedID); err != nil {
		return err
	}
	s.notify(blockerID, blockedID)
	return nil
}

// UnblockUser lifts the caller's block. Idempotent.
func (s *SocialService) UnblockUser(ctx context.Context, blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return ErrSelfAction
	}
	if err := s.social.Unblock(ctx, blockerID, blockedID); err != nil {
		return err
	}
	s.notify(blockerID, blockedID)
	return nil
}

// RelationshipStatus classifies the viewer's stance toward the other user.
// Friendship is checked first so a stale invite artifact can never mask an
// established friendship.
func (s *SocialService) RelationshipStatus(ctx context.Context, viewerID, otherID int64) (models.RelationshipStatus, error) {
	friends, err := s.social.AreFriends(ctx, viewerID, otherID)
	if err != nil {
		return "", err
	}
	if friends {
		return models.StatusFriends, nil
	}

	outgoing, err := s.social.HasInvite(ctx, viewerID, otherID)
	if err != nil {
		return "", err
	}
	if outgoing {
		return models.StatusOutgoingPending, nil
	}

	incoming, err := s.social.HasInvite(ctx, otherID, viewerID)
	if err != nil {
		return "", err
	}
	if incoming {
		return models.StatusIncomingPending, nil
	}

	blocked, err := s.social.IsBlocked(ctx, viewerID, otherID)
	if err != nil {
		return "", err
	}
	if blocked {
		return models.StatusBlocked, nil
	}

	return models.StatusNone, nil
}

func (s *SocialService) notify(userIDs ...int64) {
	if s.bus != nil {
		s.bus.Notify(userIDs...)
	}
}

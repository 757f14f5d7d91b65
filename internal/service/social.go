package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/model"
)

// UserStore manages users and the directional friend relation.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	Update(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	AddFriend(ctx context.Context, userID, friendID uint64) (bool, error)
	RemoveFriend(ctx context.Context, userID, friendID uint64) (bool, error)
	Friends(ctx context.Context, userID uint64) ([]model.User, error)
	FriendIDs(ctx context.Context, userID uint64) ([]uint64, error)
	CommonFriends(ctx context.Context, userA, userB uint64) ([]model.User, error)
}

// FeedReader lists stored feed events.
type FeedReader interface {
	ListForUsers(ctx context.Context, userIDs []uint64) ([]model.FeedEvent, error)
}

// SocialService manages users, friendships and the activity feed.
type SocialService struct {
	users     UserStore
	feed      FeedReader
	publisher FeedPublisher
	now       func() time.Time
}

func NewSocialService(users UserStore, feed FeedReader, publisher FeedPublisher) *SocialService {
	return &SocialService{users: users, feed: feed, publisher: publisher, now: time.Now}
}

func (s *SocialService) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *SocialService) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, u.ID)
}

func (s *SocialService) User(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *SocialService) Users(ctx context.Context) ([]model.User, error) { return s.users.List(ctx) }

// DeleteUser removes a user with its likes, friendships and feed events.
func (s *SocialService) DeleteUser(ctx context.Context, id uint64) error {
	return s.users.Delete(ctx, id)
}

// AddFriend makes userID follow friendID. The relation is one-way.
func (s *SocialService) AddFriend(ctx context.Context, userID, friendID uint64) error {
	if err := s.checkPair(ctx, userID, friendID); err != nil {
		return err
	}
	added, err := s.users.AddFriend(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if added {
		s.emit(ctx, userID, model.OpAdd, friendID)
	}
	return nil
}

// RemoveFriend drops the userID -> friendID edge if present.
func (s *SocialService) RemoveFriend(ctx context.Context, userID, friendID uint64) error {
	if err := s.checkPair(ctx, userID, friendID); err != nil {
		return err
	}
	removed, err := s.users.RemoveFriend(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if removed {
		s.emit(ctx, userID, model.OpRemove, friendID)
	}
	return nil
}

func (s *SocialService) Friends(ctx context.Context, userID uint64) ([]model.User, error) {
	if err := mustExist(ctx, s.users, "user", userID); err != nil {
		return nil, err
	}
	return s.users.Friends(ctx, userID)
}

func (s *SocialService) CommonFriends(ctx context.Context, userID, otherID uint64) ([]model.User, error) {
	if err := s.checkPair(ctx, userID, otherID); err != nil {
		return nil, err
	}
	return s.users.CommonFriends(ctx, userID, otherID)
}

// Feed returns the events of userID and of the users it follows, oldest
// first.
func (s *SocialService) Feed(ctx context.Context, userID uint64) ([]model.FeedEvent, error) {
	if err := mustExist(ctx, s.users, "user", userID); err != nil {
		return nil, err
	}
	ids, err := s.users.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.feed.ListForUsers(ctx, append(ids, userID))
}

func (s *SocialService) checkPair(ctx context.Context, userID, otherID uint64) error {
	if userID == otherID {
		return fmt.Errorf("%w: user %d cannot relate to itself", ErrInvalidArgument, userID)
	}
	if err := mustExist(ctx, s.users, "user", userID); err != nil {
		return err
	}
	return mustExist(ctx, s.users, "user", otherID)
}

func (s *SocialService) emit(ctx context.Context, userID uint64, op string, friendID uint64) {
	publish(ctx, s.publisher, model.FeedEvent{
		Timestamp: s.now().UnixMilli(),
		UserID:    userID,
		EventType: model.EventFriend,
		Operation: op,
		EntityID:  friendID,
	})
}

// publish hands ev to p and logs a failure instead of returning it.
func publish(ctx context.Context, p FeedPublisher, ev model.FeedEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event_type", ev.EventType).
			Str("operation", ev.Operation).
			Uint64("user_id", ev.UserID).
			Msg("feed event not published")
	}
}

package service

import (
	"context"
	"time"

	"github.com/iliyamo/film-catalog/internal/metrics"
	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/recommend"
)

// RecommendationService suggests films from the likes of the most similar
// user.
type RecommendationService struct {
	hydrator
	users existenceChecker
	likes LikeStore
}

// NewRecommendationService wires a RecommendationService.
func NewRecommendationService(snapshots Snapshotter, users existenceChecker, likes LikeStore) *RecommendationService {
	return &RecommendationService{
		hydrator: hydrator{snapshots: snapshots},
		users:    users,
		likes:    likes,
	}
}

// Recommend returns the films liked by the user whose likes overlap most
// with userID's, minus the films userID already liked, in ascending id
// order. No overlapping user yields an empty list.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint64) ([]model.Film, error) {
	defer metrics.ObserveRanking("recommend", time.Now())
	if err := mustExist(ctx, s.users, "user", userID); err != nil {
		return nil, err
	}
	sets, err := s.likes.LikeSets(ctx)
	if err != nil {
		return nil, err
	}
	ids := recommend.Suggest(userID, sets)
	if len(ids) == 0 {
		return []model.Film{}, nil
	}
	return s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.ListRowsByIDs(ctx, ids)
	})
}

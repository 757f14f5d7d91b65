package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/metrics"
	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
)

// Sort keys accepted by ByDirector.
const (
	SortByYear  = "year"
	SortByLikes = "likes"
)

// Search fields accepted by Search.
const (
	SearchByTitle    = "title"
	SearchByDirector = "director"
)

// RankingService produces ordered film lists. Every list is read from one
// snapshot and hydrated with a single batch load regardless of its length.
type RankingService struct {
	hydrator
	users     existenceChecker
	directors existenceChecker
}

// NewRankingService wires a RankingService.
func NewRankingService(snapshots Snapshotter, users, directors existenceChecker) *RankingService {
	return &RankingService{
		hydrator:  hydrator{snapshots: snapshots},
		users:     users,
		directors: directors,
	}
}

// GetFilm returns one hydrated film or repository.ErrNotFound.
func (s *RankingService) GetFilm(ctx context.Context, id uint64) (model.Film, error) {
	return s.get(ctx, id)
}

// ListFilms returns every film in ascending id order.
func (s *RankingService) ListFilms(ctx context.Context) ([]model.Film, error) {
	defer metrics.ObserveRanking("list", time.Now())
	return s.listAll(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.ListRows(ctx)
	})
}

// MostPopular returns up to limit films by like count, most liked first;
// ties go to the higher film id. Films without likes are included.
func (s *RankingService) MostPopular(ctx context.Context, limit int) ([]model.Film, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	defer metrics.ObserveRanking("popular", time.Now())
	return s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.PopularRows(ctx, repository.PopularFilter{Limit: limit})
	})
}

// PopularByGenreAndYear is MostPopular restricted to films carrying genreID
// and released in year; a nil filter does not restrict. A failing store
// does not fail the call: the failure is logged and counted and an empty
// list is returned.
func (s *RankingService) PopularByGenreAndYear(ctx context.Context, limit int, genreID *uint64, year *int) ([]model.Film, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	defer metrics.ObserveRanking("popular_filtered", time.Now())
	films, err := s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.PopularRows(ctx, repository.PopularFilter{GenreID: genreID, Year: year, Limit: limit})
	})
	if err != nil {
		ev := logging.Ctx(ctx).Warn().Err(err).Int("limit", limit)
		if genreID != nil {
			ev = ev.Uint64("genre_id", *genreID)
		}
		if year != nil {
			ev = ev.Int("year", *year)
		}
		ev.Msg("popular films by genre and year unavailable; returning empty list")
		metrics.DegradedReads.WithLabelValues("popular_filtered").Inc()
		return []model.Film{}, nil
	}
	return films, nil
}

// CommonFilms returns the films liked by both users, most liked first.
// Both users must exist.
func (s *RankingService) CommonFilms(ctx context.Context, userA, userB uint64) ([]model.Film, error) {
	defer metrics.ObserveRanking("common", time.Now())
	if err := mustExist(ctx, s.users, "user", userA); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, s.users, "user", userB); err != nil {
		return nil, err
	}
	return s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.CommonRows(ctx, userA, userB)
	})
}

// ByDirector returns the director's films ordered by sortKey: "year" for
// oldest first, "likes" for most liked first.
func (s *RankingService) ByDirector(ctx context.Context, directorID uint64, sortKey string) ([]model.Film, error) {
	var order repository.DirectorOrder
	switch sortKey {
	case SortByYear:
		order = repository.DirectorOrderYear
	case SortByLikes:
		order = repository.DirectorOrderLikes
	default:
		return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidArgument, sortKey)
	}
	defer metrics.ObserveRanking("by_director", time.Now())
	if err := mustExist(ctx, s.directors, "director", directorID); err != nil {
		return nil, err
	}
	return s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.ListRowsByDirector(ctx, directorID, order)
	})
}

// Search returns films whose title or director name contains query, case
// insensitively, most liked first. by lists the fields to match; an empty
// list searches titles.
func (s *RankingService) Search(ctx context.Context, query string, by []string) ([]model.Film, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidArgument)
	}
	fields, err := parseSearchFields(by)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveRanking("search", time.Now())
	return s.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		return r.Search(ctx, query, fields)
	})
}

func parseSearchFields(by []string) (repository.SearchFields, error) {
	var f repository.SearchFields
	if len(by) == 0 {
		f.Title = true
		return f, nil
	}
	for _, b := range by {
		switch strings.ToLower(strings.TrimSpace(b)) {
		case SearchByTitle:
			f.Title = true
		case SearchByDirector:
			f.Director = true
		default:
			return f, fmt.Errorf("%w: unknown search field %q", ErrInvalidArgument, b)
		}
	}
	return f, nil
}

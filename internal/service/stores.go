package service

import (
	"context"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
)

// FilmReader is the read side of the film store.
type FilmReader interface {
	GetRow(ctx context.Context, id uint64) (model.FilmRow, error)
	ListRows(ctx context.Context) ([]model.FilmRow, error)
	ListRowsByIDs(ctx context.Context, ids []uint64) ([]model.FilmRow, error)
	PopularRows(ctx context.Context, f repository.PopularFilter) ([]model.FilmRow, error)
	CommonRows(ctx context.Context, userA, userB uint64) ([]model.FilmRow, error)
	ListRowsByDirector(ctx context.Context, directorID uint64, order repository.DirectorOrder) ([]model.FilmRow, error)
	Search(ctx context.Context, query string, by repository.SearchFields) ([]model.FilmRow, error)
}

// FilmWriter is the write side of the film store.
type FilmWriter interface {
	Create(ctx context.Context, in model.FilmInput) (uint64, error)
	Update(ctx context.Context, id uint64, in model.FilmInput) error
	Delete(ctx context.Context, id uint64) error
	Exists(ctx context.Context, id uint64) (bool, error)
}

// RelationLoader batch-loads film collections.
type RelationLoader interface {
	Load(ctx context.Context, set repository.FilmSet) (model.Relations, error)
}

// existenceChecker is satisfied by every repository with a primary key
// lookup.
type existenceChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// LikeStore manages likes.
type LikeStore interface {
	Add(ctx context.Context, filmID, userID uint64) (bool, error)
	Remove(ctx context.Context, filmID, userID uint64) (bool, error)
	LikeSets(ctx context.Context) (map[uint64][]uint64, error)
}

// FeedPublisher delivers feed events. Failures are logged by the caller
// and never fail the action that produced the event.
type FeedPublisher interface {
	Publish(ctx context.Context, ev model.FeedEvent) error
}

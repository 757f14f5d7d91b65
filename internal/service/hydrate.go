package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
)

// Snapshotter opens a consistent read view of the store: everything fn
// reads through films and loader observes the same state.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(films FilmReader, loader RelationLoader) error) error
}

// StoreSnapshots adapts repository.Snapshots to Snapshotter.
func StoreSnapshots(s *repository.Snapshots) Snapshotter { return storeSnapshots{s} }

type storeSnapshots struct{ s *repository.Snapshots }

func (s storeSnapshots) Snapshot(ctx context.Context, fn func(FilmReader, RelationLoader) error) error {
	return s.s.View(ctx, func(films *repository.FilmRepo, loader *repository.BatchLoader) error {
		return fn(films, loader)
	})
}

// hydrator turns base rows into Film aggregates. The rows and their
// relations are read inside one snapshot: one row query, one batch load,
// then a pure assembly in row order.
type hydrator struct {
	snapshots Snapshotter
}

// list reads rows with fetch and hydrates exactly those films.
func (h hydrator) list(ctx context.Context, fetch func(FilmReader) ([]model.FilmRow, error)) ([]model.Film, error) {
	return h.read(ctx, fetch, func(rows []model.FilmRow) repository.FilmSet {
		ids := make([]uint64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		return repository.OnlyFilms(ids...)
	})
}

// listAll reads rows with fetch, which must return every film, and
// hydrates them with a single unfiltered batch load.
func (h hydrator) listAll(ctx context.Context, fetch func(FilmReader) ([]model.FilmRow, error)) ([]model.Film, error) {
	return h.read(ctx, fetch, func([]model.FilmRow) repository.FilmSet { return repository.AllFilms() })
}

func (h hydrator) read(ctx context.Context, fetch func(FilmReader) ([]model.FilmRow, error), setOf func([]model.FilmRow) repository.FilmSet) ([]model.Film, error) {
	var films []model.Film
	err := h.snapshots.Snapshot(ctx, func(reader FilmReader, loader RelationLoader) error {
		rows, err := fetch(reader)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			films = []model.Film{}
			return nil
		}
		rel, err := loader.Load(ctx, setOf(rows))
		if err != nil {
			return err
		}
		films, err = model.AssembleFilms(rows, rel)
		if errors.Is(err, model.ErrMissingRating) {
			return fmt.Errorf("%w: %v", repository.ErrIntegrityViolation, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return films, nil
}

func (h hydrator) get(ctx context.Context, id uint64) (model.Film, error) {
	films, err := h.list(ctx, func(r FilmReader) ([]model.FilmRow, error) {
		row, err := r.GetRow(ctx, id)
		if err != nil {
			return nil, err
		}
		return []model.FilmRow{row}, nil
	})
	if err != nil {
		return model.Film{}, err
	}
	return films[0], nil
}

// mustExist maps a false Exists result onto ErrNotFound.
func mustExist(ctx context.Context, c existenceChecker, kind string, id uint64) error {
	ok, err := c.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}

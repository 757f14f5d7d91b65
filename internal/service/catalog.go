package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/model"
)

// GenreStore reads genres.
type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint64) (model.Genre, error)
}

// MpaStore reads MPA ratings.
type MpaStore interface {
	List(ctx context.Context) ([]model.MpaRating, error)
	GetByID(ctx context.Context, id uint64) (model.MpaRating, error)
}

// DirectorStore manages directors.
type DirectorStore interface {
	Create(ctx context.Context, name string) (uint64, error)
	Update(ctx context.Context, d model.Director) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Director, error)
	List(ctx context.Context) ([]model.Director, error)
	Exists(ctx context.Context, id uint64) (bool, error)
}

// CatalogService owns writes to the film catalog: films, likes and
// directors, plus the reference reads.
type CatalogService struct {
	hydrator
	writer    FilmWriter
	likes     LikeStore
	users     existenceChecker
	genres    GenreStore
	mpa       MpaStore
	directors DirectorStore
	feed      FeedPublisher
	now       func() time.Time
}

// CatalogDeps groups the collaborators of a CatalogService. Films takes
// the writes; written films are read back through Snapshots.
type CatalogDeps struct {
	Films     FilmWriter
	Snapshots Snapshotter
	Likes     LikeStore
	Users     existenceChecker
	Genres    GenreStore
	Mpa       MpaStore
	Directors DirectorStore
	Feed      FeedPublisher
}

func NewCatalogService(d CatalogDeps) *CatalogService {
	return &CatalogService{
		hydrator:  hydrator{snapshots: d.Snapshots},
		writer:    d.Films,
		likes:     d.Likes,
		users:     d.Users,
		genres:    d.Genres,
		mpa:       d.Mpa,
		directors: d.Directors,
		feed:      d.Feed,
		now:       time.Now,
	}
}

// CreateFilm stores a film with its genres and directors and returns the
// hydrated result.
func (s *CatalogService) CreateFilm(ctx context.Context, in model.FilmInput) (model.Film, error) {
	if err := checkFilmInput(in); err != nil {
		return model.Film{}, err
	}
	id, err := s.writer.Create(ctx, in)
	if err != nil {
		return model.Film{}, err
	}
	logging.Ctx(ctx).Info().Uint64("film_id", id).Msg("film created")
	return s.get(ctx, id)
}

// UpdateFilm replaces a film's attributes and associations.
func (s *CatalogService) UpdateFilm(ctx context.Context, id uint64, in model.FilmInput) (model.Film, error) {
	if err := checkFilmInput(in); err != nil {
		return model.Film{}, err
	}
	if err := s.writer.Update(ctx, id, in); err != nil {
		return model.Film{}, err
	}
	return s.get(ctx, id)
}

// DeleteFilm removes a film with its likes and associations.
func (s *CatalogService) DeleteFilm(ctx context.Context, id uint64) error {
	if err := s.writer.Delete(ctx, id); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Uint64("film_id", id).Msg("film deleted")
	return nil
}

// AddLike records that userID likes filmID. Liking twice has no further
// effect and publishes no second event.
func (s *CatalogService) AddLike(ctx context.Context, filmID, userID uint64) error {
	if err := s.checkLikeParties(ctx, filmID, userID); err != nil {
		return err
	}
	added, err := s.likes.Add(ctx, filmID, userID)
	if err != nil {
		return err
	}
	if added {
		s.emit(ctx, userID, model.EventLike, model.OpAdd, filmID)
	}
	return nil
}

// RemoveLike deletes the like if present.
func (s *CatalogService) RemoveLike(ctx context.Context, filmID, userID uint64) error {
	if err := s.checkLikeParties(ctx, filmID, userID); err != nil {
		return err
	}
	removed, err := s.likes.Remove(ctx, filmID, userID)
	if err != nil {
		return err
	}
	if removed {
		s.emit(ctx, userID, model.EventLike, model.OpRemove, filmID)
	}
	return nil
}

func (s *CatalogService) checkLikeParties(ctx context.Context, filmID, userID uint64) error {
	if err := mustExist(ctx, s.writer, "film", filmID); err != nil {
		return err
	}
	return mustExist(ctx, s.users, "user", userID)
}

func (s *CatalogService) emit(ctx context.Context, userID uint64, typ, op string, entityID uint64) {
	publish(ctx, s.feed, model.FeedEvent{
		Timestamp: s.now().UnixMilli(),
		UserID:    userID,
		EventType: typ,
		Operation: op,
		EntityID:  entityID,
	})
}

func (s *CatalogService) Genres(ctx context.Context) ([]model.Genre, error) { return s.genres.List(ctx) }

func (s *CatalogService) Genre(ctx context.Context, id uint64) (model.Genre, error) {
	return s.genres.GetByID(ctx, id)
}

func (s *CatalogService) Ratings(ctx context.Context) ([]model.MpaRating, error) { return s.mpa.List(ctx) }

func (s *CatalogService) Rating(ctx context.Context, id uint64) (model.MpaRating, error) {
	return s.mpa.GetByID(ctx, id)
}

func (s *CatalogService) Directors(ctx context.Context) ([]model.Director, error) {
	return s.directors.List(ctx)
}

func (s *CatalogService) Director(ctx context.Context, id uint64) (model.Director, error) {
	return s.directors.GetByID(ctx, id)
}

func (s *CatalogService) CreateDirector(ctx context.Context, name string) (model.Director, error) {
	id, err := s.directors.Create(ctx, name)
	if err != nil {
		return model.Director{}, err
	}
	return model.Director{ID: id, Name: name}, nil
}

func (s *CatalogService) UpdateDirector(ctx context.Context, d model.Director) (model.Director, error) {
	if err := s.directors.Update(ctx, d); err != nil {
		return model.Director{}, err
	}
	return d, nil
}

// DeleteDirector removes a director; its films stay, without the
// association.
func (s *CatalogService) DeleteDirector(ctx context.Context, id uint64) error {
	return s.directors.Delete(ctx, id)
}

func checkFilmInput(in model.FilmInput) error {
	if in.MpaID == 0 {
		return fmt.Errorf("%w: mpa rating is required", ErrInvalidArgument)
	}
	if !in.ReleaseDate.After(model.ReleaseDateFloor) {
		return fmt.Errorf("%w: release date must be after %s", ErrInvalidArgument, model.ReleaseDateFloor.Format(model.DateLayout))
	}
	if in.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}
	return nil
}

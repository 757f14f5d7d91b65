package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
	"github.com/iliyamo/film-catalog/internal/testinfra"
)

func TestCreateFilm_ValidatesInput(t *testing.T) {
	f := newFixture(t)
	base := model.FilmInput{Name: "X", ReleaseDate: testinfra.Date(2000, 1, 1), Duration: 10, MpaID: 1}

	cases := map[string]func(in *model.FilmInput){
		"missing rating":   func(in *model.FilmInput) { in.MpaID = 0 },
		"release on floor": func(in *model.FilmInput) { in.ReleaseDate = model.ReleaseDateFloor },
		"zero duration":    func(in *model.FilmInput) { in.Duration = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := f.catalog.CreateFilm(f.ctx, in)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	in := base
	in.GenreIDs = []uint64{1, 42}
	_, err := f.catalog.CreateFilm(f.ctx, in)
	assert.ErrorIs(t, err, repository.ErrIntegrityViolation)

	all, err := f.ranking.ListFilms(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateFilm_ReturnsHydratedFilm(t *testing.T) {
	f := newFixture(t)
	film, err := f.catalog.CreateFilm(f.ctx, model.FilmInput{
		Name: "Alien", Description: "in space", ReleaseDate: testinfra.Date(1979, 5, 25),
		Duration: 117, MpaID: 4, GenreIDs: []uint64{4, 6},
	})
	require.NoError(t, err)
	assert.NotZero(t, film.ID)
	assert.Equal(t, "R", film.Mpa.Name)
	assert.Equal(t, []model.Genre{{ID: 4, Name: "Thriller"}, {ID: 6, Name: "Action"}}, film.Genres)
	assert.Empty(t, film.Directors)
	assert.Empty(t, film.Likes)

	require.NoError(t, f.catalog.DeleteFilm(f.ctx, film.ID))
	assert.ErrorIs(t, f.catalog.DeleteFilm(f.ctx, film.ID), repository.ErrNotFound)
}

func TestLikes_PublishOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	film := f.film("F", testinfra.Date(2001, 1, 1))
	u := f.user("u")

	f.like(film, u)
	f.like(film, u)
	require.NoError(t, f.catalog.RemoveLike(f.ctx, film, u))
	require.NoError(t, f.catalog.RemoveLike(f.ctx, film, u))

	evs := f.events.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, model.FeedEvent{Timestamp: 1_700_000_000_000, UserID: u, EventType: model.EventLike, Operation: model.OpAdd, EntityID: film}, evs[0])
	assert.Equal(t, model.OpRemove, evs[1].Operation)

	assert.ErrorIs(t, f.catalog.AddLike(f.ctx, film, 999), repository.ErrNotFound)
	assert.ErrorIs(t, f.catalog.AddLike(f.ctx, 999, u), repository.ErrNotFound)
}

func TestLikes_PublishFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t)
	film := f.film("F", testinfra.Date(2001, 1, 1))
	u := f.user("u")
	f.events.err = errors.New("broker down")

	require.NoError(t, f.catalog.AddLike(f.ctx, film, u))
	got, err := f.ranking.GetFilm(f.ctx, film)
	require.NoError(t, err)
	assert.Equal(t, []uint64{u}, got.Likes)
}

func TestDirectors(t *testing.T) {
	f := newFixture(t)
	d, err := f.catalog.CreateDirector(f.ctx, "Bong")
	require.NoError(t, err)

	d.Name = "Bong Joon-ho"
	_, err = f.catalog.UpdateDirector(f.ctx, d)
	require.NoError(t, err)
	got, err := f.catalog.Director(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bong Joon-ho", got.Name)

	list, err := f.catalog.Directors(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.catalog.DeleteDirector(f.ctx, d.ID))
	_, err = f.catalog.Director(f.ctx, d.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReferenceReads(t *testing.T) {
	f := newFixture(t)
	genres, err := f.catalog.Genres(f.ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 6)
	g, err := f.catalog.Genre(f.ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Documentary", g.Name)

	ratings, err := f.catalog.Ratings(f.ctx)
	require.NoError(t, err)
	assert.Len(t, ratings, 5)
	_, err = f.catalog.Rating(f.ctx, 6)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

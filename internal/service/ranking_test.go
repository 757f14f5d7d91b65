package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/metrics"
	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
	"github.com/iliyamo/film-catalog/internal/testinfra"
)

func TestMostPopular_OrdersByLikesThenID(t *testing.T) {
	f := newFixture(t)
	f1 := f.film("F1", testinfra.Date(2001, 1, 1))
	f2 := f.film("F2", testinfra.Date(2002, 1, 1))
	f3 := f.film("F3", testinfra.Date(2003, 1, 1))
	u1, u2, u3 := f.user("u1"), f.user("u2"), f.user("u3")
	f.like(f1, u1)
	f.like(f2, u1, u2, u3)
	f.like(f3, u1)

	films, err := f.ranking.MostPopular(f.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f2, f3, f1}, filmIDs(films))
	assert.Equal(t, []uint64{u1, u2, u3}, films[0].Likes)
	assert.Equal(t, 3, films[0].LikeCount())

	top, err := f.ranking.MostPopular(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, filmIDs(films)[:2], filmIDs(top), "a smaller limit is a prefix of the larger one")
}

func TestMostPopular_IncludesFilmsWithoutLikes(t *testing.T) {
	f := newFixture(t)
	a := f.film("A", testinfra.Date(2001, 1, 1))
	b := f.film("B", testinfra.Date(2001, 1, 1))

	films, err := f.ranking.MostPopular(f.ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b, a}, filmIDs(films))
	assert.NotNil(t, films[0].Likes)
	assert.Empty(t, films[0].Likes)
}

func TestMostPopular_RejectsNonPositiveLimit(t *testing.T) {
	f := newFixture(t)
	for _, n := range []int{0, -3} {
		_, err := f.ranking.MostPopular(f.ctx, n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = f.ranking.PopularByGenreAndYear(f.ctx, n, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestPopularByGenreAndYear_Filters(t *testing.T) {
	f := newFixture(t)
	comedy01 := f.film("Comedy 2001", testinfra.Date(2001, 3, 1), 1)
	drama01 := f.film("Drama 2001", testinfra.Date(2001, 7, 1), 2)
	comedy02 := f.film("Comedy 2002", testinfra.Date(2002, 1, 1), 1, 2)
	u := f.user("u")
	f.like(drama01, u)

	genre, year := uint64(1), 2001
	films, err := f.ranking.PopularByGenreAndYear(f.ctx, 10, &genre, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{comedy02, comedy01}, filmIDs(films))

	films, err = f.ranking.PopularByGenreAndYear(f.ctx, 10, nil, &year)
	require.NoError(t, err)
	assert.Equal(t, []uint64{drama01, comedy01}, filmIDs(films))

	films, err = f.ranking.PopularByGenreAndYear(f.ctx, 10, &genre, &year)
	require.NoError(t, err)
	assert.Equal(t, []uint64{comedy01}, filmIDs(films))
	assert.Equal(t, []model.Genre{{ID: 1, Name: "Comedy"}}, films[0].Genres)
}

// hookedSnapshots decorates the film reader of every snapshot it opens.
type hookedSnapshots struct {
	Snapshotter
	wrap func(FilmReader) FilmReader
}

func (h hookedSnapshots) Snapshot(ctx context.Context, fn func(FilmReader, RelationLoader) error) error {
	return h.Snapshotter.Snapshot(ctx, func(films FilmReader, loader RelationLoader) error {
		return fn(h.wrap(films), loader)
	})
}

type failingPopular struct {
	FilmReader
}

func (failingPopular) PopularRows(context.Context, repository.PopularFilter) ([]model.FilmRow, error) {
	return nil, errors.New("connection reset")
}

// afterPopular calls *after once, when the first PopularRows call returns.
type afterPopular struct {
	FilmReader
	after *func()
}

func (a afterPopular) PopularRows(ctx context.Context, f repository.PopularFilter) ([]model.FilmRow, error) {
	rows, err := a.FilmReader.PopularRows(ctx, f)
	if fn := *a.after; fn != nil {
		*a.after = nil
		fn()
	}
	return rows, err
}

func TestPopularByGenreAndYear_DegradesToEmptyList(t *testing.T) {
	db := testinfra.NewDB(t)
	snapshots := hookedSnapshots{
		Snapshotter: StoreSnapshots(repository.NewSnapshots(db)),
		wrap:        func(r FilmReader) FilmReader { return failingPopular{r} },
	}
	s := NewRankingService(snapshots, repository.NewUserRepo(db), repository.NewDirectorRepo(db))

	before := testutil.ToFloat64(metrics.DegradedReads.WithLabelValues("popular_filtered"))
	year := 1999
	got, err := s.PopularByGenreAndYear(context.Background(), 10, nil, &year)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DegradedReads.WithLabelValues("popular_filtered")))

	// The unfiltered list does not degrade.
	_, err = s.MostPopular(context.Background(), 10)
	assert.Error(t, err)
}

func TestPopularByGenreAndYear_WriteBetweenRowsAndRelations(t *testing.T) {
	db := testinfra.NewFileDB(t)
	ctx := t.Context()
	a := testinfra.InsertFilm(t, db, "A", testinfra.Date(2001, 1, 1))
	b := testinfra.InsertFilm(t, db, "B", testinfra.Date(2001, 1, 1))
	testinfra.SetGenres(t, db, a, 1)
	testinfra.SetGenres(t, db, b, 1)
	u1, u2, u3 := testinfra.InsertUser(t, db, "u1"), testinfra.InsertUser(t, db, "u2"), testinfra.InsertUser(t, db, "u3")
	testinfra.Like(t, db, a, u1)
	testinfra.Like(t, db, a, u2)
	testinfra.Like(t, db, b, u3)

	wrote := false
	write := func() {
		testinfra.Like(t, db, b, u1)
		testinfra.Like(t, db, b, u2)
		_, err := db.Exec(`DELETE FROM film_genres WHERE film_id = ? AND genre_id = 1`, a)
		require.NoError(t, err)
		wrote = true
	}
	snapshots := hookedSnapshots{
		Snapshotter: StoreSnapshots(repository.NewSnapshots(db)),
		wrap:        func(r FilmReader) FilmReader { return afterPopular{FilmReader: r, after: &write} },
	}
	s := NewRankingService(snapshots, repository.NewUserRepo(db), repository.NewDirectorRepo(db))
	comedy := uint64(1)

	got, err := s.PopularByGenreAndYear(ctx, 10, &comedy, nil)
	require.NoError(t, err)
	require.True(t, wrote)
	assert.Equal(t, []uint64{a, b}, filmIDs(got))
	assert.Equal(t, 2, got[0].LikeCount())
	assert.Equal(t, 1, got[1].LikeCount())
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].LikeCount(), got[i].LikeCount())
	}
	for _, film := range got {
		assert.Contains(t, film.Genres, model.Genre{ID: 1, Name: "Comedy"}, "film %d", film.ID)
	}

	// The next read observes the committed write.
	after, err := s.PopularByGenreAndYear(ctx, 10, &comedy, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b}, filmIDs(after))
	assert.Equal(t, 3, after[0].LikeCount())
}

func TestCommonFilms(t *testing.T) {
	f := newFixture(t)
	f1 := f.film("F1", testinfra.Date(2001, 1, 1))
	f2 := f.film("F2", testinfra.Date(2001, 1, 1))
	f3 := f.film("F3", testinfra.Date(2001, 1, 1))
	a, b, c := f.user("a"), f.user("b"), f.user("c")
	f.like(f1, a, b)
	f.like(f2, a, b, c)
	f.like(f3, a)

	ab, err := f.ranking.CommonFilms(f.ctx, a, b)
	require.NoError(t, err)
	ba, err := f.ranking.CommonFilms(f.ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f2, f1}, filmIDs(ab))
	assert.Equal(t, filmIDs(ab), filmIDs(ba))

	none, err := f.ranking.CommonFilms(f.ctx, c, f.user("d"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.ranking.CommonFilms(f.ctx, a, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestByDirector(t *testing.T) {
	f := newFixture(t)
	d, err := f.catalog.CreateDirector(f.ctx, "Villeneuve")
	require.NoError(t, err)

	newer := f.film("Dune", testinfra.Date(2021, 9, 15))
	older := f.film("Arrival", testinfra.Date(2016, 11, 11))
	for _, id := range []uint64{newer, older} {
		row, err := f.ranking.GetFilm(f.ctx, id)
		require.NoError(t, err)
		_, err = f.catalog.UpdateFilm(f.ctx, id, model.FilmInput{
			Name: row.Name, Description: row.Description, ReleaseDate: row.ReleaseDate,
			Duration: row.Duration, MpaID: row.Mpa.ID, DirectorIDs: []uint64{d.ID},
		})
		require.NoError(t, err)
	}
	f.like(newer, f.user("fan"))

	byYear, err := f.ranking.ByDirector(f.ctx, d.ID, SortByYear)
	require.NoError(t, err)
	assert.Equal(t, []uint64{older, newer}, filmIDs(byYear))
	assert.Equal(t, []model.Director{d}, byYear[0].Directors)

	again, err := f.ranking.ByDirector(f.ctx, d.ID, SortByYear)
	require.NoError(t, err)
	assert.Equal(t, byYear, again, "repeated reads return the same aggregates")

	byLikes, err := f.ranking.ByDirector(f.ctx, d.ID, SortByLikes)
	require.NoError(t, err)
	assert.Equal(t, []uint64{newer, older}, filmIDs(byLikes))

	_, err = f.ranking.ByDirector(f.ctx, d.ID, "rating")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.ranking.ByDirector(f.ctx, d.ID+1, SortByYear)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	d, err := f.catalog.CreateDirector(f.ctx, "Greta Gerwig")
	require.NoError(t, err)
	barbie, err := f.catalog.CreateFilm(f.ctx, model.FilmInput{
		Name: "Barbie", Description: "doll", ReleaseDate: testinfra.Date(2023, 7, 21),
		Duration: 114, MpaID: 3, DirectorIDs: []uint64{d.ID},
	})
	require.NoError(t, err)
	greta := f.film("Greta", testinfra.Date(2018, 1, 1))

	byTitle, err := f.ranking.Search(f.ctx, "GRETA", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{greta}, filmIDs(byTitle))

	both, err := f.ranking.Search(f.ctx, "greta", []string{"title", "Director"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{greta, barbie.ID}, filmIDs(both))

	_, err = f.ranking.Search(f.ctx, "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.ranking.Search(f.ctx, "greta", []string{"genre"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListAndGetFilm(t *testing.T) {
	f := newFixture(t)
	empty, err := f.ranking.ListFilms(f.ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := f.film("A", testinfra.Date(2001, 1, 1), 2, 1)
	b := f.film("B", testinfra.Date(2001, 1, 1))
	all, err := f.ranking.ListFilms(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a, b}, filmIDs(all))
	assert.Equal(t, []model.Genre{{ID: 1, Name: "Comedy"}, {ID: 2, Name: "Drama"}}, all[0].Genres)
	assert.Equal(t, "G", all[0].Mpa.Name)

	_, err = f.ranking.GetFilm(f.ctx, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

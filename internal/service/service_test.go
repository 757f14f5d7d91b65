package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
	"github.com/iliyamo/film-catalog/internal/testinfra"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.FeedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.FeedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []model.FeedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.FeedEvent(nil), p.events...)
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	films   *repository.FilmRepo
	ranking *RankingService
	recs    *RecommendationService
	catalog *CatalogService
	social  *SocialService
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testinfra.NewDB(t)
	films := repository.NewFilmRepo(db)
	snapshots := StoreSnapshots(repository.NewSnapshots(db))
	users := repository.NewUserRepo(db)
	likes := repository.NewLikeRepo(db)
	directors := repository.NewDirectorRepo(db)
	pub := &recordingPublisher{}

	catalog := NewCatalogService(CatalogDeps{
		Films:     films,
		Snapshots: snapshots,
		Likes:     likes,
		Users:     users,
		Genres:    repository.NewGenreRepo(db),
		Mpa:       repository.NewMpaRepo(db),
		Directors: directors,
		Feed:      pub,
	})
	clock := time.UnixMilli(1_700_000_000_000)
	catalog.now = func() time.Time { return clock }
	social := NewSocialService(users, repository.NewFeedRepo(db), pub)
	social.now = func() time.Time { return clock }

	return &fixture{
		t:       t,
		ctx:     context.Background(),
		films:   films,
		ranking: NewRankingService(snapshots, users, directors),
		recs:    NewRecommendationService(snapshots, users, likes),
		catalog: catalog,
		social:  social,
		events:  pub,
	}
}

func (f *fixture) film(name string, release time.Time, genres ...uint64) uint64 {
	f.t.Helper()
	film, err := f.catalog.CreateFilm(f.ctx, model.FilmInput{
		Name:        name,
		Description: "about " + name,
		ReleaseDate: release,
		Duration:    90,
		MpaID:       1,
		GenreIDs:    genres,
	})
	require.NoError(f.t, err)
	return film.ID
}

func (f *fixture) user(login string) uint64 {
	f.t.Helper()
	u, err := f.social.CreateUser(f.ctx, model.User{Email: login + "@example.com", Login: login})
	require.NoError(f.t, err)
	return u.ID
}

func (f *fixture) like(filmID uint64, userIDs ...uint64) {
	f.t.Helper()
	for _, u := range userIDs {
		require.NoError(f.t, f.catalog.AddLike(f.ctx, filmID, u))
	}
}

func filmIDs(films []model.Film) []uint64 {
	ids := make([]uint64, len(films))
	for i, f := range films {
		ids[i] = f.ID
	}
	return ids
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/testinfra"
)

func TestLikeRepo_AddIsIdempotent(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewLikeRepo(db)
	ctx := context.Background()
	f := testinfra.InsertFilm(t, db, "F", testinfra.Date(2001, 1, 1))
	u := testinfra.InsertUser(t, db, "u")

	added, err := r.Add(ctx, f, u)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Add(ctx, f, u)
	require.NoError(t, err)
	assert.False(t, added, "second like must not be recorded")

	ids, err := r.LikedFilmIDs(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f}, ids)

	removed, err := r.Remove(ctx, f, u)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = r.Remove(ctx, f, u)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLikeRepo_LikeSets(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewLikeRepo(db)
	f1 := testinfra.InsertFilm(t, db, "F1", testinfra.Date(2001, 1, 1))
	f2 := testinfra.InsertFilm(t, db, "F2", testinfra.Date(2001, 1, 1))
	u1 := testinfra.InsertUser(t, db, "u1")
	u2 := testinfra.InsertUser(t, db, "u2")
	testinfra.InsertUser(t, db, "idle")
	testinfra.Like(t, db, f2, u1)
	testinfra.Like(t, db, f1, u1)
	testinfra.Like(t, db, f2, u2)

	sets, err := r.LikeSets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[uint64][]uint64{u1: {f1, f2}, u2: {f2}}, sets)
}

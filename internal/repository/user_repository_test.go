package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/testinfra"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()
	bday := testinfra.Date(1990, 4, 12)

	id, err := r.Create(ctx, model.User{Email: " Neo@Example.COM ", Login: "neo", Birthday: &bday})
	require.NoError(t, err)

	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "neo@example.com", u.Email)
	assert.Equal(t, "neo", u.Name, "empty name falls back to login")
	require.NotNil(t, u.Birthday)
	assert.Equal(t, bday, *u.Birthday)

	u.Name = "Thomas"
	u.Birthday = nil
	require.NoError(t, r.Update(ctx, u))
	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", got.Name)
	assert.Nil(t, got.Birthday)

	_, err = r.GetByID(ctx, id+1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, model.User{ID: id + 1, Login: "x"}), ErrNotFound)
}

func TestUserRepo_Friends(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()
	a := testinfra.InsertUser(t, db, "a")
	b := testinfra.InsertUser(t, db, "b")
	c := testinfra.InsertUser(t, db, "c")

	added, err := r.AddFriend(ctx, a, c)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.AddFriend(ctx, a, c)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = r.AddFriend(ctx, b, c)
	require.NoError(t, err)
	_, err = r.AddFriend(ctx, a, b)
	require.NoError(t, err)

	ids, err := r.FriendIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b, c}, ids)

	// The relation is one-way: c follows nobody.
	ids, err = r.FriendIDs(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, ids)

	common, err := r.CommonFriends(ctx, a, b)
	require.NoError(t, err)
	require.Len(t, common, 1)
	assert.Equal(t, c, common[0].ID)

	removed, err := r.RemoveFriend(ctx, a, c)
	require.NoError(t, err)
	assert.True(t, removed)
	friends, err := r.Friends(ctx, a)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "b", friends[0].Login)
}

func TestUserRepo_DeleteCascades(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()
	a := testinfra.InsertUser(t, db, "a")
	b := testinfra.InsertUser(t, db, "b")
	f := testinfra.InsertFilm(t, db, "F", testinfra.Date(2001, 1, 1))
	testinfra.Like(t, db, f, a)
	_, err := r.AddFriend(ctx, a, b)
	require.NoError(t, err)
	_, err = r.AddFriend(ctx, b, a)
	require.NoError(t, err)
	_, err = NewFeedRepo(db).Insert(ctx, model.FeedEvent{Timestamp: 1, UserID: a, EventType: model.EventLike, Operation: model.OpAdd, EntityID: f})
	require.NoError(t, err)
	c := testinfra.InsertUser(t, db, "c")
	testinfra.Like(t, db, f, c)
	_, err = r.AddFriend(ctx, c, b)
	require.NoError(t, err)
	_, err = NewFeedRepo(db).Insert(ctx, model.FeedEvent{Timestamp: 2, UserID: c, EventType: model.EventLike, Operation: model.OpAdd, EntityID: f})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, a))

	// Rows of other users survive.
	cFriends, err := r.FriendIDs(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b}, cFriends)
	var feedRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_feed WHERE user_id = ?`, a).Scan(&feedRows))
	assert.Zero(t, feedRows)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_feed WHERE user_id = ?`, c).Scan(&feedRows))
	assert.Equal(t, 1, feedRows)
	require.NoError(t, r.Delete(ctx, c))

	ok, err := r.Exists(ctx, a)
	require.NoError(t, err)
	assert.False(t, ok)
	ids, err := r.FriendIDs(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, ids)
	sets, err := NewLikeRepo(db).LikeSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.ErrorIs(t, r.Delete(ctx, a), ErrNotFound)
}

func TestFeedRepo_ListForUsers(t *testing.T) {
	db := testinfra.NewDB(t)
	r := NewFeedRepo(db)
	ctx := context.Background()

	insert := func(ts int64, user uint64) uint64 {
		id, err := r.Insert(ctx, model.FeedEvent{Timestamp: ts, UserID: user, EventType: model.EventFriend, Operation: model.OpAdd, EntityID: 9})
		require.NoError(t, err)
		return id
	}
	late := insert(300, 1)
	first := insert(100, 2)
	second := insert(100, 1)
	insert(50, 3)

	evs, err := r.ListForUsers(ctx, []uint64{1, 2, 2})
	require.NoError(t, err)
	got := make([]uint64, len(evs))
	for i, ev := range evs {
		got[i] = ev.EventID
	}
	assert.Equal(t, []uint64{first, second, late}, got)
	assert.Equal(t, model.EventFriend, evs[0].EventType)

	evs, err = r.ListForUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

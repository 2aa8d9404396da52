package store

import (
	"context"
	"testing"
	"time"

	"github.com/james-see/fractune/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// clock returns one second later on every call
type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func composition(t *testing.T, seed int64) engine.Composition {
	t.Helper()
	e := engine.New(engine.DefaultConfig())
	comp, err := e.Generate(e.Config().Defaults(), engine.NewRand(seed))
	require.NoError(t, err)
	return *comp
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func repositories(t *testing.T) map[string]Repository {
	mem := NewMemoryRepository()
	mem.now = newClock().now

	sql := NewGormRepository(newSQLite(t))
	sql.now = newClock().now

	return map[string]Repository{"memory": mem, "gorm": sql}
}

func save(t *testing.T, repo Repository, owner, title string, seed int64) *Record {
	t.Helper()
	rec := &Record{OwnerID: owner, Title: title, Seed: seed, Composition: composition(t, seed)}
	require.NoError(t, repo.Save(context.Background(), rec))
	return rec
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSaveAndGet(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := save(t, repo, "alice", "first", 7)
			require.NotEmpty(t, rec.ID)
			assert.False(t, rec.CreatedAt.IsZero())

			got, err := repo.Get(ctx, "alice", rec.ID)
			require.NoError(t, err)
			assert.Equal(t, "first", got.Title)
			assert.Equal(t, int64(7), got.Seed)
			assert.Equal(t, rec.Composition, got.Composition)
			assert.False(t, got.Favorite)
			assert.Nil(t, got.FavoritedAt)

			_, err = repo.Get(ctx, "bob", rec.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = repo.Get(ctx, "alice", "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			a := save(t, repo, "alice", "a", 1)
			b := save(t, repo, "alice", "b", 2)
			save(t, repo, "bob", "c", 3)

			list, err := repo.List(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID, a.ID}, ids(list))

			empty, err := repo.List(context.Background(), "carol")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)
		})
	}
}

func TestFavorites(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := save(t, repo, "alice", "a", 1)
			b := save(t, repo, "alice", "b", 2)

			rec, err := repo.SetFavorite(ctx, "alice", a.ID, true)
			require.NoError(t, err)
			assert.True(t, rec.Favorite)
			require.NotNil(t, rec.FavoritedAt)

			_, err = repo.SetFavorite(ctx, "alice", b.ID, true)
			require.NoError(t, err)

			favs, err := repo.Favorites(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID, a.ID}, ids(favs))

			// setting the same state twice is a no-op
			_, err = repo.SetFavorite(ctx, "alice", b.ID, true)
			require.NoError(t, err)

			rec, err = repo.SetFavorite(ctx, "alice", a.ID, false)
			require.NoError(t, err)
			assert.False(t, rec.Favorite)
			assert.Nil(t, rec.FavoritedAt)

			favs, err = repo.Favorites(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID}, ids(favs))

			_, err = repo.SetFavorite(ctx, "bob", b.ID, false)
			assert.ErrorIs(t, err, ErrNotFound)

			history, err := repo.History(ctx, "alice", 0)
			require.NoError(t, err)
			actions := make([]string, len(history))
			for i, h := range history {
				actions[i] = h.Action
			}
			assert.Equal(t, []string{
				ActionFavoriteRemoved,
				ActionFavoriteAdded,
				ActionFavoriteAdded,
				ActionCreated,
				ActionCreated,
			}, actions)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := save(t, repo, "alice", "doomed", 1)

			assert.ErrorIs(t, repo.Delete(ctx, "bob", rec.ID), ErrNotFound)
			require.NoError(t, repo.Delete(ctx, "alice", rec.ID))
			assert.ErrorIs(t, repo.Delete(ctx, "alice", rec.ID), ErrNotFound)

			_, err := repo.Get(ctx, "alice", rec.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			history, err := repo.History(ctx, "alice", 1)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, ActionDeleted, history[0].Action)
			assert.Equal(t, rec.ID, history[0].CompositionID)
			assert.Equal(t, "doomed", history[0].Title)

			bobs, err := repo.History(ctx, "bob", 10)
			require.NoError(t, err)
			assert.Empty(t, bobs)
		})
	}
}

func TestSummary(t *testing.T) {
	rec := &Record{ID: "r1", Title: "t", Seed: 3, Composition: composition(t, 3)}
	s := rec.Summary()

	assert.Equal(t, "r1", s.ID)
	assert.Equal(t, engine.ScaleMajor, s.Scale)
	assert.Equal(t, 120, s.Tempo)
	assert.Equal(t, 32, s.Events["bass"])
	assert.Positive(t, s.Events["melody"])
	assert.Positive(t, s.LengthBeats)

	assert.Len(t, Summaries([]Record{*rec, *rec}), 2)
}

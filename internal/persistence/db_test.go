package persistence

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/engine"
	"github.com/talgya/pigeon-pope/internal/entropy"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "roost.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSave(t *testing.T, ticks int) SaveData {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	g, err := engine.NewGame(cat, entropy.NewSeeded(3), engine.Options{Seed: 3})
	require.NoError(t, err)
	for range ticks {
		g.Tick()
	}
	return g.Export()
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	t.Run("empty slot", func(t *testing.T) {
		_, err := db.Load(ctx, "auto")
		assert.ErrorIs(t, err, ErrNoSave)
	})

	t.Run("round trip", func(t *testing.T) {
		data := sampleSave(t, 25)
		require.NoError(t, db.Save(ctx, "auto", data))

		got, err := db.Load(ctx, "auto")
		require.NoError(t, err)
		assert.Equal(t, data.Tick, got.Tick)
		assert.InDelta(t, data.Resources.Faith, got.Resources.Faith, 1e-9)
		assert.Equal(t, data.Hand, got.Hand)
		assert.Equal(t, data.Followers, got.Followers)
		assert.Equal(t, data.Chronicle, got.Chronicle)

		last, err := db.GetMeta("last_tick")
		require.NoError(t, err)
		assert.Equal(t, "25", last)
	})

	t.Run("meta", func(t *testing.T) {
		_, err := db.GetMeta("last_import")
		assert.Error(t, err)

		require.NoError(t, db.SaveMeta("last_import", "old.sav"))
		require.NoError(t, db.SaveMeta("last_import", "roost.sav"))
		got, err := db.GetMeta("last_import")
		require.NoError(t, err)
		assert.Equal(t, "roost.sav", got)
	})

	t.Run("overwrite replaces chronicle", func(t *testing.T) {
		data := sampleSave(t, 5)
		data.Chronicle = []engine.Event{{Tick: 1, Description: "one", Category: engine.CategorySystem}, {Tick: 2, Description: "two", Category: engine.CategoryCard}}
		require.NoError(t, db.Save(ctx, "auto", data))

		events, err := db.RecentChronicle(ctx, "auto", 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "two", events[0].Description)

		slots, err := db.Slots(ctx)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, uint64(5), slots[0].Tick)
		assert.Positive(t, slots[0].Size)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, db.Delete(ctx, "auto"))
		_, err := db.Load(ctx, "auto")
		assert.ErrorIs(t, err, ErrNoSave)
	})
}

func TestVersionMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	data := sampleSave(t, 1)
	data.Version = engine.SaveVersion + 1
	require.NoError(t, db.Save(ctx, "old", data))

	_, err := db.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrSaveVersionMismatch)

	t.Run("older shape is a mismatch, not a schema error", func(t *testing.T) {
		_, err := db.conn.ExecContext(ctx,
			"INSERT INTO save_slots (slot, version, tick, saved_at, payload) VALUES (?, ?, ?, ?, ?)",
			"legacy", 2, 40, time.Now().UTC(), []byte(`{"version": 2, "weather": {"id": "weather-001"}}`))
		require.NoError(t, err)

		_, err = db.Load(ctx, "legacy")
		assert.ErrorIs(t, err, ErrSaveVersionMismatch)
	})
}

func TestExportImport(t *testing.T) {
	t.Run("compressed round trip", func(t *testing.T) {
		data := sampleSave(t, 10)
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, data))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), zstdMagic))

		got, err := Import(&buf)
		require.NoError(t, err)
		assert.Equal(t, data.Tick, got.Tick)
		assert.Equal(t, data.Deck, got.Deck)
		assert.Equal(t, data.Rival.Name, got.Rival.Name)
	})

	t.Run("plain partial json", func(t *testing.T) {
		got, err := Import(strings.NewReader(`{"version": 4, "resources": {"faith": 42}}`))
		require.NoError(t, err)
		assert.Equal(t, 42.0, got.Resources.Faith)
		assert.Equal(t, 25.0, got.Resources.Crumbs)
		assert.Equal(t, engine.StartingTerritory, got.Territory)
	})

	t.Run("schema rejects bad shape", func(t *testing.T) {
		_, err := Import(strings.NewReader(`{"version": 4, "hand": "card-001"}`))
		assert.Error(t, err)

		_, err = Import(strings.NewReader(`{"resources": {}}`))
		assert.Error(t, err, "version is required")
	})

	t.Run("wrong version", func(t *testing.T) {
		_, err := Import(strings.NewReader(`{"version": 1}`))
		assert.ErrorIs(t, err, ErrSaveVersionMismatch)

		_, err = Import(strings.NewReader(`{"version": 2, "weather": {"id": "weather-001"}, "hand": "card-001"}`))
		assert.ErrorIs(t, err, ErrSaveVersionMismatch)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Import(strings.NewReader("not a save"))
		assert.Error(t, err)
	})
}

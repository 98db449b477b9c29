package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEdits() []world.Edit {
	return []world.Edit{
		{Key: world.EditKey{OriginX: -32, OriginZ: 0, X: 1, Y: 5, Z: 2}, Block: block.StoneBlockID},
		{Key: world.EditKey{OriginX: 0, OriginZ: 32, X: 0, Y: 9, Z: 31}, Block: block.EmptyBlockID},
	}
}

func TestWorldStorageRoundTrip(t *testing.T) {
	kv, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	ws := NewWorldStorage(kv, "")
	ws.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	params := world.DefaultParams()
	params.Seed = 777
	edits := sampleEdits()

	meta, err := ws.Save(context.Background(), params, edits)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Edits)
	assert.NotEqual(t, [16]byte{}, [16]byte(meta.ID))

	snap, err := ws.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, meta, snap.Meta)
	assert.Equal(t, params, snap.Params)
	assert.Equal(t, edits, snap.Edits)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), snap.Meta.SavedAt)
}

func TestWorldStorageEmptyOverlay(t *testing.T) {
	ws := NewWorldStorage(NewMemoryStore(), "slot-1")
	_, err := ws.Save(context.Background(), world.DefaultParams(), nil)
	require.NoError(t, err)

	snap, err := ws.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Edits)
}

func TestWorldStorageNoSave(t *testing.T) {
	ws := NewWorldStorage(NewMemoryStore(), "")
	_, err := ws.Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoSave))

	_, err = ws.Save(context.Background(), world.DefaultParams(), sampleEdits())
	require.NoError(t, err)
	require.NoError(t, ws.Delete(context.Background()))
	_, err = ws.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSave)
}

func TestWorldStorageCorrupt(t *testing.T) {
	ctx := context.Background()

	valid := func(t *testing.T) (*MemoryStore, record) {
		kv := NewMemoryStore()
		ws := NewWorldStorage(kv, "")
		_, err := ws.Save(ctx, world.DefaultParams(), sampleEdits())
		require.NoError(t, err)

		data, err := kv.Get(ctx, DefaultSaveKey)
		require.NoError(t, err)
		var rec record
		require.NoError(t, json.Unmarshal(data, &rec))
		return kv, rec
	}

	store := func(t *testing.T, kv *MemoryStore, rec record) {
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		require.NoError(t, kv.Set(ctx, DefaultSaveKey, data))
	}

	cases := map[string]func(t *testing.T, kv *MemoryStore, rec record){
		"garbage": func(t *testing.T, kv *MemoryStore, _ record) {
			require.NoError(t, kv.Set(ctx, DefaultSaveKey, []byte("{not json")))
		},
		"version": func(t *testing.T, kv *MemoryStore, rec record) {
			rec.Meta.Version = 99
			store(t, kv, rec)
		},
		"params": func(t *testing.T, kv *MemoryStore, rec record) {
			rec.Params.Terrain.Scale = 0
			store(t, kv, rec)
		},
		"overlay bytes": func(t *testing.T, kv *MemoryStore, rec record) {
			rec.Overlay = []byte("definitely not zstd")
			store(t, kv, rec)
		},
		"edit count": func(t *testing.T, kv *MemoryStore, rec record) {
			rec.Meta.Edits = 5
			store(t, kv, rec)
		},
		"unknown block": func(t *testing.T, kv *MemoryStore, rec record) {
			overlay, err := encodeOverlay([]world.Edit{
				{Key: world.EditKey{X: 1, Y: 1, Z: 1}, Block: block.BlockID(999)},
				{Key: world.EditKey{X: 2, Y: 1, Z: 1}, Block: block.StoneBlockID},
			})
			require.NoError(t, err)
			rec.Overlay = overlay
			store(t, kv, rec)
		},
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			kv, rec := valid(t)
			corrupt(t, kv, rec)

			_, err := NewWorldStorage(kv, "").Load(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptSave)
		})
	}
}

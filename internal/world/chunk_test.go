package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFlatTerrainInstances(t *testing.T) {
	// 4x4x4, высота 1: земля на y=0, трава на y=1, выше пусто
	c := generatedChunk(t, flatParams(0.25), Size{Width: 4, Height: 4}, vec.Vec2{}, NewDataStore())

	occupied := 0
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			assert.Equal(t, block.DirtBlockID, c.GetBlockID(vec.Vec3{X: x, Y: 0, Z: z}))
			assert.Equal(t, block.GrassBlockID, c.GetBlockID(vec.Vec3{X: x, Y: 1, Z: z}))
			assert.Equal(t, block.EmptyBlockID, c.GetBlockID(vec.Vec3{X: x, Y: 2, Z: z}))
			assert.Equal(t, block.EmptyBlockID, c.GetBlockID(vec.Vec3{X: x, Y: 3, Z: z}))

			for y := 0; y < 2; y++ {
				assert.False(t, c.IsObscured(vec.Vec3{X: x, Y: y, Z: z}))
				occupied++
			}
		}
	}

	assert.Equal(t, 32, occupied)
	assert.Equal(t, occupied, c.InstanceCount())
	requireDense(t, c)
}

func TestChunkGenerationDeterministic(t *testing.T) {
	params := DefaultParams()
	params.Seed = 1234
	size := Size{Width: 16, Height: 32}
	coords := vec.Vec2{X: 2, Y: -1}

	a := generatedChunk(t, params, size, coords, NewDataStore())
	b := generatedChunk(t, params, size, coords, NewDataStore())

	require.Equal(t, a.blocks, b.blocks)
	require.Equal(t, len(a.InstanceLists()), len(b.InstanceLists()))
	for _, la := range a.InstanceLists() {
		lb, ok := b.InstanceList(la.Block)
		require.True(t, ok)
		assert.Equal(t, la.Count(), lb.Count())
		assert.Equal(t, la.Transforms(), lb.Transforms())
	}
	requireDense(t, a)
}

func TestChunkResourcesSurviveBelowSurface(t *testing.T) {
	params := flatParams(0.5)
	params.Resources = []ResourceParams{
		{Block: block.CoalBlockID, Scale: Scale3{X: 10, Y: 10, Z: 10}, Scarcity: -10},
		{Block: block.IronBlockID, Scale: Scale3{X: 10, Y: 10, Z: 10}, Scarcity: -10},
	}
	// высота = floor(0.5 * 8) = 4
	c := generatedChunk(t, params, Size{Width: 4, Height: 8}, vec.Vec2{}, NewDataStore())

	for y := 0; y <= 4; y++ {
		assert.Equal(t, block.IronBlockID, c.GetBlockID(vec.Vec3{X: 1, Y: y, Z: 2}), "y=%d", y)
	}
	for y := 5; y < 8; y++ {
		assert.Equal(t, block.EmptyBlockID, c.GetBlockID(vec.Vec3{X: 1, Y: y, Z: 2}), "y=%d", y)
	}
	requireDense(t, c)
}

func TestChunkTreesAndClouds(t *testing.T) {
	params := flatParams(0.1)
	params.Trees = TreeParams{
		Frequency: 1,
		Trunk:     TrunkParams{MinHeight: 2, MaxHeight: 2},
		Canopy:    CanopyParams{MinRadius: 1, MaxRadius: 1, Density: 1},
	}
	params.Clouds = CloudParams{Scale: 30, Density: 2}

	c := generatedChunk(t, params, Size{Width: 8, Height: 12}, vec.Vec2{}, NewDataStore())

	assert.Equal(t, block.GrassBlockID, c.GetBlockID(vec.Vec3{X: 3, Y: 1, Z: 3}))
	assert.Equal(t, block.TreeBlockID, c.GetBlockID(vec.Vec3{X: 3, Y: 2, Z: 3}))
	assert.Equal(t, block.TreeBlockID, c.GetBlockID(vec.Vec3{X: 3, Y: 3, Z: 3}))
	assert.Equal(t, block.LeavesBlockID, c.GetBlockID(vec.Vec3{X: 3, Y: 4, Z: 3}))

	// Столбцы у края чанка деревьев не получают
	assert.Equal(t, block.EmptyBlockID, c.GetBlockID(vec.Vec3{X: 0, Y: 2, Z: 0}))

	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			assert.Equal(t, block.CloudBlockID, c.GetBlockID(vec.Vec3{X: x, Y: 11, Z: z}))
		}
	}
	requireDense(t, c)
}

func TestChunkEditOverlayWins(t *testing.T) {
	store := NewDataStore()
	size := Size{Width: 4, Height: 4}
	c := generatedChunk(t, flatParams(0.25), size, vec.Vec2{X: 3, Y: -2}, store)
	target := vec.Vec3{X: 1, Y: 1, Z: 1}
	require.Equal(t, block.GrassBlockID, c.GetBlockID(target))

	store.Set(c.Origin.X, c.Origin.Z, target.X, target.Y, target.Z, block.StoneBlockID)

	fresh := generatedChunk(t, flatParams(0.25), size, vec.Vec2{X: 3, Y: -2}, store)
	assert.Equal(t, block.StoneBlockID, fresh.GetBlockID(target))
	requireDense(t, fresh)
}

func TestChunkAddRemoveBlock(t *testing.T) {
	store := NewDataStore()
	c := generatedChunk(t, flatParams(0.25), Size{Width: 4, Height: 4}, vec.Vec2{}, store)
	pos := vec.Vec3{X: 2, Y: 2, Z: 2}

	require.True(t, c.AddBlock(pos, block.StoneBlockID))
	assert.False(t, c.AddBlock(pos, block.DirtBlockID), "занятая ячейка")
	assert.Equal(t, block.StoneBlockID, c.GetBlockID(pos))
	stone, ok := c.InstanceList(block.StoneBlockID)
	require.True(t, ok)
	assert.Equal(t, 1, stone.Count())
	assert.True(t, stone.Dirty())

	id, ok := store.Get(0, 0, 2, 2, 2)
	require.True(t, ok)
	assert.Equal(t, block.StoneBlockID, id)

	require.True(t, c.RemoveBlock(pos))
	assert.False(t, c.RemoveBlock(pos), "уже пусто")
	assert.Equal(t, 0, stone.Count())
	b, _ := c.GetBlock(pos)
	assert.Equal(t, NoInstance, b.Slot)

	id, ok = store.Get(0, 0, 2, 2, 2)
	require.True(t, ok)
	assert.Equal(t, block.EmptyBlockID, id)

	assert.False(t, c.AddBlock(vec.Vec3{X: 9, Y: 0, Z: 0}, block.StoneBlockID), "вне чанка")
	assert.False(t, c.AddBlock(pos, block.EmptyBlockID))
	requireDense(t, c)
}

func TestChunkAddBlockHidesEnclosedNeighbor(t *testing.T) {
	// 8x8x8, поверхность на y=4
	c := generatedChunk(t, flatParams(0.5), Size{Width: 8, Height: 8}, vec.Vec2{}, NewDataStore())
	surface := vec.Vec3{X: 3, Y: 4, Z: 3}
	above := vec.Vec3{X: 3, Y: 5, Z: 3}

	b, _ := c.GetBlock(surface)
	require.Equal(t, block.GrassBlockID, b.ID)
	require.NotEqual(t, NoInstance, b.Slot)

	require.True(t, c.AddBlock(above, block.StoneBlockID))
	assert.True(t, c.IsObscured(surface))
	b, _ = c.GetBlock(surface)
	assert.Equal(t, NoInstance, b.Slot, "закрытая трава должна потерять слот")
	requireDense(t, c)

	require.True(t, c.RemoveBlock(above))
	b, _ = c.GetBlock(surface)
	assert.NotEqual(t, NoInstance, b.Slot, "открытая трава снова получает слот")
	requireDense(t, c)

	// удаление поверхностного блока открывает земляной блок под ним
	below := vec.Vec3{X: 3, Y: 3, Z: 3}
	b, _ = c.GetBlock(below)
	require.Equal(t, NoInstance, b.Slot)
	require.True(t, c.RemoveBlock(surface))
	b, _ = c.GetBlock(below)
	assert.NotEqual(t, NoInstance, b.Slot)
	requireDense(t, c)
}

func TestChunkDeleteInstanceSwapsLast(t *testing.T) {
	c := generatedChunk(t, flatParams(0.25), Size{Width: 4, Height: 4}, vec.Vec2{}, NewDataStore())
	grass, ok := c.InstanceList(block.GrassBlockID)
	require.True(t, ok)
	n := grass.Count()

	first := grass.At(0).Local
	last := grass.At(n - 1).Local

	require.True(t, c.DeleteInstance(first))
	assert.Equal(t, n-1, grass.Count())
	assert.Equal(t, last, grass.At(0).Local)

	b, _ := c.GetBlock(last)
	assert.Equal(t, 0, b.Slot)
	b, _ = c.GetBlock(first)
	assert.Equal(t, NoInstance, b.Slot)
	assert.False(t, c.DeleteInstance(first), "повторное удаление")

	require.True(t, c.AddInstance(first))
	assert.Equal(t, n, grass.Count())
	requireDense(t, c)
}

func TestChunkDisposeReleasesInstances(t *testing.T) {
	c := generatedChunk(t, flatParams(0.25), Size{Width: 4, Height: 4}, vec.Vec2{}, NewDataStore())
	c.Dispose()

	assert.True(t, c.Disposed())
	assert.False(t, c.Loaded)
	assert.Equal(t, 0, c.InstanceCount())
	_, ok := c.GetBlock(vec.Vec3{})
	assert.False(t, ok)
	assert.False(t, c.AddBlock(vec.Vec3{X: 1, Y: 2, Z: 1}, block.StoneBlockID))
}

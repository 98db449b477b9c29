package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

// flatParams — ровный мир без руд, деревьев и облаков.
// Высота столбца = floor(offset * chunkHeight).
func flatParams(offset float64) Params {
	return Params{
		Seed:    7,
		Terrain: TerrainParams{Scale: 30, Magnitude: 0, Offset: offset},
		Trees: TreeParams{
			Frequency: 0,
			Trunk:     TrunkParams{MinHeight: 1, MaxHeight: 1},
			Canopy:    CanopyParams{MinRadius: 0, MaxRadius: 0, Density: 0},
		},
		Clouds: CloudParams{Scale: 30, Density: -1},
	}
}

func generatedChunk(t *testing.T, params Params, size Size, coords vec.Vec2, store *DataStore) *Chunk {
	t.Helper()
	require.NoError(t, params.Validate())
	c := NewChunk(coords, size, NewGenerator(params), store)
	c.Generate()
	require.True(t, c.Loaded)
	return c
}

// requireDense проверяет инварианты плотной упаковки и видимости
func requireDense(t *testing.T, c *Chunk) {
	t.Helper()

	for _, l := range c.InstanceLists() {
		for i := 0; i < l.Count(); i++ {
			inst := l.At(i)
			b, ok := c.GetBlock(inst.Local)
			require.True(t, ok, "инстанс %d указывает за пределы чанка", i)
			require.Equal(t, l.Block, b.ID, "тип ячейки не совпадает со списком")
			require.Equal(t, i, b.Slot, "обратная ссылка инстанса %d не совпадает", i)
			want := mgl64.Vec3{
				float64(c.Origin.X + inst.Local.X),
				float64(c.Origin.Y + inst.Local.Y),
				float64(c.Origin.Z + inst.Local.Z),
			}
			require.Equal(t, want, inst.Position)
		}
	}

	counts := make(map[block.BlockID]int)
	size := c.Size()
	for x := 0; x < size.Width; x++ {
		for y := 0; y < size.Height; y++ {
			for z := 0; z < size.Width; z++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				b, _ := c.GetBlock(local)
				visible := !b.ID.IsEmpty() && !c.IsObscured(local)
				if visible {
					require.NotEqual(t, NoInstance, b.Slot, "видимая ячейка %v без слота", local)
					counts[b.ID]++
				} else {
					require.Equal(t, NoInstance, b.Slot, "невидимая ячейка %v со слотом", local)
				}
			}
		}
	}

	for id, n := range counts {
		l, ok := c.InstanceList(id)
		require.True(t, ok)
		require.Equal(t, n, l.Count())
	}
}

package world

import (
	"math"
	"math/rand"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// Смещения сидов для независимых полей шума
const (
	cloudSeedOffset    = 42
	resourceSeedOffset = 100
)

// Generator принимает решения о типах блоков. Все решения — чистые функции от
// (сид, абсолютные мировые координаты), поэтому соседние чанки стыкуются без швов.
type Generator struct {
	params    Params
	height    *NoiseField
	clouds    *NoiseField
	resources []*NoiseField
}

// NewGenerator создаёт генератор для указанных параметров
func NewGenerator(params Params) *Generator {
	params = params.Clone()

	g := &Generator{
		params:    params,
		height:    NewNoiseField(params.Seed),
		clouds:    NewNoiseField(params.Seed + cloudSeedOffset),
		resources: make([]*NoiseField, len(params.Resources)),
	}
	for i := range params.Resources {
		g.resources[i] = NewNoiseField(params.Seed + resourceSeedOffset + int64(i))
	}
	return g
}

// Params возвращает копию параметров генератора
func (g *Generator) Params() Params {
	return g.params.Clone()
}

// ResourceAt сообщает, попадает ли мировая ячейка в жилу i-го ресурса
func (g *Generator) ResourceAt(i int, wx, wy, wz int) bool {
	r := g.params.Resources[i]
	value := g.resources[i].Noise3D(
		float64(wx)/r.Scale.X,
		float64(wy)/r.Scale.Y,
		float64(wz)/r.Scale.Z,
	)
	return value > r.Scarcity
}

// TerrainHeight возвращает высоту поверхности столбца, ограниченную [0, chunkHeight-1]
func (g *Generator) TerrainHeight(wx, wz, chunkHeight int) int {
	t := g.params.Terrain
	value := g.height.Noise2D(float64(wx)/t.Scale, float64(wz)/t.Scale)

	scaled := t.Offset + t.Magnitude*value
	height := int(math.Floor(scaled * float64(chunkHeight)))
	if height < 0 {
		height = 0
	}
	if height > chunkHeight-1 {
		height = chunkHeight - 1
	}
	return height
}

// CloudAt сообщает, есть ли облако над столбцом
func (g *Generator) CloudAt(wx, wz int) bool {
	c := g.params.Clouds
	value := (g.clouds.Noise2D(float64(wx)/c.Scale, float64(wz)/c.Scale) + 1) * 0.5
	return value < c.Density
}

// ChunkRNG создаёт локальный генератор случайных чисел для чанка.
// Сид зависит от глобального сида и координат чанка, поэтому растительность
// детерминирована и различается между чанками.
func (g *Generator) ChunkRNG(coords vec.Vec2) *rand.Rand {
	chunkSeed := g.params.Seed ^ (int64(coords.X) * 73856093) ^ (int64(coords.Y) * 19349663)
	return rand.New(rand.NewSource(chunkSeed))
}

// SurfaceBlock возвращает тип блока рельефа для ячейки на высоте y при высоте столбца h
func SurfaceBlock(y, h int) block.BlockID {
	switch {
	case y < h:
		return block.DirtBlockID
	case y == h:
		return block.GrassBlockID
	default:
		return block.EmptyBlockID
	}
}

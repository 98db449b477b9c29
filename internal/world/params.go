package world

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/world/block"
)

// Size задаёт размеры чанка: Width по X и Z, Height по Y
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Volume возвращает количество ячеек в чанке
func (s Size) Volume() int {
	return s.Width * s.Width * s.Height
}

// Scale3 — масштаб шума по каждой оси
type Scale3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// TerrainParams управляет картой высот
type TerrainParams struct {
	Scale     float64 `yaml:"scale" json:"scale"`
	Magnitude float64 `yaml:"magnitude" json:"magnitude"`
	Offset    float64 `yaml:"offset" json:"offset"`
}

// ResourceParams описывает рудную жилу. Порядок в списке важен: поздние ресурсы перезаписывают ранние.
type ResourceParams struct {
	Block    block.BlockID `yaml:"block" json:"block"`
	Scale    Scale3        `yaml:"scale" json:"scale"`
	Scarcity float64       `yaml:"scarcity" json:"scarcity"`
}

// TrunkParams — диапазон высоты ствола
type TrunkParams struct {
	MinHeight int `yaml:"min_height" json:"min_height"`
	MaxHeight int `yaml:"max_height" json:"max_height"`
}

// CanopyParams — диапазон радиуса кроны и её плотность
type CanopyParams struct {
	MinRadius int     `yaml:"min_radius" json:"min_radius"`
	MaxRadius int     `yaml:"max_radius" json:"max_radius"`
	Density   float64 `yaml:"density" json:"density"`
}

// TreeParams управляет растительностью
type TreeParams struct {
	Frequency float64      `yaml:"frequency" json:"frequency"`
	Trunk     TrunkParams  `yaml:"trunk" json:"trunk"`
	Canopy    CanopyParams `yaml:"canopy" json:"canopy"`
}

// CloudParams управляет слоем облаков
type CloudParams struct {
	Scale   float64 `yaml:"scale" json:"scale"`
	Density float64 `yaml:"density" json:"density"`
}

// Params — полный набор параметров генерации. Сохраняется вместе с правками игрока.
type Params struct {
	Seed      int64            `yaml:"seed" json:"seed"`
	Terrain   TerrainParams    `yaml:"terrain" json:"terrain"`
	Resources []ResourceParams `yaml:"resources" json:"resources"`
	Trees     TreeParams       `yaml:"trees" json:"trees"`
	Clouds    CloudParams      `yaml:"clouds" json:"clouds"`
}

// DefaultParams возвращает параметры генерации по умолчанию
func DefaultParams() Params {
	return Params{
		Seed: 0,
		Terrain: TerrainParams{
			Scale:     30,
			Magnitude: 0.5,
			Offset:    0.2,
		},
		Resources: []ResourceParams{
			{Block: block.StoneBlockID, Scale: Scale3{X: 30, Y: 30, Z: 30}, Scarcity: 0.5},
			{Block: block.CoalBlockID, Scale: Scale3{X: 20, Y: 20, Z: 20}, Scarcity: 0.8},
			{Block: block.IronBlockID, Scale: Scale3{X: 40, Y: 40, Z: 40}, Scarcity: 0.9},
		},
		Trees: TreeParams{
			Frequency: 0.01,
			Trunk:     TrunkParams{MinHeight: 4, MaxHeight: 7},
			Canopy:    CanopyParams{MinRadius: 2, MaxRadius: 4, Density: 0.5},
		},
		Clouds: CloudParams{
			Scale:   30,
			Density: 0.3,
		},
	}
}

// Clone возвращает глубокую копию параметров
func (p Params) Clone() Params {
	c := p
	c.Resources = append([]ResourceParams(nil), p.Resources...)
	return c
}

// Validate проверяет параметры перед генерацией
func (p Params) Validate() error {
	if p.Terrain.Scale <= 0 {
		return fmt.Errorf("terrain.scale должен быть > 0, получено %v", p.Terrain.Scale)
	}
	if p.Clouds.Scale <= 0 {
		return fmt.Errorf("clouds.scale должен быть > 0, получено %v", p.Clouds.Scale)
	}
	for i, r := range p.Resources {
		if r.Block.IsEmpty() || !block.IsValidBlockID(r.Block) {
			return fmt.Errorf("resources[%d]: недопустимый блок %d", i, r.Block)
		}
		if r.Scale.X <= 0 || r.Scale.Y <= 0 || r.Scale.Z <= 0 {
			return fmt.Errorf("resources[%d]: масштаб должен быть > 0", i)
		}
	}
	if p.Trees.Trunk.MinHeight > p.Trees.Trunk.MaxHeight {
		return fmt.Errorf("trees.trunk: min_height > max_height")
	}
	if p.Trees.Canopy.MinRadius > p.Trees.Canopy.MaxRadius || p.Trees.Canopy.MinRadius < 0 {
		return fmt.Errorf("trees.canopy: некорректный диапазон радиуса")
	}
	return nil
}

// Validate проверяет размеры чанка
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("некорректный размер чанка %dx%d", s.Width, s.Height)
	}
	return nil
}

package world

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина, общие для всех полей
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав
)

// NoiseField — детерминированное когерентное поле шума.
// После создания поле только читается, поэтому одно поле можно делить между чанками.
type NoiseField struct {
	p *perlin.Perlin
}

// NewNoiseField создаёт поле шума с указанным сидом
func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{p: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

// Noise2D возвращает значение шума примерно в диапазоне [-1, 1]
func (f *NoiseField) Noise2D(x, y float64) float64 {
	return f.p.Noise2D(x, y)
}

// Noise3D возвращает значение шума примерно в диапазоне [-1, 1]
func (f *NoiseField) Noise3D(x, y, z float64) float64 {
	return f.p.Noise3D(x, y, z)
}

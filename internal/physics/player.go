package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PlayerOptions — геометрия и скорости актёра
type PlayerOptions struct {
	Radius    float64 `yaml:"radius"`
	Height    float64 `yaml:"height"`
	MaxSpeed  float64 `yaml:"max_speed"`
	JumpSpeed float64 `yaml:"jump_speed"`
}

// DefaultPlayerOptions возвращает параметры игрока по умолчанию
func DefaultPlayerOptions() PlayerOptions {
	return PlayerOptions{
		Radius:    0.5,
		Height:    1.75,
		MaxSpeed:  10,
		JumpSpeed: 10,
	}
}

// Player — вертикальная капсула, приближённая цилиндром.
// Position — центр верхнего торца, ось цилиндра проходит от Y-Height до Y.
// Velocity хранится в локальной системе игрока (X — вправо, Z — вперёд),
// повёрнутой на Yaw вокруг вертикали.
type Player struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Input    mgl64.Vec3 // горизонтальное намерение в локальной системе
	Yaw      float64
	OnGround bool

	Radius    float64
	Height    float64
	MaxSpeed  float64
	JumpSpeed float64
}

// NewPlayer создаёт игрока в точке spawn
func NewPlayer(opts PlayerOptions, spawn mgl64.Vec3) *Player {
	return &Player{
		Position:  spawn,
		Radius:    opts.Radius,
		Height:    opts.Height,
		MaxSpeed:  opts.MaxSpeed,
		JumpSpeed: opts.JumpSpeed,
	}
}

// HalfHeight возвращает половину высоты цилиндра
func (p *Player) HalfHeight() float64 {
	return p.Height / 2
}

// AxisCenter возвращает центр оси цилиндра
func (p *Player) AxisCenter() mgl64.Vec3 {
	return mgl64.Vec3{p.Position.X(), p.Position.Y() - p.HalfHeight(), p.Position.Z()}
}

// WorldVelocity переводит локальную скорость в мировую систему
func (p *Player) WorldVelocity() mgl64.Vec3 {
	return mgl64.Rotate3DY(p.Yaw).Mul3x1(p.Velocity)
}

// ApplyWorldDeltaVelocity добавляет к скорости приращение, заданное в мировой системе
func (p *Player) ApplyWorldDeltaVelocity(dv mgl64.Vec3) {
	p.Velocity = p.Velocity.Add(mgl64.Rotate3DY(-p.Yaw).Mul3x1(dv))
}

// SetInput задаёт горизонтальное намерение движения. Компоненты
// ограничиваются MaxSpeed.
func (p *Player) SetInput(right, forward float64) {
	p.Input = mgl64.Vec3{
		mgl64.Clamp(right, -p.MaxSpeed, p.MaxSpeed),
		0,
		mgl64.Clamp(forward, -p.MaxSpeed, p.MaxSpeed),
	}
}

// Jump добавляет вертикальную скорость, только если игрок стоит на земле
func (p *Player) Jump() bool {
	if !p.OnGround {
		return false
	}
	p.Velocity[1] += p.JumpSpeed
	p.OnGround = false
	return true
}

// Reset переносит игрока в точку spawn и обнуляет скорость и ввод
func (p *Player) Reset(spawn mgl64.Vec3) {
	p.Position = spawn
	p.Velocity = mgl64.Vec3{}
	p.Input = mgl64.Vec3{}
	p.OnGround = false
}

// applyInputs переносит ввод в горизонтальную скорость и интегрирует позицию
func (p *Player) applyInputs(dt float64) {
	p.Velocity[0] = p.Input.X()
	p.Velocity[2] = p.Input.Z()
	p.Position = p.Position.Add(p.WorldVelocity().Mul(dt))
}

// bounds возвращает целочисленный диапазон блоков, покрывающий цилиндр
func (p *Player) bounds() (minX, minY, minZ, maxX, maxY, maxZ int) {
	pos := p.Position
	minX = int(math.Floor(pos.X() - p.Radius))
	maxX = int(math.Ceil(pos.X() + p.Radius))
	minY = int(math.Floor(pos.Y() - p.Height))
	maxY = int(math.Ceil(pos.Y()))
	minZ = int(math.Floor(pos.Z() - p.Radius))
	maxZ = int(math.Ceil(pos.Z() + p.Radius))
	return
}

// contains проверяет, лежит ли точка строго внутри цилиндра
func (p *Player) contains(point mgl64.Vec3) bool {
	center := p.AxisCenter()
	dx := point.X() - center.X()
	dy := point.Y() - center.Y()
	dz := point.Z() - center.Z()
	return math.Abs(dy) < p.HalfHeight() && dx*dx+dz*dz < p.Radius*p.Radius
}

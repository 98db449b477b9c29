package physics

import (
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/vec"
)

const (
	DefaultGravity        = 32.0
	DefaultSimulationRate = 250.0
)

// Options — параметры симуляции
type Options struct {
	Gravity        float64 `yaml:"gravity"`
	SimulationRate float64 `yaml:"simulation_rate"`
}

// DefaultOptions возвращает параметры физики по умолчанию
func DefaultOptions() Options {
	return Options{Gravity: DefaultGravity, SimulationRate: DefaultSimulationRate}
}

// Physics продвигает игрока фиксированными шагами. Остаток времени,
// меньший шага, переносится в следующий вызов Update.
type Physics struct {
	Gravity  float64
	StepSize float64

	accumulator float64
	metrics     *observability.WorldMetrics
	log         *logging.Logger

	// Отладочный снимок последнего шага
	LastCandidates []vec.Vec3
	LastContacts   []Contact
}

// New создаёт решатель. metrics может быть nil.
func New(opts Options, metrics *observability.WorldMetrics) *Physics {
	if opts.SimulationRate <= 0 {
		opts.SimulationRate = DefaultSimulationRate
	}
	return &Physics{
		Gravity:  opts.Gravity,
		StepSize: 1 / opts.SimulationRate,
		metrics:  metrics,
		log:      logging.GetPhysicsLogger(),
	}
}

// Update накапливает dt и выполняет столько фиксированных шагов, сколько помещается.
// Возвращает число выполненных шагов.
func (ph *Physics) Update(dt float64, p *Player, src BlockSource) int {
	ph.accumulator += dt

	steps := 0
	for ph.accumulator >= ph.StepSize {
		p.Velocity[1] -= ph.Gravity * ph.StepSize
		p.applyInputs(ph.StepSize)
		ph.detectCollisions(p, src)
		ph.accumulator -= ph.StepSize
		steps++
	}
	return steps
}

// Accumulator возвращает перенесённый остаток времени
func (ph *Physics) Accumulator() float64 {
	return ph.accumulator
}

func (ph *Physics) detectCollisions(p *Player, src BlockSource) {
	p.OnGround = false

	ph.LastCandidates = broadPhase(p, src)
	ph.LastContacts = narrowPhase(p, ph.LastCandidates)
	if len(ph.LastContacts) == 0 {
		return
	}

	resolved := resolve(p, ph.LastContacts)
	ph.metrics.AddCollisions(resolved)
	ph.log.Trace("Коллизии: кандидатов=%d, контактов=%d, разрешено=%d",
		len(ph.LastCandidates), len(ph.LastContacts), resolved)
}

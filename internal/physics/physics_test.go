package physics

import (
	"math"
	"strings"
	"testing"

	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridSource — простой набор блоков для тестов
type gridSource map[vec.Vec3]block.BlockID

func (g gridSource) GetBlock(x, y, z int) (block.BlockID, bool) {
	id, ok := g[vec.Vec3{X: x, Y: y, Z: z}]
	if !ok {
		return block.EmptyBlockID, true
	}
	return id, true
}

func floor(size int) gridSource {
	g := make(gridSource)
	for x := -size; x <= size; x++ {
		for z := -size; z <= size; z++ {
			g[vec.Vec3{X: x, Y: 0, Z: z}] = block.StoneBlockID
		}
	}
	return g
}

func TestPlayerRestingOnFloor(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewWorldMetrics(reg)

	// Верх пола на y=0.5, низ цилиндра ровно на нём
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.25, 0})
	ph := New(DefaultOptions(), metrics)

	steps := ph.Update(ph.StepSize, p, floor(3))
	require.Equal(t, 1, steps)

	require.Len(t, ph.LastContacts, 1)
	c := ph.LastContacts[0]
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 0}, c.Block)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, c.Normal)
	assert.True(t, p.OnGround)
	assert.InDelta(t, 2.25, p.Position.Y(), 1e-9)
	assert.InDelta(t, 0, p.Velocity.Y(), 1e-9)
	expected := `
# HELP voxel_collisions_total Разрешённые столкновения актёра с блоками.
# TYPE voxel_collisions_total counter
voxel_collisions_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "voxel_collisions_total"))
}

func TestPlayerFallsAndLands(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0.2, 6, -0.3})
	ph := New(DefaultOptions(), nil)
	g := floor(3)

	for i := 0; i < 120; i++ {
		ph.Update(1.0/60.0, p, g)
	}

	assert.True(t, p.OnGround)
	assert.InDelta(t, 2.25, p.Position.Y(), 0.01)
	assert.InDelta(t, 0.2, p.Position.X(), 1e-9)
	assert.Greater(t, p.Velocity.Y(), -1.0)
}

func TestAccumulatorCarriesRemainder(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 50, 0})
	ph := New(DefaultOptions(), nil)
	empty := gridSource{}

	assert.Equal(t, 0, ph.Update(ph.StepSize/2, p, empty))
	assert.Equal(t, 50.0, p.Position.Y())
	assert.Equal(t, 1, ph.Update(ph.StepSize/2+1e-12, p, empty))
	assert.Equal(t, 2, ph.Update(2*ph.StepSize, p, empty))
	assert.Less(t, ph.Accumulator(), ph.StepSize)
	assert.Less(t, p.Position.Y(), 50.0)
	assert.False(t, p.OnGround)
}

func TestWallStopsHorizontalVelocity(t *testing.T) {
	g := floor(4)
	// Стена вдоль x=2 высотой в два блока
	for y := 1; y <= 2; y++ {
		for z := -4; z <= 4; z++ {
			g[vec.Vec3{X: 2, Y: y, Z: z}] = block.StoneBlockID
		}
	}

	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.25, 0})
	p.SetInput(p.MaxSpeed, 0)
	ph := New(DefaultOptions(), nil)

	for i := 0; i < 60; i++ {
		ph.Update(1.0/60.0, p, g)
	}

	// Грань стены на x=1.5, радиус 0.5
	assert.InDelta(t, 1.0, p.Position.X(), 0.05)
	assert.LessOrEqual(t, p.Position.X(), 1.0+1e-9)
	assert.True(t, p.OnGround)
}

func TestNarrowPhaseSideContact(t *testing.T) {
	// Ось цилиндра в 0.3 от грани x=0.5, по вертикали блок перекрыт целиком
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0.2, 2.0, 0})
	contacts := narrowPhase(p, []vec.Vec3{{X: 1, Y: 1, Z: 0}})
	require.Len(t, contacts, 1)
	c := contacts[0]
	assert.InDelta(t, -1, c.Normal.X(), 1e-9)
	assert.InDelta(t, 0.2, c.Overlap, 1e-9)
	assert.False(t, p.OnGround)
}

func TestResolveOrdersByOverlap(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.2, 0})
	contacts := []Contact{
		{Point: mgl64.Vec3{0, 0.5, 0}, Normal: mgl64.Vec3{0, 1, 0}, Overlap: 0.3},
		{Point: mgl64.Vec3{0, 0.5, 0}, Normal: mgl64.Vec3{0, 1, 0}, Overlap: 0.05},
	}

	// После первой (меньшей) коррекции точка уже на границе, вторая пропускается
	resolved := resolve(p, contacts)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 0.05, contacts[0].Overlap)
	assert.InDelta(t, 2.25, p.Position.Y(), 1e-9)
}

func TestHeadBumpDoesNotGround(t *testing.T) {
	g := gridSource{{X: 0, Y: 3, Z: 0}: block.StoneBlockID}
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.49, 0})
	p.Velocity[1] = 5
	ph := New(DefaultOptions(), nil)

	ph.Update(ph.StepSize, p, g)

	require.Len(t, ph.LastContacts, 1)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, ph.LastContacts[0].Normal)
	assert.False(t, p.OnGround)
	assert.InDelta(t, 0, p.Velocity.Y(), 1e-9)
	assert.InDelta(t, 2.5, p.Position.Y(), 1e-9)
}

func TestBlockOnAxisPushesUp(t *testing.T) {
	// Блок внутри стоящего игрока: центр оси цилиндра лежит в нём
	g := floor(3)
	g[vec.Vec3{X: 0, Y: 1, Z: 0}] = block.StoneBlockID
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.25, 0})
	ph := New(DefaultOptions(), nil)

	ph.Update(ph.StepSize, p, g)

	require.NotEmpty(t, ph.LastContacts)
	for _, c := range ph.LastContacts {
		assert.InDelta(t, 1, c.Normal.Len(), 1e-9, "нормаль блока %v", c.Block)
	}
	inside := ph.LastContacts[len(ph.LastContacts)-1]
	assert.Equal(t, vec.Vec3{X: 0, Y: 1, Z: 0}, inside.Block)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, inside.Normal)
	assert.Greater(t, p.Position.Y(), 3.0)
	assert.True(t, p.OnGround)
}

func TestUnloadedBlocksAreIgnored(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.0, 0})
	assert.Empty(t, broadPhase(p, unloadedSource{}))
}

type unloadedSource struct{}

func (unloadedSource) GetBlock(x, y, z int) (block.BlockID, bool) {
	return block.StoneBlockID, false
}

func TestWorldVelocityRoundTrip(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{})
	p.Yaw = math.Pi / 2
	p.Velocity = mgl64.Vec3{0, 0, 1}

	w := p.WorldVelocity()
	assert.InDelta(t, 1, w.X(), 1e-9)
	assert.InDelta(t, 0, w.Z(), 1e-9)

	// Обнуляем мировую X-составляющую
	p.ApplyWorldDeltaVelocity(mgl64.Vec3{-w.X(), 0, 0})
	assert.InDelta(t, 0, p.Velocity.Len(), 1e-9)
}

func TestJumpOnlyWhenGrounded(t *testing.T) {
	p := NewPlayer(DefaultPlayerOptions(), mgl64.Vec3{0, 2.25, 0})
	assert.False(t, p.Jump())

	p.OnGround = true
	assert.True(t, p.Jump())
	assert.Equal(t, p.JumpSpeed, p.Velocity.Y())

	p.SetInput(100, -100)
	assert.Equal(t, mgl64.Vec3{10, 0, -10}, p.Input)

	p.Reset(mgl64.Vec3{1, 2, 3})
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, p.Position)
	assert.Equal(t, mgl64.Vec3{}, p.Velocity)
	assert.Equal(t, mgl64.Vec3{}, p.Input)
}

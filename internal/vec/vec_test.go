package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, FloorDiv(0, 32))
	assert.Equal(t, 0, FloorDiv(31, 32))
	assert.Equal(t, 1, FloorDiv(32, 32))
	assert.Equal(t, -1, FloorDiv(-1, 32))
	assert.Equal(t, -1, FloorDiv(-32, 32))
	assert.Equal(t, -2, FloorDiv(-33, 32))
}

func TestFloorMod(t *testing.T) {
	assert.Equal(t, 31, FloorMod(-1, 32))
	assert.Equal(t, 0, FloorMod(-32, 32))
	assert.Equal(t, 5, FloorMod(37, 32))
}

func TestChebyshev(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	assert.Equal(t, 3, a.ChebyshevTo(Vec2{X: -3, Y: 2}))
	assert.Equal(t, 0, a.ChebyshevTo(a))
}

func TestVec3Arithmetic(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 3}
	assert.True(t, v.Add(FaceNeighbors[0]).Equals(Vec3{X: 1, Y: 3, Z: 3}))
	assert.Equal(t, Vec3{X: 0, Y: 0, Z: 0}, v.Sub(v))
}

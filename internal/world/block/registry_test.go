package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryDefaults(t *testing.T) {
	assert.True(t, IsValidBlockID(GrassBlockID))
	assert.False(t, IsValidBlockID(BlockID(999)))
	assert.Equal(t, "stone", StoneBlockID.String())
	assert.Equal(t, "unknown", BlockID(999).String())
	assert.True(t, EmptyBlockID.IsEmpty())
}

func TestSolidExcludesEmpty(t *testing.T) {
	solid := Solid()
	assert.NotEmpty(t, solid)
	for i, d := range solid {
		assert.NotEqual(t, EmptyBlockID, d.ID)
		if i > 0 {
			assert.Less(t, solid[i-1].ID, d.ID)
		}
	}
}

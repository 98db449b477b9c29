package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationQueueBudget(t *testing.T) {
	q := NewGenerationQueue()
	q.now = fakeClock()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.Schedule(func() { order = append(order, i) })
	}

	// Бюджет исчерпан сразу, но одна задача выполняется всегда
	assert.Equal(t, 1, q.Run(time.Millisecond))
	assert.Equal(t, 2, q.Pending())

	assert.Equal(t, 2, q.Run(0))
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 0, q.Run(time.Second))
}

func TestGenerationQueueDrainRunsNestedTasks(t *testing.T) {
	q := NewGenerationQueue()
	ran := 0
	q.Schedule(func() {
		ran++
		q.Schedule(func() { ran++ })
	})

	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, 2, ran)
	assert.Equal(t, 0, q.Pending())
}

package app

import (
	"context"

	"github.com/annel0/voxelworld/internal/eventbus"
)

// eventSource — поле Source у событий сессии
const eventSource = "voxelworld"

// Правки можно терять при переполнении шины, события жизненного цикла — нет
const (
	editPriority      = 1
	lifecyclePriority = 7
)

// publish отправляет событие в шину. Вызывается без s.mu.
func (s *Session) publish(ctx context.Context, eventType string, priority int, payload interface{}) {
	if s.events == nil {
		return
	}

	ev, err := eventbus.NewEnvelope(eventSource, eventType, priority, payload)
	if err != nil {
		s.log.Warn("Не удалось упаковать событие %s: %v", eventType, err)
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}

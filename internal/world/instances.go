package world

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// Instance — одна запись плотного списка инстансов.
// Local — обратная ссылка на ячейку-владельца, Position — мировая позиция для рендера.
type Instance struct {
	Local    vec.Vec3
	Position mgl64.Vec3
}

// InstanceList — плотно упакованный список инстансов одного типа блока.
// Индексы 0..Count()-1 всегда заняты и идут без пропусков.
type InstanceList struct {
	Block block.BlockID
	items []Instance
	dirty bool
}

func newInstanceList(id block.BlockID) *InstanceList {
	return &InstanceList{Block: id}
}

// Count возвращает количество инстансов
func (l *InstanceList) Count() int {
	return len(l.items)
}

// At возвращает инстанс по индексу
func (l *InstanceList) At(i int) Instance {
	return l.items[i]
}

// Transforms возвращает позиции инстансов в порядке индексов (копия)
func (l *InstanceList) Transforms() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(l.items))
	for i, inst := range l.items {
		out[i] = inst.Position
	}
	return out
}

// Dirty сообщает, менялся ли список с последнего ClearDirty
func (l *InstanceList) Dirty() bool {
	return l.dirty
}

// ClearDirty сбрасывает флаг после того, как рендер забрал данные
func (l *InstanceList) ClearDirty() {
	l.dirty = false
}

// push добавляет инстанс в конец и возвращает его индекс
func (l *InstanceList) push(inst Instance) int {
	l.items = append(l.items, inst)
	l.dirty = true
	return len(l.items) - 1
}

// swapRemove переносит последний инстанс на место i и укорачивает список.
// Возвращает перенесённый инстанс и true, если перенос был (i не последний).
func (l *InstanceList) swapRemove(i int) (Instance, bool) {
	last := len(l.items) - 1
	moved := l.items[last]
	l.items[i] = moved
	l.items = l.items[:last]
	l.dirty = true
	return moved, i != last
}

func (l *InstanceList) release() {
	l.items = nil
	l.dirty = true
}

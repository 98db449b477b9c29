package world

import (
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// EditKey адресует правку: начало чанка (X, Z) и локальная координата внутри него
type EditKey struct {
	OriginX int `json:"ox"`
	OriginZ int `json:"oz"`
	X       int `json:"x"`
	Y       int `json:"y"`
	Z       int `json:"z"`
}

// Edit — одна запись оверлея правок
type Edit struct {
	Key   EditKey       `json:"key"`
	Block block.BlockID `json:"block"`
}

// DataStore — разреженный оверлей правок игрока. Переживает выгрузку и
// перегенерацию чанков и применяется последним при генерации.
type DataStore struct {
	chunks map[vec.Vec2]map[vec.Vec3]block.BlockID
	count  int
}

// NewDataStore создаёт пустой оверлей
func NewDataStore() *DataStore {
	return &DataStore{chunks: make(map[vec.Vec2]map[vec.Vec3]block.BlockID)}
}

// Contains проверяет наличие правки
func (ds *DataStore) Contains(originX, originZ, x, y, z int) bool {
	_, ok := ds.Get(originX, originZ, x, y, z)
	return ok
}

// Get возвращает сохранённый тип блока
func (ds *DataStore) Get(originX, originZ, x, y, z int) (block.BlockID, bool) {
	cells, ok := ds.chunks[vec.Vec2{X: originX, Y: originZ}]
	if !ok {
		return block.EmptyBlockID, false
	}
	id, ok := cells[vec.Vec3{X: x, Y: y, Z: z}]
	return id, ok
}

// Set записывает правку, перезаписывая предыдущую
func (ds *DataStore) Set(originX, originZ, x, y, z int, id block.BlockID) {
	origin := vec.Vec2{X: originX, Y: originZ}
	cells, ok := ds.chunks[origin]
	if !ok {
		cells = make(map[vec.Vec3]block.BlockID)
		ds.chunks[origin] = cells
	}
	local := vec.Vec3{X: x, Y: y, Z: z}
	if _, exists := cells[local]; !exists {
		ds.count++
	}
	cells[local] = id
}

// ForChunk возвращает правки одного чанка (копия)
func (ds *DataStore) ForChunk(originX, originZ int) map[vec.Vec3]block.BlockID {
	cells := ds.chunks[vec.Vec2{X: originX, Y: originZ}]
	result := make(map[vec.Vec3]block.BlockID, len(cells))
	for k, v := range cells {
		result[k] = v
	}
	return result
}

// Len возвращает количество правок
func (ds *DataStore) Len() int {
	return ds.count
}

// Clear удаляет все правки
func (ds *DataStore) Clear() {
	ds.chunks = make(map[vec.Vec2]map[vec.Vec3]block.BlockID)
	ds.count = 0
}

// Edits возвращает все правки в детерминированном порядке
func (ds *DataStore) Edits() []Edit {
	edits := make([]Edit, 0, ds.count)
	for origin, cells := range ds.chunks {
		for local, id := range cells {
			edits = append(edits, Edit{
				Key:   EditKey{OriginX: origin.X, OriginZ: origin.Y, X: local.X, Y: local.Y, Z: local.Z},
				Block: id,
			})
		}
	}
	sort.Slice(edits, func(i, j int) bool {
		a, b := edits[i].Key, edits[j].Key
		if a.OriginX != b.OriginX {
			return a.OriginX < b.OriginX
		}
		if a.OriginZ != b.OriginZ {
			return a.OriginZ < b.OriginZ
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return edits
}

// Replace заменяет содержимое оверлея списком правок
func (ds *DataStore) Replace(edits []Edit) {
	ds.Clear()
	for _, e := range edits {
		ds.Set(e.Key.OriginX, e.Key.OriginZ, e.Key.X, e.Key.Y, e.Key.Z, e.Block)
	}
}

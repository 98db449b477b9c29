package world

import (
	"math/rand"
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// NoInstance — значение слота для пустых и полностью закрытых блоков
const NoInstance = -1

// Block — ячейка сетки чанка
type Block struct {
	ID   block.BlockID
	Slot int // индекс в списке инстансов своего типа или NoInstance
}

// Chunk представляет участок мира размером Width x Height x Width блоков.
// Чанк не потокобезопасен: им владеет World, и все операции идут из одного тика.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в сетке чанков (X, Z)
	Origin vec.Vec3 // Мировые координаты ячейки (0,0,0)
	Loaded bool     // true после завершения генерации

	size      Size
	blocks    []Block
	instances map[block.BlockID]*InstanceList
	gen       *Generator
	store     *DataStore
	disposed  bool
}

// NewChunk создаёт чанк без данных; сетка появляется в Generate
func NewChunk(coords vec.Vec2, size Size, gen *Generator, store *DataStore) *Chunk {
	return &Chunk{
		Coords:    coords,
		Origin:    vec.Vec3{X: coords.X * size.Width, Y: 0, Z: coords.Y * size.Width},
		size:      size,
		instances: make(map[block.BlockID]*InstanceList),
		gen:       gen,
		store:     store,
	}
}

// Size возвращает размеры чанка
func (c *Chunk) Size() Size {
	return c.size
}

// InBounds проверяет, что локальная координата лежит внутри чанка
func (c *Chunk) InBounds(local vec.Vec3) bool {
	return local.X >= 0 && local.X < c.size.Width &&
		local.Y >= 0 && local.Y < c.size.Height &&
		local.Z >= 0 && local.Z < c.size.Width
}

func (c *Chunk) index(local vec.Vec3) int {
	return (local.Y*c.size.Width+local.Z)*c.size.Width + local.X
}

// GetBlock возвращает ячейку по локальным координатам; false — вне чанка или нет данных
func (c *Chunk) GetBlock(local vec.Vec3) (Block, bool) {
	if c.blocks == nil || !c.InBounds(local) {
		return Block{ID: block.EmptyBlockID, Slot: NoInstance}, false
	}
	return c.blocks[c.index(local)], true
}

// GetBlockID возвращает тип блока; вне чанка — пустой блок
func (c *Chunk) GetBlockID(local vec.Vec3) block.BlockID {
	b, _ := c.GetBlock(local)
	return b.ID
}

func (c *Chunk) setBlockID(local vec.Vec3, id block.BlockID) {
	if c.InBounds(local) {
		c.blocks[c.index(local)].ID = id
	}
}

func (c *Chunk) setSlot(local vec.Vec3, slot int) {
	if c.InBounds(local) {
		c.blocks[c.index(local)].Slot = slot
	}
}

// Generate прогоняет конвейер генерации. Этапы выполняются строго по порядку,
// поздние этапы могут перезаписывать ранние.
func (c *Chunk) Generate() {
	rng := c.gen.ChunkRNG(c.Coords)

	c.initialize()
	c.generateResources()
	c.generateTerrain()
	c.generateTrees(rng)
	c.generateClouds()
	c.applyEdits()
	c.generateInstances()

	c.Loaded = true
}

func (c *Chunk) initialize() {
	c.blocks = make([]Block, c.size.Volume())
	for i := range c.blocks {
		c.blocks[i] = Block{ID: block.EmptyBlockID, Slot: NoInstance}
	}
	for _, l := range c.instances {
		l.release()
	}
}

func (c *Chunk) generateResources() {
	for i, r := range c.gen.params.Resources {
		for x := 0; x < c.size.Width; x++ {
			for y := 0; y < c.size.Height; y++ {
				for z := 0; z < c.size.Width; z++ {
					if c.gen.ResourceAt(i, c.Origin.X+x, c.Origin.Y+y, c.Origin.Z+z) {
						c.setBlockID(vec.Vec3{X: x, Y: y, Z: z}, r.Block)
					}
				}
			}
		}
	}
}

func (c *Chunk) generateTerrain() {
	for x := 0; x < c.size.Width; x++ {
		for z := 0; z < c.size.Width; z++ {
			height := c.gen.TerrainHeight(c.Origin.X+x, c.Origin.Z+z, c.size.Height)

			for y := 0; y < c.size.Height; y++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				if y > height {
					c.setBlockID(local, block.EmptyBlockID)
					continue
				}
				// Руды ниже поверхности не трогаем
				if c.GetBlockID(local).IsEmpty() {
					c.setBlockID(local, SurfaceBlock(y, height))
				}
			}
		}
	}
}

func (c *Chunk) generateTrees(rng *rand.Rand) {
	trees := c.gen.params.Trees
	offset := trees.Canopy.MaxRadius

	for x := offset; x < c.size.Width-offset; x++ {
		for z := offset; z < c.size.Width-offset; z++ {
			if rng.Float64() < trees.Frequency {
				c.growTree(x, z, rng)
			}
		}
	}
}

func (c *Chunk) growTree(x, z int, rng *rand.Rand) {
	trunk := c.gen.params.Trees.Trunk
	h := roundInt(float64(trunk.MinHeight) + float64(trunk.MaxHeight-trunk.MinHeight)*rng.Float64())

	for y := 0; y < c.size.Height; y++ {
		if c.GetBlockID(vec.Vec3{X: x, Y: y, Z: z}) != block.GrassBlockID {
			continue
		}
		for treeY := y + 1; treeY <= y+h; treeY++ {
			c.setBlockID(vec.Vec3{X: x, Y: treeY, Z: z}, block.TreeBlockID)
		}
		c.growCanopy(vec.Vec3{X: x, Y: y + h, Z: z}, rng)
		return
	}
}

func (c *Chunk) growCanopy(center vec.Vec3, rng *rand.Rand) {
	canopy := c.gen.params.Trees.Canopy
	r := roundInt(float64(canopy.MinRadius) + float64(canopy.MaxRadius-canopy.MinRadius)*rng.Float64())

	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				n := rng.Float64()
				if dx*dx+dy*dy+dz*dz > r*r {
					continue
				}
				local := center.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				if !c.InBounds(local) || !c.GetBlockID(local).IsEmpty() {
					continue
				}
				if n < canopy.Density {
					c.setBlockID(local, block.LeavesBlockID)
				}
			}
		}
	}
}

func (c *Chunk) generateClouds() {
	top := c.size.Height - 1
	for x := 0; x < c.size.Width; x++ {
		for z := 0; z < c.size.Width; z++ {
			if c.gen.CloudAt(c.Origin.X+x, c.Origin.Z+z) {
				c.setBlockID(vec.Vec3{X: x, Y: top, Z: z}, block.CloudBlockID)
			}
		}
	}
}

// applyEdits накладывает правки игрока поверх сгенерированного ландшафта
func (c *Chunk) applyEdits() {
	if c.store == nil {
		return
	}
	for local, id := range c.store.ForChunk(c.Origin.X, c.Origin.Z) {
		c.setBlockID(local, id)
	}
}

func (c *Chunk) generateInstances() {
	for x := 0; x < c.size.Width; x++ {
		for y := 0; y < c.size.Height; y++ {
			for z := 0; z < c.size.Width; z++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				id := c.GetBlockID(local)
				if id.IsEmpty() || c.IsObscured(local) {
					continue
				}
				c.setSlot(local, c.listFor(id).push(c.instanceAt(local)))
			}
		}
	}
}

func (c *Chunk) instanceAt(local vec.Vec3) Instance {
	return Instance{
		Local: local,
		Position: mgl64.Vec3{
			float64(c.Origin.X + local.X),
			float64(c.Origin.Y + local.Y),
			float64(c.Origin.Z + local.Z),
		},
	}
}

func (c *Chunk) listFor(id block.BlockID) *InstanceList {
	l, ok := c.instances[id]
	if !ok {
		l = newInstanceList(id)
		c.instances[id] = l
	}
	return l
}

// IsObscured возвращает true, если все шесть соседей по граням внутри чанка непустые.
// Соседи за границей чанка считаются пустыми.
func (c *Chunk) IsObscured(local vec.Vec3) bool {
	for _, d := range vec.FaceNeighbors {
		n := local.Add(d)
		if !c.InBounds(n) || c.GetBlockID(n).IsEmpty() {
			return false
		}
	}
	return true
}

// AddBlock ставит блок в пустую ячейку, скрывает соседей внутри чанка,
// которые стали закрытыми, и записывает правку в оверлей.
// Возвращает false, если ячейка занята, вне чанка или тип недопустим.
func (c *Chunk) AddBlock(local vec.Vec3, id block.BlockID) bool {
	if !c.Loaded || id.IsEmpty() || !block.IsValidBlockID(id) {
		return false
	}
	b, ok := c.GetBlock(local)
	if !ok || !b.ID.IsEmpty() {
		return false
	}

	c.setBlockID(local, id)
	c.AddInstance(local)
	for _, d := range vec.FaceNeighbors {
		if n := local.Add(d); c.InBounds(n) && c.IsObscured(n) {
			c.DeleteInstance(n)
		}
	}
	if c.store != nil {
		c.store.Set(c.Origin.X, c.Origin.Z, local.X, local.Y, local.Z, id)
	}
	return true
}

// RemoveBlock очищает ячейку, открывает соседей внутри чанка и записывает
// пустой блок в оверлей
func (c *Chunk) RemoveBlock(local vec.Vec3) bool {
	if !c.Loaded {
		return false
	}
	b, ok := c.GetBlock(local)
	if !ok || b.ID.IsEmpty() {
		return false
	}

	c.DeleteInstance(local)
	c.setBlockID(local, block.EmptyBlockID)
	for _, d := range vec.FaceNeighbors {
		if n := local.Add(d); c.InBounds(n) {
			c.AddInstance(n)
		}
	}
	if c.store != nil {
		c.store.Set(c.Origin.X, c.Origin.Z, local.X, local.Y, local.Z, block.EmptyBlockID)
	}
	return true
}

// DeleteInstance убирает инстанс ячейки за O(1): последний инстанс списка
// переносится на освободившееся место, а его владелец получает новый индекс.
func (c *Chunk) DeleteInstance(local vec.Vec3) bool {
	b, ok := c.GetBlock(local)
	if !ok || b.ID.IsEmpty() || b.Slot == NoInstance {
		return false
	}
	l, ok := c.instances[b.ID]
	if !ok || b.Slot >= l.Count() {
		return false
	}

	if moved, ok := l.swapRemove(b.Slot); ok {
		c.setSlot(moved.Local, b.Slot)
	}
	c.setSlot(local, NoInstance)
	return true
}

// AddInstance добавляет инстанс непустой ячейке без слота, если она видна
func (c *Chunk) AddInstance(local vec.Vec3) bool {
	b, ok := c.GetBlock(local)
	if !ok || b.ID.IsEmpty() || b.Slot != NoInstance || c.IsObscured(local) {
		return false
	}
	c.setSlot(local, c.listFor(b.ID).push(c.instanceAt(local)))
	return true
}

// InstanceList возвращает список инстансов типа блока
func (c *Chunk) InstanceList(id block.BlockID) (*InstanceList, bool) {
	l, ok := c.instances[id]
	return l, ok
}

// InstanceLists возвращает все списки инстансов в порядке ID
func (c *Chunk) InstanceLists() []*InstanceList {
	lists := make([]*InstanceList, 0, len(c.instances))
	for _, l := range c.instances {
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Block < lists[j].Block })
	return lists
}

// InstanceCount возвращает суммарное число инстансов
func (c *Chunk) InstanceCount() int {
	total := 0
	for _, l := range c.instances {
		total += l.Count()
	}
	return total
}

// Dispose освобождает списки инстансов и отсоединяет чанк от мира
func (c *Chunk) Dispose() {
	c.disposed = true
	c.Loaded = false
	for _, l := range c.instances {
		l.release()
	}
	c.instances = make(map[block.BlockID]*InstanceList)
	c.blocks = nil
}

// Disposed сообщает, был ли чанк выгружен
func (c *Chunk) Disposed() bool {
	return c.disposed
}

func roundInt(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}

package world

import (
	"math"
	"sort"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// Options задаёт параметры мира, не входящие в параметры генерации
type Options struct {
	Size         Size
	DrawDistance int           // радиус Чебышёва в чанках
	Async        bool          // генерировать чанки отложенно, через очередь
	Budget       time.Duration // бюджет времени очереди на один тик
	Metrics      *observability.WorldMetrics
}

// DefaultOptions возвращает параметры мира по умолчанию
func DefaultOptions() Options {
	return Options{
		Size:         Size{Width: 32, Height: 32},
		DrawDistance: 1,
		Async:        false,
		Budget:       4 * time.Millisecond,
	}
}

// World владеет набором резидентных чанков и оверлеем правок.
// Мир однопоточный: генерация, правки и шаги физики вызываются из одного тика.
type World struct {
	params  Params
	gen     *Generator
	opts    Options
	chunks  map[vec.Vec2]*Chunk
	store   *DataStore
	queue   *GenerationQueue
	metrics *observability.WorldMetrics
	center  vec.Vec2 // чанк актёра на последнем Update
}

// New создаёт мир с указанными параметрами генерации
func New(params Params, opts Options) *World {
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.DrawDistance < 0 {
		opts.DrawDistance = 0
	}

	return &World{
		params:  params.Clone(),
		gen:     NewGenerator(params),
		opts:    opts,
		chunks:  make(map[vec.Vec2]*Chunk),
		store:   NewDataStore(),
		queue:   NewGenerationQueue(),
		metrics: opts.Metrics,
	}
}

// Params возвращает копию параметров генерации
func (w *World) Params() Params {
	return w.params.Clone()
}

// Size возвращает размеры чанка
func (w *World) Size() Size {
	return w.opts.Size
}

// DrawDistance возвращает радиус прорисовки в чанках
func (w *World) DrawDistance() int {
	return w.opts.DrawDistance
}

// Store возвращает оверлей правок
func (w *World) Store() *DataStore {
	return w.store
}

// WorldToChunk переводит мировые координаты в координаты чанка и локальные координаты.
// Y не делится: чанки занимают всю высоту.
func (w *World) WorldToChunk(x, y, z int) (vec.Vec2, vec.Vec3) {
	width := w.opts.Size.Width
	coords := vec.Vec2{X: vec.FloorDiv(x, width), Y: vec.FloorDiv(z, width)}
	local := vec.Vec3{X: x - coords.X*width, Y: y, Z: z - coords.Y*width}
	return coords, local
}

// ChunkAt возвращает резидентный чанк
func (w *World) ChunkAt(coords vec.Vec2) (*Chunk, bool) {
	c, ok := w.chunks[coords]
	return c, ok
}

// Chunks возвращает резидентные чанки, упорядоченные по координатам
func (w *World) Chunks() []*Chunk {
	result := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Coords.X != result[j].Coords.X {
			return result[i].Coords.X < result[j].Coords.X
		}
		return result[i].Coords.Y < result[j].Coords.Y
	})
	return result
}

// PendingGenerations возвращает число отложенных генераций
func (w *World) PendingGenerations() int {
	return w.queue.Pending()
}

// loadedChunk находит загруженный чанк по мировым координатам
func (w *World) loadedChunk(x, y, z int) (*Chunk, vec.Vec3, bool) {
	coords, local := w.WorldToChunk(x, y, z)
	c, ok := w.chunks[coords]
	if !ok || !c.Loaded {
		return nil, local, false
	}
	return c, local, true
}

// GetBlock возвращает тип блока. false — чанк не загружен или координата вне мира.
func (w *World) GetBlock(x, y, z int) (block.BlockID, bool) {
	c, local, ok := w.loadedChunk(x, y, z)
	if !ok {
		return block.EmptyBlockID, false
	}
	b, ok := c.GetBlock(local)
	if !ok {
		return block.EmptyBlockID, false
	}
	return b.ID, true
}

// AddBlock ставит блок в мировых координатах и скрывает соседей, которые стали закрытыми.
// Нижний слой (бедрок) и незагруженные чанки не редактируются.
func (w *World) AddBlock(x, y, z int, id block.BlockID) bool {
	applied := w.addBlock(x, y, z, id)
	w.metrics.Edit("add", applied)
	return applied
}

func (w *World) addBlock(x, y, z int, id block.BlockID) bool {
	if y <= 0 {
		return false
	}
	c, local, ok := w.loadedChunk(x, y, z)
	if !ok || !c.AddBlock(local, id) {
		return false
	}

	// соседей внутри чанка переоценил сам чанк
	pos := vec.Vec3{X: x, Y: y, Z: z}
	for _, d := range vec.FaceNeighbors {
		n := pos.Add(d)
		nc, nl, ok := w.loadedChunk(n.X, n.Y, n.Z)
		if ok && nc != c && nc.IsObscured(nl) {
			nc.DeleteInstance(nl)
		}
	}
	return true
}

// RemoveBlock удаляет блок в мировых координатах и открывает соседей
func (w *World) RemoveBlock(x, y, z int) bool {
	applied := w.removeBlock(x, y, z)
	w.metrics.Edit("remove", applied)
	return applied
}

func (w *World) removeBlock(x, y, z int) bool {
	if y <= 0 {
		return false
	}
	c, local, ok := w.loadedChunk(x, y, z)
	if !ok || !c.RemoveBlock(local) {
		return false
	}

	pos := vec.Vec3{X: x, Y: y, Z: z}
	for _, d := range vec.FaceNeighbors {
		n := pos.Add(d)
		if nc, nl, ok := w.loadedChunk(n.X, n.Y, n.Z); ok && nc != c {
			nc.AddInstance(nl)
		}
	}
	return true
}

// Update синхронизирует набор резидентных чанков с позицией актёра и
// выполняет отложенные генерации в пределах бюджета.
func (w *World) Update(position mgl64.Vec3) {
	coords, _ := w.WorldToChunk(int(math.Floor(position.X())), 0, int(math.Floor(position.Z())))
	w.center = coords

	w.syncVisible()

	if w.opts.Async {
		w.queue.Run(w.opts.Budget)
	}
	w.metrics.SetQueueDepth(w.queue.Pending())
}

func (w *World) syncVisible() {
	d := w.opts.DrawDistance

	for coords, c := range w.chunks {
		if coords.ChebyshevTo(w.center) > d {
			c.Dispose()
			delete(w.chunks, coords)
			logging.LogChunkDisposed(coords.X, coords.Y)
		}
	}

	for x := w.center.X - d; x <= w.center.X+d; x++ {
		for z := w.center.Y - d; z <= w.center.Y+d; z++ {
			coords := vec.Vec2{X: x, Y: z}
			if _, ok := w.chunks[coords]; ok {
				continue
			}
			c := NewChunk(coords, w.opts.Size, w.gen, w.store)
			w.chunks[coords] = c
			if w.opts.Async {
				w.queue.Schedule(func() { w.generateChunk(c) })
			} else {
				w.generateChunk(c)
			}
		}
	}

	w.metrics.SetResidentChunks(len(w.chunks))
}

// generateChunk выполняет одну полную генерацию. Чанк, выгруженный до
// срабатывания задачи, всё равно генерируется и затем освобождается.
func (w *World) generateChunk(c *Chunk) {
	start := time.Now()
	c.Generate()
	took := time.Since(start)

	w.metrics.ObserveGeneration(took)
	logging.LogChunkGenerated(c.Coords.X, c.Coords.Y, c.InstanceCount(), took)

	if c.Disposed() {
		c.Dispose()
	}
}

// Generate полностью пересоздаёт резидентные чанки вокруг последней позиции актёра.
// Генерация синхронная, чтобы после возврата мир был готов к использованию.
// Оверлей правок сохраняется.
func (w *World) Generate() {
	w.disposeAll()
	w.gen = NewGenerator(w.params)

	async := w.opts.Async
	w.opts.Async = false
	w.syncVisible()
	w.opts.Async = async

	logging.Debug("Мир перегенерирован: seed=%d, чанков=%d, правок=%d", w.params.Seed, len(w.chunks), w.store.Len())
}

// SetParams меняет параметры генерации и перегенерирует мир
func (w *World) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	w.params = params.Clone()
	w.Generate()
	return nil
}

// Reset очищает оверлей правок и перегенерирует мир
func (w *World) Reset() {
	w.store.Clear()
	w.Generate()
}

// Restore заменяет параметры и оверлей сохранёнными значениями и перегенерирует мир
func (w *World) Restore(params Params, edits []Edit) error {
	if err := params.Validate(); err != nil {
		return err
	}
	w.params = params.Clone()
	w.store.Replace(edits)
	w.Generate()
	return nil
}

// Dispose выгружает все чанки
func (w *World) Dispose() {
	w.disposeAll()
	w.metrics.SetResidentChunks(0)
}

func (w *World) disposeAll() {
	for coords, c := range w.chunks {
		c.Dispose()
		delete(w.chunks, coords)
	}
	// Незавершённые задачи сгенерируют уже выгруженные чанки и освободят их
	w.queue.Drain()
}

package app

import (
	"context"
	"sync"

	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/physics"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoStorage — сессия создана без хранилища сохранений
var ErrNoStorage = errors.New("хранилище сохранений не настроено")

// Options собирают всё, что нужно сессии
type Options struct {
	World   world.Options
	Params  world.Params
	Physics physics.Options
	Player  physics.PlayerOptions
	Spawn   mgl64.Vec3
	Saves   *storage.WorldStorage // может быть nil
	Metrics *observability.WorldMetrics
	Events  eventbus.EventBus // может быть nil
}

// PlayerState — снимок состояния игрока
type PlayerState struct {
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"` // мировая система
	Yaw      float64    `json:"yaw"`
	OnGround bool       `json:"on_ground"`
}

// ChunkInfo — сводка по резидентному чанку
type ChunkInfo struct {
	Coords    vec.Vec2       `json:"coords"`
	Loaded    bool           `json:"loaded"`
	Instances map[string]int `json:"instances"`
}

// Session связывает мир, физику, игрока и хранилище.
// Мир и физика однопоточные, поэтому все обращения идут под mu:
// тик сервера и HTTP-обработчики не пересекаются.
type Session struct {
	mu      sync.Mutex
	world   *world.World
	physics *physics.Physics
	player  *physics.Player
	saves   *storage.WorldStorage
	events  eventbus.EventBus
	spawn   mgl64.Vec3
	log     *logging.Logger
	tracer  trace.Tracer
}

// NewSession создаёт мир и сразу загружает чанки вокруг точки появления
func NewSession(opts Options) (*Session, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, errors.Wrap(err, "параметры генерации")
	}

	opts.World.Metrics = opts.Metrics
	s := &Session{
		world:   world.New(opts.Params, opts.World),
		physics: physics.New(opts.Physics, opts.Metrics),
		player:  physics.NewPlayer(opts.Player, opts.Spawn),
		saves:   opts.Saves,
		events:  opts.Events,
		spawn:   opts.Spawn,
		log:     logging.GetWorldLogger(),
		tracer:  observability.Tracer(),
	}
	s.world.Update(s.spawn)

	s.log.Info("🌍 Сессия создана: seed=%d, чанков=%d", opts.Params.Seed, len(s.world.Chunks()))
	return s, nil
}

// Tick подгружает чанки вокруг игрока и продвигает физику на dt секунд
func (s *Session) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world.Update(s.player.Position)
	s.physics.Update(dt, s.player, s.world)
}

// GetBlock возвращает тип блока; false — чанк не загружен или координата вне мира
func (s *Session) GetBlock(x, y, z int) (block.BlockID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.GetBlock(x, y, z)
}

// AddBlock ставит блок в мировых координатах
func (s *Session) AddBlock(x, y, z int, id block.BlockID) bool {
	s.mu.Lock()
	ok := s.world.AddBlock(x, y, z, id)
	s.mu.Unlock()

	if ok {
		s.publish(context.Background(), eventbus.BlockEdited, editPriority,
			eventbus.BlockEdit{Op: eventbus.OpAdd, X: x, Y: y, Z: z, Block: uint16(id)})
	}
	return ok
}

// RemoveBlock удаляет блок в мировых координатах
func (s *Session) RemoveBlock(x, y, z int) bool {
	s.mu.Lock()
	ok := s.world.RemoveBlock(x, y, z)
	s.mu.Unlock()

	if ok {
		s.publish(context.Background(), eventbus.BlockEdited, editPriority,
			eventbus.BlockEdit{Op: eventbus.OpRemove, X: x, Y: y, Z: z})
	}
	return ok
}

// SetInput задаёт намерение движения игрока и поворот
func (s *Session) SetInput(right, forward, yaw float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.SetInput(right, forward)
	s.player.Yaw = yaw
}

// Jump — прыжок, если игрок на земле
func (s *Session) Jump() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Jump()
}

// Player возвращает снимок состояния игрока
func (s *Session) Player() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PlayerState{
		Position: s.player.Position,
		Velocity: s.player.WorldVelocity(),
		Yaw:      s.player.Yaw,
		OnGround: s.player.OnGround,
	}
}

// Contacts возвращает контакты последнего шага физики (копия)
func (s *Session) Contacts() []physics.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]physics.Contact(nil), s.physics.LastContacts...)
}

// Chunks возвращает сводку по резидентным чанкам
func (s *Session) Chunks() []ChunkInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.world.Chunks()
	result := make([]ChunkInfo, 0, len(chunks))
	for _, c := range chunks {
		info := ChunkInfo{Coords: c.Coords, Loaded: c.Loaded, Instances: make(map[string]int)}
		for _, l := range c.InstanceLists() {
			info.Instances[l.Block.String()] = l.Count()
		}
		result = append(result, info)
	}
	return result
}

// Params возвращает текущие параметры генерации
func (s *Session) Params() world.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Params()
}

// SetParams меняет параметры генерации и перегенерирует мир. Правки сохраняются.
func (s *Session) SetParams(ctx context.Context, params world.Params) error {
	ctx, span := s.tracer.Start(ctx, "session.SetParams")
	defer span.End()

	s.mu.Lock()
	err := s.world.SetParams(params)
	s.mu.Unlock()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.log.Info("Параметры генерации изменены: seed=%d", params.Seed)
	s.publish(ctx, eventbus.ParamsChanged, lifecyclePriority, eventbus.ParamsEvent{Seed: params.Seed})
	return nil
}

// Reset очищает правки, перегенерирует мир и возвращает игрока в точку появления
func (s *Session) Reset(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "session.Reset")
	defer span.End()

	s.mu.Lock()
	s.world.Reset()
	s.player.Reset(s.spawn)
	s.mu.Unlock()

	s.log.Info("🔄 Мир сброшен")
	s.publish(ctx, eventbus.WorldReset, lifecyclePriority, struct{}{})
}

// Save записывает параметры и оверлей правок в хранилище
func (s *Session) Save(ctx context.Context) (storage.SaveMeta, error) {
	ctx, span := s.tracer.Start(ctx, "session.Save")
	defer span.End()

	if s.saves == nil {
		return storage.SaveMeta{}, ErrNoStorage
	}

	s.mu.Lock()
	params := s.world.Params()
	edits := s.world.Store().Edits()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("voxel.edits", len(edits)))
	meta, err := s.saves.Save(ctx, params, edits)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.SaveMeta{}, err
	}
	span.SetAttributes(attribute.String("voxel.save_id", meta.ID.String()))
	s.publish(ctx, eventbus.WorldSaved, lifecyclePriority, eventbus.SaveEvent{SaveID: meta.ID, Edits: meta.Edits})
	return meta, nil
}

// Load читает сохранение, полностью перегенерирует мир и возвращает игрока
// в точку появления. При ошибке чтения мир остаётся в прежнем состоянии.
func (s *Session) Load(ctx context.Context) (storage.SaveMeta, error) {
	ctx, span := s.tracer.Start(ctx, "session.Load")
	defer span.End()

	if s.saves == nil {
		return storage.SaveMeta{}, ErrNoStorage
	}

	snap, err := s.saves.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.SaveMeta{}, err
	}

	s.mu.Lock()
	err = s.world.Restore(snap.Params, snap.Edits)
	if err == nil {
		s.player.Reset(s.spawn)
	}
	s.mu.Unlock()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return storage.SaveMeta{}, errors.Wrap(storage.ErrCorruptSave, err.Error())
	}

	span.SetAttributes(
		attribute.Int("voxel.edits", len(snap.Edits)),
		attribute.String("voxel.save_id", snap.Meta.ID.String()),
	)
	s.publish(ctx, eventbus.WorldLoaded, lifecyclePriority, eventbus.SaveEvent{SaveID: snap.Meta.ID, Edits: len(snap.Edits)})
	return snap.Meta, nil
}

// Close выгружает мир
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world.Dispose()
}

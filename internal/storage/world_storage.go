package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// DefaultSaveKey — ключ, под которым лежит сохранение мира
const DefaultSaveKey = "world:save"

// formatVersion — версия формата записи сохранения
const formatVersion = 1

var (
	// ErrNoSave — сохранения нет
	ErrNoSave = errors.New("сохранение не найдено")
	// ErrCorruptSave — сохранение не читается или не проходит проверку
	ErrCorruptSave = errors.New("сохранение повреждено")
)

// SaveMeta описывает одно сохранение
type SaveMeta struct {
	ID      uuid.UUID `json:"id"`
	SavedAt time.Time `json:"saved_at"`
	Version int       `json:"version"`
	Edits   int       `json:"edits"`
}

// Snapshot — полностью декодированное сохранение
type Snapshot struct {
	Meta   SaveMeta
	Params world.Params
	Edits  []world.Edit
}

// record — формат хранения. Оверлей сжат zstd, params лежат открыто,
// чтобы их можно было посмотреть без распаковки.
type record struct {
	Meta    SaveMeta     `json:"meta"`
	Params  world.Params `json:"params"`
	Overlay []byte       `json:"overlay"`
}

// WorldStorage сохраняет параметры генерации и оверлей правок в KVStore
type WorldStorage struct {
	kv  KVStore
	key string
	log *logging.Logger
	now func() time.Time
}

// NewWorldStorage создаёт хранилище сохранений поверх kv
func NewWorldStorage(kv KVStore, key string) *WorldStorage {
	if key == "" {
		key = DefaultSaveKey
	}
	return &WorldStorage{
		kv:  kv,
		key: key,
		log: logging.GetStorageLogger(),
		now: time.Now,
	}
}

// Save записывает параметры и полный оверлей одной записью
func (ws *WorldStorage) Save(ctx context.Context, params world.Params, edits []world.Edit) (SaveMeta, error) {
	overlay, err := encodeOverlay(edits)
	if err != nil {
		return SaveMeta{}, err
	}

	rec := record{
		Meta: SaveMeta{
			ID:      uuid.New(),
			SavedAt: ws.now().UTC(),
			Version: formatVersion,
			Edits:   len(edits),
		},
		Params:  params,
		Overlay: overlay,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return SaveMeta{}, errors.Wrap(err, "ошибка сериализации сохранения")
	}
	if err := ws.kv.Set(ctx, ws.key, data); err != nil {
		return SaveMeta{}, err
	}

	ws.log.Info("💾 Мир сохранён: id=%s, правок=%d, %d байт", rec.Meta.ID, len(edits), len(data))
	return rec.Meta, nil
}

// Load читает и полностью проверяет сохранение. При любой ошибке
// вызывающий получает ErrNoSave или ErrCorruptSave и ничего не применяет.
func (ws *WorldStorage) Load(ctx context.Context) (*Snapshot, error) {
	data, err := ws.kv.Get(ctx, ws.key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, err
	}

	snap, err := decodeRecord(data)
	if err != nil {
		ws.log.Warn("Сохранение %s не прочитано: %v", ws.key, err)
		return nil, err
	}

	ws.log.Info("📂 Сохранение загружено: id=%s, правок=%d", snap.Meta.ID, len(snap.Edits))
	return snap, nil
}

// Delete удаляет сохранение
func (ws *WorldStorage) Delete(ctx context.Context) error {
	return ws.kv.Delete(ctx, ws.key)
}

func decodeRecord(data []byte) (*Snapshot, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(ErrCorruptSave, "запись: %v", err)
	}
	if rec.Meta.Version != formatVersion {
		return nil, errors.Wrapf(ErrCorruptSave, "неподдерживаемая версия %d", rec.Meta.Version)
	}
	if err := rec.Params.Validate(); err != nil {
		return nil, errors.Wrapf(ErrCorruptSave, "параметры: %v", err)
	}

	edits, err := decodeOverlay(rec.Overlay)
	if err != nil {
		return nil, err
	}
	if len(edits) != rec.Meta.Edits {
		return nil, errors.Wrapf(ErrCorruptSave, "ожидалось %d правок, прочитано %d", rec.Meta.Edits, len(edits))
	}

	return &Snapshot{Meta: rec.Meta, Params: rec.Params, Edits: edits}, nil
}

func encodeOverlay(edits []world.Edit) ([]byte, error) {
	raw, err := json.Marshal(edits)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка сериализации оверлея")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func decodeOverlay(data []byte) ([]world.Edit, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptSave, "оверлей: %v", err)
	}

	var edits []world.Edit
	if err := json.Unmarshal(raw, &edits); err != nil {
		return nil, errors.Wrapf(ErrCorruptSave, "оверлей: %v", err)
	}
	for i, e := range edits {
		if !block.IsValidBlockID(e.Block) {
			return nil, errors.Wrapf(ErrCorruptSave, "правка %d: неизвестный блок %d", i, e.Block)
		}
	}
	return edits, nil
}

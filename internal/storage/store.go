package storage

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound возвращается KVStore, если ключа нет
var ErrNotFound = errors.New("ключ не найден")

// ErrClosed возвращается операциями над закрытым хранилищем
var ErrClosed = errors.New("хранилище закрыто")

// KVStore — минимальное key-value хранилище для сохранений мира.
// Реализации должны быть безопасны для конкурентного использования.
type KVStore interface {
	// Get возвращает копию значения или ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set записывает значение целиком
	Set(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа не ошибка
	Delete(ctx context.Context, key string) error

	Close() error
}

// Backend — тип хранилища
type Backend string

const (
	BackendBadger Backend = "badger"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options задают выбор и параметры хранилища
type Options struct {
	Backend Backend     `yaml:"backend"`
	Path    string      `yaml:"path"` // каталог BadgerDB
	Redis   RedisConfig `yaml:"redis"`
	Key     string      `yaml:"key"` // ключ сохранения
}

// DefaultOptions возвращает настройки по умолчанию: BadgerDB в ./data
func DefaultOptions() Options {
	return Options{
		Backend: BackendBadger,
		Path:    "data",
		Redis:   *DefaultRedisConfig(),
		Key:     DefaultSaveKey,
	}
}

// Open открывает хранилище указанного типа
func Open(opts Options) (KVStore, error) {
	switch opts.Backend {
	case BackendBadger, "":
		store, err := NewBadgerStore(opts.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		cfg := opts.Redis
		store, err := NewRedisStore(&cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("неизвестный тип хранилища %q", opts.Backend)
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

package eventbus

import (
	"fmt"
	"time"
)

// Backend выбирает реализацию шины
type Backend string

const (
	BackendNone   Backend = "none"
	BackendMemory Backend = "memory"
	BackendNATS   Backend = "nats"
)

// Options — секция events конфигурации
type Options struct {
	Backend   Backend       `yaml:"backend"`
	URL       string        `yaml:"url"`       // nats://127.0.0.1:4222
	Stream    string        `yaml:"stream"`    // имя стрима JetStream
	Retention time.Duration `yaml:"retention"` // MaxAge стрима
	Buffer    int           `yaml:"buffer"`    // ёмкость in-memory шины
}

// DefaultOptions — in-memory шина на 1024 события
func DefaultOptions() Options {
	return Options{
		Backend:   BackendMemory,
		URL:       "nats://127.0.0.1:4222",
		Stream:    "VOXEL",
		Retention: 24 * time.Hour,
		Buffer:    1024,
	}
}

// Open создаёт шину по конфигурации. BackendNone даёт nil без ошибки.
func Open(opts Options) (EventBus, error) {
	switch opts.Backend {
	case BackendNone, "":
		return nil, nil
	case BackendMemory:
		return NewMemoryBus(opts.Buffer), nil
	case BackendNATS:
		bus, err := NewJetStreamBus(opts.URL, opts.Stream, opts.Retention)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("неизвестный backend шины событий %q", opts.Backend)
	}
}

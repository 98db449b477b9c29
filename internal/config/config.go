package config

import (
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/physics"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Generation world.Params     `yaml:"generation"`
	Physics    physics.Options  `yaml:"physics"`
	Player     PlayerConfig     `yaml:"player"`
	Storage    storage.Options  `yaml:"storage"`
	Events     eventbus.Options `yaml:"events"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type WorldConfig struct {
	ChunkWidth   int           `yaml:"chunk_width"`
	ChunkHeight  int           `yaml:"chunk_height"`
	DrawDistance int           `yaml:"draw_distance"`
	Async        bool          `yaml:"async_generation"`
	Budget       time.Duration `yaml:"generation_budget"`
}

type PlayerConfig struct {
	physics.PlayerOptions `yaml:",inline"`
	Spawn                 [3]float64 `yaml:"spawn"`
}

type ServerConfig struct {
	RESTPort    int     `yaml:"rest_port"`
	MetricsPort int     `yaml:"metrics_port"`
	TickRate    float64 `yaml:"tick_rate"`
	Telemetry   bool    `yaml:"telemetry"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает полностью заполненную конфигурацию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ChunkWidth:   32,
			ChunkHeight:  32,
			DrawDistance: 1,
			Budget:       4 * time.Millisecond,
		},
		Generation: world.DefaultParams(),
		Physics:    physics.DefaultOptions(),
		Player: PlayerConfig{
			PlayerOptions: physics.DefaultPlayerOptions(),
			Spawn:         [3]float64{32, 32, 32},
		},
		Storage: storage.DefaultOptions(),
		Events:  eventbus.DefaultOptions(),
		Server: ServerConfig{
			TickRate: 60,
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Dir:   "logs",
		},
	}
}

// WorldOptions переводит секцию world в параметры мира
func (c *Config) WorldOptions() world.Options {
	return world.Options{
		Size:         world.Size{Width: c.World.ChunkWidth, Height: c.World.ChunkHeight},
		DrawDistance: c.World.DrawDistance,
		Async:        c.World.Async,
		Budget:       c.World.Budget,
	}
}

// SpawnPoint возвращает точку появления игрока
func (p PlayerConfig) SpawnPoint() mgl64.Vec3 {
	return mgl64.Vec3(p.Spawn)
}

// Validate проверяет согласованность секций
func (c *Config) Validate() error {
	if err := c.WorldOptions().Size.Validate(); err != nil {
		return errors.Wrap(err, "world")
	}
	if c.World.DrawDistance < 0 {
		return errors.New("world.draw_distance не может быть отрицательным")
	}
	if err := c.Generation.Validate(); err != nil {
		return errors.Wrap(err, "generation")
	}
	if c.Physics.SimulationRate <= 0 {
		return errors.New("physics.simulation_rate должен быть > 0")
	}
	if c.Player.Radius <= 0 || c.Player.Height <= 0 {
		return errors.New("player: радиус и высота должны быть > 0")
	}
	if c.Server.TickRate <= 0 {
		return errors.New("server.tick_rate должен быть > 0")
	}
	switch c.Storage.Backend {
	case storage.BackendBadger, storage.BackendRedis, storage.BackendMemory:
	default:
		return errors.Errorf("storage.backend: неизвестное значение %q", c.Storage.Backend)
	}
	switch c.Events.Backend {
	case eventbus.BackendNone, eventbus.BackendMemory, eventbus.BackendNATS:
	default:
		return errors.Errorf("events.backend: неизвестное значение %q", c.Events.Backend)
	}
	return nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт отдельного listener'а Prometheus с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG; без него
// возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан — используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "чтение конфигурации %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "разбор конфигурации %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "конфигурация %s", path)
	}

	return cfg, nil
}

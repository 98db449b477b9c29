package storage

import (
	"context"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        `yaml:"addr"`       // Адрес Redis сервера
	Password  string        `yaml:"password"`   // Пароль (пустой если не требуется)
	DB        int           `yaml:"db"`         // Номер базы данных
	KeyPrefix string        `yaml:"key_prefix"` // Префикс для ключей
	TTL       time.Duration `yaml:"ttl"`        // 0 — без срока жизни
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "voxel:",
	}
}

// RedisStore хранит сохранения в Redis, чтобы их видели несколько серверов
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "не удалось подключиться к Redis %s", config.Addr)
	}

	logging.GetStorageLogger().Info("🔴 Подключено к Redis %s", config.Addr)
	return NewRedisStoreWithClient(client, config.KeyPrefix, config.TTL), nil
}

// NewRedisStoreWithClient оборачивает уже созданный клиент
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get читает значение по ключу
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rs.client.Get(ctx, rs.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "ошибка чтения из Redis")
	}
	return data, nil
}

// Set записывает значение
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	err := rs.client.Set(ctx, rs.keyPrefix+key, value, rs.ttl).Err()
	return errors.Wrap(err, "ошибка записи в Redis")
}

// Delete удаляет ключ
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	err := rs.client.Del(ctx, rs.keyPrefix+key).Err()
	return errors.Wrap(err, "ошибка удаления из Redis")
}

// Close закрывает соединение
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

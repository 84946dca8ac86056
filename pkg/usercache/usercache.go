package usercache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "username:"

// Loader достает отображаемое имя из первичного хранилища
type Loader func(id uuid.UUID) (string, error)

// Cache - read-through кэш отображаемых имен поверх Redis.
// Сборка уведомлений при fan-out спрашивает имена здесь, а не ходит
// в базу на каждого получателя. Инвалидация - при смене профиля.
type Cache struct {
	rdb  *redis.Client
	load Loader
	ttl  time.Duration
}

func NewCache(rdb *redis.Client, load Loader, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, load: load, ttl: ttl}
}

// DisplayName возвращает имя из кэша, при промахе читает из хранилища
// и кэширует
func (c *Cache) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	key := keyPrefix + id.String()

	name, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if err != redis.Nil {
		// Redis недоступен - идем мимо кэша
		return c.load(id)
	}

	name, err = c.load(id)
	if err != nil {
		return "", err
	}

	c.rdb.Set(ctx, key, name, c.ttl)
	return name, nil
}

// Invalidate выбрасывает имя из кэша после обновления профиля
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.rdb.Del(ctx, keyPrefix+id.String())
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
)

// Cache 封装所有 redis 读写，每次操作都使用独立的超时
type Cache struct {
	cfg *config.Config
	rdb *redis.Client
}

func New(cfg *config.Config, rdb *redis.Client) *Cache {
	return &Cache{
		cfg: cfg,
		rdb: rdb,
	}
}

func ViewKey(tripID int64) string {
	return fmt.Sprintf("timeline_view_%d", tripID)
}

func ConflictsKey(tripID int64) string {
	return fmt.Sprintf("timeline_conflicts_%d", tripID)
}

func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(c.cfg.Redis.OperationExpiration)*time.Second)
}

// LoadJSON 读取并反序列化，key 不存在时返回 false
func (c *Cache) LoadJSON(ctx context.Context, key string, dst any) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) StoreJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Cache) LoadView(ctx context.Context, tripID int64, dst any) (bool, error) {
	return c.LoadJSON(ctx, ViewKey(tripID), dst)
}

func (c *Cache) StoreView(ctx context.Context, tripID int64, v any) error {
	return c.StoreJSON(ctx, ViewKey(tripID), v, time.Duration(c.cfg.Cache.ViewExpiration)*time.Second)
}

func (c *Cache) InvalidateView(ctx context.Context, tripID int64) error {
	return c.Delete(ctx, ViewKey(tripID))
}

// SwapConflictCount 写入新的冲突数量并返回之前的值，之前没有记录时 ok 为 false
func (c *Cache) SwapConflictCount(ctx context.Context, tripID int64, count int) (int, bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	prev, err := c.rdb.SetArgs(ctx, ConflictsKey(tripID), count, redis.SetArgs{Get: true}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}

	n, err := strconv.Atoi(prev)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/cache"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/tenant"
)

// Store persists in-progress form drafts, one per tenant/branch key.
//
// Save never reports failure to the caller: losing a draft is an acceptable
// degraded mode, blocking the form on cache trouble is not. Load returns nil
// for absent or unreadable drafts; a corrupt entry is deleted on the spot so
// it cannot poison later loads.
type Store interface {
	Save(ctx context.Context, t tenant.Context, d *model.Draft)
	Load(ctx context.Context, t tenant.Context) *model.Draft
	Clear(ctx context.Context, t tenant.Context) error
}

type RedisStore struct {
	cache *cache.RedisClient
	log   logger.Logger
	ttl   time.Duration
}

func NewRedisStore(c *cache.RedisClient, log logger.Logger, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, log: log, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, t tenant.Context, d *model.Draft) {
	if !t.Valid() {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		s.log.Warn("failed to serialize draft", zap.Error(err))
		return
	}
	if err := s.cache.Client.Set(ctx, t.DraftKey(), data, s.ttl).Err(); err != nil {
		s.log.Warn("failed to save draft", zap.String("key", t.DraftKey()), zap.Error(err))
	}
}

func (s *RedisStore) Load(ctx context.Context, t tenant.Context) *model.Draft {
	raw, err := s.cache.Client.Get(ctx, t.DraftKey()).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("failed to load draft", zap.String("key", t.DraftKey()), zap.Error(err))
		}
		return nil
	}

	var d model.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		// Corrupt entry: self-heal by removing it.
		s.log.Warn("deleting corrupt draft", zap.String("key", t.DraftKey()), zap.Error(err))
		if delErr := s.cache.Client.Del(ctx, t.DraftKey()).Err(); delErr != nil {
			s.log.Warn("failed to delete corrupt draft", zap.Error(delErr))
		}
		return nil
	}
	return &d
}

func (s *RedisStore) Clear(ctx context.Context, t tenant.Context) error {
	return s.cache.Client.Del(ctx, t.DraftKey()).Err()
}

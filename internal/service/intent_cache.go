package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

type cachedIntentResolver struct {
	inner    IntentResolver
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCachedIntentResolver memoises successful resolutions in Redis. A nil
// client disables caching.
func NewCachedIntentResolver(inner IntentResolver, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) IntentResolver {
	if cache == nil {
		return inner
	}
	return &cachedIntentResolver{
		inner:    inner,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "intent_cache").Logger(),
	}
}

func (r *cachedIntentResolver) Resolve(ctx context.Context, query string, columns []string) (models.QueryIntent, error) {
	cacheKey := intentCacheKey(query, columns)

	if cached, err := r.cache.Get(ctx, cacheKey).Result(); err == nil {
		if intent, _, parseErr := models.ParseQueryIntent([]byte(cached)); parseErr == nil {
			r.logger.Debug().Str("key", cacheKey).Msg("intent cache hit")
			return intent, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn().Err(err).Msg("failed to read intent cache")
	}

	intent, err := r.inner.Resolve(ctx, query, columns)
	if err != nil {
		return intent, err
	}

	payload, err := json.Marshal(intent)
	if err == nil {
		if err := r.cache.Set(ctx, cacheKey, payload, r.cacheTTL).Err(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to store intent cache")
		}
	}

	return intent, nil
}

func intentCacheKey(query string, columns []string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query)) + "\x00" + strings.Join(columns, ",")))
	return "intent:" + hex.EncodeToString(sum[:])
}

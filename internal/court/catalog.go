package court

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Catalog is the read-only court lookup consumed by the reservation lifecycle.
type Catalog interface {
	Lookup(ctx context.Context, courtID string) (*Court, error)
}

// Invalidator drops any cached copy of a court after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, courtID string)
}

type repoCatalog struct {
	repo Repository
}

// NewCatalog serves lookups straight from the repository.
func NewCatalog(repo Repository) Catalog {
	return &repoCatalog{repo: repo}
}

func (c *repoCatalog) Lookup(ctx context.Context, courtID string) (*Court, error) {
	return c.repo.GetByID(ctx, courtID)
}

// CachedCatalog keeps court lookups in redis for a short TTL.
// Redis failures are logged and the lookup falls through to the next catalog.
type CachedCatalog struct {
	next Catalog
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCachedCatalog(next Catalog, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedCatalog{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "court_cache").Logger(),
	}
}

func cacheKey(courtID string) string {
	return "court:" + courtID
}

func (c *CachedCatalog) Lookup(ctx context.Context, courtID string) (*Court, error) {
	key := cacheKey(courtID)

	bs, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ct Court
		if jsonErr := json.Unmarshal(bs, &ct); jsonErr == nil {
			return &ct, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("court cache read failed")
	}

	ct, err := c.next.Lookup(ctx, courtID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(ct); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("court cache write failed")
		}
	}
	return ct, nil
}

func (c *CachedCatalog) Invalidate(ctx context.Context, courtID string) {
	if err := c.rdb.Del(ctx, cacheKey(courtID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("court_id", courtID).Msg("court cache invalidation failed")
	}
}

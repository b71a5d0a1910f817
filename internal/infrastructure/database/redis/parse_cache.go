package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eli5y/eli5y/internal/domain/alignment"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

// ErrCacheMiss reports that no cached parse exists for the requested source.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "parse cache miss")

// ParseCache stores alignment results keyed by a digest of the LaTeX source,
// so a formula is only drafted and aligned once per TTL window.
type ParseCache struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewParseCache builds a ParseCache on top of client.  prefix namespaces the
// keys; ttl bounds how long a parse stays valid.
func NewParseCache(client *Client, prefix string, ttl time.Duration, log logging.Logger) *ParseCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ParseCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.Named("parse_cache"),
	}
}

// Key derives the cache key for a LaTeX source.  The digest keeps arbitrary
// markup out of the key space.
func (c *ParseCache) Key(latex string) string {
	sum := sha256.Sum256([]byte(latex))
	return c.prefix + "parse:" + hex.EncodeToString(sum[:])
}

// Get returns the cached alignment result for latex, or ErrCacheMiss.
func (c *ParseCache) Get(ctx context.Context, latex string) (*alignment.Result, error) {
	raw, err := c.client.RDB().Get(ctx, c.Key(latex)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "parse cache read failed")
	}

	var res alignment.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		// A corrupt entry is treated as a miss so the caller recomputes it.
		c.logger.Warn("dropping corrupt parse cache entry", logging.Err(err))
		_ = c.client.RDB().Del(ctx, c.Key(latex)).Err()
		return nil, ErrCacheMiss
	}
	return &res, nil
}

// Set stores the alignment result for latex under the configured TTL.
func (c *ParseCache) Set(ctx context.Context, latex string, res *alignment.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "parse cache encode failed")
	}
	if err := c.client.RDB().Set(ctx, c.Key(latex), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "parse cache write failed")
	}
	return nil
}

// Invalidate removes the cached parse for latex.
func (c *ParseCache) Invalidate(ctx context.Context, latex string) error {
	if err := c.client.RDB().Del(ctx, c.Key(latex)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "parse cache delete failed")
	}
	return nil
}

// Package cache decorates the experience store with a Redis read-through
// cache for single-claim lookups. List projections and binding lookups pass
// through: their result sets change on every binding operation and caching
// them buys little.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/internal/experience/models"
	"vouch/internal/experience/store"
	id "vouch/pkg/domain"
)

// CachedStore wraps an inner store. Mutations invalidate after the inner
// write commits, so a reader that re-filled the key mid-write has its stale
// entry removed; until the commit a reader can at worst serve the pre-update
// record, never a torn one. Mutating flows must not make decisions off this
// decorator; they read the inner store directly.
type CachedStore struct {
	inner  store.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(inner store.Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func key(claimID id.ClaimID) string {
	return fmt.Sprintf("vouch:experience:%s", claimID)
}

func (c *CachedStore) Create(ctx context.Context, rec *models.Experience) (id.ClaimID, error) {
	return c.inner.Create(ctx, rec)
}

func (c *CachedStore) Get(ctx context.Context, claimID id.ClaimID) (*models.Experience, error) {
	cached, err := c.client.Get(ctx, key(claimID)).Bytes()
	if err == nil {
		var rec models.Experience
		if err := json.Unmarshal(cached, &rec); err == nil {
			return &rec, nil
		}
		// Corrupt entry: fall through to the source of truth.
	} else if !errors.Is(err, redis.Nil) {
		c.warn(ctx, "cache read failed", claimID, err)
	}

	rec, err := c.inner.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(rec); err == nil {
		if err := c.client.Set(ctx, key(claimID), data, c.ttl).Err(); err != nil {
			c.warn(ctx, "cache write failed", claimID, err)
		}
	}
	return rec, nil
}

func (c *CachedStore) Update(ctx context.Context, rec *models.Experience, moves store.IndexMoves) error {
	if err := c.inner.Update(ctx, rec, moves); err != nil {
		return err
	}
	if err := c.client.Del(ctx, key(rec.ID)).Err(); err != nil {
		c.warn(ctx, "cache invalidation failed", rec.ID, err)
	}
	return nil
}

func (c *CachedStore) ListByOwner(ctx context.Context, owner id.Address) ([]*models.Experience, error) {
	return c.inner.ListByOwner(ctx, owner)
}

func (c *CachedStore) ListByEmployer(ctx context.Context, employer id.Address) ([]*models.Experience, error) {
	return c.inner.ListByEmployer(ctx, employer)
}

func (c *CachedStore) ListByEmployerEmail(ctx context.Context, email id.Email) ([]*models.Experience, error) {
	return c.inner.ListByEmployerEmail(ctx, email)
}

func (c *CachedStore) EmailBinding(ctx context.Context, email id.Email) (*models.EmailBinding, error) {
	return c.inner.EmailBinding(ctx, email)
}

func (c *CachedStore) warn(ctx context.Context, msg string, claimID id.ClaimID, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "claim_id", claimID.String(), "error", err)
	}
}

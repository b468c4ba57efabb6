package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// refreshWindow is the fixed extension applied by RefreshExpiration.
const refreshWindow = 30 * time.Minute

// Cache holds per-user permission snapshots in Redis. It is single-writer
// (the session-initialization flow) and multi-reader; every query tolerates
// a missing snapshot and fails closed rather than raising.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger, now: time.Now}
}

// Save replaces any prior snapshot wholesale. When ExpiresAt is unset it is
// derived from the configured TTL.
func (c *Cache) Save(ctx context.Context, userID int64, snap Snapshot) error {
	if c == nil || c.client == nil {
		return errors.New("snapshot: cache not configured")
	}
	now := c.now()
	if snap.CachedAt.IsZero() {
		snap.CachedAt = now
	}
	if snap.ExpiresAt.IsZero() {
		snap.ExpiresAt = now.Add(c.ttl)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	// Keep the key a little past logical expiry so IsExpired can still
	// distinguish "expired" from "never cached".
	retention := snap.ExpiresAt.Sub(now) + refreshWindow
	if err := c.client.Set(ctx, c.key(userID), payload, retention).Err(); err != nil {
		c.warn("snapshot save", err)
		return err
	}
	return nil
}

// Load returns the cached snapshot, or nil when it is missing, corrupt, or
// past its expiry. Corrupt data is cleared and never partially trusted.
func (c *Cache) Load(ctx context.Context, userID int64) *Snapshot {
	snap := c.loadRaw(ctx, userID)
	if snap == nil {
		return nil
	}
	if c.now().After(snap.ExpiresAt) {
		c.clear(ctx, userID)
		return nil
	}
	return snap
}

// IsExpired reports whether the stored snapshot has passed its expiry.
// A missing or unparseable snapshot counts as expired.
func (c *Cache) IsExpired(ctx context.Context, userID int64) bool {
	snap := c.loadRaw(ctx, userID)
	if snap == nil || snap.ExpiresAt.IsZero() {
		return true
	}
	return c.now().After(snap.ExpiresAt)
}

// RefreshExpiration extends the stored expiry by a fixed 30-minute window
// without re-deriving any permission or role list.
func (c *Cache) RefreshExpiration(ctx context.Context, userID int64) {
	snap := c.loadRaw(ctx, userID)
	if snap == nil {
		return
	}
	snap.ExpiresAt = snap.ExpiresAt.Add(refreshWindow)
	payload, err := json.Marshal(snap)
	if err != nil {
		c.warn("snapshot refresh marshal", err)
		return
	}
	retention := snap.ExpiresAt.Sub(c.now()) + refreshWindow
	if err := c.client.Set(ctx, c.key(userID), payload, retention).Err(); err != nil {
		c.warn("snapshot refresh", err)
	}
}

// Invalidate drops the stored snapshot.
func (c *Cache) Invalidate(ctx context.Context, userID int64) {
	c.clear(ctx, userID)
}

// GetOrBuild returns the cached snapshot or builds and saves a fresh one.
// Concurrent builds for the same user are collapsed to a single loader call.
func (c *Cache) GetOrBuild(ctx context.Context, userID int64, loader func(context.Context) (Snapshot, error)) (*Snapshot, error) {
	if snap := c.Load(ctx, userID); snap != nil {
		return snap, nil
	}
	result, err, _ := c.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		snap, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Save(ctx, userID, snap); err != nil {
			return nil, err
		}
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

// HasPermission reports whether the cached snapshot grants a permission.
func (c *Cache) HasPermission(ctx context.Context, userID int64, name string) bool {
	snap := c.Load(ctx, userID)
	if snap == nil || name == "" {
		return false
	}
	_, ok := snap.permissionSet()[name]
	return ok
}

// HasRole reports whether the cached snapshot grants a role.
func (c *Cache) HasRole(ctx context.Context, userID int64, name string) bool {
	snap := c.Load(ctx, userID)
	if snap == nil || name == "" {
		return false
	}
	_, ok := snap.roleSet()[name]
	return ok
}

// HasAnyPermission reports whether at least one listed permission is granted.
// An empty requirement list is never auto-satisfied.
func (c *Cache) HasAnyPermission(ctx context.Context, userID int64, names []string) bool {
	if len(names) == 0 {
		return false
	}
	snap := c.Load(ctx, userID)
	if snap == nil {
		return false
	}
	set := snap.permissionSet()
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every listed permission is granted.
// An empty requirement list is never auto-satisfied.
func (c *Cache) HasAllPermissions(ctx context.Context, userID int64, names []string) bool {
	if len(names) == 0 {
		return false
	}
	snap := c.Load(ctx, userID)
	if snap == nil {
		return false
	}
	set := snap.permissionSet()
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

// HasAnyRole reports whether at least one listed role is granted.
func (c *Cache) HasAnyRole(ctx context.Context, userID int64, names []string) bool {
	if len(names) == 0 {
		return false
	}
	snap := c.Load(ctx, userID)
	if snap == nil {
		return false
	}
	set := snap.roleSet()
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether every listed role is granted.
func (c *Cache) HasAllRoles(ctx context.Context, userID int64, names []string) bool {
	if len(names) == 0 {
		return false
	}
	snap := c.Load(ctx, userID)
	if snap == nil {
		return false
	}
	set := snap.roleSet()
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

func (c *Cache) loadRaw(ctx context.Context, userID int64) *Snapshot {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("snapshot load", err)
		}
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.warn("snapshot corrupt", err)
		c.clear(ctx, userID)
		return nil
	}
	return &snap
}

func (c *Cache) clear(ctx context.Context, userID int64) {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.warn("snapshot clear", err)
	}
}

func (c *Cache) key(userID int64) string {
	return "console:snapshot:" + strconv.FormatInt(userID, 10)
}

func (c *Cache) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}

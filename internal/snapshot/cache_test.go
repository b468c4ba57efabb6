package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := NewCache(client, 30*time.Minute, nil)
	cache.now = func() time.Time { return now }
	return cache, mr, &now
}

func sampleSnapshot(expiresAt time.Time) Snapshot {
	return Snapshot{
		ExpiresAt: expiresAt,
		AllPermissions: []Permission{
			{ID: 1, Name: "orders.view", GuardContext: "console"},
			{ID: 2, Name: "orders.edit", GuardContext: "console"},
		},
		GlobalRoles: []Role{{ID: 10, Name: "manager", GuardContext: "console"}},
		Stores:      []Store{{ID: 5, Name: "Downtown"}},
		Summary:     Summary{RoleCount: 1, PermissionCount: 2, StoreCount: 1},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))

	snap := cache.Load(ctx, 42)
	require.NotNil(t, snap)
	require.Equal(t, *now, snap.CachedAt)
	require.Len(t, snap.AllPermissions, 2)
	require.Equal(t, "manager", snap.GlobalRoles[0].Name)
}

func TestSaveReplacesWholesale(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))

	replacement := Snapshot{
		ExpiresAt:      now.Add(30 * time.Minute),
		AllPermissions: []Permission{{ID: 9, Name: "stores.view"}},
	}
	require.NoError(t, cache.Save(ctx, 42, replacement))

	snap := cache.Load(ctx, 42)
	require.NotNil(t, snap)
	require.Len(t, snap.AllPermissions, 1)
	require.Empty(t, snap.GlobalRoles)
	require.False(t, cache.HasPermission(ctx, 42, "orders.view"))
}

func TestLoadMissingReturnsNil(t *testing.T) {
	cache, _, _ := newTestCache(t)
	require.Nil(t, cache.Load(context.Background(), 42))
}

func TestLoadCorruptClearsAndReturnsNil(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("console:snapshot:42", "{not json"))
	require.Nil(t, cache.Load(ctx, 42))
	require.False(t, mr.Exists("console:snapshot:42"))
}

func TestLoadAfterExpiryReturnsNil(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))
	require.NotNil(t, cache.Load(ctx, 42))

	*now = now.Add(31 * time.Minute)
	require.Nil(t, cache.Load(ctx, 42))
	require.True(t, cache.IsExpired(ctx, 42))
}

func TestIsExpiredForMissingSnapshot(t *testing.T) {
	cache, _, _ := newTestCache(t)
	require.True(t, cache.IsExpired(context.Background(), 42))
}

func TestRefreshExpirationExtendsWithoutRefetch(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))

	*now = now.Add(29 * time.Minute)
	cache.RefreshExpiration(ctx, 42)

	// Past the original expiry but inside the extended window.
	*now = now.Add(20 * time.Minute)
	snap := cache.Load(ctx, 42)
	require.NotNil(t, snap)
	require.Len(t, snap.AllPermissions, 2, "lists must survive a refresh untouched")
}

func TestMembershipQueriesFailClosed(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	// No snapshot cached: everything is false.
	require.False(t, cache.HasPermission(ctx, 42, "orders.view"))
	require.False(t, cache.HasRole(ctx, 42, "manager"))
	require.False(t, cache.HasAnyPermission(ctx, 42, []string{"orders.view"}))
	require.False(t, cache.HasAllRoles(ctx, 42, []string{"manager"}))

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))

	require.True(t, cache.HasPermission(ctx, 42, "orders.view"))
	require.False(t, cache.HasPermission(ctx, 42, "orders.delete"))
	require.True(t, cache.HasRole(ctx, 42, "manager"))
	require.False(t, cache.HasRole(ctx, 42, "admin"))

	require.True(t, cache.HasAnyPermission(ctx, 42, []string{"nope", "orders.edit"}))
	require.False(t, cache.HasAnyPermission(ctx, 42, []string{"nope"}))
	require.True(t, cache.HasAllPermissions(ctx, 42, []string{"orders.view", "orders.edit"}))
	require.False(t, cache.HasAllPermissions(ctx, 42, []string{"orders.view", "nope"}))
	require.True(t, cache.HasAnyRole(ctx, 42, []string{"manager", "admin"}))
	require.False(t, cache.HasAllRoles(ctx, 42, []string{"manager", "admin"}))
}

func TestEmptyRequirementListsAreNeverSatisfied(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))

	require.False(t, cache.HasAnyPermission(ctx, 42, nil))
	require.False(t, cache.HasAllPermissions(ctx, 42, nil))
	require.False(t, cache.HasAnyRole(ctx, 42, nil))
	require.False(t, cache.HasAllRoles(ctx, 42, nil))
}

func TestGetOrBuildUsesCacheFirst(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (Snapshot, error) {
		calls++
		return sampleSnapshot(now.Add(30 * time.Minute)), nil
	}

	first, err := cache.GetOrBuild(ctx, 42, loader)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, 1, calls)

	second, err := cache.GetOrBuild(ctx, 42, loader)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, 1, calls, "second call must be served from cache")
}

func TestInvalidateDropsSnapshot(t *testing.T) {
	cache, _, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, 42, sampleSnapshot(now.Add(30*time.Minute))))
	cache.Invalidate(ctx, 42)
	require.Nil(t, cache.Load(ctx, 42))
}

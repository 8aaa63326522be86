package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/caryardhq/caryard/internal/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)

	return rc
}

// --- Ping ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	err := rc.Ping(context.Background())
	assert.NoError(t, err)
}

// --- Set / Get roundtrip ---

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "test:key", []byte("hello"), 10*time.Second)
	require.NoError(t, err)

	val, found, err := rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), val)
}

func TestGet_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	val, found, err := rc.Get(context.Background(), "nonexistent:key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSet_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "expiry:key", []byte("temp"), 1*time.Second)
	require.NoError(t, err)

	// Immediately should exist
	_, found, err := rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.True(t, found)

	// Wait for TTL to expire
	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.False(t, found)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "del:key", []byte("bye"), 10*time.Second))

	err := rc.Delete(ctx, "del:key")
	require.NoError(t, err)

	_, found, err := rc.Get(ctx, "del:key")
	require.NoError(t, err)
	assert.False(t, found)
}

// --- Run Status ---

func TestSetGetRunStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	runID := uuid.New()

	err := rc.SetRunStatus(ctx, runID, "PROCESSING", 10*time.Second)
	require.NoError(t, err)

	status, found, err := rc.GetRunStatus(ctx, runID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "PROCESSING", status)
}

func TestGetRunStatus_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	status, found, err := rc.GetRunStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", status)
}

// --- View Counters ---

func TestIncrViews_Sequential(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		val, err := rc.IncrViews(ctx, "uid-a", 7)
		require.NoError(t, err)
		assert.Equal(t, i, val)
	}

	views, err := rc.GetViews(ctx, "uid-a", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), views)
}

func TestIncrViews_ConcurrentNoLostUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := rc.IncrViews(ctx, "uid-a", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	views, err := rc.GetViews(ctx, "uid-a", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine), views)
}

func TestViews_ScopedPerOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	_, err := rc.IncrViews(ctx, "uid-a", 1)
	require.NoError(t, err)

	// Same request id under a different owner is a different counter.
	views, err := rc.GetViews(ctx, "uid-b", 1)
	require.NoError(t, err)
	assert.Zero(t, views)
}

func TestGetViews_NeverViewed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	views, err := rc.GetViews(context.Background(), "uid-a", 999)
	require.NoError(t, err)
	assert.Zero(t, views)
}

// --- IncrWithExpiry ---

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()[:8]

	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)
}

func TestIncrWithExpiry_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:expiry:" + uuid.NewString()[:8]

	_, err := rc.IncrWithExpiry(ctx, key, 1*time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	// After expiry, should start from 1 again
	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

// --- Cache Key Builders ---

func TestRunStatusKey(t *testing.T) {
	runID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	key := cache.RunStatusKey(runID)
	assert.Equal(t, "run:22222222-2222-2222-2222-222222222222", key)
}

func TestViewsKey(t *testing.T) {
	key := cache.ViewsKey("uid-abc", 42)
	assert.Equal(t, "views:request:uid-abc:42", key)
}

func TestRateLimitKey(t *testing.T) {
	key := cache.RateLimitKey("cy_abcd1234")
	assert.Equal(t, "ratelimit:cy_abcd1234", key)
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	runID := uuid.New()

	keys := map[string]bool{
		cache.RunStatusKey(runID):       true,
		cache.ViewsKey("uid-a", 1):      true,
		cache.RateLimitKey("cy_prefix"): true,
		cache.SnapshotKey("uid-a"):      true,
	}
	assert.Len(t, keys, 4, "all keys should be unique")
}

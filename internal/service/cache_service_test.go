package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/repository"
)

func newTestCacheService(t *testing.T) *CacheService {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(repository.NewCacheRepository(client, zap.NewNop()), NewMetricsService(), time.Minute, zap.NewNop(), true)
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	metrics := NewMetricsService()
	svc := NewCacheService(repository.NewCacheRepository(client, zap.NewNop()), metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, "venues:a", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "venues:a", []string{"x"}, 0))
	require.NoError(t, svc.Set(ctx, "catalog:cities", []string{"y"}, 0))
	assert.Equal(t, time.Minute, srv.TTL("venues:a"))

	hit, err = svc.Get(ctx, "venues:a", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"x"}, out)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))

	require.NoError(t, svc.Invalidate(ctx, "venues:*"))
	assert.False(t, srv.Exists("venues:a"))
	assert.True(t, srv.Exists("catalog:cities"))
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, svc.Enabled())

	var out []string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, svc.Invalidate(context.Background(), "k*"))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestRememberLoadsOnce(t *testing.T) {
	svc := newTestCacheService(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"Hyderabad", "Chennai"}, nil
	}

	first, err := remember(ctx, svc, "catalog:cities", "list_cities", load)
	require.NoError(t, err)
	second, err := remember(ctx, svc, "catalog:cities", "list_cities", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, testutil.CollectAndCount(svc.metrics.dbQueryDuration))
}

func TestRememberSkipsCachingFailures(t *testing.T) {
	svc := newTestCacheService(t)
	ctx := context.Background()

	boom := errors.New("db down")
	_, err := remember(ctx, svc, "catalog:game_types", "list_game_types", func(context.Context) ([]string, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	hit, err := svc.Get(ctx, "catalog:game_types", new([]string))
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	out, err := remember(ctx, nilSvc, "k", "noop", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}

package testing

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// GetRedisClientAndCtx connects to the redis pointed to by LIFTLOG_TEST_REDIS_HOST.
// Tests using it are skipped when the variable is not set, so the unit
// test run never depends on a live redis.
func GetRedisClientAndCtx(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()

	redisHost := os.Getenv("LIFTLOG_TEST_REDIS_HOST")
	if redisHost == "" {
		t.Skip("LIFTLOG_TEST_REDIS_HOST not set, skipping live redis test")
	}
	t.Logf("using redis host: [%s]", redisHost)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(redisHost, "6379"),
		Password: os.Getenv("LIFTLOG_TEST_REDIS_PASS"),
		DB:       0, // use default DB
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	pingRes, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	t.Logf("redis ping res: %s", pingRes)

	return ctx, rdb
}

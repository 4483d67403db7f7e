// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisTestAddrEnv points tests at a real Redis instead of miniredis.
const RedisTestAddrEnv = "REDIS_TEST_ADDR"

// NewTestRedis starts an in-memory Redis for the lifetime of t and returns it
// with a connected client. Both are closed on cleanup.
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

// GetTestRedisOptions returns options for the Redis named by REDIS_TEST_ADDR,
// or localhost:6379. DB 1 keeps test keys away from a local default DB.
func GetTestRedisOptions() *redis.Options {
	addr := os.Getenv(RedisTestAddrEnv)
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{Addr: addr, DB: 1}
}

// QuietLogger returns a logrus logger that discards output.
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

package testutil

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestRedisOptions(t *testing.T) {
	t.Setenv(RedisTestAddrEnv, "")
	options := GetTestRedisOptions()
	assert.Equal(t, "localhost:6379", options.Addr)
	assert.Equal(t, 1, options.DB)

	t.Setenv(RedisTestAddrEnv, "localhost:6380")
	options = GetTestRedisOptions()
	assert.Equal(t, "localhost:6380", options.Addr)
	assert.Equal(t, 1, options.DB)
}

func TestNewTestRedis(t *testing.T) {
	s, client := NewTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "finsight:test", "value", 0).Err())
	got, err := s.Get("finsight:test")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, s.Addr(), client.Options().Addr)
}

func TestQuietLogger(t *testing.T) {
	logger := QuietLogger()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.NotPanics(t, func() { logger.Info("discarded") })
}

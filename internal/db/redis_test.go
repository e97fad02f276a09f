package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := InitRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitRedis(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}

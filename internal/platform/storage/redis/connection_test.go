package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_QuandoRedisResponde_DeveAplicarPool(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(context.Background(), Options{
		Addr:        mr.Addr(),
		DB:          2,
		PoolSize:    7,
		PoolTimeout: 2 * time.Second,
	})

	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.Equal(t, 7, client.Options().PoolSize)
	assert.Equal(t, 2, client.Options().DB)
	assert.Equal(t, 2*time.Second, client.Options().PoolTimeout)
}

func TestNewClient_QuandoRedisForaDoAr_DeveFalhar(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(context.Background(), Options{Addr: addr, PingTimeout: 200 * time.Millisecond})

	assert.Nil(t, client)
	assert.ErrorContains(t, err, "ping em "+addr)
}

func TestNewClient_QuandoContextoCancelado_DeveFalhar(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := NewClient(ctx, Options{Addr: mr.Addr()})

	assert.Nil(t, client)
	assert.Error(t, err)
}

func TestNewClient_QuandoSemEndereco_DeveFalhar(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})

	assert.Error(t, err)
}

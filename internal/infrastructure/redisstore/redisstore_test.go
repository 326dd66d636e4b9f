package redisstore

import (
	"context"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestCartRoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client)
	ctx := context.Background()

	empty, err := repo.FindByCustomerID(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "c-1", empty.CustomerID)

	c := &domain.Cart{CustomerID: "c-1"}
	require.NoError(t, c.Add("p-1", 2))
	require.NoError(t, c.Add("p-1", 1))
	require.NoError(t, repo.Save(ctx, c))
	assert.True(t, mr.Exists("cart:c-1"))
	assert.Greater(t, mr.TTL("cart:c-1"), time.Duration(0))

	got, err := repo.FindByCustomerID(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)

	require.NoError(t, repo.Clear(ctx, "c-1"))
	got, err = repo.FindByCustomerID(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartCorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:c-1", "{not json"))

	_, err := NewCartRepository(client).FindByCustomerID(context.Background(), "c-1")
	assert.Error(t, err)
}

func TestDeduplicatorClaimsOnce(t *testing.T) {
	client, mr := setupTestRedis(t)
	d := NewDeduplicator(client, time.Hour)
	ctx := context.Background()

	ok, err := d.Claim(ctx, "order.confirm", "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Claim(ctx, "order.confirm", "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = d.Claim(ctx, "shipping.create", "evt-1")
	require.NoError(t, err)
	assert.True(t, ok, "claims are per handler")

	require.NoError(t, d.Release(ctx, "order.confirm", "evt-1"))
	ok, err = d.Claim(ctx, "order.confirm", "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = d.Claim(ctx, "shipping.create", "evt-1")
	require.NoError(t, err)
	assert.True(t, ok, "claims expire")
}

func TestDeduplicatorReportsRedisErrors(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewDeduplicator(client, 0).Claim(context.Background(), "h", "e")
	assert.Error(t, err)
}

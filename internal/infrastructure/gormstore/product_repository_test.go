package gormstore

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *ProductRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	return NewProductRepository(db)
}

func seed(t *testing.T, r *ProductRepository, stock int) string {
	t.Helper()
	p, err := domain.New("p-"+uuid.NewString(), "Mug", 5_000, stock, "mug.png")
	require.NoError(t, err)
	require.NoError(t, r.Put(context.Background(), p))
	return p.ID
}

func TestProductRoundTrip(t *testing.T) {
	r := newRepo(t)
	id := seed(t, r, 3)

	p, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 3, p.StockQuantity)
	assert.Equal(t, []string{"mug.png"}, p.Images)

	_, err = r.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecreaseStockIsConditional(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	id := seed(t, r, 2)

	require.NoError(t, r.DecreaseStock(ctx, id, 2))
	assert.ErrorIs(t, r.DecreaseStock(ctx, id, 1), domain.ErrInsufficientStock)
	assert.ErrorIs(t, r.DecreaseStock(ctx, "missing", 1), domain.ErrNotFound)
	assert.ErrorIs(t, r.IncreaseStock(ctx, "missing", 1), domain.ErrNotFound)

	require.NoError(t, r.IncreaseStock(ctx, id, 1))
	p, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)
}

func TestConcurrentDecreaseNeverOversells(t *testing.T) {
	r := newRepo(t)
	id := seed(t, r, 10)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.DecreaseStock(context.Background(), id, 1) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	p, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, p.StockQuantity)
}

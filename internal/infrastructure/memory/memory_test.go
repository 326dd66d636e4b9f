package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/promotion"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dest = address.Address{Recipient: "Kim", Phone: "010", ZipCode: "06236", Line1: "Teheran-ro 1"}

func TestConcurrentDecreaseNeverOversells(t *testing.T) {
	p, err := product.New("p-1", "Mug", 5_000, 50)
	require.NoError(t, err)
	repo := NewProductRepository(p)

	var wg sync.WaitGroup
	var ok, rejected atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := repo.DecreaseStock(context.Background(), "p-1", 1); err {
			case nil:
				ok.Add(1)
			case product.ErrInsufficientStock:
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int32(50), ok.Load())
	assert.Equal(t, int32(150), rejected.Load())
	assert.Equal(t, 0, got.StockQuantity)
}

func TestProductRepositoryIsolation(t *testing.T) {
	p, err := product.New("p-1", "Mug", 5_000, 3)
	require.NoError(t, err)
	repo := NewProductRepository(p)
	p.StockQuantity = 99

	got, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)

	require.NoError(t, repo.IncreaseStock(context.Background(), "p-1", 2))
	got, _ = repo.FindByID(context.Background(), "p-1")
	assert.Equal(t, 5, got.StockQuantity)

	assert.ErrorIs(t, repo.DecreaseStock(context.Background(), "nope", 1), product.ErrNotFound)
	assert.ErrorIs(t, repo.IncreaseStock(context.Background(), "nope", 1), product.ErrNotFound)
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	repo := NewOrderRepository()
	o, err := order.New("o-1", "ORD-1", "c-1", dest)
	require.NoError(t, err)
	li, err := order.NewLineItem("p-1", "Mug", "", 2, 100)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(li))
	require.NoError(t, o.Place())

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, o))
	assert.ErrorIs(t, repo.Save(ctx, o), order.ErrConflict)

	got, err := repo.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.TotalAmount())
	assert.Empty(t, got.PendingEvents())

	require.NoError(t, got.Confirm("pay-1"))
	require.NoError(t, repo.Update(ctx, got))
	again, _ := repo.FindByID(ctx, "o-1")
	assert.Equal(t, order.StatusConfirmed, again.Status)

	list, err := repo.ListByCustomer(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestOnePaymentPerOrder(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()
	a, _ := payment.New("pay-1", "o-1", 100, payment.MethodCard)
	b, _ := payment.New("pay-2", "o-1", 100, payment.MethodCard)

	require.NoError(t, repo.Save(ctx, a))
	assert.ErrorIs(t, repo.Save(ctx, b), payment.ErrAlreadyExists)

	got, err := repo.FindByOrderID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)
}

func TestOneShipmentPerOrder(t *testing.T) {
	repo := NewShippingRepository()
	ctx := context.Background()
	a, _ := shipping.New("s-1", "o-1", dest, "CJ")
	b, _ := shipping.New("s-2", "o-1", dest, "CJ")

	require.NoError(t, repo.Save(ctx, a))
	assert.ErrorIs(t, repo.Save(ctx, b), shipping.ErrAlreadyExists)

	got, err := repo.FindByOrderID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)
}

func TestIssueUniquePerCustomer(t *testing.T) {
	repo := NewPromotionRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveIssue(ctx, &promotion.Issue{ID: "i-1", CouponID: "cp", CustomerID: "c-1"}))
	assert.ErrorIs(t, repo.SaveIssue(ctx, &promotion.Issue{ID: "i-2", CouponID: "cp", CustomerID: "c-1"}), promotion.ErrAlreadyIssued)

	issue, err := repo.FindIssue(ctx, "cp", "c-1")
	require.NoError(t, err)
	issue.Used, issue.OrderID = true, "o-9"
	require.NoError(t, repo.UpdateIssue(ctx, issue))

	byOrder, err := repo.FindIssueByOrderID(ctx, "o-9")
	require.NoError(t, err)
	assert.Equal(t, "i-1", byOrder.ID)
}

func TestCartClear(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &cart.Cart{CustomerID: "c-1", Items: []cart.Item{{ProductID: "p-1", Quantity: 1}}}))
	c, err := repo.FindByCustomerID(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	require.NoError(t, repo.Clear(ctx, "c-1"))
	c, err = repo.FindByCustomerID(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator()
	ctx := context.Background()
	first, _ := d.Claim(ctx, "h", "e-1")
	second, _ := d.Claim(ctx, "h", "e-1")
	other, _ := d.Claim(ctx, "h2", "e-1")
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, other)

	require.NoError(t, d.Release(ctx, "h", "e-1"))
	again, _ := d.Claim(ctx, "h", "e-1")
	assert.True(t, again)
}

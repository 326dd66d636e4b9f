package promotion

import (
	"context"

	domorder "github.com/Zhima-Mochi/minishop-saga/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

const HandlerReleaseOnCancelled = "promotion.release_on_order_cancelled"

type Listener struct {
	uc *UseCases
}

func NewListener(uc *UseCases) *Listener {
	return &Listener{uc: uc}
}

func (l *Listener) Register(sub domoutbox.Subscriber) {
	domoutbox.On(sub, HandlerReleaseOnCancelled, l.onOrderCancelled)
}

func (l *Listener) onOrderCancelled(ctx context.Context, e domorder.OrderCancelledEvent) error {
	_, err := l.uc.CancelUseByOrder.Execute(ctx, e.OrderID)
	return err
}

package order

import (
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPreparing Status = "PREPARING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusReturned
}

type Order struct {
	outbox.Recorder

	ID              string
	OrderNumber     string
	CustomerID      string
	Status          Status
	ShippingAddress address.Address
	PaymentID       string
	CouponID        string
	DiscountAmount  int64
	StockDeducted   bool
	CancelReason    string
	PlacedAt        *time.Time
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	DeliveredAt     *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	items       []LineItem
	totalAmount int64
	clock       func() time.Time
}

func New(id, orderNumber, customerID string, shipTo address.Address) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, ErrCustomerMissing
	}
	if err := shipTo.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		Status:          StatusPending,
		ShippingAddress: shipTo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	return append([]LineItem(nil), o.items...)
}

func (o *Order) TotalAmount() int64 { return o.totalAmount }

// PayableAmount is what the customer is charged after the coupon discount.
func (o *Order) PayableAmount() int64 {
	if p := o.totalAmount - o.DiscountAmount; p > 0 {
		return p
	}
	return 0
}

func (o *Order) IsPlaced() bool { return o.PlacedAt != nil }

// AddItem appends a line item, merging quantities when the product is already present.
func (o *Order) AddItem(item LineItem) error {
	if err := o.requireEditable("add item"); err != nil {
		return err
	}
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice < 0 {
		return ErrInvalidPrice
	}
	for i, existing := range o.items {
		if existing.ProductID == item.ProductID {
			o.items[i] = existing.withQuantity(existing.Quantity + item.Quantity)
			o.recalculate()
			return nil
		}
	}
	o.items = append(o.items, item)
	o.recalculate()
	return nil
}

func (o *Order) ChangeQuantity(productID string, quantity int) error {
	if err := o.requireEditable("change quantity"); err != nil {
		return err
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i, existing := range o.items {
		if existing.ProductID == productID {
			o.items[i] = existing.withQuantity(quantity)
			o.recalculate()
			return nil
		}
	}
	return ErrItemNotFound
}

func (o *Order) RemoveItem(productID string) error {
	if err := o.requireEditable("remove item"); err != nil {
		return err
	}
	for i, existing := range o.items {
		if existing.ProductID == productID {
			o.items = append(o.items[:i], o.items[i+1:]...)
			o.recalculate()
			return nil
		}
	}
	return ErrItemNotFound
}

// Place freezes the item list and announces the order.
func (o *Order) Place() error {
	if o.Status != StatusPending || o.IsPlaced() {
		return o.stateError("place", "")
	}
	if len(o.items) == 0 {
		return o.stateError("place", "no line items")
	}
	o.recalculate()
	now := o.now()
	o.PlacedAt = &now
	o.touch()
	o.Record(NewOrderPlacedEvent(o))
	return nil
}

// ApplyDiscount attaches a coupon discount. It never changes the total, only
// the payable amount, and is clamped to the total.
func (o *Order) ApplyDiscount(couponID string, amount int64) error {
	if o.Status != StatusPending {
		return o.stateError("apply discount", "")
	}
	if amount < 0 {
		return ErrInvalidDiscount
	}
	if amount > o.totalAmount {
		amount = o.totalAmount
	}
	o.CouponID = couponID
	o.DiscountAmount = amount
	o.touch()
	return nil
}

func (o *Order) Confirm(paymentID string) error {
	if strings.TrimSpace(paymentID) == "" {
		return ErrPaymentRequired
	}
	if !o.IsPlaced() {
		return o.stateError("confirm", "order was never placed")
	}
	if err := o.apply("confirm", func(s orderState) (orderState, error) { return s.confirm(o, paymentID) }); err != nil {
		return err
	}
	o.Record(NewOrderConfirmedEvent(o))
	return nil
}

func (o *Order) Cancel(reason string) error {
	if err := o.apply("cancel", func(s orderState) (orderState, error) { return s.cancel(o, reason) }); err != nil {
		return err
	}
	o.Record(NewOrderCancelledEvent(o))
	return nil
}

func (o *Order) StartPreparing() error {
	return o.advance("start preparing", func(s orderState) (orderState, error) { return s.startPreparing(o) })
}

func (o *Order) Ship() error {
	return o.advance("ship", func(s orderState) (orderState, error) { return s.ship(o) })
}

func (o *Order) MarkDelivered() error {
	return o.advance("mark delivered", func(s orderState) (orderState, error) { return s.deliver(o) })
}

func (o *Order) MarkReturned() error {
	return o.advance("mark returned", func(s orderState) (orderState, error) { return s.markReturned(o) })
}

func (o *Order) Complete() error {
	if err := o.apply("complete", func(s orderState) (orderState, error) { return s.complete(o) }); err != nil {
		return err
	}
	o.Record(NewOrderCompletedEvent(o))
	return nil
}

// MarkStockDeducted records that stock for every item was taken from the ledger.
func (o *Order) MarkStockDeducted() {
	o.StockDeducted = true
	o.touch()
}

// MarkStockRestored records that the compensating stock increase ran.
func (o *Order) MarkStockRestored() {
	o.StockDeducted = false
	o.touch()
}

// Clone returns a deep copy without buffered events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Recorder = outbox.Recorder{}
	c.items = append([]LineItem(nil), o.items...)
	c.PlacedAt = cloneTime(o.PlacedAt)
	c.ConfirmedAt = cloneTime(o.ConfirmedAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	return &c
}

func (o *Order) apply(op string, move func(orderState) (orderState, error)) error {
	next, err := move(stateFor(o.Status))
	if err != nil {
		return o.stateError(op, "")
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) advance(op string, move func(orderState) (orderState, error)) error {
	from := o.Status
	if err := o.apply(op, move); err != nil {
		return err
	}
	o.Record(NewOrderStatusChangedEvent(o, from))
	return nil
}

func (o *Order) requireEditable(op string) error {
	if o.Status != StatusPending || o.IsPlaced() {
		return o.stateError(op, "items are frozen once the order is placed")
	}
	return nil
}

func (o *Order) recalculate() {
	var total int64
	for _, it := range o.items {
		total += it.Subtotal()
	}
	o.totalAmount = total
	if o.DiscountAmount > total {
		o.DiscountAmount = total
	}
}

func (o *Order) stateError(op, detail string) error {
	return &StateError{OrderID: o.ID, Current: o.Status, Operation: op, Detail: detail}
}

func (o *Order) now() time.Time {
	if o.clock != nil {
		return o.clock().UTC()
	}
	return time.Now().UTC()
}

func (o *Order) touch() {
	o.UpdatedAt = o.now()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

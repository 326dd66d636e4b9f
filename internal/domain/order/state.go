package order

// orderState implements the state pattern for order lifecycle transitions.
// Each state only overrides the moves it allows; everything else falls
// through to noTransitions and is rejected.
type orderState interface {
	Status() Status
	confirm(o *Order, paymentID string) (orderState, error)
	cancel(o *Order, reason string) (orderState, error)
	startPreparing(o *Order) (orderState, error)
	ship(o *Order) (orderState, error)
	deliver(o *Order) (orderState, error)
	complete(o *Order) (orderState, error)
	markReturned(o *Order) (orderState, error)
}

type noTransitions struct{}

func (noTransitions) confirm(*Order, string) (orderState, error) { return nil, ErrInvalidState }
func (noTransitions) cancel(*Order, string) (orderState, error)  { return nil, ErrInvalidState }
func (noTransitions) startPreparing(*Order) (orderState, error)  { return nil, ErrInvalidState }
func (noTransitions) ship(*Order) (orderState, error)            { return nil, ErrInvalidState }
func (noTransitions) deliver(*Order) (orderState, error)         { return nil, ErrInvalidState }
func (noTransitions) complete(*Order) (orderState, error)        { return nil, ErrInvalidState }
func (noTransitions) markReturned(*Order) (orderState, error)    { return nil, ErrInvalidState }

// cancellable is shared by the states a customer can still back out of.
type cancellable struct{ noTransitions }

func (cancellable) cancel(o *Order, reason string) (orderState, error) {
	now := o.now()
	o.CancelReason = reason
	o.CancelledAt = &now
	return cancelledState{}, nil
}

type pendingState struct{ cancellable }

func (pendingState) Status() Status { return StatusPending }

func (pendingState) confirm(o *Order, paymentID string) (orderState, error) {
	now := o.now()
	o.PaymentID = paymentID
	o.ConfirmedAt = &now
	return confirmedState{}, nil
}

type confirmedState struct{ cancellable }

func (confirmedState) Status() Status { return StatusConfirmed }

func (confirmedState) startPreparing(*Order) (orderState, error) { return preparingState{}, nil }

type preparingState struct{ cancellable }

func (preparingState) Status() Status { return StatusPreparing }

func (preparingState) ship(*Order) (orderState, error) { return shippedState{}, nil }

type shippedState struct{ noTransitions }

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) deliver(o *Order) (orderState, error) {
	now := o.now()
	o.DeliveredAt = &now
	return deliveredState{}, nil
}

type deliveredState struct{ noTransitions }

func (deliveredState) Status() Status { return StatusDelivered }

func (deliveredState) complete(o *Order) (orderState, error) {
	now := o.now()
	o.CompletedAt = &now
	return completedState{}, nil
}

func (deliveredState) markReturned(*Order) (orderState, error) { return returnedState{}, nil }

type completedState struct{ noTransitions }

func (completedState) Status() Status { return StatusCompleted }

type cancelledState struct{ noTransitions }

func (cancelledState) Status() Status { return StatusCancelled }

type returnedState struct{ noTransitions }

func (returnedState) Status() Status { return StatusReturned }

func stateFor(s Status) orderState {
	switch s {
	case StatusPending:
		return pendingState{}
	case StatusConfirmed:
		return confirmedState{}
	case StatusPreparing:
		return preparingState{}
	case StatusShipped:
		return shippedState{}
	case StatusDelivered:
		return deliveredState{}
	case StatusCompleted:
		return completedState{}
	case StatusCancelled:
		return cancelledState{}
	case StatusReturned:
		return returnedState{}
	default:
		return unknownState{status: s}
	}
}

type unknownState struct {
	noTransitions
	status Status
}

func (u unknownState) Status() Status { return u.status }

package market

import "fmt"

// Trade represents one match between a sell order and a buy order.
// It is built transiently by the clearing workflow, executed exactly once,
// and never mutated afterwards.
type Trade struct {
	Instrument *Instrument
	Quantity   int64
	Price      int64
	SellOrder  *Order
	BuyOrder   *Order

	tick     int64
	executed bool
}

// NewTrade requires quantity <= min remaining of both orders; the clearing
// workflow guarantees this by construction.
func NewTrade(instrument *Instrument, qty, price int64, sell, buy *Order) *Trade {
	return &Trade{
		Instrument: instrument,
		Quantity:   qty,
		Price:      price,
		SellOrder:  sell,
		BuyOrder:   buy,
	}
}

func (t *Trade) Seller() Trader { return t.SellOrder.Trader }
func (t *Trade) Buyer() Trader  { return t.BuyOrder.Trader }

// ExecutionTick returns the tick the trade executed at; false until executed.
func (t *Trade) ExecutionTick() (int64, bool) { return t.tick, t.executed }

// Execute applies the trade to both accounts, all-or-nothing:
//  1. stamp the execution tick,
//  2. apply the sell leg (a fault here leaves everything untouched),
//  3. apply the buy leg; a fault here unwinds the sell leg completely
//     before the error is returned.
//
// Every fault is an *ExecutionError naming exactly one culprit account.
func (t *Trade) Execute(clock Clock) error {
	t.tick = clock.CurrentTick()
	t.executed = true

	if err := t.SellOrder.satisfy(t); err != nil {
		t.executed = false
		return err
	}
	if err := t.BuyOrder.satisfy(t); err != nil {
		t.SellOrder.rollback(t)
		t.executed = false
		return err
	}
	return nil
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s->(%s:%d:%dp)->%s", t.Seller().Name(), t.Instrument, t.Quantity, t.Price, t.Buyer().Name())
}

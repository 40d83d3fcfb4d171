package market

import (
	"errors"
	"testing"
)

type stubClock struct{ tick int64 }

func (c *stubClock) CurrentTick() int64 { return c.tick }

type stubTrader struct {
	name     string
	failSell bool
	failBuy  bool

	sells         int
	buys          int
	sellRollbacks int
	buyRollbacks  int
}

func (s *stubTrader) Name() string { return s.name }

func (s *stubTrader) Sell(t *Trade) error {
	if s.failSell {
		return &ExecutionError{Reason: "stub sell fault", Trade: t, Culprit: s}
	}
	s.sells++
	return nil
}

func (s *stubTrader) Buy(t *Trade) error {
	if s.failBuy {
		return &ExecutionError{Reason: "stub buy fault", Trade: t, Culprit: s}
	}
	s.buys++
	return nil
}

func (s *stubTrader) RollbackSell(t *Trade) { s.sellRollbacks++ }
func (s *stubTrader) RollbackBuy(t *Trade)  { s.buyRollbacks++ }

func TestAskBookPriceTimePriority(t *testing.T) {
	clock := &stubClock{}
	inst := NewInstrument("lemons")
	trader := &stubTrader{name: "t"}
	book := NewBook(Sell, inst, clock)

	clock.tick = 1
	at100 := NewLimitOrder(Sell, trader, inst, 1, 100)
	if err := book.Record(at100); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	clock.tick = 2
	at90 := NewLimitOrder(Sell, trader, inst, 1, 90)
	if err := book.Record(at90); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	// 后到的低价卖单优先
	if best := book.BestOrder(); best != at90 {
		t.Fatalf("expected price-90 order best, got %v", best)
	}
	if price, ok := book.BestPrice(); !ok || price != 90 {
		t.Fatalf("expected best price 90, got %d (%v)", price, ok)
	}
}

func TestBidBookPriceTimePriority(t *testing.T) {
	clock := &stubClock{}
	inst := NewInstrument("lemons")
	trader := &stubTrader{name: "t"}
	book := NewBook(Buy, inst, clock)

	clock.tick = 1
	at30 := NewLimitOrder(Buy, trader, inst, 1, 30)
	if err := book.Record(at30); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	clock.tick = 2
	at40 := NewLimitOrder(Buy, trader, inst, 1, 40)
	if err := book.Record(at40); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	if price, ok := book.BestPrice(); !ok || price != 40 {
		t.Fatalf("expected best bid 40, got %d (%v)", price, ok)
	}
}

func TestBookEqualPriceTieBreaksOnTick(t *testing.T) {
	clock := &stubClock{}
	inst := NewInstrument("lemons")
	trader := &stubTrader{name: "t"}
	book := NewBook(Sell, inst, clock)

	clock.tick = 5
	later := NewLimitOrder(Sell, trader, inst, 1, 100)
	clock.tick = 3
	earlier := NewLimitOrder(Sell, trader, inst, 1, 100)

	// 先记录晚 tick 的订单，验证排序看 tick 而不是入簿顺序
	clock.tick = 5
	if err := book.Record(later); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	clock.tick = 3
	if err := book.Record(earlier); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	if best := book.BestOrder(); best != earlier {
		t.Fatalf("expected earlier-tick order to win the tie")
	}
	open := book.OpenOrders()
	if len(open) != 2 || open[0] != earlier || open[1] != later {
		t.Fatalf("unexpected open order priority: %v", open)
	}
}

func TestBookCancel(t *testing.T) {
	clock := &stubClock{tick: 1}
	inst := NewInstrument("lemons")
	trader := &stubTrader{name: "t"}
	book := NewBook(Sell, inst, clock)

	o := NewLimitOrder(Sell, trader, inst, 1, 100)
	if err := book.Record(o); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if _, ok := o.Tick(); !ok {
		t.Fatalf("expected tick stamped on record")
	}

	if err := book.Cancel(o); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if _, ok := o.Tick(); ok {
		t.Fatalf("expected tick cleared on cancel")
	}
	if best := book.BestOrder(); best != nil {
		t.Fatalf("cancelled order still best: %v", best)
	}
	if len(book.OpenOrders()) != 0 {
		t.Fatalf("cancelled order still open")
	}

	if err := book.Cancel(o); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestBookBestSkipsFilled(t *testing.T) {
	clock := &stubClock{tick: 1}
	inst := NewInstrument("lemons")
	trader := &stubTrader{name: "t"}
	book := NewBook(Sell, inst, clock)

	front := NewLimitOrder(Sell, trader, inst, 2, 90)
	back := NewLimitOrder(Sell, trader, inst, 2, 100)
	if err := book.Record(front); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := book.Record(back); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	// 把簿头订单吃满
	buySide := NewLimitOrder(Buy, trader, inst, 2, 95)
	fill := NewTrade(inst, 2, 90, front, buySide)
	if err := front.satisfy(fill); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if !front.Filled() {
		t.Fatalf("expected front order filled")
	}

	if best := book.BestOrder(); best != back {
		t.Fatalf("expected filled head skipped, got %v", best)
	}
	// 压实后底层存储不再保留已成交订单
	if book.Size() != 1 {
		t.Fatalf("expected compaction to size 1, got %d", book.Size())
	}
}

func TestBookRecordValidation(t *testing.T) {
	clock := &stubClock{tick: 1}
	inst := NewInstrument("lemons")
	other := NewInstrument("oranges")
	trader := &stubTrader{name: "t"}
	book := NewBook(Sell, inst, clock)

	cases := []struct {
		name  string
		order *Order
	}{
		{"wrong side", NewLimitOrder(Buy, trader, inst, 1, 100)},
		{"wrong instrument", NewLimitOrder(Sell, trader, other, 1, 100)},
		{"zero quantity", NewLimitOrder(Sell, trader, inst, 0, 100)},
		{"zero price", NewLimitOrder(Sell, trader, inst, 1, 0)},
	}
	for _, tc := range cases {
		if err := book.Record(tc.order); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
	if book.Size() != 0 {
		t.Fatalf("rejected orders must not enter the book")
	}
}

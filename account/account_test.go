package account

import (
	"errors"
	"testing"

	"market-sim-go/market"
)

type testClock struct{ tick int64 }

func (c *testClock) CurrentTick() int64 { return c.tick }

func TestAccountSellAndBuy(t *testing.T) {
	inst := market.NewInstrument("lemons")
	seller := New("alice", 0, map[*market.Instrument]int64{inst: 10})
	buyer := New("bob", 1000, nil)

	sellOrder := market.NewLimitOrder(market.Sell, seller, inst, 4, 50)
	buyOrder := market.NewLimitOrder(market.Buy, buyer, inst, 4, 50)
	trade := market.NewTrade(inst, 4, 50, sellOrder, buyOrder)

	if err := trade.Execute(&testClock{tick: 1}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	if seller.Cash() != 200 || seller.Inventory(inst) != 6 {
		t.Fatalf("seller books wrong: cash=%d inventory=%d", seller.Cash(), seller.Inventory(inst))
	}
	if buyer.Cash() != 800 || buyer.Inventory(inst) != 4 {
		t.Fatalf("buyer books wrong: cash=%d inventory=%d", buyer.Cash(), buyer.Inventory(inst))
	}
	if len(seller.SellTrades()) != 1 || len(buyer.BuyTrades()) != 1 {
		t.Fatalf("trade history not recorded")
	}
}

func TestAccountSellFaults(t *testing.T) {
	inst := market.NewInstrument("lemons")
	seller := New("alice", 0, map[*market.Instrument]int64{inst: 3})
	stranger := New("mallory", 0, map[*market.Instrument]int64{inst: 100})
	buyer := New("bob", 1000, nil)

	// 库存不足
	sellOrder := market.NewLimitOrder(market.Sell, seller, inst, 5, 50)
	buyOrder := market.NewLimitOrder(market.Buy, buyer, inst, 5, 50)
	err := seller.Sell(market.NewTrade(inst, 5, 50, sellOrder, buyOrder))
	var execErr *market.ExecutionError
	if !errors.As(err, &execErr) || execErr.Culprit != seller {
		t.Fatalf("expected inventory fault blaming seller, got %v", err)
	}
	if seller.Cash() != 0 || seller.Inventory(inst) != 3 || len(seller.SellTrades()) != 0 {
		t.Fatalf("failed sell leg must leave account untouched")
	}

	// 成交归属他人
	err = stranger.Sell(market.NewTrade(inst, 1, 50, sellOrder, buyOrder))
	if !errors.As(err, &execErr) || execErr.Culprit != stranger {
		t.Fatalf("expected ownership fault blaming stranger, got %v", err)
	}
	if stranger.Inventory(inst) != 100 {
		t.Fatalf("ownership fault must leave account untouched")
	}
}

func TestAccountBuyInsufficientCash(t *testing.T) {
	inst := market.NewInstrument("lemons")
	seller := New("alice", 0, map[*market.Instrument]int64{inst: 10})
	buyer := New("bob", 100, nil)

	sellOrder := market.NewLimitOrder(market.Sell, seller, inst, 3, 50)
	buyOrder := market.NewLimitOrder(market.Buy, buyer, inst, 3, 50)
	err := buyer.Buy(market.NewTrade(inst, 3, 50, sellOrder, buyOrder))

	var execErr *market.ExecutionError
	if !errors.As(err, &execErr) || execErr.Culprit != buyer {
		t.Fatalf("expected cash fault blaming buyer, got %v", err)
	}
	if buyer.Cash() != 100 || buyer.Inventory(inst) != 0 || len(buyer.BuyTrades()) != 0 {
		t.Fatalf("failed buy leg must leave account untouched")
	}
}

func TestAccountRollback(t *testing.T) {
	inst := market.NewInstrument("lemons")
	seller := New("alice", 500, map[*market.Instrument]int64{inst: 10})
	buyer := New("bob", 1000, nil)

	sellOrder := market.NewLimitOrder(market.Sell, seller, inst, 4, 50)
	buyOrder := market.NewLimitOrder(market.Buy, buyer, inst, 4, 50)
	trade := market.NewTrade(inst, 4, 50, sellOrder, buyOrder)

	if err := seller.Sell(trade); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	seller.RollbackSell(trade)
	if seller.Cash() != 500 || seller.Inventory(inst) != 10 || len(seller.SellTrades()) != 0 {
		t.Fatalf("rollback did not restore seller: cash=%d inventory=%d trades=%d",
			seller.Cash(), seller.Inventory(inst), len(seller.SellTrades()))
	}

	if err := buyer.Buy(trade); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	buyer.RollbackBuy(trade)
	if buyer.Cash() != 1000 || buyer.Inventory(inst) != 0 || len(buyer.BuyTrades()) != 0 {
		t.Fatalf("rollback did not restore buyer: cash=%d inventory=%d trades=%d",
			buyer.Cash(), buyer.Inventory(inst), len(buyer.BuyTrades()))
	}

	// 回滚未落账的成交是无操作
	seller.RollbackSell(trade)
	if seller.Cash() != 500 || seller.Inventory(inst) != 10 {
		t.Fatalf("rollback of unknown trade must be a no-op")
	}
}

// 买方破产时卖方被补偿回滚，状态与成交前完全一致。
func TestInsolventBuyerLeavesSellerUntouched(t *testing.T) {
	inst := market.NewInstrument("lemons")
	seller := New("alice", 250, map[*market.Instrument]int64{inst: 10})
	buyer := New("bob", 99, nil)

	sellOrder := market.NewLimitOrder(market.Sell, seller, inst, 2, 50)
	buyOrder := market.NewLimitOrder(market.Buy, buyer, inst, 2, 50)
	trade := market.NewTrade(inst, 2, 50, sellOrder, buyOrder)

	err := trade.Execute(&testClock{tick: 9})
	var execErr *market.ExecutionError
	if !errors.As(err, &execErr) || execErr.Culprit != buyer {
		t.Fatalf("expected buyer blamed, got %v", err)
	}

	if seller.Cash() != 250 || seller.Inventory(inst) != 10 || len(seller.SellTrades()) != 0 {
		t.Fatalf("seller state not restored: cash=%d inventory=%d trades=%d",
			seller.Cash(), seller.Inventory(inst), len(seller.SellTrades()))
	}
	if sellOrder.Remaining() != 2 || len(sellOrder.Trades()) != 0 {
		t.Fatalf("sell order state not restored")
	}
	if _, ok := trade.ExecutionTick(); ok {
		t.Fatalf("failed trade must not report executed")
	}
}

package account

import (
	"market-sim-go/market"
)

// TradingAccount 持有现金与各标的库存，按成交腿落账。
// 实现 market.Trader；所有校验在改动任何状态之前完成，
// 单腿要么全量生效要么不生效。
type TradingAccount struct {
	name       string
	cash       int64
	inventory  map[*market.Instrument]int64
	sellTrades []*market.Trade
	buyTrades  []*market.Trade

	// owner 指向对外暴露的账户身份（可能是嵌入本类型的安全账户），
	// 成交腿的归属校验以它为准。
	owner market.Trader
}

func New(name string, cash int64, inventory map[*market.Instrument]int64) *TradingAccount {
	a := &TradingAccount{
		name:      name,
		cash:      cash,
		inventory: make(map[*market.Instrument]int64, len(inventory)),
	}
	for inst, qty := range inventory {
		a.inventory[inst] = qty
	}
	a.owner = a
	return a
}

func (a *TradingAccount) Name() string { return a.name }
func (a *TradingAccount) Cash() int64  { return a.cash }

// Inventory 返回某标的的持仓数量，未持有为 0。
func (a *TradingAccount) Inventory(inst *market.Instrument) int64 {
	return a.inventory[inst]
}

// Instruments 返回账户持有过的全部标的。
func (a *TradingAccount) Instruments() []*market.Instrument {
	out := make([]*market.Instrument, 0, len(a.inventory))
	for inst := range a.inventory {
		out = append(out, inst)
	}
	return out
}

func (a *TradingAccount) SellTrades() []*market.Trade { return a.sellTrades }
func (a *TradingAccount) BuyTrades() []*market.Trade  { return a.buyTrades }

// Sell 卖方腿：库存减少 quantity，现金增加 price×quantity。
func (a *TradingAccount) Sell(t *market.Trade) error {
	if t.Seller() != a.owner {
		return &market.ExecutionError{Reason: "seller is not this account", Trade: t, Culprit: a.owner}
	}
	held := a.inventory[t.Instrument]
	if held < t.Quantity {
		return &market.ExecutionError{Reason: "seller has insufficient inventory", Trade: t, Culprit: a.owner}
	}
	a.inventory[t.Instrument] = held - t.Quantity
	a.cash += t.Price * t.Quantity
	a.sellTrades = append(a.sellTrades, t)
	return nil
}

// Buy 买方腿：现金减少 price×quantity，库存增加 quantity。
func (a *TradingAccount) Buy(t *market.Trade) error {
	if t.Buyer() != a.owner {
		return &market.ExecutionError{Reason: "buyer is not this account", Trade: t, Culprit: a.owner}
	}
	total := t.Price * t.Quantity
	if total > a.cash {
		return &market.ExecutionError{Reason: "buyer has insufficient cash", Trade: t, Culprit: a.owner}
	}
	a.inventory[t.Instrument] += t.Quantity
	a.cash -= total
	a.buyTrades = append(a.buyTrades, t)
	return nil
}

// RollbackSell 撤销一笔已落账的卖方腿：恢复库存和现金，
// 并按指针身份从卖出历史中剔除该成交。仅用于执行补偿，不做归属校验。
func (a *TradingAccount) RollbackSell(t *market.Trade) {
	for i := len(a.sellTrades) - 1; i >= 0; i-- {
		if a.sellTrades[i] != t {
			continue
		}
		a.sellTrades = append(a.sellTrades[:i], a.sellTrades[i+1:]...)
		a.inventory[t.Instrument] += t.Quantity
		a.cash -= t.Price * t.Quantity
		return
	}
}

// RollbackBuy 撤销一笔已落账的买方腿。
func (a *TradingAccount) RollbackBuy(t *market.Trade) {
	for i := len(a.buyTrades) - 1; i >= 0; i-- {
		if a.buyTrades[i] != t {
			continue
		}
		a.buyTrades = append(a.buyTrades[:i], a.buyTrades[i+1:]...)
		a.inventory[t.Instrument] -= t.Quantity
		a.cash += t.Price * t.Quantity
		return
	}
}

func (a *TradingAccount) String() string { return a.name }

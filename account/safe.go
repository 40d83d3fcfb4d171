package account

import (
	"errors"
	"fmt"

	"market-sim-go/market"
)

// LimitOrderError 安全账户拒绝无法覆盖的订单时返回；订单不会入簿。
type LimitOrderError struct {
	Order  *market.Order
	Reason string
}

func (e *LimitOrderError) Error() string {
	return fmt.Sprintf("limit order rejected: %s", e.Reason)
}

// SafeTradingAccount 在 TradingAccount 之上追踪本账户的挂单，
// 只放行当前资产足以覆盖的订单。保持的不变量：任一静止点上
// AvailableCash() ≥ 0 且 AvailableInventory(i) ≥ 0。
type SafeTradingAccount struct {
	TradingAccount
	openSells []*market.Order
	openBuys  []*market.Order
}

func NewSafe(name string, cash int64, inventory map[*market.Instrument]int64) *SafeTradingAccount {
	s := &SafeTradingAccount{}
	s.name = name
	s.cash = cash
	s.inventory = make(map[*market.Instrument]int64, len(inventory))
	for inst, qty := range inventory {
		s.inventory[inst] = qty
	}
	s.owner = s
	return s
}

// AvailableCash 现金减去所有未成交买单占用（限价×剩余量）。
func (s *SafeTradingAccount) AvailableCash() int64 {
	avail := s.cash
	for _, o := range s.openBuys {
		avail -= o.LimitPrice * o.Remaining()
	}
	return avail
}

// AvailableInventory 持仓减去该标的所有未成交卖单占用。
func (s *SafeTradingAccount) AvailableInventory(inst *market.Instrument) int64 {
	avail := s.inventory[inst]
	for _, o := range s.openSells {
		if o.Instrument == inst {
			avail -= o.Remaining()
		}
	}
	return avail
}

// OpenSellOrders 返回本账户跟踪中的卖单。
func (s *SafeTradingAccount) OpenSellOrders() []*market.Order { return s.openSells }

// OpenBuyOrders 返回本账户跟踪中的买单。
func (s *SafeTradingAccount) OpenBuyOrders() []*market.Order { return s.openBuys }

// PlaceSafeSellOrder 仅当剩余数量不超过可用库存时登记并转发入簿；
// 否则返回 LimitOrderError 且不产生任何变化。
func (s *SafeTradingAccount) PlaceSafeSellOrder(m *market.Market, o *market.Order) error {
	if o.Remaining() > s.AvailableInventory(o.Instrument) {
		return &LimitOrderError{Order: o, Reason: "insufficient available inventory"}
	}
	s.openSells = append(s.openSells, o)
	if err := m.RecordLimitSellOrder(o); err != nil {
		s.openSells = s.openSells[:len(s.openSells)-1]
		return err
	}
	return nil
}

// PlaceSafeBuyOrder 仅当限价×剩余数量不超过可用现金时登记并转发入簿。
func (s *SafeTradingAccount) PlaceSafeBuyOrder(m *market.Market, o *market.Order) error {
	if o.LimitPrice*o.Remaining() > s.AvailableCash() {
		return &LimitOrderError{Order: o, Reason: "insufficient available cash"}
	}
	s.openBuys = append(s.openBuys, o)
	if err := m.RecordLimitBuyOrder(o); err != nil {
		s.openBuys = s.openBuys[:len(s.openBuys)-1]
		return err
	}
	return nil
}

// CancelSafeSellOrder 只撤销本账户跟踪中的卖单；
// 未跟踪（从未下过或已撤销）的订单静默忽略。
// 已吃满的订单可能已被簿头压实移出底层存储，
// 簿侧 NotFound 同样视作冗余撤单，不上抛。
func (s *SafeTradingAccount) CancelSafeSellOrder(m *market.Market, o *market.Order) error {
	for i, open := range s.openSells {
		if open == o {
			s.openSells = append(s.openSells[:i], s.openSells[i+1:]...)
			if err := m.CancelLimitSellOrder(o); err != nil && !errors.Is(err, market.ErrOrderNotFound) {
				return err
			}
			return nil
		}
	}
	return nil
}

// CancelSafeBuyOrder 只撤销本账户跟踪中的买单。
func (s *SafeTradingAccount) CancelSafeBuyOrder(m *market.Market, o *market.Order) error {
	for i, open := range s.openBuys {
		if open == o {
			s.openBuys = append(s.openBuys[:i], s.openBuys[i+1:]...)
			if err := m.CancelLimitBuyOrder(o); err != nil && !errors.Is(err, market.ErrOrderNotFound) {
				return err
			}
			return nil
		}
	}
	return nil
}

// DropOpenOrder 从本地跟踪移除一笔订单而不触碰订单簿。
// 供清算流程在簿侧已撤掉问题挂单后同步账户视角。
func (s *SafeTradingAccount) DropOpenOrder(o *market.Order) {
	for i, open := range s.openSells {
		if open == o {
			s.openSells = append(s.openSells[:i], s.openSells[i+1:]...)
			return
		}
	}
	for i, open := range s.openBuys {
		if open == o {
			s.openBuys = append(s.openBuys[:i], s.openBuys[i+1:]...)
			return
		}
	}
}

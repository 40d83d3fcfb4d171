package market

import "fmt"

// Market 持有单一标的的买卖两册订单簿和成交历史。
// 成交历史只追加，且只由清算流程在成功执行后写入。
type Market struct {
	instrument *Instrument
	clock      Clock
	trades     []*Trade
	asks       *Book
	bids       *Book
}

func New(instrument *Instrument, clock Clock) *Market {
	return &Market{
		instrument: instrument,
		clock:      clock,
		asks:       NewBook(Sell, instrument, clock),
		bids:       NewBook(Buy, instrument, clock),
	}
}

func (m *Market) Instrument() *Instrument { return m.instrument }
func (m *Market) Clock() Clock            { return m.clock }
func (m *Market) Asks() *Book             { return m.asks }
func (m *Market) Bids() *Book             { return m.bids }

func (m *Market) RecordLimitSellOrder(o *Order) error {
	return m.asks.Record(o)
}

func (m *Market) RecordLimitBuyOrder(o *Order) error {
	return m.bids.Record(o)
}

func (m *Market) CancelLimitSellOrder(o *Order) error {
	return m.asks.Cancel(o)
}

func (m *Market) CancelLimitBuyOrder(o *Order) error {
	return m.bids.Cancel(o)
}

// AppendTrade 由清算流程在 Trade 成功执行后调用。
func (m *Market) AppendTrade(t *Trade) {
	m.trades = append(m.trades, t)
}

// TradeHistory 返回全部历史成交（按执行顺序）。
func (m *Market) TradeHistory() []*Trade { return m.trades }

// LastTradedPrice 最近一笔成交价；无成交时第二个返回值为 false。
func (m *Market) LastTradedPrice() (int64, bool) {
	if len(m.trades) == 0 {
		return 0, false
	}
	return m.trades[len(m.trades)-1].Price, true
}

// LastKnownBestBid 当前买一价；买簿为空时退回最近成交价。
func (m *Market) LastKnownBestBid() (int64, bool) {
	if p, ok := m.bids.BestPrice(); ok {
		return p, true
	}
	return m.LastTradedPrice()
}

// LastKnownBestOffer 当前卖一价；卖簿为空时退回最近成交价。
func (m *Market) LastKnownBestOffer() (int64, bool) {
	if p, ok := m.asks.BestPrice(); ok {
		return p, true
	}
	return m.LastTradedPrice()
}

// AverageTradePrice 历史成交价算术平均；无成交时第二个返回值为 false。
func (m *Market) AverageTradePrice() (float64, bool) {
	if len(m.trades) == 0 {
		return 0, false
	}
	var sum int64
	for _, t := range m.trades {
		sum += t.Price
	}
	return float64(sum) / float64(len(m.trades)), true
}

func (m *Market) String() string {
	return fmt.Sprintf("market for %s", m.instrument)
}

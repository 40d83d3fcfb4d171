package market

import "fmt"

// Side 订单方向。
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Trader is the account-side contract a trade leg settles against.
// Sell/Buy must validate and apply the leg atomically or leave the account
// untouched; the Rollback pair reverses a previously applied leg without
// re-validating (used only for compensation inside Trade.Execute).
type Trader interface {
	Name() string
	Sell(t *Trade) error
	Buy(t *Trade) error
	RollbackSell(t *Trade)
	RollbackBuy(t *Trade)
}

// Order 限价订单。买/卖共用一个结构，行为按 Side 分支。
// 订单成交后不会删除，只通过 Filled 判定；撤单从簿中移除并清除 tick。
type Order struct {
	Side       Side
	Trader     Trader
	Instrument *Instrument
	InitialQty int64
	LimitPrice int64

	trades  []*Trade
	tick    int64
	resting bool
}

// NewLimitOrder 构造限价单；数量和价格的正值校验在入簿时进行。
func NewLimitOrder(side Side, trader Trader, instrument *Instrument, qty, price int64) *Order {
	return &Order{
		Side:       side,
		Trader:     trader,
		Instrument: instrument,
		InitialQty: qty,
		LimitPrice: price,
	}
}

// Remaining 剩余数量 = 初始数量 - 已成交数量之和。
func (o *Order) Remaining() int64 {
	rem := o.InitialQty
	for _, t := range o.trades {
		rem -= t.Quantity
	}
	return rem
}

func (o *Order) Filled() bool { return o.Remaining() <= 0 }

// Trades 返回已应用到该订单的成交（按执行顺序）。
func (o *Order) Trades() []*Trade { return o.trades }

// Tick 返回入簿时间戳；订单未入簿（或已撤销）时第二个返回值为 false。
func (o *Order) Tick() (int64, bool) { return o.tick, o.resting }

func (o *Order) String() string {
	return fmt.Sprintf("%s[%s, %s, %d, %dp]", o.Side, o.Trader.Name(), o.Instrument, o.Remaining(), o.LimitPrice)
}

func (o *Order) stamp(tick int64) {
	o.tick = tick
	o.resting = true
}

func (o *Order) clearTick() {
	o.tick = 0
	o.resting = false
}

// satisfy 将成交落到本腿账户并计入订单历史；账户校验失败时订单不变。
func (o *Order) satisfy(t *Trade) error {
	var err error
	if o.Side == Sell {
		err = o.Trader.Sell(t)
	} else {
		err = o.Trader.Buy(t)
	}
	if err != nil {
		return err
	}
	o.trades = append(o.trades, t)
	return nil
}

// rollback 撤销先前 satisfy 的效果。按指针身份定位历史记录，
// 同价同量的两笔成交不会互相串扰。
func (o *Order) rollback(t *Trade) {
	for i := len(o.trades) - 1; i >= 0; i-- {
		if o.trades[i] != t {
			continue
		}
		o.trades = append(o.trades[:i], o.trades[i+1:]...)
		if o.Side == Sell {
			o.Trader.RollbackSell(t)
		} else {
			o.Trader.RollbackBuy(t)
		}
		return
	}
}

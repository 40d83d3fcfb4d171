package market

import "sort"

// Book 单侧限价订单簿，按价格-时间优先级维护有序索引：
// 卖方按限价升序，买方按限价降序，同价先到先得（tick 小者优先）。
// 有序索引用排序切片 + 二分插入实现；BestOrder 惰性弹出簿头已成交
// 订单，稳态下摊还 O(1)，不做全簿线性扫描。
type Book struct {
	side       Side
	instrument *Instrument
	clock      Clock
	orders     []*Order
}

func NewBook(side Side, instrument *Instrument, clock Clock) *Book {
	return &Book{
		side:       side,
		instrument: instrument,
		clock:      clock,
	}
}

func (b *Book) Side() Side { return b.side }

// Record 以当前 tick 打点并按优先级插入。同一订单重复入簿未定义，
// 由调用方保证唯一性。
func (b *Book) Record(o *Order) error {
	if o.Side != b.side {
		return &orderMismatchError{book: b, order: o, what: "side"}
	}
	if o.Instrument != b.instrument {
		return &orderMismatchError{book: b, order: o, what: "instrument"}
	}
	if o.InitialQty <= 0 {
		return &orderMismatchError{book: b, order: o, what: "quantity"}
	}
	if o.LimitPrice <= 0 {
		return &orderMismatchError{book: b, order: o, what: "limit price"}
	}

	o.stamp(b.clock.CurrentTick())
	i := sort.Search(len(b.orders), func(i int) bool {
		return b.before(o, b.orders[i])
	})
	b.orders = append(b.orders, nil)
	copy(b.orders[i+1:], b.orders[i:])
	b.orders[i] = o
	return nil
}

// Cancel 清除 tick 并从索引移除；订单不在簿中返回 ErrOrderNotFound。
func (b *Book) Cancel(o *Order) error {
	for i, cur := range b.orders {
		if cur == o {
			o.clearTick()
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return nil
		}
	}
	return ErrOrderNotFound
}

// BestOrder 返回优先级最高的未成交订单；空簿返回 nil。
// 顺带压实簿头：已成交订单在此处出簿。
func (b *Book) BestOrder() *Order {
	for len(b.orders) > 0 {
		if !b.orders[0].Filled() {
			return b.orders[0]
		}
		b.orders[0] = nil
		b.orders = b.orders[1:]
	}
	return nil
}

// BestPrice 返回最优未成交订单的限价；空簿第二个返回值为 false。
func (b *Book) BestPrice() (int64, bool) {
	best := b.BestOrder()
	if best == nil {
		return 0, false
	}
	return best.LimitPrice, true
}

// OpenOrders 返回剩余数量大于零的订单，保持优先级顺序。
func (b *Book) OpenOrders() []*Order {
	open := make([]*Order, 0, len(b.orders))
	for _, o := range b.orders {
		if !o.Filled() {
			open = append(open, o)
		}
	}
	return open
}

// Size 返回底层存储的订单数（含待压实的已成交订单）。
func (b *Book) Size() int { return len(b.orders) }

// before 判定 a 是否优先于 o。价格平手时早 tick 胜出；
// 严格小于保证同 tick 入簿保持 FIFO。
func (b *Book) before(a, o *Order) bool {
	if a.LimitPrice != o.LimitPrice {
		if b.side == Sell {
			return a.LimitPrice < o.LimitPrice
		}
		return a.LimitPrice > o.LimitPrice
	}
	return a.tick < o.tick
}

type orderMismatchError struct {
	book  *Book
	order *Order
	what  string
}

func (e *orderMismatchError) Error() string {
	return "order rejected by book: bad " + e.what
}

package market

// Clock 逻辑时钟只读视图。核心只读取 tick 用于订单/成交打点，从不推进。
type Clock interface {
	CurrentTick() int64
}

package sim

// Clock 共享逻辑时钟。tick 单调不减，只由调度器在轮次之间推进；
// 核心组件通过 market.Clock 只读消费。非墙钟，无超时语义。
type Clock struct {
	tick     int64
	maxTicks int64
}

// NewClock 创建时钟；maxTicks <= 0 表示不设上限。
func NewClock(maxTicks int64) *Clock {
	return &Clock{maxTicks: maxTicks}
}

func (c *Clock) CurrentTick() int64 { return c.tick }

// Advance 推进一个 tick。
func (c *Clock) Advance() { c.tick++ }

// Done 判断是否到达 tick 上限。
func (c *Clock) Done() bool {
	return c.maxTicks > 0 && c.tick >= c.maxTicks
}

// MaxTicks 返回配置的上限。
func (c *Clock) MaxTicks() int64 { return c.maxTicks }

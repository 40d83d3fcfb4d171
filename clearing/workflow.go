package clearing

import (
	"errors"

	"go.uber.org/zap"

	"market-sim-go/infrastructure/logger"
	"market-sim-go/market"
)

// Pricer 由买卖双方订单决定成交价。
type Pricer func(sell, buy *market.Order) int64

// Check 判定买卖双方是否可成交。
type Check func(sell, buy *market.Order) bool

// RestingPrice 默认定价：取先入簿一方的限价，后到者享受价格改善。
func RestingPrice(sell, buy *market.Order) int64 {
	st, _ := sell.Tick()
	bt, _ := buy.Tick()
	if bt < st {
		return buy.LimitPrice
	}
	return sell.LimitPrice
}

// Crossed 默认成交判定：买一价不低于卖一价。
func Crossed(sell, buy *market.Order) bool {
	return buy.LimitPrice >= sell.LimitPrice
}

// Metrics 清算侧指标挂钩，可选注入。
type Metrics interface {
	RecordTrade(qty, price int64)
	RecordExecutionFault()
	RecordOrderEvicted()
}

// openOrderDropper 由安全账户实现；清算撤掉问题挂单后同步账户侧跟踪。
type openOrderDropper interface {
	DropOpenOrder(o *market.Order)
}

// Workflow 订单簿清算流程。Clear 是一次有界、水平触发的撮合过程，
// 外部调度器每个轮次调用一次；簿内无交叉时调用是安全的空操作。
type Workflow struct {
	market  *market.Market
	pricer  Pricer
	check   Check
	log     *logger.Logger
	metrics Metrics
}

// Option 配置清算流程。
type Option func(*Workflow)

// WithLogger 注入日志器（缺省丢弃）。
func WithLogger(l *logger.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

// WithMetrics 注入指标收集。
func WithMetrics(m Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// WithPricer 覆盖默认定价函数。
func WithPricer(p Pricer) Option {
	return func(w *Workflow) { w.pricer = p }
}

// WithCheck 覆盖默认成交判定。
func WithCheck(c Check) Option {
	return func(w *Workflow) { w.check = c }
}

func NewWorkflow(m *market.Market, opts ...Option) *Workflow {
	w := &Workflow{
		market: m,
		pricer: RestingPrice,
		check:  Crossed,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step 实现调度器的单位工作量入口。
func (w *Workflow) Step() { w.Clear() }

// Clear 执行一轮撮合：反复读取买卖双方最优订单，交叉则按
// pricer/check 生成并执行 Trade，直到簿内不再交叉。
// 成交量恒为双方剩余量的较小者。执行失败时撤掉肇事方挂单并继续，
// 单笔失败不会终止本轮扫描。
func (w *Workflow) Clear() int {
	executed := 0
	for {
		sell := w.market.Asks().BestOrder()
		buy := w.market.Bids().BestOrder()
		if sell == nil || buy == nil || !w.check(sell, buy) {
			return executed
		}

		qty := sell.Remaining()
		if r := buy.Remaining(); r < qty {
			qty = r
		}
		price := w.pricer(sell, buy)
		trade := market.NewTrade(w.market.Instrument(), qty, price, sell, buy)

		if err := trade.Execute(w.market.Clock()); err != nil {
			if !w.evict(err, sell, buy) {
				return executed
			}
			continue
		}

		w.market.AppendTrade(trade)
		executed++
		if w.metrics != nil {
			w.metrics.RecordTrade(qty, price)
		}
		w.log.Debug("trade executed",
			zap.String("trade", trade.String()),
			zap.Int64("qty", qty),
			zap.Int64("price", price))
	}
}

// evict 处理执行失败：从对应簿中撤掉肇事账户的挂单。
// 返回 false 表示无法定位肇事方，本轮扫描应当终止以避免空转。
func (w *Workflow) evict(err error, sell, buy *market.Order) bool {
	var execErr *market.ExecutionError
	if !errors.As(err, &execErr) {
		w.log.Error("unexpected trade execution error", zap.Error(err))
		return false
	}

	var victim *market.Order
	var book *market.Book
	switch execErr.Culprit {
	case sell.Trader:
		victim, book = sell, w.market.Asks()
	case buy.Trader:
		victim, book = buy, w.market.Bids()
	default:
		w.log.Error("execution fault with unknown culprit", zap.Error(execErr))
		return false
	}

	if cancelErr := book.Cancel(victim); cancelErr != nil {
		w.log.Error("failed to evict culprit order", zap.Error(cancelErr))
		return false
	}
	if dropper, ok := execErr.Culprit.(openOrderDropper); ok {
		dropper.DropOpenOrder(victim)
	}
	if w.metrics != nil {
		w.metrics.RecordExecutionFault()
		w.metrics.RecordOrderEvicted()
	}
	w.log.Warn("trade execution fault, culprit order evicted",
		zap.String("culprit", execErr.Culprit.Name()),
		zap.String("order", victim.String()),
		zap.String("reason", execErr.Reason))
	return true
}

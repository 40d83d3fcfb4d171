package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 成交指标
	tradesTotal  prometheus.Counter
	tradedVolume prometheus.Counter

	// 订单指标
	ordersPlaced    prometheus.Counter
	ordersCancelled prometheus.Counter
	limitRejects    prometheus.Counter
	executionFaults prometheus.Counter
	ordersEvicted   prometheus.Counter

	// 市场指标
	bestBid       prometheus.Gauge
	bestOffer     prometheus.Gauge
	lastPrice     prometheus.Gauge
	averagePrice  prometheus.Gauge
	openAskOrders prometheus.Gauge
	openBidOrders prometheus.Gauge
	currentTick   prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "ms",
		Subsystem: "exchange",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		tradesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trades_total",
			Help:      "成交笔数总数",
		}),
		tradedVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "traded_volume_total",
			Help:      "累计成交量",
		}),
		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_placed_total",
			Help:      "订单入簿总数",
		}),
		ordersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_cancelled_total",
			Help:      "订单撤销总数",
		}),
		limitRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "limit_rejects_total",
			Help:      "安全账户拒单总数",
		}),
		executionFaults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execution_faults_total",
			Help:      "成交执行失败总数",
		}),
		ordersEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_evicted_total",
			Help:      "清算撤掉的问题挂单总数",
		}),

		bestBid: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "best_bid_price",
			Help:      "当前买一价",
		}),
		bestOffer: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "best_offer_price",
			Help:      "当前卖一价",
		}),
		lastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_traded_price",
			Help:      "最近成交价",
		}),
		averagePrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "average_trade_price",
			Help:      "历史成交均价",
		}),
		openAskOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "open_ask_orders",
			Help:      "卖簿未成交订单数",
		}),
		openBidOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "open_bid_orders",
			Help:      "买簿未成交订单数",
		}),
		currentTick: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "current_tick",
			Help:      "当前逻辑时钟tick",
		}),
	}

	return m
}

// 成交相关方法
func (m *Monitor) RecordTrade(qty, price int64) {
	m.tradesTotal.Inc()
	m.tradedVolume.Add(float64(qty))
	m.lastPrice.Set(float64(price))
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

func (m *Monitor) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

func (m *Monitor) RecordLimitReject() {
	m.limitRejects.Inc()
}

func (m *Monitor) RecordExecutionFault() {
	m.executionFaults.Inc()
}

func (m *Monitor) RecordOrderEvicted() {
	m.ordersEvicted.Inc()
}

// 市场相关方法
func (m *Monitor) UpdateBestBid(price int64) {
	m.bestBid.Set(float64(price))
}

func (m *Monitor) UpdateBestOffer(price int64) {
	m.bestOffer.Set(float64(price))
}

func (m *Monitor) UpdateAveragePrice(price float64) {
	m.averagePrice.Set(price)
}

func (m *Monitor) UpdateOpenOrders(asks, bids int) {
	m.openAskOrders.Set(float64(asks))
	m.openBidOrders.Set(float64(bids))
}

func (m *Monitor) UpdateTick(tick int64) {
	m.currentTick.Set(float64(tick))
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

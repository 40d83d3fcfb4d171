package strategy

import (
	"errors"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"market-sim-go/account"
	"market-sim-go/infrastructure/logger"
	"market-sim-go/market"
)

// TradeRange 限定随机报单的数量与价格区间。价格区间是相对参考价
// （买一/卖一）的偏移，可为负。
type TradeRange struct {
	LowQty    int64
	HighQty   int64
	LowPrice  int64
	HighPrice int64
}

// randomQty 在区间内取随机数量，并以 ceiling 封顶。
func (r TradeRange) randomQty(rng *rand.Rand, ceiling int64) int64 {
	qty := r.LowQty + rng.Int63n(r.HighQty-r.LowQty+1)
	if qty > ceiling {
		qty = ceiling
	}
	return qty
}

// randomPrice 以 ref 为基准取随机偏移价，下限钳到 1。
func (r TradeRange) randomPrice(rng *rand.Rand, ref int64) int64 {
	price := ref + r.LowPrice + rng.Int63n(r.HighPrice-r.LowPrice+1)
	if price < 1 {
		price = 1
	}
	return price
}

func (r TradeRange) validate() error {
	if r.LowQty < 0 || r.HighQty < r.LowQty {
		return errors.New("trade range: quantity bounds must satisfy 0 <= low <= high")
	}
	if r.HighPrice < r.LowPrice {
		return errors.New("trade range: price bounds must satisfy low <= high")
	}
	return nil
}

// Metrics 策略侧指标挂钩，可选注入。
type Metrics interface {
	RecordOrderPlaced()
	RecordOrderCancelled()
	RecordLimitReject()
}

// Config 随机交易策略配置。
type Config struct {
	SellRanges map[*market.Instrument]TradeRange
	BuyRanges  map[*market.Instrument]TradeRange
	Metrics    Metrics
}

// RandomTrader 随机交易工作流：每轮掷硬币决定买卖方向，
// 在可用资产允许的范围内随机下限价单；报不出单时随机撤一笔挂单。
// 只通过安全账户操作和市场只读访问器与系统交互，从不直接触碰订单簿。
// 随机源由构造方注入（种子可控），保证运行可复现。
type RandomTrader struct {
	acct *account.SafeTradingAccount
	mkt  *market.Market
	rng  *rand.Rand
	log  *logger.Logger

	sellRanges map[*market.Instrument]TradeRange
	buyRanges  map[*market.Instrument]TradeRange
	metrics    Metrics
	// instruments 固定标的遍历顺序；map 迭代顺序随机，会破坏可复现性。
	instruments []*market.Instrument
}

func NewRandomTrader(acct *account.SafeTradingAccount, mkt *market.Market, rng *rand.Rand, cfg Config, log *logger.Logger) (*RandomTrader, error) {
	if len(cfg.SellRanges) == 0 {
		return nil, errors.New("strategy: at least one sell range is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	instruments := make([]*market.Instrument, 0, len(cfg.SellRanges))
	for inst, r := range cfg.SellRanges {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, ok := cfg.BuyRanges[inst]; !ok {
			return nil, errors.New("strategy: buy range missing for instrument " + inst.Name())
		}
		instruments = append(instruments, inst)
	}
	// 名称排序固定遍历顺序，保证同种子跑出同一序列。
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Name() < instruments[j].Name()
	})
	for _, r := range cfg.BuyRanges {
		if err := r.validate(); err != nil {
			return nil, err
		}
	}
	return &RandomTrader{
		acct:        acct,
		mkt:         mkt,
		rng:         rng,
		log:         log,
		sellRanges:  cfg.SellRanges,
		buyRanges:   cfg.BuyRanges,
		metrics:     cfg.Metrics,
		instruments: instruments,
	}, nil
}

// Account 返回策略背后的安全账户。
func (w *RandomTrader) Account() *account.SafeTradingAccount { return w.acct }

// SetRanges 替换报单区间，供配置热更新在轮次内应用。
func (w *RandomTrader) SetRanges(inst *market.Instrument, sell, buy TradeRange) {
	if _, ok := w.sellRanges[inst]; !ok {
		return
	}
	w.sellRanges[inst] = sell
	w.buyRanges[inst] = buy
}

// Step 执行一个决策单元。
func (w *RandomTrader) Step() {
	inst := w.instruments[w.rng.Intn(len(w.instruments))]
	if w.rng.Intn(2) == 0 {
		w.sellAction(inst)
	} else {
		w.buyAction(inst)
	}
}

func (w *RandomTrader) sellAction(inst *market.Instrument) {
	r := w.sellRanges[inst]
	qty := r.randomQty(w.rng, w.acct.AvailableInventory(inst))

	if qty <= 0 {
		if open := w.acct.OpenSellOrders(); len(open) > 0 {
			victim := open[w.rng.Intn(len(open))]
			if err := w.acct.CancelSafeSellOrder(w.mkt, victim); err != nil {
				w.log.Warn("cancel sell order failed", zap.Error(err))
				return
			}
			w.recordCancelled()
		}
		return
	}

	offer, ok := w.mkt.LastKnownBestOffer()
	if !ok {
		return
	}
	order := market.NewLimitOrder(market.Sell, w.acct, inst, qty, r.randomPrice(w.rng, offer))
	if err := w.acct.PlaceSafeSellOrder(w.mkt, order); err != nil {
		w.recordReject()
		w.log.Debug("sell order rejected", zap.String("account", w.acct.Name()), zap.Error(err))
		return
	}
	w.recordPlaced()
}

func (w *RandomTrader) buyAction(inst *market.Instrument) {
	bid, ok := w.mkt.LastKnownBestBid()
	if !ok {
		return
	}

	r := w.buyRanges[inst]
	price := r.randomPrice(w.rng, bid)
	qty := r.randomQty(w.rng, w.acct.AvailableCash()/price)

	if qty <= 0 {
		if open := w.acct.OpenBuyOrders(); len(open) > 0 {
			victim := open[w.rng.Intn(len(open))]
			if err := w.acct.CancelSafeBuyOrder(w.mkt, victim); err != nil {
				w.log.Warn("cancel buy order failed", zap.Error(err))
				return
			}
			w.recordCancelled()
		}
		return
	}

	order := market.NewLimitOrder(market.Buy, w.acct, inst, qty, price)
	if err := w.acct.PlaceSafeBuyOrder(w.mkt, order); err != nil {
		w.recordReject()
		w.log.Debug("buy order rejected", zap.String("account", w.acct.Name()), zap.Error(err))
		return
	}
	w.recordPlaced()
}

func (w *RandomTrader) recordPlaced() {
	if w.metrics != nil {
		w.metrics.RecordOrderPlaced()
	}
}

func (w *RandomTrader) recordCancelled() {
	if w.metrics != nil {
		w.metrics.RecordOrderCancelled()
	}
}

func (w *RandomTrader) recordReject() {
	if w.metrics != nil {
		w.metrics.RecordLimitReject()
	}
}

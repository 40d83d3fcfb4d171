package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"market-sim-go/account"
	"market-sim-go/clearing"
	"market-sim-go/config"
	"market-sim-go/infrastructure/logger"
	"market-sim-go/market"
	"market-sim-go/monitor"
	"market-sim-go/sim"
	"market-sim-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	httpAddr := flag.String("httpAddr", ":8080", "状态接口监听地址，留空则关闭")
	watch := flag.Bool("watch", true, "监听配置文件变更并热更新报单区间")
	flag.Parse()

	// .env 仅在存在时加载，用于本地覆盖 MS_* 环境变量。
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	mon := monitor.New(monitor.Config{Namespace: cfg.Metrics.Namespace, Subsystem: "exchange"})

	// 组装模拟：时钟、市场、账户、随机交易工作流、清算流程。
	clock := sim.NewClock(cfg.Sim.MaxTicks)
	inst := market.NewInstrument(cfg.Sim.Instrument)
	mkt := market.New(inst, clock)
	rng := rand.New(rand.NewSource(cfg.Sim.Seed))
	runner := sim.NewRunner(clock, zlog)

	var accounts []*account.SafeTradingAccount
	var traders []*strategy.RandomTrader
	for _, ac := range cfg.Accounts {
		acct := account.NewSafe(ac.Name, ac.Cash, map[*market.Instrument]int64{inst: ac.Inventory})
		trader, err := strategy.NewRandomTrader(acct, mkt, rng, strategy.Config{
			SellRanges: map[*market.Instrument]strategy.TradeRange{inst: toRange(ac.SellRange)},
			BuyRanges:  map[*market.Instrument]strategy.TradeRange{inst: toRange(ac.BuyRange)},
			Metrics:    mon,
		}, zlog)
		if err != nil {
			log.Fatalf("初始化交易账户 %s 失败: %v", ac.Name, err)
		}
		accounts = append(accounts, acct)
		traders = append(traders, trader)
		runner.Register(trader)
	}

	clearer := clearing.NewWorkflow(mkt, clearing.WithLogger(zlog), clearing.WithMetrics(mon))

	// 配置热更新在轮次内生效，保持单写者纪律。
	reloader := &reloadWorkflow{inst: inst, traders: traders, log: zlog}
	sampler := &sampleWorkflow{mkt: mkt, clock: clock, mon: mon, accounts: accounts, inst: inst}
	runner.Register(reloader)
	runner.Register(clearer)
	runner.Register(sampler)

	// 引导单
	if so := cfg.Sim.SeedOrders; so.Qty > 0 && len(accounts) > 0 {
		boot := accounts[0]
		if err := boot.PlaceSafeSellOrder(mkt, market.NewLimitOrder(market.Sell, boot, inst, so.Qty, so.SellPrice)); err != nil {
			log.Fatalf("引导卖单失败: %v", err)
		}
		if err := boot.PlaceSafeBuyOrder(mkt, market.NewLimitOrder(market.Buy, boot, inst, so.Qty, so.BuyPrice)); err != nil {
			log.Fatalf("引导买单失败: %v", err)
		}
		clearer.Clear()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// HTTP 状态/指标接口
	var httpServer *http.Server
	if *httpAddr != "" {
		router := mux.NewRouter()
		router.Handle("/metrics", mon.Handler())
		router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		router.HandleFunc("/status", sampler.statusHandler)
		httpServer = &http.Server{Addr: *httpAddr, Handler: router}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zlog.Error("http server failed", zap.Error(err))
			}
		}()
		zlog.Info("status server listening", zap.String("addr", *httpAddr))
	}

	// 配置监听
	if *watch {
		watcher := config.Watcher{Path: *cfgPath}
		go func() {
			err := watcher.Start(ctx, func(updated config.AppConfig) {
				reloader.pending.Store(&updated)
				zlog.Info("config change staged for next turn")
			})
			if err != nil && err != context.Canceled {
				zlog.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 信号处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zlog.Info("signal received, stopping", zap.String("signal", sig.String()))
		cancel()
	}()

	runErr := runner.Run(ctx)
	if runErr != nil && runErr != context.Canceled {
		zlog.Error("runner failed", zap.Error(runErr))
	}

	if avg, ok := mkt.AverageTradePrice(); ok {
		zlog.Info("run complete",
			zap.Int64("ticks", clock.CurrentTick()),
			zap.Int("trades", len(mkt.TradeHistory())),
			zap.Float64("average_price", avg))
	} else {
		zlog.Info("run complete, no trades",
			zap.Int64("ticks", clock.CurrentTick()))
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}
}

func toRange(r config.RangeConfig) strategy.TradeRange {
	return strategy.TradeRange{
		LowQty:    r.LowQty,
		HighQty:   r.HighQty,
		LowPrice:  r.LowPrice,
		HighPrice: r.HighPrice,
	}
}

// reloadWorkflow 把监听到的新配置在轮次内应用到各交易工作流。
type reloadWorkflow struct {
	inst    *market.Instrument
	traders []*strategy.RandomTrader
	log     *logger.Logger
	pending atomic.Pointer[config.AppConfig]
}

func (r *reloadWorkflow) Step() {
	cfg := r.pending.Swap(nil)
	if cfg == nil {
		return
	}
	byName := make(map[string]config.AccountConfig, len(cfg.Accounts))
	for _, ac := range cfg.Accounts {
		byName[ac.Name] = ac
	}
	for _, trader := range r.traders {
		ac, ok := byName[trader.Account().Name()]
		if !ok {
			continue
		}
		trader.SetRanges(r.inst, toRange(ac.SellRange), toRange(ac.BuyRange))
	}
	r.log.Info("trade ranges reloaded")
}

// sampleWorkflow 每轮在轮次内采样市场状态：写入指标，并发布一份
// 不可变快照给 HTTP 状态接口。快照经 atomic.Pointer 交接，
// 外部读取不触碰订单簿和账户，单写者纪律不被打破。
type sampleWorkflow struct {
	mkt      *market.Market
	clock    *sim.Clock
	mon      *monitor.Monitor
	accounts []*account.SafeTradingAccount
	inst     *market.Instrument
	snapshot atomic.Pointer[statusResponse]
}

func (s *sampleWorkflow) Step() {
	snap := statusResponse{
		Instrument: s.inst.Name(),
		Tick:       s.clock.CurrentTick(),
		Trades:     len(s.mkt.TradeHistory()),
	}
	if bid, ok := s.mkt.Bids().BestPrice(); ok {
		snap.BestBid = &bid
		s.mon.UpdateBestBid(bid)
	}
	if offer, ok := s.mkt.Asks().BestPrice(); ok {
		snap.BestOffer = &offer
		s.mon.UpdateBestOffer(offer)
	}
	if last, ok := s.mkt.LastTradedPrice(); ok {
		snap.LastPrice = &last
	}
	if avg, ok := s.mkt.AverageTradePrice(); ok {
		snap.AveragePrice = &avg
		s.mon.UpdateAveragePrice(avg)
	}
	for _, acct := range s.accounts {
		snap.Accounts = append(snap.Accounts, statusAccount{
			Name:               acct.Name(),
			Cash:               acct.Cash(),
			Inventory:          acct.Inventory(s.inst),
			AvailableCash:      acct.AvailableCash(),
			AvailableInventory: acct.AvailableInventory(s.inst),
			OpenSells:          len(acct.OpenSellOrders()),
			OpenBuys:           len(acct.OpenBuyOrders()),
		})
	}
	s.mon.UpdateOpenOrders(len(s.mkt.Asks().OpenOrders()), len(s.mkt.Bids().OpenOrders()))
	s.mon.UpdateTick(s.clock.CurrentTick())
	s.snapshot.Store(&snap)
}

type statusAccount struct {
	Name               string `json:"name"`
	Cash               int64  `json:"cash"`
	Inventory          int64  `json:"inventory"`
	AvailableCash      int64  `json:"available_cash"`
	AvailableInventory int64  `json:"available_inventory"`
	OpenSells          int    `json:"open_sells"`
	OpenBuys           int    `json:"open_buys"`
}

type statusResponse struct {
	Instrument   string          `json:"instrument"`
	Tick         int64           `json:"tick"`
	Trades       int             `json:"trades"`
	BestBid      *int64          `json:"best_bid"`
	BestOffer    *int64          `json:"best_offer"`
	LastPrice    *int64          `json:"last_price"`
	AveragePrice *float64        `json:"average_price"`
	Accounts     []statusAccount `json:"accounts"`
}

func (s *sampleWorkflow) statusHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot.Load()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, fmt.Sprintf("encode status: %v", err), http.StatusInternalServerError)
	}
}

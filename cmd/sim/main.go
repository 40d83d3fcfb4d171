package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"market-sim-go/account"
	"market-sim-go/clearing"
	"market-sim-go/market"
	"market-sim-go/sim"
	"market-sim-go/strategy"
)

// 一个极简的本地模拟：若干随机交易账户 + 清算流程跑在回合制调度器上。
// 可通过命令行参数调整规模和种子；同一种子的两次运行结果完全一致。
func main() {
	instrument := flag.String("instrument", "lemons", "instrument name")
	ticks := flag.Int64("ticks", 10000, "number of scheduler turns to run")
	seed := flag.Int64("seed", 1, "random seed")
	traders := flag.Int("traders", 1, "number of random trader accounts")
	cash := flag.Int64("cash", 1000, "starting cash per account")
	holding := flag.Int64("inventory", 100, "starting inventory per account")
	seedPrice := flag.Int64("seedPrice", 100, "price of the bootstrap order pair (0 to skip)")
	flag.Parse()

	clock := sim.NewClock(*ticks)
	inst := market.NewInstrument(*instrument)
	mkt := market.New(inst, clock)
	rng := rand.New(rand.NewSource(*seed))

	runner := sim.NewRunner(clock, nil)

	var accounts []*account.SafeTradingAccount
	for i := 0; i < *traders; i++ {
		acct := account.NewSafe(fmt.Sprintf("trader-%d", i+1), *cash, map[*market.Instrument]int64{inst: *holding})
		trader, err := strategy.NewRandomTrader(acct, mkt, rng, strategy.Config{
			SellRanges: map[*market.Instrument]strategy.TradeRange{
				inst: {LowQty: 1, HighQty: 3, LowPrice: -3, HighPrice: 3},
			},
			BuyRanges: map[*market.Instrument]strategy.TradeRange{
				inst: {LowQty: 1, HighQty: 3, LowPrice: -1, HighPrice: 5},
			},
		}, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init trader failed: %v\n", err)
			os.Exit(1)
		}
		accounts = append(accounts, acct)
		runner.Register(trader)
	}

	clearer := clearing.NewWorkflow(mkt)
	runner.Register(clearer)

	// 引导单：挂一对对价订单并清算一次，让 last-known 价格有初值。
	if *seedPrice > 0 && len(accounts) > 0 {
		boot := accounts[0]
		if err := boot.PlaceSafeSellOrder(mkt, market.NewLimitOrder(market.Sell, boot, inst, 1, *seedPrice)); err != nil {
			fmt.Fprintf(os.Stderr, "bootstrap sell failed: %v\n", err)
			os.Exit(1)
		}
		if err := boot.PlaceSafeBuyOrder(mkt, market.NewLimitOrder(market.Buy, boot, inst, 1, *seedPrice)); err != nil {
			fmt.Fprintf(os.Stderr, "bootstrap buy failed: %v\n", err)
			os.Exit(1)
		}
		clearer.Clear()
	}

	if err := runner.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ticks: %d, trades: %d\n", clock.CurrentTick(), len(mkt.TradeHistory()))
	if avg, ok := mkt.AverageTradePrice(); ok {
		fmt.Printf("average trade price: %.2f\n", avg)
	} else {
		fmt.Println("average trade price: n/a (no trades)")
	}
	for _, acct := range accounts {
		fmt.Printf("%s: cash=%d inventory=%d available_cash=%d available_inventory=%d\n",
			acct.Name(), acct.Cash(), acct.Inventory(inst),
			acct.AvailableCash(), acct.AvailableInventory(inst))
	}
}

package sim

import (
	"context"

	"go.uber.org/zap"

	"market-sim-go/infrastructure/logger"
)

// Workflow 协作式工作流：Step 执行一个有界的工作单元后让出。
// 循环与轮次编排属于 Runner，不属于工作流本身。
type Workflow interface {
	Step()
}

// Runner 回合制调度器：每个轮次按注册顺序依次调用各工作流的 Step，
// 然后推进时钟。同一时刻只有一个工作流在执行，市场与账户的
// 全部变更因此天然串行，核心无需加锁。
type Runner struct {
	clock     *Clock
	workflows []Workflow
	log       *logger.Logger
}

func NewRunner(clock *Clock, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{clock: clock, log: log}
}

func (r *Runner) Clock() *Clock { return r.clock }

// Register 注册一个工作流；注册顺序即轮内执行顺序。
func (r *Runner) Register(w Workflow) {
	r.workflows = append(r.workflows, w)
}

// Run 执行轮次直到时钟耗尽或 ctx 取消。
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("runner starting",
		zap.Int64("max_ticks", r.clock.MaxTicks()),
		zap.Int("workflows", len(r.workflows)))

	for !r.clock.Done() {
		select {
		case <-ctx.Done():
			r.log.Info("runner cancelled", zap.Int64("tick", r.clock.CurrentTick()))
			return ctx.Err()
		default:
		}
		r.Turn()
	}

	r.log.Info("runner finished", zap.Int64("tick", r.clock.CurrentTick()))
	return nil
}

// Turn 执行单个轮次：每个工作流一次 Step，随后时钟前进一格。
func (r *Runner) Turn() {
	for _, w := range r.workflows {
		w.Step()
	}
	r.clock.Advance()
}

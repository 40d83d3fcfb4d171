package market

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound 撤销不在簿中的订单。
var ErrOrderNotFound = errors.New("order not in book")

// ExecutionError 表示成交腿落账失败。Culprit 指出无法履约的账户，
// 调用方（清算流程）据此撤掉该账户的挂单。
type ExecutionError struct {
	Reason  string
	Trade   *Trade
	Culprit Trader
}

func (e *ExecutionError) Error() string {
	if e.Culprit != nil {
		return fmt.Sprintf("trade execution failed: %s (culprit %s)", e.Reason, e.Culprit.Name())
	}
	return fmt.Sprintf("trade execution failed: %s", e.Reason)
}

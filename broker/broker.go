// Package broker defines the narrow contracts the engine uses to talk to an
// execution venue and account source. The core never assumes an order went
// through without a confirmed fill.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/quantfx/smctrader/market"
)

// ErrExecutionFailure marks a transient fill or account-state failure. The
// caller retries the decision exactly once, then skips it for the bar.
var ErrExecutionFailure = errors.New("broker: execution failure")

// OrderRequest asks for a market fill with protective levels attached.
type OrderRequest struct {
	Instrument string
	Direction  market.Direction
	Units      float64
	StopLoss   float64
	TakeProfit float64
}

// Fill is a confirmed execution.
type Fill struct {
	TradeID string
	Price   float64
	Time    time.Time
}

// ExecutionSink places and closes positions. Implementations must only
// return a Fill for confirmed executions.
type ExecutionSink interface {
	Open(ctx context.Context, req OrderRequest) (Fill, error)
	Close(ctx context.Context, tradeID, reason string) (Fill, error)
}

// AccountProvider supplies current equity. When it fails the engine fails
// closed: no new position opens, open positions stay monitored.
type AccountProvider interface {
	Equity(ctx context.Context) (float64, error)
}

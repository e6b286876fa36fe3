package indicators

import (
	"fmt"

	"github.com/quantfx/smctrader/market"
)

// RSI is a streaming Relative Strength Index using Wilder's smoothing of
// average gain and loss.
type RSI struct {
	period  int
	avgGain float64
	avgLoss float64
	count   int
	gainSum float64
	lossSum float64
	prev    float64
	hasPrev bool
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

// Warmup needs period+1 bars because the first delta requires a previous close.
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.count = 0
	r.gainSum = 0
	r.lossSum = 0
	r.hasPrev = false
}

func (r *RSI) Update(b market.Bar) {
	if !r.hasPrev {
		r.prev = b.Close
		r.hasPrev = true
		return
	}

	delta := b.Close - r.prev
	r.prev = b.Close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count < r.period {
		r.gainSum += gain
		r.lossSum += loss
		r.count++
		if r.count == r.period {
			r.avgGain = r.gainSum / float64(r.period)
			r.avgLoss = r.lossSum / float64(r.period)
		}
	} else {
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}
}

func (r *RSI) Ready() bool { return r.count >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

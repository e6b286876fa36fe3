package sim

import (
	"math"
	"time"
)

// Metrics summarizes a completed run. All values are NaN-safe: an empty run
// reports zeros and the unchanged starting balance.
type Metrics struct {
	TotalTrades  int
	Wins         int
	Losses       int
	WinRate      float64 // fraction of trades with positive net PL
	GrossProfit  float64
	GrossLoss    float64 // absolute value
	ProfitFactor float64
	NetProfit    float64
	FinalBalance float64 // closing equity of the run
	MaxDrawdown  float64 // worst peak-to-trough equity fraction
	Sharpe       float64 // annualized from per-bar returns
}

type metricRow struct {
	Name  string
	Value float64
}

func (m Metrics) rows() []metricRow {
	return []metricRow{
		{"total_trades", float64(m.TotalTrades)},
		{"wins", float64(m.Wins)},
		{"losses", float64(m.Losses)},
		{"win_rate", m.WinRate},
		{"gross_profit", m.GrossProfit},
		{"gross_loss", m.GrossLoss},
		{"profit_factor", m.ProfitFactor},
		{"net_profit", m.NetProfit},
		{"final_balance", m.FinalBalance},
		{"max_drawdown", m.MaxDrawdown},
		{"sharpe", m.Sharpe},
	}
}

// ComputeMetrics derives the run summary from the trade ledger and equity
// curve.
func ComputeMetrics(initial float64, trades []Trade, curve []EquityPoint) Metrics {
	var m Metrics
	m.TotalTrades = len(trades)

	for _, t := range trades {
		m.NetProfit += t.NetPL
		if t.NetPL > 0 {
			m.Wins++
			m.GrossProfit += t.NetPL
		} else {
			m.Losses++
			m.GrossLoss += -t.NetPL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	}
	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	}

	m.FinalBalance = initial
	if len(curve) > 0 {
		m.FinalBalance = curve[len(curve)-1].Equity
	}
	m.MaxDrawdown = maxDrawdown(initial, curve)
	m.Sharpe = sharpe(initial, curve)
	return m
}

// maxDrawdown is the largest fractional fall from a running equity peak.
func maxDrawdown(initial float64, curve []EquityPoint) float64 {
	peak := initial
	var worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe annualizes mean/stdev of per-bar equity returns. The sampling
// frequency is inferred from the curve's bar spacing.
func sharpe(initial float64, curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	prev := initial
	returns := make([]float64, 0, len(curve))
	for _, p := range curve {
		if prev > 0 {
			returns = append(returns, (p.Equity-prev)/prev)
		}
		prev = p.Equity
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(periodsPerYear(curve))
}

// periodsPerYear derives the annualization factor from the first positive
// bar interval. Daily bars use the 252 trading-day convention; intraday
// bars scale proportionally.
func periodsPerYear(curve []EquityPoint) float64 {
	const yearSeconds = 365.25 * 24 * 3600
	for i := 1; i < len(curve); i++ {
		if dt := curve[i].Time.Sub(curve[i-1].Time); dt > 0 {
			if dt >= 20*time.Hour && dt <= 28*time.Hour {
				return 252 // trading-day convention for daily bars
			}
			return yearSeconds / dt.Seconds()
		}
	}
	return 252
}

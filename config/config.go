// Package config loads and validates the run configuration. Files may be
// YAML or JSON; validation is fail-fast, before anything downstream starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantfx/smctrader/exits"
	"github.com/quantfx/smctrader/risk"
	"github.com/quantfx/smctrader/signal"
	"github.com/quantfx/smctrader/sim"
	"github.com/quantfx/smctrader/structure"
)

// Config is the complete run configuration.
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Structure StructureConfig `json:"structure" yaml:"structure"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Exits     ExitConfig      `json:"exits" yaml:"exits"`
	Costs     CostConfig      `json:"costs" yaml:"costs"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

type AccountConfig struct {
	Instrument    string  `json:"instrument" yaml:"instrument"`
	InitialEquity float64 `json:"initial_equity" yaml:"initial_equity"`
}

type StrategyConfig struct {
	RequireKillZone bool `json:"require_kill_zone" yaml:"require_kill_zone"`
	RequireOTE      bool `json:"require_ote" yaml:"require_ote"`
	TrendEMAPeriod  int  `json:"trend_ema_period,omitempty" yaml:"trend_ema_period,omitempty"`
}

type StructureConfig struct {
	SwingWindow        int          `json:"swing_window,omitempty" yaml:"swing_window,omitempty"`
	ATRPeriod          int          `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	GrabATRFraction    float64      `json:"grab_atr_fraction,omitempty" yaml:"grab_atr_fraction,omitempty"`
	OrderBlockLookback int          `json:"order_block_lookback,omitempty" yaml:"order_block_lookback,omitempty"`
	GrabRecencyBars    int          `json:"grab_recency_bars,omitempty" yaml:"grab_recency_bars,omitempty"`
	BiasLookbackDays   int          `json:"bias_lookback_days,omitempty" yaml:"bias_lookback_days,omitempty"`
	OTELow             float64      `json:"ote_low,omitempty" yaml:"ote_low,omitempty"`
	OTEHigh            float64      `json:"ote_high,omitempty" yaml:"ote_high,omitempty"`
	KillZones          []ZoneConfig `json:"kill_zones,omitempty" yaml:"kill_zones,omitempty"`
}

type ZoneConfig struct {
	Name  string `json:"name" yaml:"name"`
	Start string `json:"start" yaml:"start"` // "HH:MM" UTC
	End   string `json:"end" yaml:"end"`
}

type RiskConfig struct {
	RiskPct         float64 `json:"risk_pct" yaml:"risk_pct"`
	ATRMultiplier   float64 `json:"atr_multiplier" yaml:"atr_multiplier"`
	RewardRisk      float64 `json:"reward_risk" yaml:"reward_risk"`
	MaxStopDistance float64 `json:"max_stop_distance,omitempty" yaml:"max_stop_distance,omitempty"`
	SRWindow        int     `json:"sr_window,omitempty" yaml:"sr_window,omitempty"`
	SRBuffer        float64 `json:"sr_buffer,omitempty" yaml:"sr_buffer,omitempty"`
}

type ExitConfig struct {
	RSIPeriod     int     `json:"rsi_period,omitempty" yaml:"rsi_period,omitempty"`
	RSIOverbought float64 `json:"rsi_overbought,omitempty" yaml:"rsi_overbought,omitempty"`
	RSIOversold   float64 `json:"rsi_oversold,omitempty" yaml:"rsi_oversold,omitempty"`
	MinProfitPct  float64 `json:"min_profit_pct,omitempty" yaml:"min_profit_pct,omitempty"`
}

type CostConfig struct {
	Spread         float64 `json:"spread" yaml:"spread"`
	Slippage       float64 `json:"slippage" yaml:"slippage"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
}

type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile  string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Default returns a runnable configuration for EUR_USD.
func Default() *Config {
	return &Config{
		Account: AccountConfig{Instrument: "EUR_USD", InitialEquity: 10000},
		Risk: RiskConfig{
			RiskPct:       0.01,
			ATRMultiplier: 1.5,
			RewardRisk:    2,
			SRWindow:      50,
			SRBuffer:      0.005,
		},
		Exits: ExitConfig{RSIPeriod: 14, RSIOverbought: 70, RSIOversold: 30},
		Costs: CostConfig{Spread: 0.0001, Slippage: 0.00005, CommissionRate: 0.00002},
		Journal: JournalConfig{
			Type:        "csv",
			TradesFile:  "trades.csv",
			EquityFile:  "equity.csv",
			MetricsFile: "metrics.csv",
		},
	}
}

// LoadFromFile reads path as YAML, falling back to JSON, and validates.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config, YAML for .yaml/.yml paths and indented JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if c.Account.Instrument == "" {
		return fmt.Errorf("account.instrument is required")
	}
	if c.Account.InitialEquity <= 0 {
		return fmt.Errorf("account.initial_equity must be positive")
	}
	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 1 {
		return fmt.Errorf("risk.risk_pct must be in (0, 1]")
	}
	if c.Risk.ATRMultiplier <= 0 {
		return fmt.Errorf("risk.atr_multiplier must be positive")
	}
	if c.Risk.RewardRisk <= 0 {
		return fmt.Errorf("risk.reward_risk must be positive")
	}
	if c.Risk.MaxStopDistance < 0 {
		return fmt.Errorf("risk.max_stop_distance must not be negative")
	}
	if c.Risk.SRBuffer < 0 || c.Risk.SRBuffer >= 1 {
		return fmt.Errorf("risk.sr_buffer must be in [0, 1)")
	}
	if c.Costs.Spread < 0 || c.Costs.Slippage < 0 || c.Costs.CommissionRate < 0 {
		return fmt.Errorf("costs must not be negative")
	}
	if over, under := c.Exits.RSIOverbought, c.Exits.RSIOversold; over != 0 || under != 0 {
		if over <= under {
			return fmt.Errorf("exits.rsi_overbought must exceed exits.rsi_oversold")
		}
		if under < 0 || over > 100 {
			return fmt.Errorf("exits.rsi thresholds must stay within [0, 100]")
		}
	}
	if c.Exits.MinProfitPct < 0 {
		return fmt.Errorf("exits.min_profit_pct must not be negative")
	}
	if c.Strategy.TrendEMAPeriod < 0 {
		return fmt.Errorf("strategy.trend_ema_period must not be negative")
	}
	if c.Structure.OTELow != 0 && c.Structure.OTEHigh != 0 && c.Structure.OTELow >= c.Structure.OTEHigh {
		return fmt.Errorf("structure.ote_low must be below structure.ote_high")
	}
	for _, z := range c.Structure.KillZones {
		if _, err := structure.ParseKillZone(z.Name, z.Start, z.End); err != nil {
			return fmt.Errorf("structure.kill_zones: %w", err)
		}
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.MetricsFile == "" {
			return fmt.Errorf("journal type csv requires trades_file, equity_file and metrics_file")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal type sqlite requires db_path")
		}
	default:
		return fmt.Errorf("journal.type must be csv, sqlite or none")
	}
	return nil
}

// SimConfig assembles the engine configuration from the validated file.
func (c *Config) SimConfig() (sim.Config, error) {
	zones := make([]structure.KillZone, 0, len(c.Structure.KillZones))
	for _, z := range c.Structure.KillZones {
		kz, err := structure.ParseKillZone(z.Name, z.Start, z.End)
		if err != nil {
			return sim.Config{}, err
		}
		zones = append(zones, kz)
	}

	return sim.Config{
		Instrument:    c.Account.Instrument,
		InitialEquity: c.Account.InitialEquity,
		RiskPct:       c.Risk.RiskPct,
		Structure: structure.Config{
			SwingWindow:        c.Structure.SwingWindow,
			ATRPeriod:          c.Structure.ATRPeriod,
			GrabATRFraction:    c.Structure.GrabATRFraction,
			OrderBlockLookback: c.Structure.OrderBlockLookback,
			GrabRecencyBars:    c.Structure.GrabRecencyBars,
			BiasLookbackDays:   c.Structure.BiasLookbackDays,
			OTELow:             c.Structure.OTELow,
			OTEHigh:            c.Structure.OTEHigh,
			KillZones:          zones,
		},
		Levels: risk.LevelConfig{
			ATRMultiplier:   c.Risk.ATRMultiplier,
			RewardRisk:      c.Risk.RewardRisk,
			MaxStopDistance: c.Risk.MaxStopDistance,
			SRWindow:        c.Risk.SRWindow,
			SRBuffer:        c.Risk.SRBuffer,
		},
		Exits: exits.Config{
			RSIPeriod:     c.Exits.RSIPeriod,
			RSIOverbought: c.Exits.RSIOverbought,
			RSIOversold:   c.Exits.RSIOversold,
			MinProfitPct:  c.Exits.MinProfitPct,
		},
		Costs: sim.Costs{
			Spread:         c.Costs.Spread,
			Slippage:       c.Costs.Slippage,
			CommissionRate: c.Costs.CommissionRate,
		},
	}, nil
}

// SignalConfig returns the aggregator settings.
func (c *Config) SignalConfig() signal.Config {
	return signal.Config{
		RequireKillZone: c.Strategy.RequireKillZone,
		RequireOTE:      c.Strategy.RequireOTE,
		TrendEMAPeriod:  c.Strategy.TrendEMAPeriod,
	}
}

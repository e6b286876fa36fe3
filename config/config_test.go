package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
account:
  instrument: EUR_USD
  initial_equity: 25000
strategy:
  require_kill_zone: true
  trend_ema_period: 50
structure:
  atr_period: 10
  kill_zones:
    - {name: london, start: "08:00", end: "11:00"}
risk:
  risk_pct: 0.02
  atr_multiplier: 1.5
  reward_risk: 2
  sr_window: 30
costs:
  spread: 0.0002
  slippage: 0.0001
  commission_rate: 0.00002
journal:
  type: sqlite
  db_path: runs.db
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "EUR_USD", cfg.Account.Instrument)
	assert.InDelta(t, 25000, cfg.Account.InitialEquity, 1e-9)
	assert.True(t, cfg.Strategy.RequireKillZone)

	sc, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, sc.Structure.ATRPeriod)
	require.Len(t, sc.Structure.KillZones, 1)
	assert.Equal(t, 8*60, sc.Structure.KillZones[0].StartMinute)
	assert.InDelta(t, 0.02, sc.RiskPct, 1e-9)
	assert.True(t, cfg.SignalConfig().RequireKillZone)
	assert.Equal(t, 50, cfg.SignalConfig().TrendEMAPeriod)
}

func TestLoadJSONFallback(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
  "account": {"instrument": "GBP_USD", "initial_equity": 5000},
  "risk": {"risk_pct": 0.01, "atr_multiplier": 2, "reward_risk": 3},
  "journal": {"type": "none"}
}`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GBP_USD", cfg.Account.Instrument)
	assert.InDelta(t, 3, cfg.Risk.RewardRisk, 1e-9)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"risk pct zero", func(c *Config) { c.Risk.RiskPct = 0 }},
		{"risk pct above one", func(c *Config) { c.Risk.RiskPct = 1.5 }},
		{"negative equity", func(c *Config) { c.Account.InitialEquity = -1 }},
		{"negative trend ema period", func(c *Config) { c.Strategy.TrendEMAPeriod = -1 }},
		{"zero atr multiplier", func(c *Config) { c.Risk.ATRMultiplier = 0 }},
		{"zero reward risk", func(c *Config) { c.Risk.RewardRisk = 0 }},
		{"negative spread", func(c *Config) { c.Costs.Spread = -0.0001 }},
		{"rsi inverted", func(c *Config) { c.Exits.RSIOverbought = 20; c.Exits.RSIOversold = 80 }},
		{"rsi out of range", func(c *Config) { c.Exits.RSIOverbought = 120 }},
		{"negative min profit", func(c *Config) { c.Exits.MinProfitPct = -1 }},
		{"ote inverted", func(c *Config) { c.Structure.OTELow = 0.9; c.Structure.OTEHigh = 0.6 }},
		{"bad kill zone", func(c *Config) {
			c.Structure.KillZones = []ZoneConfig{{Name: "x", Start: "11:00", End: "08:00"}}
		}},
		{"csv journal missing files", func(c *Config) {
			c.Journal = JournalConfig{Type: "csv"}
		}},
		{"sqlite journal missing path", func(c *Config) {
			c.Journal = JournalConfig{Type: "sqlite"}
		}},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// Instruments outside the metadata table stay runnable; sizing falls back to
// conservative per-unit defaults.
func TestValidateAcceptsUnlistedInstrument(t *testing.T) {
	cfg := Default()
	cfg.Account.Instrument = "AUD_NZD"
	require.NoError(t, cfg.Validate())
}

func TestSaveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	orig := Default()
	orig.Account.InitialEquity = 12345
	require.NoError(t, orig.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 12345, got.Account.InitialEquity, 1e-9)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "{{{not yaml or json")
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

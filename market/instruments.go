package market

// InstrumentMeta carries the static per-instrument parameters the sizing and
// cost model need.
type InstrumentMeta struct {
	Name             string
	BaseCurrency     string
	QuoteCurrency    string
	PipLocation      int
	MinimumTradeSize float64 // smallest tradable increment, in units
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {
		Name:             "EUR_USD",
		BaseCurrency:     "EUR",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		MinimumTradeSize: 1,
	},
	"GBP_USD": {
		Name:             "GBP_USD",
		BaseCurrency:     "GBP",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		MinimumTradeSize: 1,
	},
	"USD_JPY": {
		Name:             "USD_JPY",
		BaseCurrency:     "USD",
		QuoteCurrency:    "JPY",
		PipLocation:      -2,
		MinimumTradeSize: 1,
	},
}

// Instrument returns metadata for name, falling back to EUR_USD-like
// defaults for instruments the table does not know.
func Instrument(name string) InstrumentMeta {
	if m, ok := Instruments[name]; ok {
		return m
	}
	return InstrumentMeta{Name: name, PipLocation: -4, MinimumTradeSize: 1}
}

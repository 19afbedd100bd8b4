package balance

import "github.com/JusciAvelino/Meta-IR/internal/param"

// Config toggles a strategy and lists its candidate hyper-parameters.
type Config struct {
	Strategy Strategy
	Enabled  bool
	Grid     param.Grid
}

// DefaultCatalog lists every strategy with its standard grid. Only SG and RU
// are enabled by default.
func DefaultCatalog() []Config {
	methods := []param.Value{param.StringValue(string(Balance)), param.StringValue(string(Extreme))}
	return []Config{
		{Strategy: SMOGN, Enabled: true, Grid: param.Grid{"samp_method": methods}},
		{Strategy: RandomUnder, Enabled: true, Grid: param.Grid{"C.perc": methods}},
		{Strategy: RandomOver, Grid: param.Grid{"C.perc": methods}},
		{Strategy: SMOTER, Grid: param.Grid{"C.perc": methods}},
		{Strategy: GaussianNoise, Grid: param.Grid{
			"C.perc": methods,
			"pert":   {param.FloatValue(0.05), param.FloatValue(0.1), param.FloatValue(0.5)},
		}},
		{Strategy: WERCS, Grid: param.Grid{
			"over":  {param.FloatValue(0.5), param.FloatValue(0.8)},
			"under": {param.FloatValue(0.5), param.FloatValue(0.8)},
		}},
	}
}

// Enabled filters the catalogue down to the active strategies, keeping order.
func Enabled(catalog []Config) []Config {
	var out []Config
	for _, c := range catalog {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

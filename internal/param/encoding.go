package param

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed is returned when a compact grid string cannot be parsed.
var ErrMalformed = errors.New("malformed grid encoding")

// EncodeGrid writes a grid in the compact form "param+v1+v2|param2+v". Keys are
// emitted in sorted order.
func EncodeGrid(g Grid) string {
	parts := make([]string, 0, len(g))
	for _, key := range g.Keys() {
		tokens := []string{key}
		for _, v := range g[key] {
			tokens = append(tokens, v.String())
		}
		parts = append(parts, strings.Join(tokens, "+"))
	}
	return strings.Join(parts, "|")
}

// ParseGrid reads the compact form back. Values with a decimal point become floats,
// integral tokens become ints, anything else stays a string.
func ParseGrid(s string) (Grid, error) {
	g := Grid{}
	if strings.TrimSpace(s) == "" {
		return g, nil
	}
	for _, part := range strings.Split(s, "|") {
		tokens := strings.Split(part, "+")
		name := strings.TrimSpace(tokens[0])
		if name == "" {
			return nil, errors.Wrapf(ErrMalformed, "empty parameter name in %q", part)
		}
		if len(tokens) < 2 {
			return nil, errors.Wrapf(ErrMalformed, "parameter %q has no values", name)
		}
		if _, dup := g[name]; dup {
			return nil, errors.Wrapf(ErrMalformed, "parameter %q repeated", name)
		}
		values := make([]Value, 0, len(tokens)-1)
		for _, tok := range tokens[1:] {
			if strings.TrimSpace(tok) == "" {
				return nil, errors.Wrapf(ErrMalformed, "parameter %q has an empty value", name)
			}
			values = append(values, ParseValue(tok))
		}
		g[name] = values
	}
	return g, nil
}

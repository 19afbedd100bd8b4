// Package param holds typed hyper-parameter values, grids of candidate values and
// the sorted Cartesian product used to enumerate them.
package param

import (
	"sort"
	"strconv"
	"strings"
)

// Kind is the explicit type of a parameter value.
type Kind int

const (
	Int Kind = iota
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// Value is a single typed candidate value.
type Value struct {
	kind Kind
	i    int
	f    float64
	s    string
}

func IntValue(v int) Value         { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value   { return Value{kind: Float, f: v} }
func StringValue(v string) Value   { return Value{kind: String, s: v} }
func (v Value) Kind() Kind         { return v.kind }
func (v Value) IsNumeric() bool    { return v.kind != String }
func (v Value) Equal(o Value) bool { return v == o }

// Int returns the value as an int. Floats are truncated, strings yield 0.
func (v Value) Int() int {
	switch v.kind {
	case Int:
		return v.i
	case Float:
		return int(v.f)
	}
	return 0
}

// Float returns the value as a float64. Strings yield 0.
func (v Value) Float() float64 {
	switch v.kind {
	case Int:
		return float64(v.i)
	case Float:
		return v.f
	}
	return 0
}

// String formats the value so that parsing it back yields the same kind:
// floats always carry a decimal point.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.Itoa(v.i)
	case Float:
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	}
	return v.s
}

// ParseValue types a raw token: a number with a decimal point is a float, a number
// without one is an int, anything else is a string.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ".") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f)
		}
		return StringValue(raw)
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return IntValue(i)
	}
	return StringValue(raw)
}

// Setting binds one parameter name to one value.
type Setting struct {
	Name  string
	Value Value
}

// Combination is one point of a grid, ordered by parameter name.
type Combination []Setting

// Get returns the value bound to name.
func (c Combination) Get(name string) (Value, bool) {
	for _, s := range c {
		if s.Name == name {
			return s.Value, true
		}
	}
	return Value{}, false
}

// Names returns the parameter names in order.
func (c Combination) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.Name + "=" + s.Value.String()
	}
	return strings.Join(parts, ",")
}

// Grid maps a parameter name to its candidate values.
type Grid map[string][]Value

// Keys returns the parameter names sorted lexicographically.
func (g Grid) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size is the number of combinations the grid expands to.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	n := 1
	for _, values := range g {
		n *= len(values)
	}
	return n
}

// Combinations expands the grid into the Cartesian product over its sorted keys.
// The first key varies slowest.
func (g Grid) Combinations() []Combination {
	keys := g.Keys()
	if len(keys) == 0 {
		return nil
	}

	combos := []Combination{{}}
	for _, key := range keys {
		var next []Combination
		for _, prefix := range combos {
			for _, v := range g[key] {
				combo := make(Combination, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, Setting{Name: key, Value: v}))
			}
		}
		combos = next
	}
	return combos
}

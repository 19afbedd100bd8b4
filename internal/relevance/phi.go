// Package relevance maps continuous target values to a rarity score in [0,1].
//
// The automatic control points follow the boxplot "extremes" rule: values beyond
// the whiskers are fully relevant, the median is irrelevant, and the function in
// between is a cubic Hermite interpolation with flat slopes.
package relevance

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrDegenerate is returned when the control points collapse, e.g. for a
// constant or empty target.
var ErrDegenerate = errors.New("degenerate relevance function")

// DefaultCoef is the whisker length in hinge spreads.
const DefaultCoef = 1.5

// ExtremeType selects which tails are considered relevant.
type ExtremeType int

const (
	Both ExtremeType = iota
	High
	Low
)

func (e ExtremeType) String() string {
	switch e {
	case High:
		return "high"
	case Low:
		return "low"
	}
	return "both"
}

// ControlPoint anchors the relevance curve.
type ControlPoint struct {
	Y     float64
	Phi   float64
	Slope float64
}

// Control is a fitted relevance function.
type Control struct {
	Points  []ControlPoint
	Extreme ExtremeType
	Coef    float64
}

type Option func(*Control)

func WithExtremeType(e ExtremeType) Option { return func(c *Control) { c.Extreme = e } }

// NewControl fits the extremes control points to y. NaN values are ignored.
func NewControl(y []float64, opts ...Option) (*Control, error) {
	c := &Control{Extreme: Both, Coef: DefaultCoef}
	for _, o := range opts {
		o(c)
	}

	clean := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return nil, errors.Wrap(ErrDegenerate, "need at least two target values")
	}
	sort.Float64s(clean)

	box := boxplotStats(clean, c.Coef)
	lo, hi := clean[0], clean[len(clean)-1]
	if lo == hi {
		return nil, errors.Wrap(ErrDegenerate, "constant target")
	}

	var pts []ControlPoint
	if c.Extreme != High && lo < box.lowerWhisker {
		pts = append(pts, ControlPoint{Y: box.lowerWhisker, Phi: 1})
	} else {
		pts = append(pts, ControlPoint{Y: lo, Phi: 0})
	}
	pts = append(pts, ControlPoint{Y: box.median, Phi: 0})
	if c.Extreme != Low && hi > box.upperWhisker {
		pts = append(pts, ControlPoint{Y: box.upperWhisker, Phi: 1})
	} else {
		pts = append(pts, ControlPoint{Y: hi, Phi: 0})
	}

	c.Points = dedupe(pts)
	if len(c.Points) < 2 {
		return nil, errors.Wrap(ErrDegenerate, "control points collapse")
	}
	return c, nil
}

// dedupe drops points that share a Y with their predecessor, keeping the one
// with the larger relevance.
func dedupe(pts []ControlPoint) []ControlPoint {
	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && p.Y <= out[n-1].Y {
			if p.Phi > out[n-1].Phi {
				out[n-1] = p
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

// Phi evaluates the relevance of a single value.
func (c *Control) Phi(y float64) float64 {
	pts := c.Points
	if math.IsNaN(y) {
		return 0
	}
	if y <= pts[0].Y {
		return pts[0].Phi
	}
	last := pts[len(pts)-1]
	if y >= last.Y {
		return last.Phi
	}

	k := sort.Search(len(pts), func(i int) bool { return pts[i].Y > y }) - 1
	p0, p1 := pts[k], pts[k+1]
	h := p1.Y - p0.Y
	t := (y - p0.Y) / h
	t2, t3 := t*t, t*t*t

	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	v := h00*p0.Phi + h10*h*p0.Slope + h01*p1.Phi + h11*h*p1.Slope
	return math.Min(1, math.Max(0, v))
}

// PhiAll evaluates relevance for every value.
func (c *Control) PhiAll(ys []float64) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = c.Phi(y)
	}
	return out
}

// CountRare returns how many values have relevance strictly above threshold.
func (c *Control) CountRare(ys []float64, threshold float64) int {
	n := 0
	for _, y := range ys {
		if c.Phi(y) > threshold {
			n++
		}
	}
	return n
}

type boxStats struct {
	lowerWhisker, lowerHinge, median, upperHinge, upperWhisker float64
}

// boxplotStats mirrors the classic boxplot: Tukey hinges and whiskers reaching
// the most extreme values within coef hinge spreads. sorted must be ascending.
func boxplotStats(sorted []float64, coef float64) boxStats {
	five := fivenum(sorted)
	spread := coef * (five[3] - five[1])
	lowLimit, highLimit := five[1]-spread, five[3]+spread

	b := boxStats{lowerHinge: five[1], median: five[2], upperHinge: five[3]}
	b.lowerWhisker = five[1]
	for _, v := range sorted {
		if v >= lowLimit {
			b.lowerWhisker = math.Min(v, five[1])
			break
		}
	}
	b.upperWhisker = five[3]
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highLimit {
			b.upperWhisker = math.Max(sorted[i], five[3])
			break
		}
	}
	return b
}

// fivenum returns Tukey's five number summary of an ascending slice.
func fivenum(sorted []float64) [5]float64 {
	n := float64(len(sorted))
	n4 := math.Floor((n+3)/2) / 2
	d := [5]float64{1, n4, (n + 1) / 2, n + 1 - n4, n}

	var out [5]float64
	for i, pos := range d {
		lo := int(math.Floor(pos)) - 1
		hi := int(math.Ceil(pos)) - 1
		out[i] = 0.5 * (sorted[lo] + sorted[hi])
	}
	return out
}

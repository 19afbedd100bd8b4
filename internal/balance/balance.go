// Package balance resamples a regression training fold so that the rare,
// high-relevance region of the target is better represented.
package balance

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/param"
	"github.com/JusciAvelino/Meta-IR/internal/relevance"
)

var (
	ErrNoRareCases      = errors.New("no rare cases to balance")
	ErrTooFewRareCases  = errors.New("too few rare cases to synthesize from")
	ErrUnknownStrategy  = errors.New("unknown balancing strategy")
	ErrInvalidParameter = errors.New("invalid strategy parameter")
)

// Strategy names a resampling technique.
type Strategy string

const (
	SMOGN         Strategy = "SG"
	RandomUnder   Strategy = "RU"
	RandomOver    Strategy = "RO"
	SMOTER        Strategy = "SMT"
	GaussianNoise Strategy = "GN"
	WERCS         Strategy = "WC"
)

const (
	DefaultThreshold  = 0.8
	DefaultNeighbors  = 5
	smognPerturbation = 0.02
	defaultPert       = 0.1
	defaultWercsRatio = 0.5
)

// Strategies returns every known strategy in catalogue order.
func Strategies() []Strategy {
	return []Strategy{SMOGN, RandomUnder, RandomOver, SMOTER, GaussianNoise, WERCS}
}

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", errors.Wrap(ErrUnknownStrategy, name)
}

// SamplingMethod controls how far each bin is pushed toward equal size.
type SamplingMethod string

const (
	Balance SamplingMethod = "balance"
	Extreme SamplingMethod = "extreme"
)

// Balancer applies a strategy to a training fold. Threshold is the relevance at
// or above which a target value counts as rare.
type Balancer struct {
	Threshold float64
	Neighbors int
}

func New() *Balancer {
	return &Balancer{Threshold: DefaultThreshold, Neighbors: DefaultNeighbors}
}

// Balance returns a resampled copy of train with the same column schema. The
// input is never modified. seed fixes every random choice.
func (b *Balancer) Balance(train *data.Dataset, s Strategy, c param.Combination, seed uint64) (*data.Dataset, error) {
	r := rand.New(rand.NewPCG(seed, uint64(len(s))))

	switch s {
	case SMOGN:
		method, err := samplingMethod(c, "samp_method")
		if err != nil {
			return nil, err
		}
		clean := train.DropMissing()
		out, err := b.overSample(clean, method, relevance.High, true, r, smogn)
		if err != nil {
			return nil, err
		}
		return out.DropMissing(), nil

	case RandomUnder:
		method, err := samplingMethod(c, "C.perc")
		if err != nil {
			return nil, err
		}
		return b.underSample(train, method, r)

	case RandomOver:
		method, err := samplingMethod(c, "C.perc")
		if err != nil {
			return nil, err
		}
		return b.overSample(train, method, relevance.Both, false, r, replicate)

	case SMOTER:
		method, err := samplingMethod(c, "C.perc")
		if err != nil {
			return nil, err
		}
		return b.overSample(train, method, relevance.Both, true, r, smoter)

	case GaussianNoise:
		method, err := samplingMethod(c, "C.perc", "pert")
		if err != nil {
			return nil, err
		}
		pert := defaultPert
		if v, ok := c.Get("pert"); ok {
			if !v.IsNumeric() || v.Float() <= 0 {
				return nil, errors.Wrapf(ErrInvalidParameter, "pert=%s", v)
			}
			pert = v.Float()
		}
		return b.overSample(train, method, relevance.Both, true, r, gaussianNoise(pert))

	case WERCS:
		if err := knownParams(c, "over", "under"); err != nil {
			return nil, err
		}
		over, err := ratio(c, "over")
		if err != nil {
			return nil, err
		}
		under, err := ratio(c, "under")
		if err != nil {
			return nil, err
		}
		return wercs(train, over, under, r)
	}
	return nil, errors.Wrap(ErrUnknownStrategy, string(s))
}

// samplingMethod reads the sampling method from key, rejecting parameters
// outside allowed.
func samplingMethod(c param.Combination, key string, allowed ...string) (SamplingMethod, error) {
	if err := knownParams(c, append(allowed, key)...); err != nil {
		return "", err
	}
	v, ok := c.Get(key)
	if !ok {
		return Balance, nil
	}
	switch m := SamplingMethod(v.String()); m {
	case Balance, Extreme:
		return m, nil
	}
	return "", errors.Wrapf(ErrInvalidParameter, "%s=%s", key, v)
}

func knownParams(c param.Combination, allowed ...string) error {
	for _, name := range c.Names() {
		if !contains(allowed, name) {
			return errors.Wrapf(ErrInvalidParameter, "unexpected parameter %q", name)
		}
	}
	return nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func ratio(c param.Combination, key string) (float64, error) {
	v, ok := c.Get(key)
	if !ok {
		return defaultWercsRatio, nil
	}
	if !v.IsNumeric() || v.Float() < 0 {
		return 0, errors.Wrapf(ErrInvalidParameter, "%s=%s", key, v)
	}
	return v.Float(), nil
}

func rebuild(train *data.Dataset, target []float64, X [][]float64) (*data.Dataset, error) {
	columns := append([]string(nil), train.Columns...)
	out, err := data.NewDataset(train.Name, target, X, columns)
	return out, errors.Wrap(err, "rebuild fold")
}

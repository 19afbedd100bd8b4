// Package scoring implements the imbalance-aware regression metrics used to rank
// balancing strategies: SERA and the utility-based F-score.
package scoring

import (
	"math"

	"github.com/JusciAvelino/Meta-IR/internal/relevance"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultThreshold = 0.8
	DefaultBeta      = 1.0
	DefaultStep      = 0.001
)

// Scores are the two fold-level metrics. FScore is higher-is-better, SERA is
// lower-is-better.
type Scores struct {
	FScore float64
	SERA   float64
}

// Scorer holds the relevance control fitted on a full target vector so that
// every fold of a dataset is judged with the same thresholds.
type Scorer struct {
	Threshold float64
	Beta      float64
	Step      float64

	control *relevance.Control
	maxLoss float64
}

// NewScorer fits the relevance control and the loss scale on y, the target of
// the parent dataset.
func NewScorer(y []float64) (*Scorer, error) {
	control, err := relevance.NewControl(y)
	if err != nil {
		return nil, errors.Wrap(err, "fit scoring relevance")
	}
	clean := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return &Scorer{
		Threshold: DefaultThreshold,
		Beta:      DefaultBeta,
		Step:      DefaultStep,
		control:   control,
		maxLoss:   floats.Max(clean) - floats.Min(clean),
	}, nil
}

// Score evaluates predictions for one test fold.
func (s *Scorer) Score(yTrue, yPred []float64) (Scores, error) {
	if len(yTrue) != len(yPred) {
		return Scores{}, errors.Errorf("length mismatch: %d true values, %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Scores{}, errors.New("empty fold")
	}
	for i, p := range yPred {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Scores{}, errors.Errorf("prediction %d is not finite", i)
		}
	}

	phiTrue := s.control.PhiAll(yTrue)
	phiPred := s.control.PhiAll(yPred)

	return Scores{
		FScore: s.utilityFScore(yTrue, yPred, phiTrue, phiPred),
		SERA:   SERA(yTrue, yPred, phiTrue, s.Step),
	}, nil
}

// SERA integrates the squared error of the cases with relevance >= t over
// t in [0,1] with the trapezoidal rule.
func SERA(trues, preds, phis []float64, step float64) float64 {
	if step <= 0 || step > 1 {
		step = DefaultStep
	}
	k := int(math.Round(1 / step))

	// add[j] holds errors whose relevance reaches threshold j*step but not (j+1)*step.
	add := make([]float64, k+1)
	for i := range trues {
		e := preds[i] - trues[i]
		top := int(math.Floor(phis[i]/step + 1e-9))
		if top < 0 {
			continue
		}
		if top > k {
			top = k
		}
		add[top] += e * e
	}

	ser := make([]float64, k+1)
	running := 0.0
	for j := k; j >= 0; j-- {
		running += add[j]
		ser[j] = running
	}

	area := 0.0
	for j := 1; j <= k; j++ {
		area += step * (ser[j-1] + ser[j]) / 2
	}
	return area
}

// utilityFScore is the F-measure over utility-based precision and recall. An
// event is a value whose relevance exceeds the threshold; each hit earns 1+U,
// where U trades the benefit of an accurate rare prediction against the cost of
// a wrong one.
func (s *Scorer) utilityFScore(yTrue, yPred, phiTrue, phiPred []float64) float64 {
	var precNum, precDen, recNum, recDen float64

	for i := range yTrue {
		trueEvent := phiTrue[i] > s.Threshold
		predEvent := phiPred[i] > s.Threshold

		if predEvent {
			precDen += 1 + phiPred[i]
		}
		if trueEvent {
			recDen += 1 + phiTrue[i]
		}
		if !trueEvent || !predEvent {
			continue
		}

		u := s.utility(yTrue[i], yPred[i], phiTrue[i], phiPred[i])
		recNum += 1 + u
		precNum += math.Min(1+u, 1+phiPred[i])
	}

	if precDen == 0 || recDen == 0 {
		return 0
	}
	precision := clamp01(precNum / precDen)
	recall := clamp01(recNum / recDen)
	if precision+recall == 0 {
		return 0
	}

	b2 := s.Beta * s.Beta
	return (1 + b2) * precision * recall / (b2*precision + recall)
}

func (s *Scorer) utility(y, yHat, phiTrue, phiPred float64) float64 {
	gamma := 0.0
	loss := math.Abs(yHat - y)
	switch {
	case s.maxLoss > 0:
		gamma = math.Min(1, loss/s.maxLoss)
	case loss > 0:
		gamma = 1
	}
	benefit := phiTrue * (1 - gamma)
	cost := (phiTrue + phiPred) / 2 * gamma
	return benefit - cost
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

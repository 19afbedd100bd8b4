package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JusciAvelino/Meta-IR/internal/models"
)

type ClassificationMetrics struct {
	Accuracy          float64              `json:"accuracy" yaml:"accuracy"`
	BalancedAccuracy  float64              `json:"balanced_accuracy" yaml:"balanced_accuracy"`
	MacroPrecision    float64              `json:"macro_precision" yaml:"macro_precision"`
	MacroRecall       float64              `json:"macro_recall" yaml:"macro_recall"`
	MacroF1           float64              `json:"macro_f1" yaml:"macro_f1"`
	WeightedPrecision float64              `json:"weighted_precision" yaml:"weighted_precision"`
	WeightedRecall    float64              `json:"weighted_recall" yaml:"weighted_recall"`
	WeightedF1        float64              `json:"weighted_f1" yaml:"weighted_f1"`
	PerClassMetrics   map[int]ClassMetrics `json:"per_class_metrics" yaml:"-"`
	ConfusionMatrix   [][]int              `json:"confusion_matrix" yaml:"-"`
	ClassSupport      map[int]int          `json:"class_support" yaml:"-"`
	Classes           []int                `json:"classes" yaml:"-"`
	NumSamples        int                  `json:"num_samples" yaml:"num_samples"`
	NumClasses        int                  `json:"num_classes" yaml:"num_classes"`
}

type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// CalculateMetrics scores predictions over the union of true and predicted
// labels. Macro averages weight every label equally and score an undefined
// ratio as 0.
func CalculateMetrics(yTrue, yPred []int) *ClassificationMetrics {
	if len(yTrue) != len(yPred) || len(yTrue) == 0 {
		return nil
	}

	classes := models.ExtractClasses(append(append([]int(nil), yTrue...), yPred...))
	numSamples := len(yTrue)
	numClasses := len(classes)

	confusionMatrix := buildConfusionMatrix(yTrue, yPred, classes)

	classSupport := make(map[int]int)
	for _, class := range yTrue {
		classSupport[class]++
	}

	perClassMetrics := make(map[int]ClassMetrics)
	precisions := make([]float64, numClasses)
	recalls := make([]float64, numClasses)
	f1s := make([]float64, numClasses)
	var weightedPrec, weightedRec, weightedF1 float64

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		fp, fn := 0, 0
		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
			Support:   support,
		}
		precisions[i], recalls[i], f1s[i] = precision, recall, f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
	}

	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}

	balanced := 0.0
	for _, class := range classes {
		if classSupport[class] > 0 {
			balanced += perClassMetrics[class].Recall
		}
	}

	return &ClassificationMetrics{
		Accuracy:          float64(correct) / float64(numSamples),
		BalancedAccuracy:  safeDivide(balanced, float64(len(classSupport))),
		MacroPrecision:    stat.Mean(precisions, nil),
		MacroRecall:       stat.Mean(recalls, nil),
		MacroF1:           stat.Mean(f1s, nil),
		WeightedPrecision: weightedPrec / float64(numSamples),
		WeightedRecall:    weightedRec / float64(numSamples),
		WeightedF1:        weightedF1 / float64(numSamples),
		PerClassMetrics:   perClassMetrics,
		ConfusionMatrix:   confusionMatrix,
		ClassSupport:      classSupport,
		Classes:           classes,
		NumSamples:        numSamples,
		NumClasses:        numClasses,
	}
}

func buildConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[int]int)
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics) FormatMetrics() string {
	result := fmt.Sprintf("Accuracy: %.4f\n", m.Accuracy)
	result += fmt.Sprintf("Balanced Accuracy: %.4f\n", m.BalancedAccuracy)
	result += fmt.Sprintf("Macro Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.MacroPrecision, m.MacroRecall, m.MacroF1)
	result += fmt.Sprintf("Weighted Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.WeightedPrecision, m.WeightedRecall, m.WeightedF1)
	return result
}

// R2 is the coefficient of determination. A constant truth scores 1 when
// matched exactly and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	mean := stat.Mean(yTrue, nil)
	ssTot := 0.0
	for _, v := range yTrue {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if floats.EqualApprox(yTrue, yPred, 1e-12) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

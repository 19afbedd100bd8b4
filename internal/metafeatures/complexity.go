package metafeatures

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/JusciAvelino/Meta-IR/internal/models"
)

const ridge = 1e-8

// interpolated builds one synthetic point between every pair of target-adjacent
// rows, at a random position along the segment.
func interpolated(X [][]float64, y []float64, r *rand.Rand) ([][]float64, []float64) {
	order := targetOrder(y)
	synthX := make([][]float64, 0, len(order)-1)
	synthY := make([]float64, 0, len(order)-1)
	for k := 0; k+1 < len(order); k++ {
		a, b := order[k], order[k+1]
		u := r.Float64()
		x := make([]float64, len(X[a]))
		for j := range x {
			x[j] = X[a][j] + u*(X[b][j]-X[a][j])
		}
		synthX = append(synthX, x)
		synthY = append(synthY, y[a]+u*(y[b]-y[a]))
	}
	return synthX, synthY
}

func targetOrder(y []float64) []int {
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return y[order[a]] < y[order[b]] })
	return order
}

// ols fits y = b0 + Xb with a tiny ridge term so collinear or constant
// columns still solve.
func ols(X [][]float64, y []float64) ([]float64, error) {
	n, m := len(X), len(X[0])
	A := mat.NewDense(n, m+1, nil)
	for i, row := range X {
		A.Set(i, 0, 1)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, y)

	var ata mat.Dense
	ata.Mul(A.T(), A)
	for j := 1; j <= m; j++ {
		ata.Set(j, j, ata.At(j, j)+ridge)
	}
	var aty mat.VecDense
	aty.MulVec(A.T(), b)

	var beta mat.VecDense
	if err := beta.SolveVec(&ata, &aty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errors.Wrap(err, "least squares")
		}
	}
	return beta.RawVector().Data, nil
}

func predictLinear(beta []float64, x []float64) float64 {
	return beta[0] + floats.Dot(beta[1:], x)
}

// linearity: L1 mean absolute residual, L2 mean squared residual, L3 mean
// squared error on interpolated points.
func linearity(X [][]float64, y []float64, synthX [][]float64, synthY []float64) (float64, float64, float64, error) {
	beta, err := ols(X, y)
	if err != nil {
		return 0, 0, 0, err
	}
	var l1, l2 float64
	for i, row := range X {
		res := y[i] - predictLinear(beta, row)
		l1 += math.Abs(res)
		l2 += res * res
	}
	var l3 float64
	for i, row := range synthX {
		res := synthY[i] - predictLinear(beta, row)
		l3 += res * res
	}
	n := float64(len(X))
	return l1 / n, l2 / n, l3 / float64(len(synthX)), nil
}

// dimensionality: T2 features per row, T3 principal components covering 95%
// of the variance per row, T4 that component count per feature.
func dimensionality(X [][]float64) (float64, float64, float64) {
	n, m := len(X), len(X[0])
	t2 := float64(m) / float64(n)
	if m == 0 {
		return t2, 0, 0
	}

	A := mat.NewDense(n, m, nil)
	for i, row := range X {
		A.SetRow(i, row)
	}
	var pc stat.PC
	components := m
	if pc.PrincipalComponents(A, nil) {
		vars := pc.VarsTo(nil)
		total := floats.Sum(vars)
		if total > 0 {
			acc := 0.0
			for k, v := range vars {
				acc += v
				if acc/total >= 0.95 {
					components = k + 1
					break
				}
			}
		}
	}
	return t2, float64(components) / float64(n), float64(components) / float64(m)
}

// ranks assigns 1-based ranks, averaging ties.
func ranks(v []float64) []float64 {
	order := targetOrder(v)
	out := make([]float64, len(v))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && v[order[j+1]] == v[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[order[k]] = avg
		}
		i = j + 1
	}
	return out
}

func spearman(x, y []float64) float64 {
	rho := stat.Correlation(ranks(x), ranks(y), nil)
	if math.IsNaN(rho) {
		return 0
	}
	return rho
}

func column(X [][]float64, j int, rows []int) []float64 {
	out := make([]float64, len(rows))
	for k, i := range rows {
		out[k] = X[i][j]
	}
	return out
}

func pickY(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for k, i := range rows {
		out[k] = y[i]
	}
	return out
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// correlation: C1 max and C2 mean absolute Spearman correlation between a
// feature and the target, C3 the smallest fraction of rows whose removal lifts
// some feature's |rho| above 0.9, C4 the fraction of rows no single-feature
// linear fit explains within 0.1.
func correlation(X [][]float64, y []float64) (float64, float64, float64, float64) {
	n, m := len(X), len(X[0])
	if m == 0 {
		return 0, 0, 1, 1
	}
	rows := allRows(n)

	abs := make([]float64, m)
	for j := 0; j < m; j++ {
		abs[j] = math.Abs(spearman(column(X, j, rows), y))
	}
	c1, c2 := floats.Max(abs), stat.Mean(abs, nil)

	c3 := 1.0
	for j := 0; j < m; j++ {
		c3 = math.Min(c3, removalsToCorrelate(X, y, j)/float64(n))
	}
	return c1, c2, c3, collectiveEfficiency(X, y)
}

func removalsToCorrelate(X [][]float64, y []float64, j int) float64 {
	rows := allRows(len(X))
	removed := 0
	for len(rows) > 2 {
		x, yy := column(X, j, rows), pickY(y, rows)
		rho := spearman(x, yy)
		if math.Abs(rho) > 0.9 {
			break
		}
		rx, ry := ranks(x), ranks(yy)
		worst, worstDiff := 0, -1.0
		for k := range rows {
			other := ry[k]
			if rho < 0 {
				other = float64(len(rows)) + 1 - ry[k]
			}
			if d := math.Abs(rx[k] - other); d > worstDiff {
				worst, worstDiff = k, d
			}
		}
		rows = append(rows[:worst], rows[worst+1:]...)
		removed++
	}
	return float64(removed)
}

func collectiveEfficiency(X [][]float64, y []float64) float64 {
	n, m := len(X), len(X[0])
	rows := allRows(n)
	features := allRows(m)

	for len(features) > 0 && len(rows) > 1 {
		yy := pickY(y, rows)
		best, bestRho := 0, -1.0
		for k, j := range features {
			if rho := math.Abs(spearman(column(X, j, rows), yy)); rho > bestRho {
				best, bestRho = k, rho
			}
		}
		x := column(X, features[best], rows)
		alpha, beta := stat.LinearRegression(x, yy, nil, false)
		if math.IsNaN(beta) {
			alpha, beta = stat.Mean(yy, nil), 0
		}

		kept := rows[:0:0]
		for k, i := range rows {
			if math.Abs(yy[k]-(alpha+beta*x[k])) > 0.1 {
				kept = append(kept, i)
			}
		}
		rows = kept
		features = append(features[:best], features[best+1:]...)
	}
	return float64(len(rows)) / float64(n)
}

// smoothness: S1 mean target gap across the input-space minimum spanning
// tree, S2 mean input distance between target-adjacent rows, S3 leave-one-out
// 1-NN squared error, S4 1-NN squared error on interpolated points.
func smoothness(X [][]float64, y []float64, synthX [][]float64, synthY []float64) (float64, float64, float64, float64) {
	n := len(X)

	var s1 float64
	edges := mst(X)
	for _, e := range edges {
		s1 += math.Abs(y[e[0]] - y[e[1]])
	}
	if len(edges) > 0 {
		s1 /= float64(len(edges))
	}

	var s2 float64
	order := targetOrder(y)
	for k := 0; k+1 < n; k++ {
		s2 += floats.Distance(X[order[k]], X[order[k+1]], 2)
	}
	s2 /= float64(n - 1)

	index := models.NewNearestNeighbors(X, "euclidean")
	var s3 float64
	for i := range X {
		nn := index.Query(X[i], 1, i)[0].Index
		s3 += (y[i] - y[nn]) * (y[i] - y[nn])
	}
	s3 /= float64(n)

	var s4 float64
	for i, x := range synthX {
		nn := index.Query(x, 1, -1)[0].Index
		s4 += (synthY[i] - y[nn]) * (synthY[i] - y[nn])
	}
	s4 /= float64(len(synthX))

	return s1, s2, s3, s4
}

// mst returns the edges of a Euclidean minimum spanning tree (Prim's
// algorithm over the dense distance graph).
func mst(X [][]float64) [][2]int {
	n := len(X)
	if n < 2 {
		return nil
	}
	inTree := make([]bool, n)
	dist := make([]float64, n)
	parent := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	dist[0] = 0

	edges := make([][2]int, 0, n-1)
	for iter := 0; iter < n; iter++ {
		u := -1
		for i := 0; i < n; i++ {
			if !inTree[i] && (u < 0 || dist[i] < dist[u]) {
				u = i
			}
		}
		inTree[u] = true
		if parent[u] >= 0 {
			edges = append(edges, [2]int{parent[u], u})
		}
		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			if d := floats.Distance(X[u], X[v], 2); d < dist[v] {
				dist[v], parent[v] = d, u
			}
		}
	}
	return edges
}

package projection

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/clauselens/clauselens/internal/score"
)

// varianceFloor is the per-component variance below which an axis is treated
// as constant and zero-padded instead of projected.
const varianceFloor = 1e-12

// buildDistribution projects all scored clause embeddings onto the top three
// principal components. It never fails: with too few rows or rank-deficient
// data the available components are used and the rest zero-padded, with the
// Degenerate flag set so renderers can fall back to 2D.
func buildDistribution(scores []score.Score) Distribution {
	var usable []score.Score
	for _, s := range scores {
		if !s.Unknown && len(s.Embedding) > 0 {
			usable = append(usable, s)
		}
	}
	n := len(usable)
	if n == 0 {
		return Distribution{Points: []Point{}, Degenerate: true}
	}
	d := len(usable[0].Embedding)

	data := mat.NewDense(n, d, nil)
	for i, s := range usable {
		for j, v := range s.Embedding {
			data.Set(i, j, float64(v))
		}
	}

	components := 0
	var proj *mat.Dense
	if n >= 2 {
		var pc stat.PC
		if pc.PrincipalComponents(data, nil) {
			var vecs mat.Dense
			pc.VectorsTo(&vecs)
			vars := pc.VarsTo(nil)
			_, cols := vecs.Dims()
			avail := 3
			if cols < avail {
				avail = cols
			}
			if len(vars) < avail {
				avail = len(vars)
			}
			for components < avail && vars[components] > varianceFloor {
				components++
			}
			if components > 0 {
				proj = mat.NewDense(n, components, nil)
				proj.Mul(centered(data), vecs.Slice(0, d, 0, components))
			}
		}
	}

	points := make([]Point, n)
	for i, s := range usable {
		p := Point{ClauseIndex: s.ClauseIndex, Score: s.RawScore}
		if components > 0 {
			p.X = proj.At(i, 0)
		}
		if components > 1 {
			p.Y = proj.At(i, 1)
		}
		if components > 2 {
			p.Z = proj.At(i, 2)
		}
		points[i] = p
	}

	return Distribution{
		Points:     points,
		Degenerate: n < 4 || components < 3,
	}
}

// centered returns data with each column shifted to zero mean, so the
// projection matches the component basis computed from the covariance.
func centered(data *mat.Dense) *mat.Dense {
	n, d := data.Dims()
	out := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		m := floats.Sum(col) / float64(n)
		for i := 0; i < n; i++ {
			out.Set(i, j, data.At(i, j)-m)
		}
	}
	return out
}

package projection

import (
	"math"

	"github.com/clauselens/clauselens/internal/score"
)

// kernelFloor is the total kernel weight below which a cell is considered
// out of reach of every clause and falls back to the baseline.
const kernelFloor = 1e-9

// buildMesh rasterizes clause scores into a Rows x Cols density grid.
//
// Each scored clause becomes a point at (x = normalized document position,
// y = raw score), both in cell units, and every cell takes the
// Gaussian-weighted mean of clause scores around its center. Cells too far
// from any clause carry the overall score as baseline, so the grid never
// contains an undefined value.
func buildMesh(scores []score.Score, overall float64, cfg Config) Mesh {
	rows, cols := cfg.MeshRows, cfg.MeshCols
	h := cfg.MeshBandwidth

	type pt struct {
		x, y, score float64
	}
	var pts []pt
	n := len(scores)
	for _, s := range scores {
		if s.Unknown {
			continue
		}
		pts = append(pts, pt{
			x:     (float64(s.ClauseIndex) + 0.5) / float64(n) * float64(cols),
			y:     s.RawScore * float64(rows),
			score: s.RawScore,
		})
	}

	inv := 1.0 / (2 * h * h)
	cells := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		cells[r] = make([]float64, cols)
		cy := float64(r) + 0.5
		for c := 0; c < cols; c++ {
			cx := float64(c) + 0.5
			var wsum, vsum float64
			for _, p := range pts {
				dx := p.x - cx
				dy := p.y - cy
				w := math.Exp(-(dx*dx + dy*dy) * inv)
				wsum += w
				vsum += w * p.score
			}
			if wsum < kernelFloor {
				cells[r][c] = overall
				continue
			}
			cells[r][c] = vsum / wsum
		}
	}

	return Mesh{Rows: rows, Cols: cols, Bandwidth: h, Cells: cells}
}

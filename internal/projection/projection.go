package projection

import (
	"github.com/clauselens/clauselens/internal/score"
)

// Build derives all three projections from the complete, clause-ordered score
// set. overall is the document's overall risk score, used as the mesh
// baseline for cells with no nearby clause.
//
// Build never fails on small or degenerate inputs; the distribution is
// flagged instead.
func Build(scores []score.Score, overall float64, cfg Config) Set {
	if cfg.MeshRows <= 0 {
		cfg.MeshRows = DefaultConfig().MeshRows
	}
	if cfg.MeshCols <= 0 {
		cfg.MeshCols = DefaultConfig().MeshCols
	}
	if cfg.MeshBandwidth <= 0 {
		cfg.MeshBandwidth = DefaultConfig().MeshBandwidth
	}
	return Set{
		Distribution: buildDistribution(scores),
		Matrix:       buildMatrix(scores),
		Mesh:         buildMesh(scores, overall, cfg),
	}
}

func buildMatrix(scores []score.Score) Matrix {
	out := make(Matrix, len(scores))
	for i, s := range scores {
		if s.Unknown {
			continue
		}
		out[i] = s.RawScore
	}
	return out
}

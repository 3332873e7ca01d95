// Package projection derives the three visual artifacts of an analysis from
// the full set of clause scores: a PCA distribution, a clause-ordered matrix
// strip, and a smoothed risk density mesh.
package projection

// Point is one clause positioned in the reduced 3-dimensional semantic space.
type Point struct {
	ClauseIndex int     `json:"clause_index"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Score       float64 `json:"score"`
}

// Distribution is the PCA projection of all scored clause embeddings onto the
// top three variance-maximizing axes. Unknown clauses have no embedding and
// carry no point.
//
// Degenerate means fewer than three real components were available (too few
// clauses or linearly dependent embeddings); missing axes are zero-padded and
// renderers should skip 3D display.
type Distribution struct {
	Points     []Point `json:"points"`
	Degenerate bool    `json:"degenerate"`
}

// Matrix is the clause-ordered raw score sequence, a 1-D heatmap strip.
// Unknown clauses contribute 0.0 at their position.
type Matrix []float64

// Mesh is a fixed-resolution grid of smoothed risk density values.
// Every cell holds a finite number; cells with no nearby clause carry the
// document's overall risk score as baseline.
type Mesh struct {
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	Bandwidth float64     `json:"bandwidth"`
	Cells     [][]float64 `json:"cells"`
}

// Set bundles the three independent projections of one analysis.
type Set struct {
	Distribution Distribution `json:"distribution"`
	Matrix       Matrix       `json:"matrix"`
	Mesh         Mesh         `json:"mesh"`
}

// Config holds the projection parameters. Defaults: 20x20 mesh, bandwidth 2.5
// cells.
type Config struct {
	MeshRows      int
	MeshCols      int
	MeshBandwidth float64
}

// DefaultConfig returns the documented projection defaults.
func DefaultConfig() Config {
	return Config{MeshRows: 20, MeshCols: 20, MeshBandwidth: 2.5}
}

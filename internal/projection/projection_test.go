package projection

import (
	"math"
	"testing"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/score"
)

func mkScore(i int, raw float64, emb []float32) score.Score {
	return score.Score{
		ClauseIndex: i,
		Embedding:   emb,
		RawScore:    raw,
		Category:    catalog.Medium,
	}
}

func TestBuildMatrix_ClauseOrder(t *testing.T) {
	scores := []score.Score{
		mkScore(0, 0.2, []float32{1, 0, 0, 0}),
		{ClauseIndex: 1, Unknown: true, NearestPattern: -1},
		mkScore(2, 0.9, []float32{0, 1, 0, 0}),
	}
	set := Build(scores, 0.5, DefaultConfig())
	want := Matrix{0.2, 0, 0.9}
	if len(set.Matrix) != len(want) {
		t.Fatalf("matrix length = %d, want %d", len(set.Matrix), len(want))
	}
	for i := range want {
		if set.Matrix[i] != want[i] {
			t.Fatalf("matrix[%d] = %v, want %v", i, set.Matrix[i], want[i])
		}
	}
}

func TestDistribution_DegenerateForSmallN(t *testing.T) {
	for n := 0; n < 4; n++ {
		var scores []score.Score
		for i := 0; i < n; i++ {
			scores = append(scores, mkScore(i, 0.5, []float32{float32(i), 1, 0, 0}))
		}
		set := Build(scores, 0.5, DefaultConfig())
		if !set.Distribution.Degenerate {
			t.Fatalf("n=%d: distribution not flagged degenerate", n)
		}
		if len(set.Distribution.Points) != n {
			t.Fatalf("n=%d: got %d points", n, len(set.Distribution.Points))
		}
		for _, p := range set.Distribution.Points {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
				t.Fatalf("n=%d: NaN coordinate in degenerate distribution", n)
			}
		}
	}
}

func TestDistribution_DegenerateForConstantEmbeddings(t *testing.T) {
	var scores []score.Score
	for i := 0; i < 6; i++ {
		scores = append(scores, mkScore(i, 0.5, []float32{1, 2, 3, 4}))
	}
	set := Build(scores, 0.5, DefaultConfig())
	if !set.Distribution.Degenerate {
		t.Fatal("constant embeddings not flagged degenerate")
	}
	for _, p := range set.Distribution.Points {
		if p.X != 0 || p.Y != 0 || p.Z != 0 {
			t.Fatalf("zero-variance axes should be zero-padded, got %+v", p)
		}
	}
}

func TestDistribution_FullRank(t *testing.T) {
	embs := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{1, 1, 0, 0},
		{0, 1, 1, 0},
	}
	var scores []score.Score
	for i, e := range embs {
		scores = append(scores, mkScore(i, float64(i)/10, e))
	}
	set := Build(scores, 0.5, DefaultConfig())
	if set.Distribution.Degenerate {
		t.Fatal("full-rank distribution flagged degenerate")
	}
	if len(set.Distribution.Points) != 5 {
		t.Fatalf("got %d points, want 5", len(set.Distribution.Points))
	}
	anyNonZero := false
	for i, p := range set.Distribution.Points {
		if p.ClauseIndex != i {
			t.Fatalf("point %d has clause index %d", i, p.ClauseIndex)
		}
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			t.Fatal("NaN coordinate")
		}
		if p.X != 0 || p.Y != 0 || p.Z != 0 {
			anyNonZero = true
		}
	}
	if !anyNonZero {
		t.Fatal("projection collapsed everything to the origin")
	}
}

func TestDistribution_SkipsUnknownClauses(t *testing.T) {
	scores := []score.Score{
		mkScore(0, 0.2, []float32{1, 0, 0, 0}),
		{ClauseIndex: 1, Unknown: true, NearestPattern: -1},
		mkScore(2, 0.4, []float32{0, 1, 0, 0}),
	}
	set := Build(scores, 0.3, DefaultConfig())
	if len(set.Distribution.Points) != 2 {
		t.Fatalf("got %d points, want 2 (unknown clause skipped)", len(set.Distribution.Points))
	}
	if set.Distribution.Points[1].ClauseIndex != 2 {
		t.Fatalf("point keeps clause index: got %d, want 2", set.Distribution.Points[1].ClauseIndex)
	}
}

func TestMesh_AllCellsFinite(t *testing.T) {
	scores := []score.Score{
		mkScore(0, 0.1, []float32{1, 0, 0, 0}),
		mkScore(1, 0.9, []float32{0, 1, 0, 0}),
		mkScore(2, 0.5, []float32{0, 0, 1, 0}),
	}
	set := Build(scores, 0.42, DefaultConfig())
	m := set.Mesh
	if m.Rows != 20 || m.Cols != 20 {
		t.Fatalf("mesh is %dx%d, want 20x20", m.Rows, m.Cols)
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			v := m.Cells[r][c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("cell (%d,%d) is not finite: %v", r, c, v)
			}
		}
	}
}

func TestMesh_BaselineWhenNothingScored(t *testing.T) {
	scores := []score.Score{
		{ClauseIndex: 0, Unknown: true, NearestPattern: -1},
		{ClauseIndex: 1, Unknown: true, NearestPattern: -1},
	}
	set := Build(scores, 0.37, Config{MeshRows: 4, MeshCols: 4, MeshBandwidth: 1})
	for r := range set.Mesh.Cells {
		for c := range set.Mesh.Cells[r] {
			if set.Mesh.Cells[r][c] != 0.37 {
				t.Fatalf("cell (%d,%d) = %v, want baseline 0.37", r, c, set.Mesh.Cells[r][c])
			}
		}
	}
}

func TestMesh_HotspotNearHighScore(t *testing.T) {
	// One clause with a high score: density near its position must exceed the
	// far corner's baseline pull.
	scores := []score.Score{mkScore(0, 0.95, []float32{1, 0, 0, 0})}
	set := Build(scores, 0.95, Config{MeshRows: 10, MeshCols: 10, MeshBandwidth: 1.5})
	// Clause sits at x=5, y=9.5 in cell units.
	hot := set.Mesh.Cells[9][5]
	if math.Abs(hot-0.95) > 1e-6 {
		t.Fatalf("hotspot cell = %v, want ~0.95", hot)
	}
}

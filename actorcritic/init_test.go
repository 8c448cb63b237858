package actorcritic

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestBoundFormula(t *testing.T) {
	tests := []struct {
		formula       BoundFormula
		fanIn, fanOut int
		want          float64
	}{
		// conv1 of a single-channel network: fanIn 1*3*3, fanOut 3*3*32.
		{BoundGlorot, 9, 288, math.Sqrt(6.0 / 297)},
		{BoundLegacy, 9, 288, math.Sqrt(6.0/9 + 288)},
		// actor head of a six-action network.
		{BoundGlorot, 256, 6, math.Sqrt(6.0 / 262)},
		{BoundLegacy, 256, 6, math.Sqrt(6.0/256 + 6)},
	}
	for _, tt := range tests {
		if got := tt.formula.Bound(tt.fanIn, tt.fanOut); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("%s.Bound(%d, %d) = %v, want %v", tt.formula, tt.fanIn, tt.fanOut, got, tt.want)
		}
	}
}

func TestParseBoundFormula(t *testing.T) {
	for s, want := range map[string]BoundFormula{"": BoundGlorot, "glorot": BoundGlorot, "Legacy": BoundLegacy} {
		got, err := ParseBoundFormula(s)
		if err != nil || got != want {
			t.Fatalf("ParseBoundFormula(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseBoundFormula("xavier"); err == nil {
		t.Fatal("expected error for unknown formula")
	}
}

func TestConvWeightsFollowBound(t *testing.T) {
	for _, formula := range []BoundFormula{BoundGlorot, BoundLegacy} {
		m := newTestModel(t, 1, 6, WithBound(formula))
		for i := 0; i < ConvLayers; i++ {
			c := m.Conv(i)
			bound := formula.Bound(c.FanIn(), c.FanOut())
			w := c.Weight.RawMatrix().Data
			maxAbs := math.Max(floats.Max(w), -floats.Min(w))
			if maxAbs > bound {
				t.Fatalf("%s conv%d: |w| reaches %v beyond bound %v", formula, i+1, maxAbs, bound)
			}
			if maxAbs < bound/2 {
				t.Fatalf("%s conv%d: |w| peaks at %v, expected draws across ±%v", formula, i+1, maxAbs, bound)
			}
		}
	}
}

func TestLegacyBoundIsWider(t *testing.T) {
	glorot := newTestModel(t, 1, 6)
	legacy := newTestModel(t, 1, 6, WithBound(BoundLegacy))
	g := glorot.Conv(1).Weight.RawMatrix().Data
	l := legacy.Conv(1).Weight.RawMatrix().Data
	if floats.Norm(l, math.Inf(1)) < 10*floats.Norm(g, math.Inf(1)) {
		t.Fatal("legacy bound should produce much wider conv weights")
	}
}

func TestHeadRowsAreNormalized(t *testing.T) {
	for _, formula := range []BoundFormula{BoundGlorot, BoundLegacy} {
		m := newTestModel(t, 1, 6, WithBound(formula))
		checkRowSumSquares(t, "critic", m.Critic().Weight, criticStd*criticStd)
		checkRowSumSquares(t, "actor", m.Actor().Weight, actorStd*actorStd)
	}
}

func checkRowSumSquares(t *testing.T, name string, w *mat.Dense, want float64) {
	t.Helper()
	rows, _ := w.Dims()
	for r := 0; r < rows; r++ {
		row := w.RawRowView(r)
		if got := floats.Dot(row, row); math.Abs(got-want) > 1e-9*math.Max(1, want) {
			t.Fatalf("%s row %d sum of squares = %v, want %v", name, r, got, want)
		}
	}
}

func TestBiasesStartAtZero(t *testing.T) {
	m := newTestModel(t, 2, 6)
	for _, p := range m.Parameters() {
		if len(p.Shape) != 1 {
			continue
		}
		for _, v := range p.Data {
			if v != 0 {
				t.Fatalf("%s holds %v after construction", p.Name, v)
			}
		}
	}
}

func TestLSTMWeightsKeepDefaultRange(t *testing.T) {
	m := newTestModel(t, 1, 6, WithBound(BoundLegacy))
	bound := 1 / math.Sqrt(HiddenSize)
	for _, w := range []*mat.Dense{m.LSTM().WeightIH, m.LSTM().WeightHH} {
		if got := mat.Norm(w, math.Inf(1)); got == 0 {
			t.Fatal("lstm weights were zeroed")
		}
		data := w.RawMatrix().Data
		if floats.Max(data) > bound || floats.Min(data) < -bound {
			t.Fatalf("lstm weights escaped ±%v", bound)
		}
	}
}

func TestSeedReproducesParameters(t *testing.T) {
	a := newTestModel(t, 1, 6, WithSeed(99))
	b := newTestModel(t, 1, 6, WithSeed(99))
	c := newTestModel(t, 1, 6, WithSeed(100))
	pa, pb, pc := snapshot(a), snapshot(b), snapshot(c)
	for name := range pa {
		if !floats.Equal(pa[name], pb[name]) {
			t.Fatalf("%s differs for identical seeds", name)
		}
	}
	if floats.Equal(pa["conv1.weight"], pc["conv1.weight"]) {
		t.Fatal("different seeds produced identical weights")
	}
}

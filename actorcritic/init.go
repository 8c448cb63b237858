package actorcritic

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	actorStd  = 0.01
	criticStd = 1.0
)

// BoundFormula selects how the uniform bound of the generic initialization
// pass is computed from a layer's fan-in and fan-out.
type BoundFormula int

const (
	// BoundGlorot is sqrt(6 / (fanIn + fanOut)).
	BoundGlorot BoundFormula = iota
	// BoundLegacy is sqrt(6/fanIn + fanOut). It reproduces weights trained
	// with the unparenthesized formula and gives very wide bounds.
	BoundLegacy
)

// Bound returns the half-width of the uniform draw.
func (f BoundFormula) Bound(fanIn, fanOut int) float64 {
	if f == BoundLegacy {
		return math.Sqrt(6/float64(fanIn) + float64(fanOut))
	}
	return math.Sqrt(6 / float64(fanIn+fanOut))
}

func (f BoundFormula) String() string {
	if f == BoundLegacy {
		return "legacy"
	}
	return "glorot"
}

// ParseBoundFormula accepts "glorot" or "legacy".
func ParseBoundFormula(s string) (BoundFormula, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "glorot":
		return BoundGlorot, nil
	case "legacy":
		return BoundLegacy, nil
	}
	return BoundGlorot, errors.Errorf("unknown bound formula %q", s)
}

type initializer struct {
	bound BoundFormula
	src   rand.Source
}

// defaults mimics the stock layer initialization every layer gets before
// the custom passes run: U(-1/sqrt(fanIn), 1/sqrt(fanIn)) for weights and
// biases, with the LSTM using its hidden size as the fan-in.
func (in *initializer) defaults(m *Model) {
	for _, l := range m.Layers() {
		switch l := l.(type) {
		case *Conv2d:
			b := 1 / math.Sqrt(float64(l.FanIn()))
			in.uniform(l.Weight.RawMatrix().Data, b)
			in.uniform(l.Bias.RawVector().Data, b)
		case *Linear:
			b := 1 / math.Sqrt(float64(l.FanIn()))
			in.uniform(l.Weight.RawMatrix().Data, b)
			in.uniform(l.Bias.RawVector().Data, b)
		case *LSTMCell:
			b := 1 / math.Sqrt(float64(l.HiddenSize))
			in.uniform(l.WeightIH.RawMatrix().Data, b)
			in.uniform(l.WeightHH.RawMatrix().Data, b)
			in.uniform(l.BiasIH.RawVector().Data, b)
			in.uniform(l.BiasHH.RawVector().Data, b)
		}
	}
}

func (in *initializer) apply(m *Model) {
	for _, l := range m.Layers() {
		in.generic(l)
	}

	in.normalizedColumns(m.actor.Weight, actorStd)
	m.actor.Bias.Zero()
	in.normalizedColumns(m.critic.Weight, criticStd)
	m.critic.Bias.Zero()

	m.lstm.BiasIH.Zero()
	m.lstm.BiasHH.Zero()
}

// generic leaves recurrent cells and parameterless layers alone.
func (in *initializer) generic(l Layer) {
	switch l := l.(type) {
	case *Conv2d:
		in.uniform(l.Weight.RawMatrix().Data, in.bound.Bound(l.FanIn(), l.FanOut()))
		l.Bias.Zero()
	case *Linear:
		in.uniform(l.Weight.RawMatrix().Data, in.bound.Bound(l.FanIn(), l.FanOut()))
		l.Bias.Zero()
	case *LSTMCell, ELU:
	}
}

func (in *initializer) uniform(dst []float64, bound float64) {
	u := distuv.Uniform{Min: -bound, Max: bound, Src: in.src}
	for i := range dst {
		dst[i] = u.Rand()
	}
}

// normalizedColumns draws w from N(0,1) and rescales every output row to
// an L2 norm of std.
func (in *initializer) normalizedColumns(w *mat.Dense, std float64) {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: in.src}
	rows, _ := w.Dims()
	for r := 0; r < rows; r++ {
		row := w.RawRowView(r)
		for j := range row {
			row[j] = n.Rand()
		}
		floats.Scale(std/floats.Norm(row, 2), row)
	}
}

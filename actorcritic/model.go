// Package actorcritic implements the A3C actor-critic network: four strided
// convolutions, an LSTM cell and separate value and policy heads.
//
// The recurrent state is never stored on the model. Callers pass the
// previous State into Forward and keep the one that comes back.
package actorcritic

import (
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	Channels   = 32
	Kernel     = 3
	Stride     = 2
	Padding    = 1
	ConvLayers = 4

	// FeatureSize is the flattened size of the last convolution:
	// 32 channels on a 3×3 grid.
	FeatureSize = Channels * 3 * 3
	HiddenSize  = 256
)

// ErrShapeMismatch is returned by Forward when the observation or the
// recurrent state does not fit the network.
var ErrShapeMismatch = errors.New("shape mismatch")

// ActionSpace describes a discrete action set.
type ActionSpace interface {
	N() int
}

// Discrete is an ActionSpace of n actions.
type Discrete int

func (d Discrete) N() int { return int(d) }

// Batch holds N observations in NCHW order.
type Batch struct {
	N        int
	Channels int
	Height   int
	Width    int
	Data     []float64
}

// NewBatch allocates a zeroed batch.
func NewBatch(n, channels, height, width int) Batch {
	return Batch{
		N:        n,
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     make([]float64, n*channels*height*width),
	}
}

// Sample returns the data of observation i.
func (b Batch) Sample(i int) []float64 {
	size := b.Channels * b.Height * b.Width
	return b.Data[i*size : (i+1)*size]
}

// State is the LSTM hidden and cell pair, each (batch, HiddenSize).
type State struct {
	Hidden *mat.Dense
	Cell   *mat.Dense
}

// ZeroState returns the initial recurrent state for a batch.
func ZeroState(batch int) State {
	return State{
		Hidden: mat.NewDense(batch, HiddenSize, nil),
		Cell:   mat.NewDense(batch, HiddenSize, nil),
	}
}

// Output is the result of one Forward step.
type Output struct {
	Value  *mat.Dense // (batch, 1)
	Policy *mat.Dense // (batch, actions) raw logits
	State  State
}

type options struct {
	bound  BoundFormula
	seed   uint64
	seeded bool
}

// Option configures New.
type Option func(*options)

// WithBound selects the uniform bound formula used by the initializer.
func WithBound(f BoundFormula) Option {
	return func(o *options) { o.bound = f }
}

// WithSeed makes initialization reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// Model is the actor-critic network. Forward does not mutate it, so one
// Model can serve concurrent callers while nobody updates its parameters.
type Model struct {
	numInputs int
	actions   int
	conv      [ConvLayers]*Conv2d
	elu       ELU
	lstm      *LSTMCell
	critic    *Linear
	actor     *Linear
	training  bool
}

// New builds and initializes a network for observations with numInputs
// channels and the given action space.
func New(numInputs int, space ActionSpace, opts ...Option) (*Model, error) {
	o := options{bound: BoundGlorot}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = uint64(time.Now().UnixNano())
	}

	actions := space.N()
	if numInputs <= 0 || actions <= 0 {
		return nil, errors.Errorf("cannot allocate network with %d inputs and %d actions", numInputs, actions)
	}

	m := &Model{
		numInputs: numInputs,
		actions:   actions,
		elu:       ELU{Alpha: 1},
		lstm:      newLSTMCell(FeatureSize, HiddenSize),
		critic:    newLinear(HiddenSize, 1),
		actor:     newLinear(HiddenSize, actions),
	}
	in := numInputs
	for i := range m.conv {
		m.conv[i] = newConv2d(in, Channels, Kernel, Stride, Padding)
		in = Channels
	}

	ini := &initializer{bound: o.bound, src: rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)}
	ini.defaults(m)
	ini.apply(m)
	m.Train()

	return m, nil
}

// Layers returns the sub-layers in evaluation order.
func (m *Model) Layers() []Layer {
	layers := make([]Layer, 0, 2*ConvLayers+3)
	for _, c := range m.conv {
		layers = append(layers, c, m.elu)
	}
	return append(layers, m.lstm, m.critic, m.actor)
}

func (m *Model) NumInputs() int   { return m.numInputs }
func (m *Model) ActionCount() int { return m.actions }

func (m *Model) Train()         { m.training = true }
func (m *Model) Eval()          { m.training = false }
func (m *Model) Training() bool { return m.training }

// Conv returns convolution i, 0-based.
func (m *Model) Conv(i int) *Conv2d { return m.conv[i] }
func (m *Model) LSTM() *LSTMCell    { return m.lstm }
func (m *Model) Critic() *Linear    { return m.critic }
func (m *Model) Actor() *Linear     { return m.actor }

// Forward runs one step of the network.
func (m *Model) Forward(obs Batch, st State) (Output, error) {
	if err := m.check(obs, st); err != nil {
		return Output{}, err
	}

	x := mat.NewDense(obs.N, FeatureSize, nil)
	for n := 0; n < obs.N; n++ {
		fm := mat.NewDense(obs.Channels, obs.Height*obs.Width, obs.Sample(n))
		h, w := obs.Height, obs.Width
		for _, c := range m.conv {
			fm, h, w = c.forward(fm, h, w)
			m.elu.apply(fm)
		}
		if size := Channels * h * w; size != FeatureSize {
			return Output{}, errors.Wrapf(ErrShapeMismatch,
				"%dx%d input flattens to %d (%dx%dx%d), want %d",
				obs.Height, obs.Width, size, Channels, h, w, FeatureSize)
		}
		x.SetRow(n, fm.RawMatrix().Data)
	}

	hx, cx := m.lstm.forward(x, st.Hidden, st.Cell)
	return Output{
		Value:  m.critic.forward(hx),
		Policy: m.actor.forward(hx),
		State:  State{Hidden: hx, Cell: cx},
	}, nil
}

func (m *Model) check(obs Batch, st State) error {
	if obs.N <= 0 || obs.Height <= 0 || obs.Width <= 0 {
		return errors.Wrapf(ErrShapeMismatch, "empty observation %dx%dx%dx%d", obs.N, obs.Channels, obs.Height, obs.Width)
	}
	if obs.Channels != m.numInputs {
		return errors.Wrapf(ErrShapeMismatch, "observation has %d channels, want %d", obs.Channels, m.numInputs)
	}
	if want := obs.N * obs.Channels * obs.Height * obs.Width; len(obs.Data) != want {
		return errors.Wrapf(ErrShapeMismatch, "observation holds %d values, want %d", len(obs.Data), want)
	}
	for _, s := range []struct {
		name string
		v    *mat.Dense
	}{{"hidden", st.Hidden}, {"cell", st.Cell}} {
		name, v := s.name, s.v
		if v == nil {
			return errors.Wrapf(ErrShapeMismatch, "%s state is nil", name)
		}
		if r, c := v.Dims(); r != obs.N || c != HiddenSize {
			return errors.Wrapf(ErrShapeMismatch, "%s state is %dx%d, want %dx%d", name, r, c, obs.N, HiddenSize)
		}
	}
	return nil
}

// Clone returns a model with its own copy of every parameter.
func (m *Model) Clone() *Model {
	cp := &Model{
		numInputs: m.numInputs,
		actions:   m.actions,
		elu:       m.elu,
		lstm:      m.lstm.clone(),
		critic:    m.critic.clone(),
		actor:     m.actor.clone(),
		training:  m.training,
	}
	for i, c := range m.conv {
		cp.conv[i] = c.clone()
	}
	return cp
}

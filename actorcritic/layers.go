package actorcritic

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Kind classifies a layer for weight initialization.
type Kind int

const (
	KindOther Kind = iota
	KindConvolution
	KindLinear
	KindRecurrent
)

func (k Kind) String() string {
	switch k {
	case KindConvolution:
		return "convolution"
	case KindLinear:
		return "linear"
	case KindRecurrent:
		return "recurrent"
	default:
		return "other"
	}
}

// Layer is one of *Conv2d, *Linear, *LSTMCell or ELU. The set is closed.
type Layer interface {
	Kind() Kind
	layer()
}

// Conv2d is a square-kernel 2D convolution. Weight is laid out as
// (out, in*k*k) so a whole sample is one matrix product over its im2col
// expansion.
type Conv2d struct {
	InChannels  int
	OutChannels int
	Kernel      int
	Stride      int
	Padding     int
	Weight      *mat.Dense
	Bias        *mat.VecDense
}

func newConv2d(in, out, kernel, stride, padding int) *Conv2d {
	return &Conv2d{
		InChannels:  in,
		OutChannels: out,
		Kernel:      kernel,
		Stride:      stride,
		Padding:     padding,
		Weight:      mat.NewDense(out, in*kernel*kernel, nil),
		Bias:        mat.NewVecDense(out, nil),
	}
}

func (c *Conv2d) Kind() Kind { return KindConvolution }
func (c *Conv2d) layer()     {}

// OutputSize returns the spatial size produced for an h×w input.
func (c *Conv2d) OutputSize(h, w int) (int, int) {
	return (h+2*c.Padding-c.Kernel)/c.Stride + 1, (w+2*c.Padding-c.Kernel)/c.Stride + 1
}

// FanIn and FanOut follow the receptive field convention:
// in*kh*kw and kh*kw*out.
func (c *Conv2d) FanIn() int  { return c.InChannels * c.Kernel * c.Kernel }
func (c *Conv2d) FanOut() int { return c.Kernel * c.Kernel * c.OutChannels }

// forward convolves one sample held as (channels, h*w).
func (c *Conv2d) forward(x *mat.Dense, h, w int) (*mat.Dense, int, int) {
	oh, ow := c.OutputSize(h, w)
	k := c.Kernel
	cols := mat.NewDense(c.InChannels*k*k, oh*ow, nil)
	for ch := 0; ch < c.InChannels; ch++ {
		src := x.RawRowView(ch)
		for ky := 0; ky < k; ky++ {
			for kx := 0; kx < k; kx++ {
				row := cols.RawRowView((ch*k+ky)*k + kx)
				for oy := 0; oy < oh; oy++ {
					iy := oy*c.Stride - c.Padding + ky
					if iy < 0 || iy >= h {
						continue
					}
					for ox := 0; ox < ow; ox++ {
						ix := ox*c.Stride - c.Padding + kx
						if ix < 0 || ix >= w {
							continue
						}
						row[oy*ow+ox] = src[iy*w+ix]
					}
				}
			}
		}
	}

	out := mat.NewDense(c.OutChannels, oh*ow, nil)
	out.Mul(c.Weight, cols)
	for o := 0; o < c.OutChannels; o++ {
		b := c.Bias.AtVec(o)
		row := out.RawRowView(o)
		for i := range row {
			row[i] += b
		}
	}
	return out, oh, ow
}

func (c *Conv2d) clone() *Conv2d {
	cp := *c
	cp.Weight = mat.DenseCopyOf(c.Weight)
	cp.Bias = mat.VecDenseCopyOf(c.Bias)
	return &cp
}

// Linear is an affine map y = x·Wᵀ + b with W shaped (out, in).
type Linear struct {
	In     int
	Out    int
	Weight *mat.Dense
	Bias   *mat.VecDense
}

func newLinear(in, out int) *Linear {
	return &Linear{
		In:     in,
		Out:    out,
		Weight: mat.NewDense(out, in, nil),
		Bias:   mat.NewVecDense(out, nil),
	}
}

func (l *Linear) Kind() Kind { return KindLinear }
func (l *Linear) layer()     {}

func (l *Linear) FanIn() int  { return l.In }
func (l *Linear) FanOut() int { return l.Out }

func (l *Linear) forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	y := mat.NewDense(rows, l.Out, nil)
	y.Mul(x, l.Weight.T())
	addBias(y, l.Bias)
	return y
}

func (l *Linear) clone() *Linear {
	cp := *l
	cp.Weight = mat.DenseCopyOf(l.Weight)
	cp.Bias = mat.VecDenseCopyOf(l.Bias)
	return &cp
}

// LSTMCell is a single-step LSTM. Gate rows are stacked in i, f, g, o order.
type LSTMCell struct {
	InputSize  int
	HiddenSize int
	WeightIH   *mat.Dense // (4*hidden, input)
	WeightHH   *mat.Dense // (4*hidden, hidden)
	BiasIH     *mat.VecDense
	BiasHH     *mat.VecDense
}

func newLSTMCell(input, hidden int) *LSTMCell {
	return &LSTMCell{
		InputSize:  input,
		HiddenSize: hidden,
		WeightIH:   mat.NewDense(4*hidden, input, nil),
		WeightHH:   mat.NewDense(4*hidden, hidden, nil),
		BiasIH:     mat.NewVecDense(4*hidden, nil),
		BiasHH:     mat.NewVecDense(4*hidden, nil),
	}
}

func (l *LSTMCell) Kind() Kind { return KindRecurrent }
func (l *LSTMCell) layer()     {}

func (l *LSTMCell) forward(x, hx, cx *mat.Dense) (*mat.Dense, *mat.Dense) {
	rows, _ := x.Dims()
	hs := l.HiddenSize

	gates := mat.NewDense(rows, 4*hs, nil)
	gates.Mul(x, l.WeightIH.T())
	var rec mat.Dense
	rec.Mul(hx, l.WeightHH.T())
	gates.Add(gates, &rec)
	addBias(gates, l.BiasIH)
	addBias(gates, l.BiasHH)

	h := mat.NewDense(rows, hs, nil)
	c := mat.NewDense(rows, hs, nil)
	for r := 0; r < rows; r++ {
		g := gates.RawRowView(r)
		prev := cx.RawRowView(r)
		hrow := h.RawRowView(r)
		crow := c.RawRowView(r)
		for j := 0; j < hs; j++ {
			in := sigmoid(g[j])
			forget := sigmoid(g[hs+j])
			cell := math.Tanh(g[2*hs+j])
			out := sigmoid(g[3*hs+j])
			crow[j] = forget*prev[j] + in*cell
			hrow[j] = out * math.Tanh(crow[j])
		}
	}
	return h, c
}

func (l *LSTMCell) clone() *LSTMCell {
	cp := *l
	cp.WeightIH = mat.DenseCopyOf(l.WeightIH)
	cp.WeightHH = mat.DenseCopyOf(l.WeightHH)
	cp.BiasIH = mat.VecDenseCopyOf(l.BiasIH)
	cp.BiasHH = mat.VecDenseCopyOf(l.BiasHH)
	return &cp
}

// ELU is the exponential linear unit. It carries no parameters.
type ELU struct {
	Alpha float64
}

func (ELU) Kind() Kind { return KindOther }
func (ELU) layer()     {}

func (e ELU) apply(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return e.Alpha * math.Expm1(v)
	}, m)
}

func addBias(m *mat.Dense, b *mat.VecDense) {
	rows, _ := m.Dims()
	bias := b.RawVector().Data
	for r := 0; r < rows; r++ {
		row := m.RawRowView(r)
		for j := range row {
			row[j] += bias[j]
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

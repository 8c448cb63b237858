package actorcritic

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Param is a named view over one parameter tensor. Data aliases the
// model's storage.
type Param struct {
	Name  string
	Shape []int
	Data  []float64
}

// Size is the number of elements the shape describes.
func (p Param) Size() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

// Parameters lists every parameter tensor using state-dict style names.
func (m *Model) Parameters() []Param {
	var ps []Param
	for i, c := range m.conv {
		name := fmt.Sprintf("conv%d", i+1)
		ps = append(ps,
			Param{name + ".weight", []int{c.OutChannels, c.InChannels, c.Kernel, c.Kernel}, c.Weight.RawMatrix().Data},
			vecParam(name+".bias", c.Bias),
		)
	}
	ps = append(ps,
		denseParam("lstm.weight_ih", m.lstm.WeightIH),
		denseParam("lstm.weight_hh", m.lstm.WeightHH),
		vecParam("lstm.bias_ih", m.lstm.BiasIH),
		vecParam("lstm.bias_hh", m.lstm.BiasHH),
		denseParam("critic_linear.weight", m.critic.Weight),
		vecParam("critic_linear.bias", m.critic.Bias),
		denseParam("actor_linear.weight", m.actor.Weight),
		vecParam("actor_linear.bias", m.actor.Bias),
	)
	return ps
}

// LoadParameters copies values into the model. Every parameter must be
// present with a matching shape; nothing is written unless all of them are.
func (m *Model) LoadParameters(params []Param) error {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	dst := m.Parameters()
	for _, d := range dst {
		p, ok := byName[d.Name]
		if !ok {
			return errors.Errorf("missing parameter %s", d.Name)
		}
		if !sameShape(p.Shape, d.Shape) || len(p.Data) != len(d.Data) {
			return errors.Wrapf(ErrShapeMismatch, "parameter %s is %v, want %v", d.Name, p.Shape, d.Shape)
		}
	}
	for _, d := range dst {
		copy(d.Data, byName[d.Name].Data)
	}
	return nil
}

func denseParam(name string, d *mat.Dense) Param {
	r, c := d.Dims()
	return Param{Name: name, Shape: []int{r, c}, Data: d.RawMatrix().Data}
}

func vecParam(name string, v *mat.VecDense) Param {
	return Param{Name: name, Shape: []int{v.Len()}, Data: v.RawVector().Data}
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

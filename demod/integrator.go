package demod

import (
	"errors"

	"github.com/jrwynneiii/portarx/baseband"
)

const MaxIntegratorLength = 32

var ErrIntegratorLength = errors.New("integrator length must be between 1 and 32")

// Integrator is a complex boxcar (moving sum) over the last length samples.
type Integrator struct {
	delay  [MaxIntegratorLength]baseband.ComplexS16
	sumI   int32
	sumQ   int32
	length int
	index  int
}

func NewIntegrator(length int) (*Integrator, error) {
	if length < 1 || length > MaxIntegratorLength {
		return nil, ErrIntegratorLength
	}
	return &Integrator{length: length}, nil
}

// Execute returns the mean of the window after in has been added.
func (g *Integrator) Execute(in baseband.ComplexS16) baseband.ComplexS16 {
	old := g.delay[g.index]
	g.sumI += int32(in.I) - int32(old.I)
	g.sumQ += int32(in.Q) - int32(old.Q)
	g.delay[g.index] = in

	g.index++
	if g.index >= g.length {
		g.index = 0
	}

	return baseband.ComplexS16{
		I: int16(g.sumI / int32(g.length)),
		Q: int16(g.sumQ / int32(g.length)),
	}
}

func (g *Integrator) Length() int {
	return g.length
}

// Package variate draws pseudo-random variates from the non-uniform
// distributions the live estimator needs: standard normal (Box-Muller),
// Gamma (Marsaglia-Tsang) and Beta (ratio of two Gammas).
//
// A Generator never touches a global random source; every caller owns its
// Generator, so concurrent evaluations never share state and a fixed seed
// replays the exact same sequence.
package variate

import (
	"math"
	"math/rand"
)

// MinShape is the smallest shape parameter accepted by Gamma and Beta.
// Smaller (or non-positive) shapes are clamped up to it.
const MinShape = 1e-6

// Marsaglia-Tsang squeeze constant.
const squeeze = 0.0331

// Source yields uniform float64 values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generator samples from the supported distributions using its Source.
// A Generator is not safe for concurrent use.
type Generator struct {
	src Source
}

// New returns a Generator drawing from src.
func New(src Source) *Generator {
	return &Generator{src: src}
}

// NewSeeded returns a Generator backed by a deterministic math/rand source.
func NewSeeded(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed))) //nolint:gosec // statistical sampling, not security
}

// Uniform returns a uniform draw on the open interval (0, 1). Draws that land
// exactly on 0 are regenerated.
func (g *Generator) Uniform() float64 {
	for {
		if u := g.src.Float64(); u > 0 {
			return u
		}
	}
}

// Normal returns a standard normal deviate via the Box-Muller transform.
func (g *Generator) Normal() float64 {
	u := g.Uniform()
	v := g.Uniform()
	return math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
}

// Gamma returns a Gamma(alpha, 1) deviate.
//
// For alpha < 1 the boost Gamma(1+alpha) * U^(1/alpha) is used. Otherwise the
// Marsaglia-Tsang rejection sampler runs until acceptance; it terminates with
// probability one.
func (g *Generator) Gamma(alpha float64) float64 {
	alpha = clampShape(alpha)
	if alpha < 1 {
		return g.Gamma(1+alpha) * math.Pow(g.Uniform(), 1/alpha)
	}

	d := alpha - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = g.Normal()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := g.Uniform()
		x2 := x * x
		if u < 1-squeeze*x2*x2 {
			return d * v
		}
		if math.Log(u) < 0.5*x2+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta returns a Beta(alpha, beta) deviate as X/(X+Y) with X ~ Gamma(alpha)
// and Y ~ Gamma(beta). Shapes are clamped to MinShape.
func (g *Generator) Beta(alpha, beta float64) float64 {
	alpha, beta = clampShape(alpha), clampShape(beta)
	x := g.Gamma(alpha)
	y := g.Gamma(beta)
	if x+y == 0 {
		// Both draws underflowed; only possible for vanishing shapes.
		return alpha / (alpha + beta)
	}
	return x / (x + y)
}

func clampShape(s float64) float64 {
	if !(s > MinShape) { // also catches NaN
		return MinShape
	}
	return s
}

package winprob

import (
	"context"
	"fmt"

	"github.com/okian/rallyrate/internal/domain/variate"
	"gonum.org/v1/gonum/stat"
)

// Default live estimator parameters.
const (
	DefaultPhi     = 5.0
	DefaultSamples = 300
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithTarget sets the points needed to win.
func WithTarget(target int) Option {
	return func(e *Estimator) {
		if target > 0 {
			e.target = target
			e.model.Target = target
		}
	}
}

// WithWinBy sets the closing margin.
func WithWinBy(winBy int) Option {
	return func(e *Estimator) {
		if winBy > 0 {
			e.winBy = winBy
		}
	}
}

// WithPointWeight sets the share of the skill prior in the blended model.
func WithPointWeight(w float64) Option {
	return func(e *Estimator) {
		if w >= 0 && w <= 1 {
			e.model.Weight = w
		}
	}
}

// WithPhi sets the Beta concentration used to express per-point uncertainty.
func WithPhi(phi float64) Option {
	return func(e *Estimator) {
		if phi > 0 {
			e.phi = phi
		}
	}
}

// WithSamples sets the number of Monte-Carlo draws.
func WithSamples(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.samples = n
		}
	}
}

// Estimator computes live win probabilities. It holds configuration only
// and is safe for concurrent use; every call brings its own Generator and
// builds its own Solver.
type Estimator struct {
	model   Model
	target  int
	winBy   int
	phi     float64
	samples int
}

// NewEstimator returns an Estimator with race-to-11, win-by-2 defaults.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		model:   DefaultModel(),
		target:  DefaultTarget,
		winBy:   DefaultWinBy,
		phi:     DefaultPhi,
		samples: DefaultSamples,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the per-point model in use.
func (e *Estimator) Model() Model { return e.model }

// Samples returns the configured Monte-Carlo draw count.
func (e *Estimator) Samples() int { return e.samples }

// Estimate is the marginal win probability from a live evaluation.
type Estimate struct {
	// PA is side A's win probability, PB its complement.
	PA float64
	PB float64
	// PointProb is the blended per-point probability feeding the draws.
	PointProb float64
	// StdDev is the spread of the per-draw match probabilities.
	StdDev float64
	// Samples is the number of draws averaged.
	Samples int
	// States is the number of memoized game states in this run.
	States int
}

// Live blends skill and score into a per-point probability and
// marginalizes the match outcome over per-point uncertainty.
func (e *Estimator) Live(ctx context.Context, gen *variate.Generator, muA, sigmaA, muB, sigmaB float64, scoreA, scoreB int) (Estimate, error) {
	pBlend := e.model.Blended(muA, sigmaA, muB, sigmaB, scoreA, scoreB)
	return e.MatchProbability(ctx, gen, pBlend, scoreA, scoreB)
}

// MatchProbability draws per-point probabilities from
// Beta(pBlend*phi, (1-pBlend)*phi), solves the race from (a,b) for each
// draw and averages. Memo state lives only for the duration of the call.
func (e *Estimator) MatchProbability(ctx context.Context, gen *variate.Generator, pBlend float64, a, b int) (Estimate, error) {
	alpha := max(variate.MinShape, pBlend*e.phi)
	beta := max(variate.MinShape, (1-pBlend)*e.phi)

	solver := NewSolver(e.target, e.winBy)
	vals := make([]float64, e.samples)
	for i := range vals {
		if err := ctx.Err(); err != nil {
			return Estimate{}, fmt.Errorf("live estimate cancelled after %d samples: %w", i, err)
		}
		p := gen.Beta(alpha, beta)
		vals[i] = solver.Probability(p, a, b)
	}

	mean := stat.Mean(vals, nil)
	est := Estimate{
		PA:        mean,
		PB:        1 - mean,
		PointProb: pBlend,
		Samples:   len(vals),
		States:    solver.States(),
	}
	if len(vals) > 1 {
		est.StdDev = stat.StdDev(vals, nil)
	}
	return est, nil
}

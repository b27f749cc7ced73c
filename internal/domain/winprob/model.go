// Package winprob estimates win probabilities for a doubles match: the
// static pre-match estimate, the per-point model blending skill with the
// running score, the race-to-target recurrence, and the Monte-Carlo live
// estimator that propagates per-point uncertainty.
package winprob

import (
	"math"

	"github.com/okian/rallyrate/internal/domain/special"
)

// Default per-point model parameters.
const (
	DefaultTarget      = 11
	DefaultWinBy       = 2
	DefaultPointWeight = 0.2

	pointsSpread   = 0.25
	pointsTanhBase = 0.6
)

// PerPointBase treats each side's skill as Normal(mu, sigma^2) and returns
// the probability that side A wins a point. A zero combined deviation
// yields exactly 0.5.
func PerPointBase(muA, sigmaA, muB, sigmaB float64) float64 {
	combined := math.Sqrt(sigmaA*sigmaA + sigmaB*sigmaB)
	if combined == 0 {
		return 0.5
	}
	z := (muA - muB) / (math.Sqrt2 * combined)
	return special.Phi(z)
}

// PointsComponent favours the side that is ahead relative to the points
// still to be played. The result lies in (0.25, 0.75).
func PointsComponent(scoreA, scoreB, target int) float64 {
	remA := max(0, target-scoreA)
	remB := max(0, target-scoreB)
	rem := max(1, remA+remB)
	diff := float64(scoreA - scoreB)
	return 0.5 + pointsSpread*math.Tanh(diff/(pointsTanhBase*float64(rem)))
}

// Model blends the skill prior with the score heuristic.
type Model struct {
	// Target is the number of points needed to win.
	Target int
	// Weight is the share given to the skill prior; the score heuristic
	// receives 1-Weight.
	Weight float64
}

// DefaultModel returns the race-to-11 model weighting skill at 0.2.
func DefaultModel() Model {
	return Model{Target: DefaultTarget, Weight: DefaultPointWeight}
}

// Blended returns Weight*base + (1-Weight)*points.
func (m Model) Blended(muA, sigmaA, muB, sigmaB float64, scoreA, scoreB int) float64 {
	base := PerPointBase(muA, sigmaA, muB, sigmaB)
	pts := PointsComponent(scoreA, scoreB, m.Target)
	return m.Weight*base + (1-m.Weight)*pts
}

package winprob

import (
	"math"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/special"
)

// DefaultPerformanceBeta is the per-match performance deviation.
const DefaultPerformanceBeta = 4.1667

// PreMatchAggregates returns side A's pre-match win probability:
//
//	Phi((muA-muB) / sqrt(2*(beta^2 + sigmaA^2 + sigmaB^2)))
//
// A zero denominator (beta and both sigmas zero) yields 0.5.
func PreMatchAggregates(a, b model.Aggregate, beta float64) float64 {
	denom := math.Sqrt(2.0 * (beta*beta + a.Sigma*a.Sigma + b.Sigma*b.Sigma))
	if denom == 0 {
		return 0.5
	}
	return special.Phi((a.Mu - b.Mu) / denom)
}

// PreMatch returns both sides' static win probabilities. pB is defined as
// 1-pA so the pair always sums to one.
func PreMatch(teamA, teamB model.Team, beta float64) (pA, pB float64) {
	pA = PreMatchAggregates(teamA.Aggregate(), teamB.Aggregate(), beta)
	return pA, 1 - pA
}

// Package rating updates doubles players' skill estimates after a match.
//
// The team-level delta is
//
//	delta_A = K * (actual_A - p_win_A) * (1 + |scoreA-scoreB| / marginScale)
//	delta_B = -delta_A
//
// and is split between teammates by a mix of inverse-variance weights and
// softmax strength shares: winners credit the weaker partner more, losers
// blame the stronger partner more. Individual deltas are then tapered near
// the rating bounds and sigma shrinks in proportion to the surprise of the
// result.
package rating

import (
	"math"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/winprob"
)

// Default update constants.
const (
	DefaultBeta              = winprob.DefaultPerformanceBeta
	DefaultTau               = 0.05
	DefaultK                 = 2.5
	DefaultLambdaUncertainty = 0.6
	DefaultSoftmaxTemp       = 5.0
	DefaultMaxRating         = 100.0
	DefaultGammaPos          = 2.0
	DefaultGammaNeg          = 1.0
	DefaultMarginScale       = 11.0
	DefaultShrinkFloor       = 0.80
	DefaultSigmaFloor        = 1.0

	surpriseWeight = 0.5
	minSigma       = 1e-6
)

// Updater applies the rating update rule. It is immutable once built and
// safe for concurrent use.
type Updater struct {
	beta        float64
	tau         float64
	k           float64
	lambda      float64
	softmaxTemp float64
	maxRating   float64
	gammaPos    float64
	gammaNeg    float64
	marginScale float64
	shrinkFloor float64
	sigmaFloor  float64
}

// NewUpdater returns an Updater with the default constants.
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{
		beta:        DefaultBeta,
		tau:         DefaultTau,
		k:           DefaultK,
		lambda:      DefaultLambdaUncertainty,
		softmaxTemp: DefaultSoftmaxTemp,
		maxRating:   DefaultMaxRating,
		gammaPos:    DefaultGammaPos,
		gammaNeg:    DefaultGammaNeg,
		marginScale: DefaultMarginScale,
		shrinkFloor: DefaultShrinkFloor,
		sigmaFloor:  DefaultSigmaFloor,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Beta returns the performance deviation used for pre-match estimates.
func (u *Updater) Beta() float64 { return u.beta }

// MaxRating returns the rating ceiling.
func (u *Updater) MaxRating() float64 { return u.maxRating }

// SigmaFloor returns the minimum sigma.
func (u *Updater) SigmaFloor() float64 { return u.sigmaFloor }

// WinProbability returns the static pre-match win probabilities.
func (u *Updater) WinProbability(teamA, teamB model.Team) (pA, pB float64) {
	return winprob.PreMatch(teamA, teamB, u.beta)
}

// Update returns new estimates for all four players. The inputs are copied;
// nothing the caller holds is modified.
func (u *Updater) Update(teamA, teamB model.Team, score model.MatchScore) model.RatingUpdateResult {
	pWinA, pWinB := u.WinProbability(teamA, teamB)

	actualA := 0.0
	if score.ScoreA > score.ScoreB {
		actualA = 1.0
	}
	marginMult := 1.0 + math.Abs(float64(score.ScoreA-score.ScoreB))/u.marginScale
	deltaA := u.k * (actualA - pWinA) * marginMult
	deltaB := -deltaA

	wA, uA, sA := u.split(teamA, actualA == 1)
	wB, uB, sB := u.split(teamB, actualA == 0)

	surprise := math.Abs(actualA - pWinA)
	shrink := math.Max(u.shrinkFloor, 1.0-u.tau*(1.0+surpriseWeight*surprise))

	res := model.RatingUpdateResult{
		PWinA: pWinA,
		PWinB: pWinB,
		Explain: model.Explain{
			PWinA:              pWinA,
			ActualA:            actualA,
			MarginMult:         marginMult,
			DeltaTeamA:         deltaA,
			DeltaTeamB:         deltaB,
			Weights:            model.TeamPair[[2]float64]{TeamA: wA, TeamB: wB},
			UncertaintyWeights: model.TeamPair[[2]float64]{TeamA: uA, TeamB: uB},
			StrengthShares:     model.TeamPair[[2]float64]{TeamA: sA, TeamB: sB},
			Surprise:           surprise,
			SigmaShrinkMult:    shrink,
		},
	}
	res.TeamANew, res.Explain.PerPlayer.TeamA = u.apply(teamA, deltaA, wA, shrink)
	res.TeamBNew, res.Explain.PerPlayer.TeamB = u.apply(teamB, deltaB, wB, shrink)
	return res
}

// split returns the normalized credit weights together with the
// inverse-variance weights and strength shares they were built from.
func (u *Updater) split(team model.Team, won bool) (w, unc, str [2]float64) {
	var invSum float64
	for i, p := range team {
		sigma := math.Max(minSigma, p.Sigma)
		unc[i] = 1.0 / (sigma * sigma)
		invSum += unc[i]
	}
	if invSum <= 0 {
		invSum = 1.0
	}

	// Softmax shifted by the larger exponent; the shares are unchanged.
	top := math.Max(team[0].Mu, team[1].Mu) / u.softmaxTemp
	var expSum float64
	for i, p := range team {
		str[i] = math.Exp(p.Mu/u.softmaxTemp - top)
		expSum += str[i]
	}
	if expSum <= 0 {
		expSum = 1.0
	}

	var total float64
	for i := range team {
		unc[i] /= invSum
		str[i] /= expSum
		share := str[i]
		if won {
			share = 1 - str[i]
		}
		w[i] = u.lambda*unc[i] + (1-u.lambda)*share
		total += w[i]
	}
	if total <= 0 {
		total = 1.0
	}
	for i := range w {
		w[i] /= total
	}
	return w, unc, str
}

func (u *Updater) apply(team model.Team, delta float64, w [2]float64, shrink float64) (model.Team, [2]model.PlayerExplain) {
	var out model.Team
	var trace [2]model.PlayerExplain
	for i, p := range team {
		raw := delta * w[i]
		tapered := u.taper(p.Mu, raw)
		out[i] = model.SkillEstimate{
			Name:  p.Name,
			Mu:    clamp(p.Mu+tapered, 0, u.maxRating),
			Sigma: math.Max(u.sigmaFloor, p.Sigma*shrink),
		}
		trace[i] = model.PlayerExplain{MuBefore: p.Mu, RawDelta: raw, TaperedDelta: tapered}
	}
	return out, trace
}

// taper compresses gains near the ceiling and losses near the floor.
func (u *Updater) taper(mu, delta float64) float64 {
	if delta >= 0 {
		room := clamp((u.maxRating-mu)/u.maxRating, 0, 1)
		return delta * math.Pow(room, u.gammaPos)
	}
	room := clamp(mu/u.maxRating, 0, 1)
	return delta * math.Pow(room, u.gammaNeg)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

package loadgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
)

// ErrViolation marks a rating that breaks an engine invariant.
var ErrViolation = errors.New("invariant violated")

// verifyResult checks one rated match against the invariants every update
// must satisfy. It returns all violations found.
func verifyResult(m Match, st types.MatchStatus, maxRating, sigmaFloor float64) []error { //nolint:gocritic // hugeParam
	if st.Status != types.StatusDone || st.Result == nil {
		return []error{fmt.Errorf("%w: match %s finished as %q", ErrViolation, m.MatchID, st.Status)}
	}
	res := st.Result
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: match %s: %s", ErrViolation, m.MatchID, fmt.Sprintf(format, args...)))
	}

	if d := math.Abs(res.PWinA + res.PWinB - 1); d > floatTolerance {
		fail("p_win_A + p_win_B = %.12f", res.PWinA+res.PWinB)
	}
	if d := math.Abs(res.Explain.DeltaTeamA + res.Explain.DeltaTeamB); d > floatTolerance {
		fail("team deltas are not zero-sum: %.6f / %.6f", res.Explain.DeltaTeamA, res.Explain.DeltaTeamB)
	}

	check := func(side string, before []model.SkillEstimate, after model.Team) {
		for i, p := range after {
			old := before[i]
			if p.Name != old.Name {
				fail("%s[%d] name changed from %q to %q", side, i, old.Name, p.Name)
			}
			if p.Mu < 0 || p.Mu > maxRating {
				fail("%s[%d] mu %.4f outside [0, %.0f]", side, i, p.Mu, maxRating)
			}
			if p.Sigma > math.Max(old.Sigma, sigmaFloor)+floatTolerance {
				fail("%s[%d] sigma grew from %.4f to %.4f", side, i, old.Sigma, p.Sigma)
			}
			if p.Sigma < sigmaFloor-floatTolerance {
				fail("%s[%d] sigma %.4f below floor %.2f", side, i, p.Sigma, sigmaFloor)
			}
		}
	}
	check("teamA", m.TeamA, res.TeamANew)
	check("teamB", m.TeamB, res.TeamBNew)
	return errs
}

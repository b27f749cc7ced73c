package winprob

import "math"

// memoScale fixes the precision p is rounded to when forming memo keys.
const memoScale = 1e6

type memoKey struct {
	p    int64
	a, b int
}

// Solver evaluates the probability that side A eventually wins a race to
// target points with a win-by margin, given a fixed per-point probability.
//
// A Solver owns its memo table. Create one per evaluation run and drop it
// afterwards; it is not safe for concurrent use.
type Solver struct {
	target int
	winBy  int
	memo   map[memoKey]float64
}

// NewSolver returns a Solver with an empty memo table.
func NewSolver(target, winBy int) *Solver {
	return &Solver{
		target: target,
		winBy:  winBy,
		memo:   make(map[memoKey]float64),
	}
}

// States reports how many non-terminal states are memoized.
func (s *Solver) States() int {
	return len(s.memo)
}

// Probability returns V(a,b) for per-point probability p:
//
//	V(a,b) = 1                       if a >= target and a-b >= winBy
//	V(a,b) = 0                       if b >= target and b-a >= winBy
//	V(a,b) = p^2 / (p^2 + (1-p)^2)   if a, b >= target-1
//	V(a,b) = p V(a+1,b) + (1-p) V(a,b+1)
//
// Recursion depth is bounded by 2*target.
func (s *Solver) Probability(p float64, a, b int) float64 {
	if a >= s.target && a-b >= s.winBy {
		return 1.0
	}
	if b >= s.target && b-a >= s.winBy {
		return 0.0
	}
	if a >= s.target-1 && b >= s.target-1 {
		return deuce(p)
	}

	key := memoKey{p: int64(math.Round(p * memoScale)), a: a, b: b}
	if v, ok := s.memo[key]; ok {
		return v
	}
	v := p*s.Probability(p, a+1, b) + (1-p)*s.Probability(p, a, b+1)
	s.memo[key] = v
	return v
}

// deuce is the absorption probability of a race to a two-point lead.
func deuce(p float64) float64 {
	win := p * p
	lose := (1 - p) * (1 - p)
	if win+lose == 0 {
		if p > 0.5 {
			return 1.0
		}
		return 0.0
	}
	return win / (win + lose)
}

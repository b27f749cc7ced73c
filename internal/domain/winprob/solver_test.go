package winprob_test

import (
	"testing"

	"github.com/okian/rallyrate/internal/domain/winprob"
	. "github.com/smartystreets/goconvey/convey"
)

// tableV fills the race table bottom-up, from the highest reachable scores
// back to (a,b), and must agree with the memoized recursion.
func tableV(p float64, a, b, target, winBy int) float64 {
	limit := target + 1
	v := make([][]float64, limit+1)
	for i := range v {
		v[i] = make([]float64, limit+1)
	}
	at := func(x, y int) float64 {
		switch {
		case x >= target && x-y >= winBy:
			return 1
		case y >= target && y-x >= winBy:
			return 0
		case x >= target-1 && y >= target-1:
			return p * p / (p*p + (1-p)*(1-p))
		}
		return v[x][y]
	}
	for x := limit; x >= 0; x-- {
		for y := limit; y >= 0; y-- {
			if x >= target-1 && y >= target-1 {
				continue
			}
			if (x >= target && x-y >= winBy) || (y >= target && y-x >= winBy) {
				continue
			}
			v[x][y] = p*at(x+1, y) + (1-p)*at(x, y+1)
		}
	}
	return at(a, b)
}

func TestSolverTerminalStates(t *testing.T) {
	Convey("Given a race-to-11 win-by-2 solver", t, func() {
		s := winprob.NewSolver(11, 2)

		Convey("When A already reached the target with margin", func() {
			Convey("Then A has won", func() {
				for _, p := range []float64{0.01, 0.3, 0.5, 0.99} {
					So(s.Probability(p, 11, 0), ShouldEqual, 1.0)
					So(s.Probability(p, 15, 13), ShouldEqual, 1.0)
				}
			})
		})

		Convey("When B already reached the target with margin", func() {
			Convey("Then A has lost", func() {
				for _, p := range []float64{0.01, 0.5, 0.99} {
					So(s.Probability(p, 0, 11), ShouldEqual, 0.0)
				}
			})
		})

		Convey("When the game is at deuce", func() {
			Convey("Then the closed form applies", func() {
				So(s.Probability(0.6, 10, 10), ShouldAlmostEqual, 0.36/(0.36+0.16), 1e-12)
				So(s.Probability(0.5, 12, 12), ShouldEqual, 0.5)
			})
			Convey("And deuce states are not memoized", func() {
				So(s.States(), ShouldEqual, 0)
			})
		})

		Convey("When p is degenerate", func() {
			Convey("Then the outcome is certain", func() {
				So(s.Probability(1, 0, 0), ShouldEqual, 1.0)
				So(s.Probability(0, 0, 0), ShouldEqual, 0.0)
				So(s.Probability(1, 10, 10), ShouldEqual, 1.0)
				So(s.Probability(0, 10, 10), ShouldEqual, 0.0)
			})
		})
	})
}

func TestSolverRecurrence(t *testing.T) {
	Convey("Given a fair per-point probability", t, func() {
		s := winprob.NewSolver(11, 2)

		Convey("Then V(a,b) = 1 - V(b,a)", func() {
			for a := 0; a <= 12; a++ {
				for b := 0; b <= 12; b++ {
					So(s.Probability(0.5, a, b), ShouldAlmostEqual, 1-s.Probability(0.5, b, a), 1e-12)
				}
			}
		})

		Convey("Then a fresh game is a coin flip", func() {
			So(s.Probability(0.5, 0, 0), ShouldAlmostEqual, 0.5, 1e-12)
		})
	})

	Convey("Given arbitrary per-point probabilities", t, func() {
		Convey("Then recursion agrees with a bottom-up table", func() {
			for _, p := range []float64{0.1, 0.37, 0.5, 0.62, 0.9} {
				s := winprob.NewSolver(11, 2)
				for _, st := range [][2]int{{0, 0}, {3, 7}, {9, 2}, {10, 8}, {5, 5}} {
					So(s.Probability(p, st[0], st[1]), ShouldAlmostEqual, tableV(p, st[0], st[1], 11, 2), 1e-12)
				}
			}
		})

		Convey("Then a better per-point probability wins more often", func() {
			s := winprob.NewSolver(11, 2)
			prev := s.Probability(0.05, 0, 0)
			for p := 0.1; p < 1; p += 0.05 {
				cur := s.Probability(p, 0, 0)
				So(cur, ShouldBeGreaterThanOrEqualTo, prev)
				prev = cur
			}
		})

		Convey("Then other targets work too", func() {
			s := winprob.NewSolver(21, 2)
			So(s.Probability(0.55, 0, 0), ShouldAlmostEqual, tableV(0.55, 0, 0, 21, 2), 1e-12)
			So(s.Probability(0.55, 21, 0), ShouldEqual, 1.0)
		})
	})

	Convey("Given a solver that evaluated a fresh game", t, func() {
		s := winprob.NewSolver(11, 2)
		s.Probability(0.55, 0, 0)

		Convey("Then intermediate states were memoized", func() {
			So(s.States(), ShouldBeGreaterThan, 0)
			// (0..10)x(0..10) minus the single deuce corner (10,10).
			So(s.States(), ShouldBeLessThanOrEqualTo, 11*11)
		})

		Convey("And a separate solver starts empty", func() {
			So(winprob.NewSolver(11, 2).States(), ShouldEqual, 0)
		})
	})
}

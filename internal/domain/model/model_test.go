package model_test

import (
	"encoding/json"
	"math"
	"testing"

	model "github.com/okian/rallyrate/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestTeamAggregate(t *testing.T) {
	convey.Convey("Given a team of two players", t, func() {
		team := model.Team{
			{Name: "Alice", Mu: 30, Sigma: 3},
			{Name: "Bob", Mu: 20, Sigma: 4},
		}

		convey.Convey("When aggregating", func() {
			agg := team.Aggregate()

			convey.Convey("Then mu is the mean", func() {
				convey.So(agg.Mu, convey.ShouldEqual, 25.0)
			})

			convey.Convey("And sigma is the quadrature mean", func() {
				convey.So(agg.Sigma, convey.ShouldAlmostEqual, math.Sqrt(12.5), 1e-12)
			})
		})

		convey.Convey("When aggregating a team with identical sigmas", func() {
			same := model.Team{{Mu: 25, Sigma: 8.33}, {Mu: 25, Sigma: 8.33}}

			convey.Convey("Then the aggregate sigma equals the member sigma", func() {
				convey.So(same.Aggregate().Sigma, convey.ShouldAlmostEqual, 8.33, 1e-12)
			})
		})
	})
}

func TestTeamJSON(t *testing.T) {
	convey.Convey("Given a team encoded as JSON", t, func() {
		team := model.Team{{Name: "Alice", Mu: 25, Sigma: 8.33}, {Mu: 20, Sigma: 5}}
		data, err := json.Marshal(team)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then it is a two element array and names are optional", func() {
			convey.So(string(data), convey.ShouldEqual,
				`[{"name":"Alice","mu":25,"sigma":8.33},{"mu":20,"sigma":5}]`)
		})
	})

	convey.Convey("Given a rating update result", t, func() {
		res := model.RatingUpdateResult{PWinA: 0.25, PWinB: 0.75}
		data, err := json.Marshal(res)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the wire field names are preserved", func() {
			var raw map[string]any
			convey.So(json.Unmarshal(data, &raw), convey.ShouldBeNil)
			for _, key := range []string{"p_win_A", "p_win_B", "teamA_new", "teamB_new", "explain"} {
				convey.So(raw, convey.ShouldContainKey, key)
			}
			explain := raw["explain"].(map[string]any)
			for _, key := range []string{"delta_teamA", "delta_teamB", "weights", "surprise", "sigma_shrink_multiplier", "per_player"} {
				convey.So(explain, convey.ShouldContainKey, key)
			}
		})
	})
}

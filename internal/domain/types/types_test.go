package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/rallyrate/internal/domain/model"
	types "github.com/okian/rallyrate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTeamFromMembers(t *testing.T) {
	Convey("Given rosters of various sizes", t, func() {
		p := model.SkillEstimate{Name: "x", Mu: 30, Sigma: 5}

		Convey("When exactly two members are given", func() {
			team, ok := types.TeamFromMembers([]model.SkillEstimate{p, {Mu: 20, Sigma: 4}})

			Convey("Then the team is built in order", func() {
				So(ok, ShouldBeTrue)
				So(team[0], ShouldResemble, p)
				So(team[1].Mu, ShouldEqual, 20)
			})
		})

		Convey("When the roster is short or long", func() {
			Convey("Then it is rejected", func() {
				for _, members := range [][]model.SkillEstimate{nil, {p}, {p, p, p}} {
					_, ok := types.TeamFromMembers(members)
					So(ok, ShouldBeFalse)
				}
			})
		})
	})
}

func TestRequestDecoding(t *testing.T) {
	Convey("Given an update_ratings body", t, func() {
		body := `{"teamA":[{"mu":25,"sigma":8.33},{"mu":26,"sigma":8}],"teamB":[{"name":"c","mu":24,"sigma":7},{"mu":25,"sigma":6}],"scoreA":11,"scoreB":7}`

		Convey("When decoded", func() {
			var req types.UpdateRatingsRequest
			err := json.Unmarshal([]byte(body), &req)

			Convey("Then the embedded rosters and scores are filled", func() {
				So(err, ShouldBeNil)
				So(len(req.TeamA), ShouldEqual, 2)
				So(req.TeamB[0].Name, ShouldEqual, "c")
				So(req.ScoreA, ShouldEqual, 11)
				So(req.ScoreB, ShouldEqual, 7)
			})
		})
	})

	Convey("Given a live_probability body", t, func() {
		body := `{"muA":25,"sigmaA":8.33,"muB":24,"sigmaB":8,"scoreA":10,"scoreB":9}`
		var req types.LiveProbabilityRequest
		err := json.Unmarshal([]byte(body), &req)

		Convey("Then the camel-case field names are honoured", func() {
			So(err, ShouldBeNil)
			So(req.SigmaA, ShouldEqual, 8.33)
			So(req.ScoreB, ShouldEqual, 9)
		})
	})
}

func TestResponseEncoding(t *testing.T) {
	Convey("Given a pending match status", t, func() {
		out, err := json.Marshal(types.MatchStatus{MatchID: "m1", Status: types.StatusPending})

		Convey("Then the result is omitted", func() {
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"match_id":"m1","status":"pending"}`)
		})
	})

	Convey("Given a live probability response", t, func() {
		out, err := json.Marshal(types.LiveProbabilityResponse{PA: 0.75, PB: 0.25, Samples: 300, StdDev: 0.1})

		Convey("Then the wire names are stable", func() {
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"p_a":0.75,"p_b":0.25,"samples":300,"stddev":0.1}`)
		})
	})
}

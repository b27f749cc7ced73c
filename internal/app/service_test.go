package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	repository "github.com/okian/rallyrate/internal/adapters/repository"
	service "github.com/okian/rallyrate/internal/app"
	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/rating"
	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/internal/domain/winprob"
	"github.com/okian/rallyrate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func sampleTeams() (model.Team, model.Team) {
	a := model.Team{{Name: "ana", Mu: 27, Sigma: 6}, {Name: "bo", Mu: 24, Sigma: 7}}
	b := model.Team{{Name: "cy", Mu: 25, Sigma: 8.33}, {Name: "di", Mu: 23, Sigma: 5}}
	return a, b
}

// waitForStatus polls until the match leaves the pending state.
func waitForStatus(svc *service.Service, id string) types.MatchStatus {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := svc.MatchStatus(context.Background(), id)
		if err == nil && st.Status != types.StatusPending {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	st, _ := svc.MatchStatus(context.Background(), id)
	return st
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(100))
		defer svc.Stop()

		Convey("Then ingestion is refused before Start", func() {
			a, b := sampleTeams()
			_, err := svc.SubmitMatch(context.Background(), model.MatchResult{TeamA: a, TeamB: b})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.MatchStatus(context.Background(), "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And a second Start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
				svc.Stop()
			})
		})
	})
}

func TestService_Synchronous(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		a, b := sampleTeams()
		ctx := context.Background()

		Convey("When ratings are updated synchronously", func() {
			res := svc.UpdateRatings(ctx, a, b, model.MatchScore{ScoreA: 11, ScoreB: 7})

			Convey("Then the result matches the updater", func() {
				want := rating.NewUpdater().Update(a, b, model.MatchScore{ScoreA: 11, ScoreB: 7})
				So(res, ShouldResemble, want)
			})
		})

		Convey("When the pre-match probability is requested", func() {
			resp := svc.WinProbability(ctx, a, b)

			Convey("Then both sides sum to one", func() {
				So(resp.PTeamA+resp.PTeamB, ShouldAlmostEqual, 1.0, 1e-12)
				So(resp.PTeamA, ShouldBeGreaterThan, 0.5)
			})
		})

		Convey("When a live probability is requested", func() {
			resp, err := svc.LiveProbability(ctx, types.LiveProbabilityRequest{
				MuA: 30, SigmaA: 3, MuB: 20, SigmaB: 3, ScoreA: 10, ScoreB: 2,
			})

			Convey("Then side A is a heavy favourite", func() {
				So(err, ShouldBeNil)
				So(resp.PA, ShouldBeGreaterThan, 0.9)
				So(resp.PA+resp.PB, ShouldAlmostEqual, 1.0, 1e-12)
				So(resp.Samples, ShouldEqual, winprob.DefaultSamples)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.LiveProbability(cctx, types.LiveProbabilityRequest{MuA: 25, SigmaA: 8, MuB: 25, SigmaB: 8})

			Convey("Then the evaluation is abandoned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_LegacyLiveFields(t *testing.T) {
	Convey("Given two services with the same seed", t, func() {
		req := types.LiveProbabilityRequest{MuA: 28, SigmaA: 4, MuB: 24, SigmaB: 4, ScoreA: 6, ScoreB: 3}
		plain := service.New(service.WithRandomSeed(7))
		legacy := service.New(service.WithRandomSeed(7), service.WithLegacyLiveFields(true))

		Convey("When both evaluate the same state", func() {
			p, err1 := plain.LiveProbability(context.Background(), req)
			l, err2 := legacy.LiveProbability(context.Background(), req)

			Convey("Then the legacy response carries the swapped fields", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(l.PA, ShouldEqual, p.PB)
				So(l.PB, ShouldEqual, p.PA)
				So(l.StdDev, ShouldEqual, p.StdDev)
			})
		})

		Convey("When the same seeded service is rebuilt", func() {
			first, _ := service.New(service.WithRandomSeed(99)).LiveProbability(context.Background(), req)
			second, _ := service.New(service.WithRandomSeed(99)).LiveProbability(context.Background(), req)

			Convey("Then the estimate is reproduced exactly", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestService_EstimatorOptions(t *testing.T) {
	Convey("Given a service with a custom sample count", t, func() {
		svc := service.New(service.WithEstimatorOptions(winprob.WithSamples(50)), service.WithRandomSeed(1))

		Convey("Then live responses report it", func() {
			resp, err := svc.LiveProbability(context.Background(), types.LiveProbabilityRequest{MuA: 25, SigmaA: 8, MuB: 25, SigmaB: 8})
			So(err, ShouldBeNil)
			So(resp.Samples, ShouldEqual, 50)
			So(svc.GetStats()["liveSamples"], ShouldEqual, 50)
		})
	})
}

func TestService_AsyncMatches(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000), service.WithShardCount(4))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		a, b := sampleTeams()

		Convey("When a match is submitted with an id", func() {
			ack, err := svc.SubmitMatch(ctx, model.MatchResult{
				MatchID: "m-1", TeamA: a, TeamB: b, Score: model.MatchScore{ScoreA: 11, ScoreB: 9},
			})

			Convey("Then it is accepted and eventually rated", func() {
				So(err, ShouldBeNil)
				So(ack, ShouldResemble, types.SubmitMatchResponse{MatchID: "m-1", Status: types.StatusAccepted})

				st := waitForStatus(svc, "m-1")
				So(st.Status, ShouldEqual, types.StatusDone)
				So(st.Result, ShouldNotBeNil)
				want := rating.NewUpdater().Update(a, b, model.MatchScore{ScoreA: 11, ScoreB: 9})
				So(*st.Result, ShouldResemble, want)
			})

			Convey("And a resubmission is reported as duplicate", func() {
				dup, err := svc.SubmitMatch(ctx, model.MatchResult{MatchID: "m-1", TeamA: a, TeamB: b})
				So(err, ShouldBeNil)
				So(dup.Status, ShouldEqual, types.StatusDuplicate)
			})
		})

		Convey("When a match is submitted without an id", func() {
			ack, err := svc.SubmitMatch(ctx, model.MatchResult{TeamA: a, TeamB: b, Score: model.MatchScore{ScoreA: 4, ScoreB: 11}})

			Convey("Then an id is generated", func() {
				So(err, ShouldBeNil)
				So(len(ack.MatchID), ShouldEqual, 36)
				So(waitForStatus(svc, ack.MatchID).Status, ShouldEqual, types.StatusDone)
			})
		})

		Convey("When many matches are submitted", func() {
			for i := 0; i < 50; i++ {
				_, err := svc.SubmitMatch(ctx, model.MatchResult{
					MatchID: fmt.Sprintf("bulk-%d", i), TeamA: a, TeamB: b, Score: model.MatchScore{ScoreA: 11, ScoreB: i % 10},
				})
				So(err, ShouldBeNil)
			}

			Convey("Then every one of them is stored", func() {
				for i := 0; i < 50; i++ {
					So(waitForStatus(svc, fmt.Sprintf("bulk-%d", i)).Status, ShouldEqual, types.StatusDone)
				}
				stats := svc.GetStats()
				So(stats["resultsStored"], ShouldEqual, 50)
				So(stats["dedupeEntries"], ShouldEqual, int64(50))
			})
		})

		Convey("When an unknown match is queried", func() {
			_, err := svc.MatchStatus(ctx, "nope")

			Convey("Then not found is reported", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_LiveScoreboard(t *testing.T) {
	Convey("Given a service with a seeded estimator", t, func() {
		svc := service.New(service.WithRandomSeed(3))
		ctx := context.Background()

		Convey("When a scoreboard is initialised without teams", func() {
			resp, err := svc.InitScore(ctx, types.InitScoreRequest{MatchID: "live-1"})

			Convey("Then it starts at 0-0 with no probability", func() {
				So(err, ShouldBeNil)
				So(resp.Success, ShouldBeTrue)
				So(resp.Score.ScoreA, ShouldEqual, 0)
				So(resp.Score.ScoreB, ShouldEqual, 0)
				So(resp.Probability, ShouldBeNil)
			})

			Convey("And points are added per side", func() {
				_, err := svc.UpdateScore(ctx, types.UpdateScoreRequest{MatchID: "live-1", Team: types.SideB, Increment: 3})
				So(err, ShouldBeNil)
				resp, err := svc.UpdateScore(ctx, types.UpdateScoreRequest{MatchID: "live-1", Team: types.SideB, Increment: -5})
				So(err, ShouldBeNil)
				So(resp.Score.ScoreB, ShouldEqual, 0)
			})
		})

		Convey("When a scoreboard is initialised with teams", func() {
			_, err := svc.InitScore(ctx, types.InitScoreRequest{
				MatchID: "live-2",
				TeamA:   &model.Aggregate{Mu: 30, Sigma: 3},
				TeamB:   &model.Aggregate{Mu: 22, Sigma: 3},
			})
			So(err, ShouldBeNil)
			resp, err := svc.UpdateScore(ctx, types.UpdateScoreRequest{MatchID: "live-2", Team: types.SideA, Increment: 9})

			Convey("Then the live probability comes with the score", func() {
				So(err, ShouldBeNil)
				So(resp.Score.ScoreA, ShouldEqual, 9)
				So(resp.Probability, ShouldNotBeNil)
				So(resp.Probability.PA, ShouldBeGreaterThan, 0.9)
			})

			Convey("And reading the board returns the same score", func() {
				got, err := svc.LiveScore(ctx, "live-2")
				So(err, ShouldBeNil)
				So(got.Score.ScoreA, ShouldEqual, 9)
				So(svc.GetStats()["liveScoreboards"], ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When an unknown scoreboard is updated", func() {
			_, err := svc.UpdateScore(ctx, types.UpdateScoreRequest{MatchID: "ghost", Team: types.SideA, Increment: 1})

			Convey("Then not found is reported", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the side is not A or B", func() {
			_, _ = svc.InitScore(ctx, types.InitScoreRequest{MatchID: "live-3"})
			_, err := svc.UpdateScore(ctx, types.UpdateScoreRequest{MatchID: "live-3", Team: "C", Increment: 1})

			Convey("Then the side is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidSide), ShouldBeTrue)
			})
		})
	})
}

package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/dopamind/internal/model"
)

// Source is the storage the report reads from.
type Source interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	ListPlays(ctx context.Context, filter model.PlayFilter) ([]model.PlayRecord, error)
	GameStats(ctx context.Context, profileID string) ([]model.GameStats, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Profile model.Profile
	Plays   []model.PlayRecord
	Games   []model.GameStats
}

// BuildReport loads the profile, its filtered plays and per-game aggregates concurrently.
func BuildReport(ctx context.Context, src Source, filter model.PlayFilter) (Report, error) {
	var report Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := src.GetProfile(gctx, filter.ProfileID)
		report.Profile = p
		return err
	})
	g.Go(func() error {
		plays, err := src.ListPlays(gctx, filter)
		report.Plays = plays
		return err
	})
	g.Go(func() error {
		games, err := src.GameStats(gctx, filter.ProfileID)
		if err != nil {
			return err
		}
		if filter.GameID != "" {
			kept := games[:0]
			for _, gs := range games {
				if gs.GameID == filter.GameID {
					kept = append(kept, gs)
				}
			}
			games = kept
		}
		report.Games = games
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return report, nil
}

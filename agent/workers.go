package agent

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Antonite/oware_a3c/actorcritic"
)

// WorkerConfig sizes a self-play run.
type WorkerConfig struct {
	Workers  int
	Games    int
	Seed     uint64
	MaxTurns int
}

// RunWorkers plays cfg.Games games spread over cfg.Workers goroutines and
// sends every episode to episodes. Each worker plays with its own copy of
// model. The channel is not closed.
func RunWorkers(ctx context.Context, model *actorcritic.Model, cfg WorkerConfig, episodes chan<- *Episode) error {
	if cfg.Workers <= 0 {
		return errors.Errorf("workers must be > 0 (got %d)", cfg.Workers)
	}
	if cfg.Games < 0 {
		return errors.Errorf("games must be >= 0 (got %d)", cfg.Games)
	}

	g, ctx := errgroup.WithContext(ctx)
	var played atomic.Int64
	for w := 0; w < cfg.Workers; w++ {
		a := New(model.Clone(), cfg.Seed+uint64(w)*7919, cfg.MaxTurns)
		g.Go(func() error {
			for played.Add(1) <= int64(cfg.Games) {
				if err := ctx.Err(); err != nil {
					return err
				}
				ep, err := a.Play()
				if err != nil {
					return errors.Wrapf(err, "worker %d", w)
				}
				select {
				case episodes <- ep:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	return g.Wait()
}

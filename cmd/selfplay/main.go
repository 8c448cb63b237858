package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/agent"
	"github.com/Antonite/oware_a3c/env"
	"github.com/Antonite/oware_a3c/metrics"
	"github.com/Antonite/oware_a3c/storage"
)

func main() {
	workers := flag.Int("workers", 4, "Number of self-play workers")
	games := flag.Int("games", 100, "Number of games to play")
	seed := flag.Uint64("seed", 1, "PRNG seed")
	maxTurns := flag.Int("max-turns", agent.DefaultMaxTurns, "Force-end games after this many turns")
	bound := flag.String("bound", "glorot", "Initializer bound formula [glorot,legacy]")
	logEvery := flag.Int("log-every", 10, "Log every N games")
	resume := flag.Bool("resume", false, "Start from the latest checkpoint")
	save := flag.Bool("save", false, "Store the model as a new checkpoint when a fresh model was used; self-play does not update parameters")
	host := flag.String("couchbase", "", "Couchbase host; checkpoints stay in memory when empty")
	user := flag.String("user", "oware", "Couchbase user")
	pass := flag.String("pass", "", "Couchbase password")
	bucket := flag.String("bucket", "a3c", "Couchbase bucket")
	flag.Parse()

	formula, err := actorcritic.ParseBoundFormula(*bound)
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}
	if *logEvery <= 0 {
		*logEvery = 10
	}

	store, err := openStore(*host, *user, *pass, *bucket)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, store, config{
		workers:  *workers,
		games:    *games,
		seed:     *seed,
		maxTurns: *maxTurns,
		bound:    formula,
		logEvery: *logEvery,
		resume:   *resume,
		save:     *save,
	})
	stop()
	store.Close()
	if err != nil {
		log.Fatalf("self-play failed: %v", err)
	}
}

type config struct {
	workers  int
	games    int
	seed     uint64
	maxTurns int
	bound    actorcritic.BoundFormula
	logEvery int
	resume   bool
	save     bool
}

func run(ctx context.Context, store *storage.Store, cfg config) error {
	model, err := actorcritic.New(env.Channels, actorcritic.Discrete(env.Actions),
		actorcritic.WithBound(cfg.bound), actorcritic.WithSeed(cfg.seed))
	if err != nil {
		return errors.Wrap(err, "build model")
	}

	resumed := false
	if cfg.resume {
		ckpt, err := store.Latest()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Printf("no checkpoint to resume from, starting fresh")
		case err != nil:
			return errors.Wrap(err, "load checkpoint")
		default:
			if err := storage.Restore(model, ckpt); err != nil {
				return errors.Wrap(err, "restore checkpoint")
			}
			resumed = true
			log.Printf("resumed checkpoint=%s created=%s", ckpt.ID, ckpt.Created.Format(time.RFC3339))
		}
	}

	episodes := make(chan *agent.Episode, cfg.workers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		collect(episodes, cfg.logEvery)
	}()

	log.Printf("starting self-play workers=%d games=%d bound=%s", cfg.workers, cfg.games, cfg.bound)
	err = agent.RunWorkers(ctx, model, agent.WorkerConfig{
		Workers:  cfg.workers,
		Games:    cfg.games,
		Seed:     cfg.seed,
		MaxTurns: cfg.maxTurns,
	}, episodes)
	close(episodes)
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Parameters are unchanged by self-play, so only a fresh model is new.
	if !cfg.save || resumed {
		return nil
	}
	ckpt, err := store.Save(model)
	if err != nil {
		return errors.Wrap(err, "save checkpoint")
	}
	log.Printf("saved checkpoint=%s", ckpt.ID)
	return nil
}

func openStore(host, user, pass, bucket string) (*storage.Store, error) {
	if host == "" {
		return storage.NewStore(storage.NewMemory()), nil
	}
	cb, err := storage.OpenCouchbase(storage.CouchbaseConfig{
		Host:     host,
		Username: user,
		Password: pass,
		Bucket:   bucket,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewStore(cb), nil
}

func collect(episodes <-chan *agent.Episode, logEvery int) {
	var (
		window metrics.Window
		last   = time.Now()
		games  int
	)
	for ep := range episodes {
		now := time.Now()
		window.Record(len(ep.Steps), ep.Forward, now.Sub(last), ep.Winner, ep.Forced)
		last = now
		games++

		if games%logEvery == 0 {
			snap := window.Snapshot()
			log.Printf("games=%d steps_per_sec=%.1f forward_ms=%.3f avg_steps=%.1f wins=%d/%d ties=%d forced=%d",
				games,
				snap.StepsPerSec,
				snap.AvgForwardMS,
				snap.AvgSteps,
				snap.Wins[0], snap.Wins[1],
				snap.Ties,
				snap.Forced,
			)
		}
	}
}

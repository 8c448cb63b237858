package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/storage"
)

func testConfig() config {
	return config{workers: 2, games: 2, seed: 3, maxTurns: 20, bound: actorcritic.BoundGlorot, logEvery: 1}
}

func TestRunSavesOnlyWhenAsked(t *testing.T) {
	store := storage.NewStore(storage.NewMemory())

	if err := run(context.Background(), store, testConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := store.Latest(); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("checkpoint written without -save: %v", err)
	}

	cfg := testConfig()
	cfg.save = true
	if err := run(context.Background(), store, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	first, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	cfg.resume = true
	if err := run(context.Background(), store, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != first.ID {
		t.Fatal("resumed run stored an identical checkpoint")
	}
}

func TestRunReturnsErrors(t *testing.T) {
	cfg := testConfig()
	cfg.workers = 0
	if err := run(context.Background(), storage.NewStore(storage.NewMemory()), cfg); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

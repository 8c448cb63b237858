package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/env"
	"github.com/Antonite/oware_a3c/server"
	"github.com/Antonite/oware_a3c/storage"
)

func main() {
	addr := flag.String("addr", ":8081", "Listen address")
	checkpoint := flag.String("checkpoint", "", "Checkpoint id; latest when empty")
	seed := flag.Uint64("seed", 1, "Seed for a fresh model when no checkpoint exists")
	host := flag.String("couchbase", "", "Couchbase host; serve a fresh model when empty")
	user := flag.String("user", "oware", "Couchbase user")
	pass := flag.String("pass", "", "Couchbase password")
	bucket := flag.String("bucket", "a3c", "Couchbase bucket")
	flag.Parse()

	model, err := actorcritic.New(env.Channels, actorcritic.Discrete(env.Actions), actorcritic.WithSeed(*seed))
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	if *host != "" {
		cfg := storage.CouchbaseConfig{Host: *host, Username: *user, Password: *pass, Bucket: *bucket}
		if err := restore(model, cfg, *checkpoint); err != nil {
			log.Fatalf("failed to load checkpoint: %v", err)
		}
	}

	srv := server.New(model)
	log.Printf("server started addr=%s at %s", *addr, time.Now().Format("Mon Jan _2 15:04:05 2006"))
	log.Fatal(http.ListenAndServe(*addr, srv.Handler()))
}

// restore loads a checkpoint into model. A missing latest checkpoint
// leaves the fresh model in place.
func restore(model *actorcritic.Model, cfg storage.CouchbaseConfig, id string) error {
	cb, err := storage.OpenCouchbase(cfg)
	if err != nil {
		return err
	}
	store := storage.NewStore(cb)
	defer store.Close()

	ckpt, err := store.LoadInto(model, id)
	switch {
	case errors.Is(err, storage.ErrNotFound) && id == "":
		log.Printf("no checkpoint stored, serving a fresh model")
		return nil
	case err != nil:
		return err
	}
	log.Printf("serving checkpoint=%s", ckpt.ID)
	return nil
}

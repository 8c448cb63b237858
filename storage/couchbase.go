package storage

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/pkg/errors"
)

// CouchbaseConfig points at the bucket checkpoints live in.
type CouchbaseConfig struct {
	Host       string
	Username   string
	Password   string
	Bucket     string
	Scope      string
	Collection string
	Timeout    time.Duration
	Retries    int
}

// Couchbase stores blobs as raw binary documents.
type Couchbase struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
	transcoder gocb.Transcoder
	retries    int
}

func OpenCouchbase(cfg CouchbaseConfig) (*Couchbase, error) {
	if cfg.Scope == "" {
		cfg.Scope = "_default"
	}
	if cfg.Collection == "" {
		cfg.Collection = "_default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 20
	}

	cluster, err := gocb.Connect(
		cfg.Host,
		gocb.ClusterOptions{
			Username:             cfg.Username,
			Password:             cfg.Password,
			CircuitBreakerConfig: gocb.CircuitBreakerConfig{Disabled: true},
		})
	if err != nil {
		return nil, errors.Wrap(err, "connect couchbase")
	}

	bucket := cluster.Bucket(cfg.Bucket)
	if err := bucket.WaitUntilReady(cfg.Timeout, nil); err != nil {
		cluster.Close(nil)
		return nil, errors.Wrapf(err, "bucket %s not ready", cfg.Bucket)
	}

	return &Couchbase{
		cluster:    cluster,
		collection: bucket.Scope(cfg.Scope).Collection(cfg.Collection),
		transcoder: gocb.NewRawBinaryTranscoder(),
		retries:    cfg.Retries,
	}, nil
}

func (c *Couchbase) Put(key string, value []byte) error {
	return retry(c.retries, "upsert", key, func() error {
		_, err := c.collection.Upsert(key, value, &gocb.UpsertOptions{Transcoder: c.transcoder})
		return err
	})
}

func (c *Couchbase) Get(key string) ([]byte, error) {
	var r *gocb.GetResult
	err := retry(c.retries, "get", key, func() error {
		var err error
		r, err = c.collection.Get(key, &gocb.GetOptions{Transcoder: c.transcoder})
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return errors.Wrap(ErrNotFound, key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := r.Content(&value); err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return value, nil
}

func (c *Couchbase) Close() error {
	return c.cluster.Close(nil)
}

var (
	retryBackoff           = 100 * time.Millisecond
	retryLog     io.Writer = os.Stdout
)

// retry runs op up to n times with a linear back-off. Failures in the
// second half of the attempts are reported. ErrNotFound is final.
func retry(n int, what, key string, op func() error) error {
	var err error
	for retries := 1; retries <= n; retries++ {
		err = op()
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
		if retries > n/2 {
			fmt.Fprintf(retryLog, "%s error #%v key %s: %v\n", what, retries, key, err)
		}
		time.Sleep(retryBackoff * time.Duration(retries))
	}
	return errors.Wrapf(err, "%s %s", what, key)
}

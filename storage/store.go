// Package storage persists network checkpoints.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
)

const (
	keyPrefix = "ckpt::"
	latestKey = keyPrefix + "latest"
)

// Store saves checkpoints in a Backend and tracks the most recent one.
type Store struct {
	backend Backend
}

func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

// Save snapshots the parameters of m and marks the result as latest.
func (s *Store) Save(m *actorcritic.Model) (*Checkpoint, error) {
	c := &Checkpoint{
		ID:      uuid.NewString(),
		Created: time.Now().UTC(),
	}
	for _, p := range m.Parameters() {
		c.Params = append(c.Params, actorcritic.Param{
			Name:  p.Name,
			Shape: append([]int(nil), p.Shape...),
			Data:  append([]float64(nil), p.Data...),
		})
	}

	if err := s.backend.Put(keyPrefix+c.ID, Encode(c)); err != nil {
		return nil, errors.Wrap(err, "save checkpoint")
	}
	if err := s.backend.Put(latestKey, []byte(c.ID)); err != nil {
		return nil, errors.Wrap(err, "mark latest checkpoint")
	}
	return c, nil
}

func (s *Store) Load(id string) (*Checkpoint, error) {
	data, err := s.backend.Get(keyPrefix + id)
	if err != nil {
		return nil, err
	}
	c, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s", id)
	}
	return c, nil
}

// Latest loads the checkpoint written by the last Save.
func (s *Store) Latest() (*Checkpoint, error) {
	id, err := s.backend.Get(latestKey)
	if err != nil {
		return nil, err
	}
	return s.Load(string(id))
}

// LoadInto restores checkpoint id into m, or the latest checkpoint when id
// is empty.
func (s *Store) LoadInto(m *actorcritic.Model, id string) (*Checkpoint, error) {
	var (
		c   *Checkpoint
		err error
	)
	if id == "" {
		c, err = s.Latest()
	} else {
		c, err = s.Load(id)
	}
	if err != nil {
		return nil, err
	}
	if err := Restore(m, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Restore copies the parameters of c into m.
func Restore(m *actorcritic.Model, c *Checkpoint) error {
	return errors.Wrapf(m.LoadParameters(c.Params), "restore %s", c.ID)
}

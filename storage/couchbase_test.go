package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func quietRetries(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	backoff, out := retryBackoff, retryLog
	retryBackoff, retryLog = time.Millisecond, &buf
	t.Cleanup(func() { retryBackoff, retryLog = backoff, out })
	return &buf
}

func TestRetryLogsLateFailures(t *testing.T) {
	buf := quietRetries(t)

	calls := 0
	err := retry(4, "upsert", "ckpt::latest", func() error {
		calls++
		return errors.New("timeout")
	})
	if err == nil || !strings.Contains(err.Error(), "upsert ckpt::latest") {
		t.Fatalf("got %v", err)
	}
	if calls != 4 {
		t.Fatalf("%d attempts, want 4", calls)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "upsert error #3 key ckpt::latest") {
		t.Fatalf("logged %q", buf.String())
	}
}

func TestRetryStops(t *testing.T) {
	buf := quietRetries(t)

	calls := 0
	err := retry(5, "get", "k", func() error {
		calls++
		if calls < 2 {
			return errors.New("busy")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err %v after %d attempts", err, calls)
	}

	calls = 0
	err = retry(5, "get", "k", func() error {
		calls++
		return errors.Wrap(ErrNotFound, "k")
	})
	if !errors.Is(err, ErrNotFound) || calls != 1 {
		t.Fatalf("err %v after %d attempts", err, calls)
	}
	if buf.Len() != 0 {
		t.Fatalf("logged %q", buf.String())
	}
}

package store

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// retryPolicy retries writes that fail on lock contention. busy_timeout
// covers most SQLITE_BUSY cases inside the driver; the rest surface here.
type retryPolicy struct {
	retries int
	base    time.Duration
	max     time.Duration
}

var defaultRetryPolicy = retryPolicy{
	retries: 3,
	base:    50 * time.Millisecond,
	max:     500 * time.Millisecond,
}

// do runs fn until it succeeds, fails permanently, the retries are used up
// or ctx is done.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || !transient(err) || attempt >= p.retries {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), err.Error())
		case <-time.After(p.delay(attempt)):
		}
	}
}

// delay is base * 2^attempt capped at max, plus up to base of jitter.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.base << uint(attempt)
	if d > p.max || d <= 0 {
		d = p.max
	}
	if p.base > 0 {
		d += time.Duration(rand.Int63n(int64(p.base)))
	}
	return d
}

// transient reports whether err is a lock or short-read failure that may
// succeed on a later attempt.
func transient(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return se.Code() == sqlite3.SQLITE_IOERR_SHORT_READ
	}
	msg := err.Error()
	for _, s := range []string{"SQLITE_BUSY", "SQLITE_LOCKED", "IOERR_SHORT_READ", "database is locked", "database table is locked"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Package rsstore persists closed streams in a BadgerDB instance.
//
// Each stream is stored under a string key as an [rscodec] snapshot.
// Streams that are still open cannot be stored;
// freeze them first.
package rsstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gordian-engine/rstream"
	"github.com/gordian-engine/rstream/internal/rstrace"
	"github.com/gordian-engine/rstream/rscodec"
)

// ErrNotFound is returned from [Store.Get] when no stream is stored
// under the requested key.
var ErrNotFound = errors.New("rsstore: not found")

// Config is the configuration passed to [Open].
type Config struct {
	// Directory holding the database files.
	// Required unless InMemory is set.
	Dir string

	// Keep all data in memory, without touching disk.
	InMemory bool

	// Receives a span for every Put, Get, and Delete.
	// If nil, spans are discarded.
	TracerProvider rstrace.TracerProvider
}

// Store is a key-value store of closed streams.
// It is safe for concurrent use.
type Store[T any] struct {
	log    *slog.Logger
	tracer rstrace.Tracer
	db     *badger.DB
}

// Open opens or creates the database described by cfg.
// Badger's own log output is routed to log.
func Open[T any](log *slog.Logger, cfg Config) (*Store[T], error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("Config.Dir is required unless InMemory is set")
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(badgerLogger{log: log.With("sys", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Store[T]{
		log:    log,
		tracer: rstrace.NewTracer(cfg.TracerProvider),
		db:     db,
	}, nil
}

// Close closes the underlying database.
func (s *Store[T]) Close() error {
	return s.db.Close()
}

// Put stores the closed stream st under key,
// replacing any stream already there.
//
// If st is not closed, the returned error wraps an [*rstream.NotClosedError]
// and nothing is written.
func (s *Store[T]) Put(ctx context.Context, key string, st rstream.Stream[T]) (err error) {
	ctx, span := s.tracer.Start(
		ctx, "put stream",
		rstrace.WithAttributes(rstrace.KeyAttr(key)),
	)
	defer func() {
		rstrace.SpanError(span, err)
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return errors.New("cannot store stream under empty key")
	}

	snap, err := rscodec.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode stream for key %q: %w", key, err)
	}
	span.SetAttributes(rstrace.SizeAttr(len(snap)))

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), snap)
	}); err != nil {
		return fmt.Errorf("failed to store stream for key %q: %w", key, err)
	}

	s.log.Debug("Stored stream", "key", key, "size", len(snap))
	return nil
}

// Get returns a new closed stream decoded from the value stored under key.
// It returns [ErrNotFound] if there is no such key.
func (s *Store[T]) Get(ctx context.Context, key string) (st rstream.Stream[T], err error) {
	ctx, span := s.tracer.Start(
		ctx, "get stream",
		rstrace.WithAttributes(rstrace.KeyAttr(key)),
	)
	defer func() {
		if err != ErrNotFound {
			rstrace.SpanError(span, err)
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return st, err
	}

	var snap []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		snap, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return st, ErrNotFound
	}
	if err != nil {
		return st, fmt.Errorf("failed to load stream for key %q: %w", key, err)
	}
	span.SetAttributes(rstrace.SizeAttr(len(snap)))

	st, err = rscodec.Unmarshal[T](snap)
	if err != nil {
		return st, fmt.Errorf("failed to decode stream for key %q: %w", key, err)
	}
	return st, nil
}

// Delete removes the stream stored under key.
// Deleting a missing key is not an error.
func (s *Store[T]) Delete(ctx context.Context, key string) (err error) {
	_, span := s.tracer.Start(
		ctx, "delete stream",
		rstrace.WithAttributes(rstrace.KeyAttr(key)),
	)
	defer func() {
		rstrace.SpanError(span, err)
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete stream for key %q: %w", key, err)
	}
	return nil
}

// Keys iterates, in lexical order, over every stored key
// that starts with prefix.
// An empty prefix matches every key.
//
// Iteration stops early with ctx's error if ctx is canceled.
func (s *Store[T]) Keys(ctx context.Context, prefix string) iter.Seq2[string, error] {
	p := []byte(prefix)
	return func(yield func(string, error) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = p
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if !yield(string(it.Item().Key()), nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// badgerLogger adapts a [*slog.Logger] to [badger.Logger].
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) {
	l.log.Error(trimf(f, v))
}

func (l badgerLogger) Warningf(f string, v ...any) {
	l.log.Warn(trimf(f, v))
}

func (l badgerLogger) Infof(f string, v ...any) {
	l.log.Info(trimf(f, v))
}

func (l badgerLogger) Debugf(f string, v ...any) {
	l.log.Debug(trimf(f, v))
}

// trimf formats a badger log line,
// which usually carries a trailing newline.
func trimf(f string, v []any) string {
	return strings.TrimRight(fmt.Sprintf(f, v...), "\n")
}

// Package rsshard erasure-codes snapshots of closed streams.
//
// [Split] encodes a closed stream with [rscodec.Marshal]
// and splits the snapshot into data and parity shards
// using Reed-Solomon coding.
// [Join] restores the stream from any subset of the shards
// that is missing no more than the parity count.
package rsshard

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/gordian-engine/rstream"
	"github.com/gordian-engine/rstream/rscodec"
	"github.com/klauspost/reedsolomon"
)

// Config is the config for [Split].
type Config struct {
	// How many shards carry the snapshot itself.
	// Must be positive.
	DataShards int

	// How many additional parity shards to produce.
	// Up to this many shards may be lost
	// while still being able to [Join] the rest.
	// Must not be negative.
	ParityShards int
}

// Shards is the value returned by [Split].
type Shards struct {
	// The number of data and parity shards.
	NumData, NumParity int

	// Size of the snapshot before splitting,
	// so that padding in the last data shard can be discarded.
	Size int

	// The data shards followed by the parity shards.
	// All shards have the same length.
	// A nil entry marks a lost shard.
	Chunks [][]byte
}

// Missing returns the number of nil entries in sh.Chunks.
func (sh Shards) Missing() int {
	n := 0
	for _, c := range sh.Chunks {
		if c == nil {
			n++
		}
	}
	return n
}

// Split encodes the closed stream s
// and erasure-codes the snapshot according to cfg.
func Split[T any](s rstream.Stream[T], cfg Config) (Shards, error) {
	if cfg.DataShards <= 0 {
		return Shards{}, fmt.Errorf(
			"DataShards must be positive (got %d)", cfg.DataShards,
		)
	}
	if cfg.ParityShards < 0 {
		return Shards{}, fmt.Errorf(
			"ParityShards must be non-negative (got %d)", cfg.ParityShards,
		)
	}

	snap, err := rscodec.Marshal(s)
	if err != nil {
		return Shards{}, err
	}

	enc, err := reedsolomon.New(cfg.DataShards, cfg.ParityShards)
	if err != nil {
		return Shards{}, fmt.Errorf(
			"failed to build Reed-Solomon encoder: %w", err,
		)
	}

	chunks, err := enc.Split(snap)
	if err != nil {
		return Shards{}, fmt.Errorf(
			"failed to split snapshot for sharding: %w", err,
		)
	}

	if err := enc.Encode(chunks); err != nil {
		return Shards{}, fmt.Errorf(
			"failed to erasure-code snapshot: %w", err,
		)
	}

	return Shards{
		NumData:   cfg.DataShards,
		NumParity: cfg.ParityShards,
		Size:      len(snap),
		Chunks:    chunks,
	}, nil
}

// Join reconstructs any lost data shards in sh
// and decodes the snapshot into a new closed stream.
// sh.Chunks is not modified.
//
// If too many shards are lost, the returned error wraps
// [reedsolomon.ErrTooFewShards].
func Join[T any](sh Shards) (rstream.Stream[T], error) {
	var s rstream.Stream[T]

	enc, err := sh.encoder()
	if err != nil {
		return s, err
	}

	// Reconstruction fills in nil entries,
	// so work on a copy of the outer slice.
	chunks := slices.Clone(sh.Chunks)
	if err := enc.ReconstructData(chunks); err != nil {
		return s, fmt.Errorf(
			"failed to reconstruct data shards (%d of %d missing): %w",
			sh.Missing(), len(chunks), err,
		)
	}

	var buf bytes.Buffer
	buf.Grow(sh.Size)
	if err := enc.Join(&buf, chunks, sh.Size); err != nil {
		return s, fmt.Errorf("failed to join data shards: %w", err)
	}

	return rscodec.Unmarshal[T](buf.Bytes())
}

// Verify reports whether the parity shards in sh
// are consistent with its data shards.
// Every shard must be present.
func Verify(sh Shards) (bool, error) {
	if sh.Missing() > 0 {
		return false, errors.New("cannot verify shards with missing entries")
	}

	enc, err := sh.encoder()
	if err != nil {
		return false, err
	}

	ok, err := enc.Verify(sh.Chunks)
	if err != nil {
		return false, fmt.Errorf("failed to verify shards: %w", err)
	}
	return ok, nil
}

func (sh Shards) encoder() (reedsolomon.Encoder, error) {
	if len(sh.Chunks) != sh.NumData+sh.NumParity {
		return nil, fmt.Errorf(
			"have %d shards but expected %d data and %d parity",
			len(sh.Chunks), sh.NumData, sh.NumParity,
		)
	}

	enc, err := reedsolomon.New(sh.NumData, sh.NumParity)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to build Reed-Solomon encoder: %w", err,
		)
	}
	return enc, nil
}

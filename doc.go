// Package rstream contains a replayable broadcast stream.
//
// A [Stream] is a single producer-side sequence of values
// that any number of readers can consume independently.
// A [Reader] created at any time replays every value already produced,
// and then observes every value produced afterward,
// in the same order as every other reader of the same stream.
//
// A stream is always in one of three states (see [Kind]):
//
//   - Open-writable streams accept values through a [Writer].
//     Readers that reach the end of the buffered values are suspended
//     until the next append or freeze.
//   - Open-lazy streams wrap a [Producer].
//     Values are pulled from the producer on demand
//     and cached so that later readers replay them.
//   - Closed streams are immutable.
//     Open-writable streams close when frozen,
//     and open-lazy streams close when their producer is exhausted.
//
// Readers expose two ways of waiting for data.
// [*Reader.Poll] never blocks: it either returns a value,
// reports end of sequence, or registers a wake callback
// to be invoked when polling again may make progress.
// [*Reader.Next] blocks the calling goroutine
// until a value is available or its context is canceled.
//
// Closed streams can be persisted.
// [Stream] implements [encoding/json.Marshaler] and the msgpack
// custom encoder interfaces, encoding exactly as the slice of its values.
// Decoding always produces a closed stream.
// See the rscodec, rsshard and rsstore packages for binary snapshots,
// erasure-coded snapshots, and on-disk storage.
package rstream

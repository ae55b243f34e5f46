// Package rscodec contains a compact binary snapshot format
// for closed streams.
//
// A snapshot is a one-byte header followed by the msgpack encoding
// of the stream's values, optionally snappy-compressed.
// Compression is only used when it makes the snapshot smaller.
//
// [Encoder] and [Decoder] frame a sequence of snapshots
// over an [io.Writer] and [io.Reader]
// with a big endian uint32 length prefix.
package rscodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/gordian-engine/rstream"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	rawEncoding    byte = 0
	snappyEncoding byte = 1
)

// DefaultMaxFrameSize is the largest frame a [Decoder] accepts
// when its config does not set a limit.
const DefaultMaxFrameSize = 64 << 20

// Marshal encodes the closed stream s as a snapshot.
// If s is not closed, the returned error wraps an [*rstream.NotClosedError].
func Marshal[T any](s rstream.Stream[T]) ([]byte, error) {
	return appendSnapshot(nil, s)
}

// appendSnapshot appends the snapshot of s to dst.
func appendSnapshot[T any](dst []byte, s rstream.Stream[T]) ([]byte, error) {
	body, err := msgpack.Marshal(s)
	if err != nil {
		return dst, fmt.Errorf("failed to encode stream values: %w", err)
	}

	// Try snappy and see if we save any bytes.
	enc := snappy.Encode(nil, body)
	if len(enc) < len(body) {
		dst = append(dst, snappyEncoding)
		return append(dst, enc...), nil
	}

	dst = append(dst, rawEncoding)
	return append(dst, body...), nil
}

// Unmarshal decodes a snapshot produced by [Marshal]
// into a new closed stream.
func Unmarshal[T any](b []byte) (rstream.Stream[T], error) {
	var s rstream.Stream[T]
	if len(b) == 0 {
		return s, errors.New("empty snapshot")
	}

	body := b[1:]
	switch b[0] {
	case rawEncoding:
		// Use body directly.
	case snappyEncoding:
		dec, err := snappy.Decode(nil, body)
		if err != nil {
			return s, fmt.Errorf("failed to decompress snapshot: %w", err)
		}
		body = dec
	default:
		return s, fmt.Errorf("unknown snapshot encoding %d", b[0])
	}

	if err := msgpack.Unmarshal(body, &s); err != nil {
		return s, fmt.Errorf("failed to decode stream values: %w", err)
	}
	return s, nil
}

// Encoder writes length-prefixed snapshots to an underlying writer.
type Encoder[T any] struct {
	w io.Writer

	// Reused across calls to Encode.
	buf []byte
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder[T any](w io.Writer) *Encoder[T] {
	return &Encoder[T]{w: w}
}

// Encode writes one framed snapshot of s.
// Nothing is written if s is not closed.
func (e *Encoder[T]) Encode(s rstream.Stream[T]) error {
	// Reserve the length prefix, then backfill it.
	buf, err := appendSnapshot(append(e.buf[:0], 0, 0, 0, 0), s)
	e.buf = buf
	if err != nil {
		return err
	}

	frameSz := len(buf) - 4
	if uint64(frameSz) > uint64(^uint32(0)) {
		return fmt.Errorf("snapshot too large to frame: %d bytes", frameSz)
	}
	binary.BigEndian.PutUint32(buf, uint32(frameSz))

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write snapshot frame: %w", err)
	}
	return nil
}

// DecoderConfig is the configuration passed to [NewDecoder].
type DecoderConfig struct {
	// Frames larger than this are rejected before being read.
	// Zero means DefaultMaxFrameSize.
	MaxFrameSize int
}

// Decoder reads length-prefixed snapshots written by an [Encoder].
type Decoder[T any] struct {
	r      io.Reader
	maxSz  int
	header [4]byte
	buf    []byte
}

// NewDecoder returns a Decoder that reads from r.
func NewDecoder[T any](r io.Reader, cfg DecoderConfig) *Decoder[T] {
	maxSz := cfg.MaxFrameSize
	if maxSz <= 0 {
		maxSz = DefaultMaxFrameSize
	}
	return &Decoder[T]{r: r, maxSz: maxSz}
}

// Decode reads the next snapshot as a new closed stream.
//
// Decode returns [io.EOF] when r ends cleanly between frames,
// and [io.ErrUnexpectedEOF] when r ends partway through a frame.
func (d *Decoder[T]) Decode() (rstream.Stream[T], error) {
	var s rstream.Stream[T]

	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		if err == io.EOF {
			return s, io.EOF
		}
		return s, fmt.Errorf("failed to read snapshot frame length: %w", err)
	}

	sz := binary.BigEndian.Uint32(d.header[:])
	if uint64(sz) > uint64(d.maxSz) {
		return s, fmt.Errorf(
			"snapshot frame of %d bytes exceeds limit of %d", sz, d.maxSz,
		)
	}

	if cap(d.buf) < int(sz) {
		d.buf = make([]byte, sz)
	} else {
		d.buf = d.buf[:sz]
	}

	if _, err := io.ReadFull(d.r, d.buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return s, fmt.Errorf("failed to read snapshot frame: %w", err)
	}

	return Unmarshal[T](d.buf)
}

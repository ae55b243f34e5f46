// Package rstest contains helpers shared by the tests of this module.
package rstest

import (
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a logger
// whose output is routed through t.Log,
// so it only appears for failed or verbose tests.
func NewLogger(t testing.TB) *slog.Logger {
	return slogt.New(t, slogt.Text())
}

package rstrace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gordian-engine/rstream/internal/rstrace"
	"github.com/stretchr/testify/require"
)

func TestNewTracer_nilProvider(t *testing.T) {
	t.Parallel()

	tr := rstrace.NewTracer(nil)
	require.NotNil(t, tr)

	_, span := tr.Start(
		context.Background(), "test",
		rstrace.WithAttributes(rstrace.KeyAttr("k"), rstrace.SizeAttr(3)),
	)
	defer span.End()

	// The no-op span never records.
	require.False(t, span.IsRecording())
	rstrace.SpanError(span, errors.New("boom"))
	rstrace.SpanError(span, nil)
}

func TestErrorAttr(t *testing.T) {
	t.Parallel()

	a := rstrace.ErrorAttr(errors.New("boom"))
	require.Equal(t, "err", string(a.Key))
	require.Equal(t, "boom", a.Value.AsString())
}

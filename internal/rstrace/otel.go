// Package rstrace holds the small set of OpenTelemetry helpers
// used to trace persistence operations.
package rstrace

import (
	otelattr "go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	otpnoop "go.opentelemetry.io/otel/trace/noop"
)

type TracerProvider = oteltrace.TracerProvider

type Tracer = oteltrace.Tracer

type Span = oteltrace.Span

type KeyValueAttr = otelattr.KeyValue

// TracerName is the instrumentation name passed to [TracerProvider.Tracer].
const TracerName = "github.com/gordian-engine/rstream"

// NewTracer returns the module's tracer from tp,
// falling back to the otel no-op provider when tp is nil.
func NewTracer(tp TracerProvider) Tracer {
	if tp == nil {
		tp = otpnoop.NewTracerProvider()
	}
	return tp.Tracer(TracerName)
}

// WithAttributes is an alias to [oteltrace.WithAttributes]
// to allow consumers to only reference the rstrace package.
func WithAttributes(attrs ...KeyValueAttr) oteltrace.SpanStartEventOption {
	return oteltrace.WithAttributes(attrs...)
}

func KeyAttr(key string) KeyValueAttr {
	return otelattr.String("rstream.key", key)
}

func SizeAttr(n int) KeyValueAttr {
	return otelattr.Int("rstream.snapshot.size", n)
}

// SpanError records err on span and sets its status to error.
// A nil err is ignored.
func SpanError(span Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(otelcodes.Error, err.Error())
	span.SetAttributes(ErrorAttr(err))
}

// ErrorAttr returns an attribute with the key "err"
// holding err's message.
func ErrorAttr(err error) KeyValueAttr {
	return otelattr.Stringer("err", errStringer{err: err})
}

type errStringer struct {
	err error
}

func (e errStringer) String() string {
	return e.err.Error()
}

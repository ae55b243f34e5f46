package rstest

import (
	"testing"
	"time"
)

// ScaleDuration is how long the "soon" helpers wait
// before failing a test.
const ScaleDuration = time.Second

// ReceiveSoon receives a value from ch,
// failing the test if no value arrives within [ScaleDuration].
func ReceiveSoon[T any](t testing.TB, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(ScaleDuration):
		t.Fatalf("no value received within %s", ScaleDuration)
		panic("unreachable")
	}
}

// SendSoon sends v on ch,
// failing the test if the send does not complete within [ScaleDuration].
func SendSoon[T any](t testing.TB, ch chan<- T, v T) {
	t.Helper()

	select {
	case ch <- v:
	case <-time.After(ScaleDuration):
		t.Fatalf("could not send within %s", ScaleDuration)
	}
}

// IsSending asserts that a receive from ch succeeds immediately,
// which is the case for a closed channel or a buffered channel with a value.
func IsSending[T any](t testing.TB, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
	default:
		t.Fatal("channel was not ready to receive")
	}
}

// NotSending asserts that a receive from ch would block,
// after giving other goroutines a brief chance to run.
func NotSending[T any](t testing.TB, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
		t.Fatal("channel unexpectedly ready to receive")
	case <-time.After(10 * time.Millisecond):
	}
}

package ipc

import (
	"testing"
	"time"
)

func TestWirePushTryPop(t *testing.T) {
	p := NewByteSliceProvider(64)
	w := newWire(p, 0, 64)

	if _, ok, err := w.tryPop(); err != nil || ok {
		t.Fatalf("tryPop on empty wire = %v, %v; want false, nil", ok, err)
	}

	if err := w.push([]byte("hello")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := w.push([]byte("again")); err == nil {
		t.Error("push on a full wire should fail")
	}

	payload, ok, err := w.tryPop()
	if err != nil || !ok || string(payload) != "hello" {
		t.Fatalf("tryPop = %q, %v, %v; want hello, true, nil", payload, ok, err)
	}

	if err := w.push([]byte("next")); err != nil {
		t.Fatalf("push after drain: %v", err)
	}
}

func TestWirePushRejectsOversizedPayload(t *testing.T) {
	p := NewByteSliceProvider(16)
	w := newWire(p, 0, 16)
	if err := w.push(make([]byte, 100)); err == nil {
		t.Error("push accepted a payload larger than the wire")
	}
}

func TestWaitPopTimesOutWhenEmpty(t *testing.T) {
	p := NewByteSliceProvider(32)
	w := newWire(p, 0, 32)
	if _, err := w.waitPop(20 * time.Millisecond); err == nil {
		t.Error("waitPop on a never-filled wire should time out")
	}
}

package brokersvc

import "testing"

func TestRegisterCancelUnregister(t *testing.T) {
	svc := New(nil)

	flag := svc.Register(1)
	if flag.Canceled() {
		t.Fatal("freshly registered flag is already canceled")
	}

	if !svc.Cancel(1) {
		t.Fatal("Cancel(1) = false, want true")
	}
	if !flag.Canceled() {
		t.Error("flag not canceled after Cancel(1)")
	}

	svc.Unregister(1)
	if svc.Cancel(1) {
		t.Error("Cancel(1) = true after Unregister, want false")
	}
}

func TestRegisterIsIdempotentPerSession(t *testing.T) {
	svc := New(nil)
	a := svc.Register(1)
	b := svc.Register(1)
	if a != b {
		t.Error("Register(1) returned two different flags for the same session")
	}
}

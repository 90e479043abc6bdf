package framework

import (
	"errors"
	"testing"

	"github.com/ridgedb/ridge/internal/config"
)

type fakeComponent struct {
	label         string
	failSetup     bool
	failStart     bool
	failShutdown  bool
	setupCalled   bool
	startCalled   bool
	shutdownCalled bool
	trace         *[]string
}

func (f *fakeComponent) Label() string { return f.label }

func (f *fakeComponent) Setup(*Environment) error {
	f.setupCalled = true
	*f.trace = append(*f.trace, "setup:"+f.label)
	if f.failSetup {
		return errors.New("setup failed: " + f.label)
	}
	return nil
}

func (f *fakeComponent) Start(*Environment) error {
	f.startCalled = true
	*f.trace = append(*f.trace, "start:"+f.label)
	if f.failStart {
		return errors.New("start failed: " + f.label)
	}
	return nil
}

func (f *fakeComponent) Shutdown(*Environment) error {
	f.shutdownCalled = true
	*f.trace = append(*f.trace, "shutdown:"+f.label)
	if f.failShutdown {
		return errors.New("shutdown failed: " + f.label)
	}
	return nil
}

func newTestServer() *Server {
	env := NewEnvironment(BootModeDatabaseServer, config.DefaultConfig(), nil, nil)
	return NewServer(env)
}

func TestSetupStartShutdownOrder(t *testing.T) {
	var trace []string
	s := newTestServer()
	r := &fakeComponent{label: "r", trace: &trace}
	svc := &fakeComponent{label: "svc", trace: &trace}
	ep := &fakeComponent{label: "ep", trace: &trace}
	s.AddResource(r)
	s.AddService(svc)
	s.AddEndpoint(ep)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{
		"setup:r", "setup:svc", "setup:ep",
		"start:r", "start:svc", "start:ep",
		"shutdown:ep", "shutdown:svc", "shutdown:r",
	}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q (full: %v)", i, trace[i], want[i], trace)
		}
	}
}

func TestStartStopsAtFirstFailure(t *testing.T) {
	var trace []string
	s := newTestServer()
	r1 := &fakeComponent{label: "r1", trace: &trace}
	r2 := &fakeComponent{label: "r2", trace: &trace, failSetup: true}
	r3 := &fakeComponent{label: "r3", trace: &trace}
	s.AddResource(r1)
	s.AddResource(r2)
	s.AddResource(r3)

	if err := s.Start(); err == nil {
		t.Fatal("expected Start to fail")
	}
	if !r1.setupCalled || !r2.setupCalled {
		t.Fatal("r1 and r2 should have had Setup called")
	}
	if r3.setupCalled {
		t.Fatal("r3 setup must not run after r2 failed")
	}
}

func TestShutdownNeverShortCircuits(t *testing.T) {
	var trace []string
	s := newTestServer()
	r1 := &fakeComponent{label: "r1", trace: &trace}
	r2 := &fakeComponent{label: "r2", trace: &trace}
	s.AddResource(r1)
	s.AddResource(r2)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Simulate a resource that fails shutdown: r2 shuts down first (reverse
	// registration order) and fails; shutdown on r1 still must run.
	r2.failShutdown = true
	if err := s.Shutdown(); err == nil {
		t.Fatal("expected Shutdown to report r2's failure")
	}
	if !r1.shutdownCalled || !r2.shutdownCalled {
		t.Fatal("both resources must have Shutdown called")
	}
}

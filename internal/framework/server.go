package framework

import (
	"fmt"

	"go.uber.org/zap"
)

// Server owns the Environment and drives the component lifecycle: setup
// and start walk resources then services then endpoints in the order they
// were registered; shutdown walks the exact reverse. Grounded on
// src/tateyama/framework/server.cpp's server::setup/start/shutdown.
type Server struct {
	env        *Environment
	setupDone  bool
	startDone  bool
}

// NewServer wraps env in a Server ready to receive component registrations.
func NewServer(env *Environment) *Server {
	return &Server{env: env}
}

func (s *Server) Environment() *Environment { return s.env }

// AddResource, AddService, and AddEndpoint register a component under its
// Kind, in call order. Registration after Setup has already run still
// takes effect for Start/Shutdown, but will not receive a Setup call —
// callers must register everything before calling Setup/Start.
func (s *Server) AddResource(c Component) { s.env.resources.add(c) }
func (s *Server) AddService(c Component)  { s.env.services.add(c) }
func (s *Server) AddEndpoint(c Component) { s.env.endpoints.add(c) }

// Setup runs Setup on every resource, then every service, then every
// endpoint, in registration order, stopping at the first failure. On
// failure it runs Shutdown on whatever was already set up before
// returning the error, matching the teacher's "shutdown already setup
// components" behavior.
func (s *Server) Setup() error {
	if s.setupDone {
		return nil
	}

	order := []Kind{KindResource, KindService, KindEndpoint}
	type setupEntry struct {
		k Kind
		c Component
	}
	var done []setupEntry
	var failErr error
	for _, k := range order {
		if failErr != nil {
			break
		}
		failErr = s.env.registryFor(k).each(true, func(c Component) error {
			s.logBegin(k, c, "setup")
			err := c.Setup(s.env)
			s.logEnd(k, c, "setup", err)
			if err == nil {
				done = append(done, setupEntry{k, c})
			}
			return err
		})
	}

	if failErr != nil {
		if s.env.Log != nil {
			s.env.Log.Error("component setup phase failed", zap.Error(failErr))
		}
		for i := len(done) - 1; i >= 0; i-- {
			s.logBegin(done[i].k, done[i].c, "shutdown")
			err := done[i].c.Shutdown(s.env)
			s.logEnd(done[i].k, done[i].c, "shutdown", err)
		}
		return failErr
	}

	s.setupDone = true
	return nil
}

// Start runs Setup if it has not already run, then Start on every
// resource, service, and endpoint in registration order, stopping at the
// first failure and then running Shutdown on every component (all of them
// were set up by then).
func (s *Server) Start() error {
	if !s.setupDone {
		if err := s.Setup(); err != nil {
			return err
		}
	}

	order := []Kind{KindResource, KindService, KindEndpoint}
	var failErr error
	for _, k := range order {
		if failErr != nil {
			break
		}
		failErr = s.env.registryFor(k).each(true, func(c Component) error {
			s.logBegin(k, c, "start")
			err := c.Start(s.env)
			s.logEnd(k, c, "start", err)
			return err
		})
	}

	if failErr != nil {
		if s.env.Log != nil {
			s.env.Log.Error("component start phase failed", zap.Error(failErr))
		}
		_ = s.Shutdown()
		return failErr
	}

	s.startDone = true
	return nil
}

// Shutdown runs Shutdown on every endpoint, then every service, then every
// resource — the reverse of setup/start order, also within each kind — and
// never short-circuits: every component gets a chance to tear down even if
// an earlier one failed. It returns the first error encountered, if any.
func (s *Server) Shutdown() error {
	order := []Kind{KindEndpoint, KindService, KindResource}
	var firstErr error
	for _, k := range order {
		items := s.env.registryFor(k).components()
		for i := len(items) - 1; i >= 0; i-- {
			c := items[i]
			s.logBegin(k, c, "shutdown")
			err := c.Shutdown(s.env)
			s.logEnd(k, c, "shutdown", err)
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	s.startDone = false
	return firstErr
}

func (s *Server) logBegin(k Kind, c Component, phase string) {
	if s.env.Log == nil {
		return
	}
	s.env.Log.Debug(fmt.Sprintf("lifecycle:%s:begin", phase),
		zap.String("kind", k.String()), zap.String("component", c.Label()))
}

func (s *Server) logEnd(k Kind, c Component, phase string, err error) {
	if s.env.Log == nil {
		return
	}
	s.env.Log.Debug(fmt.Sprintf("lifecycle:%s:end", phase),
		zap.String("kind", k.String()), zap.String("component", c.Label()),
		zap.Bool("success", err == nil))
}

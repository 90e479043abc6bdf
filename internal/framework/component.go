// Package framework implements ridge's component lifecycle and registry
// (spec.md C6): resources, services, and endpoints are registered in
// insertion order and brought up/down together through a shared
// Environment. Grounded on tateyama's include/tateyama/framework/component.h
// and src/tateyama/framework/server.cpp, translated into Go idiom the way
// the teacher structures its own interface-per-boundary packages
// (internal/domain/interfaces.go).
package framework

// Kind distinguishes the three component categories a Server brings up in
// order: resources first, then services, then endpoints.
type Kind int

const (
	KindResource Kind = iota
	KindService
	KindEndpoint
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindService:
		return "service"
	case KindEndpoint:
		return "endpoint"
	default:
		return "unknown"
	}
}

// MaxSystemReservedID is the highest component id ridge itself may assign;
// ids above this are free for application-defined services.
const MaxSystemReservedID = 255

// Component is the lifecycle contract every resource, service, and endpoint
// satisfies. Setup and Start run in registration order and stop at the
// first failure; Shutdown always runs every component regardless of
// earlier failures, so teardown is never partial.
type Component interface {
	// Label names the component in lifecycle log lines.
	Label() string
	Setup(*Environment) error
	Start(*Environment) error
	Shutdown(*Environment) error
}

// Identified is implemented by components that serve a numeric id
// discoverable through a Registry (routing services, mainly).
type Identified interface {
	ID() uint32
}

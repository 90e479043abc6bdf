// Package routing implements ridge's built-in routing service (spec.md
// C7): it parses the framework header off a request's payload, looks the
// target service up by id in the framework registry, and forwards the
// call. Grounded on tateyama's framework/routing_service.h semantics and
// on the teacher's internal/mcp/gateway.go dispatch-by-method-name idiom,
// translated here to dispatch-by-numeric-id.
package routing

// Reserved service ids (spec.md §6 "Service ids"): 0-255 belong to the
// framework itself.
const (
	ServiceIDRouting        uint32 = 0
	ServiceIDDatastore      uint32 = 1
	ServiceIDSession        uint32 = 2
	ServiceIDMetrics        uint32 = 3
	ServiceIDAltimeter      uint32 = 4
	ServiceIDDebug          uint32 = 5
	ServiceIDSQL            uint32 = 6
	ServiceIDEndpointBroker uint32 = 7
	ServiceIDRequest        uint32 = 8
	ServiceIDAuthentication uint32 = 9
	ServiceIDSystem         uint32 = 10
)

package framework

import "github.com/ridgedb/ridge/internal/contract"

// Service is a Component that additionally accepts (request, response)
// pairs (spec.md §3 "Component"). Every registered service must also
// implement Identified so the routing service (C7) can look it up by its
// numeric id.
type Service interface {
	Component
	Identified
	// Call processes req, writing into resp, and reports whether the call
	// completed successfully. A false return (or non-nil error) does not
	// by itself mean resp was left unterminated — callers still consult
	// resp for the actual outcome.
	Call(req contract.Request, resp contract.Response) (bool, error)
}

// Package sqlsvc is a thin stand-in for ridge's SQL execution service.
// spec.md §1 names concrete query processing as a non-goal of the CORE;
// SPEC_FULL.md §5 lists "sql" among the stable service ids regardless, so
// this package reserves the id and rejects every call with a clear
// diagnostic rather than silently behaving like an unknown service.
package sqlsvc

import (
	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
)

// Service occupies the "sql" service id. Query processing itself is out of
// scope (spec.md §1 Non-goals); a real deployment would bind the SQL
// engine behind this same Component/Service interface.
type Service struct{}

// New constructs the SQL service stub.
func New() *Service { return &Service{} }

func (s *Service) Label() string { return "sql" }
func (s *Service) ID() uint32    { return routing.ServiceIDSQL }

func (s *Service) Setup(*framework.Environment) error    { return nil }
func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Call always rejects: no query processor is wired in (spec.md §1
// Non-goals). It still honors the Request/Response contract rather than
// panicking or hanging, so callers see a normal diagnostic.
func (s *Service) Call(_ contract.Request, resp contract.Response) (bool, error) {
	return false, resp.Error(contract.Record{
		Code:    contract.CodeServiceUnavailable,
		Message: "sql: query processing is not implemented in this build",
	})
}

package routing

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/wire"
)

// Service is the built-in routing service: the only entry point services
// see from an endpoint. It shields them from wire framing (spec.md §4.7).
type Service struct {
	env *framework.Environment
	log *zap.Logger
}

// New constructs the routing service. It registers itself under
// ServiceIDRouting once added to a Server via env.
func New(log *zap.Logger) *Service {
	return &Service{log: log}
}

func (s *Service) Label() string { return "routing" }
func (s *Service) ID() uint32    { return ServiceIDRouting }

func (s *Service) Setup(env *framework.Environment) error {
	s.env = env
	return nil
}

func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Call parses the framework header off req.Payload(), looks up the target
// service, and forwards. On a parse failure or unknown service id it
// writes a server-diagnostics record to resp instead of invoking anything
// downstream (spec.md §4.7 steps 2-3).
func (s *Service) Call(req contract.Request, resp contract.Response) (bool, error) {
	header, body, err := s.parseEnvelope(req.Payload())
	if err != nil {
		return s.reject(resp, contract.CodeInvalidRequest, err.Error())
	}

	svcComponent, ok := s.env.FindServiceByID(header.ServiceID)
	if !ok {
		return s.reject(resp, contract.CodeServiceUnavailable,
			fmt.Sprintf("service %d is unavailable", header.ServiceID))
	}

	svc, ok := svcComponent.(framework.Service)
	if !ok {
		return s.reject(resp, contract.CodeServiceUnavailable,
			fmt.Sprintf("service %d is unavailable", header.ServiceID))
	}

	resp.SetSessionID(header.SessionID)
	return svc.Call(&forwardedRequest{Request: req, body: body}, resp)
}

func (s *Service) parseEnvelope(payload []byte) (wire.Header, []byte, error) {
	headerBytes, n := wire.ConsumeLengthDelimited(payload)
	if n < 0 {
		return wire.Header{}, nil, fmt.Errorf("routing: truncated framework header")
	}
	header, err := wire.DecodeHeader(headerBytes)
	if err != nil {
		return wire.Header{}, nil, err
	}

	rest := payload[n:]
	body, bn := wire.ConsumeLengthDelimited(rest)
	if bn < 0 {
		return wire.Header{}, nil, fmt.Errorf("routing: truncated service payload")
	}
	return header, body, nil
}

func (s *Service) reject(resp contract.Response, code contract.DiagnosticCode, msg string) (bool, error) {
	if s.log != nil {
		s.log.Warn("routing rejected request", zap.String("code", string(code)), zap.String("message", msg))
	}
	if err := resp.Error(contract.Record{Code: code, Message: msg}); err != nil {
		return false, err
	}
	return false, nil
}

// forwardedRequest rewrites Payload() to the service-level body once the
// framework header has been stripped off, while delegating everything
// else to the original Request.
type forwardedRequest struct {
	contract.Request
	body []byte
}

func (f *forwardedRequest) Payload() []byte { return f.body }

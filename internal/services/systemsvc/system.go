// Package systemsvc implements ridge's "system" service id: a read-only
// window onto the framework's own component registries, letting an
// operator (or the ridged CLI) list every resource/service/endpoint the
// running process has set up, in lifecycle order. Grounded on
// framework.Server's Environment plumbing — systemsvc is the one service
// that reaches back into the framework package itself rather than a
// concrete domain collaborator.
package systemsvc

import (
	"encoding/json"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/scheduler"
)

// componentInfo is the JSON shape for one listed component.
type componentInfo struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Service answers requests with the current component inventory.
type Service struct {
	env *framework.Environment
}

// New constructs the system service.
func New() *Service { return &Service{} }

func (s *Service) Label() string { return "system" }
func (s *Service) ID() uint32    { return routing.ServiceIDSystem }

func (s *Service) Setup(env *framework.Environment) error {
	s.env = env
	return nil
}

func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Call answers with a JSON array listing every resource, then service,
// then endpoint currently registered, in the order they were added — the
// same order setup/start run in (spec.md §4.6). Gathering the inventory
// runs as a task on the scheduler rather than inline on the endpoint's
// dispatch goroutine (spec.md §2 "a service may enqueue work into the
// scheduler"); this is the registry read-only walk, so it is safe from
// any worker.
func (s *Service) Call(_ contract.Request, resp contract.Response) (bool, error) {
	done := make(chan inventoryResult, 1)
	s.env.Sched.Schedule(&inventoryTask{env: s.env, done: done})
	r := <-done

	if r.err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: r.err.Error()})
	}
	body, err := json.Marshal(r.out)
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(body)
}

type inventoryResult struct {
	out []componentInfo
	err error
}

// inventoryTask walks the three component registries. It is not sticky:
// any worker may run it, since Environment.Each only reads the already
// populated, append-only-before-start registries (spec.md §5).
type inventoryTask struct {
	env  *framework.Environment
	done chan inventoryResult
}

func (t *inventoryTask) Sticky() bool { return false }

func (t *inventoryTask) Run(*scheduler.Context) {
	var out []componentInfo
	for _, k := range []framework.Kind{framework.KindResource, framework.KindService, framework.KindEndpoint} {
		err := t.env.Each(k, func(c framework.Component) error {
			out = append(out, componentInfo{Kind: k.String(), Label: c.Label()})
			return nil
		})
		if err != nil {
			t.done <- inventoryResult{err: err}
			return
		}
	}
	t.done <- inventoryResult{out: out}
}

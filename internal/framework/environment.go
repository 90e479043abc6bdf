package framework

import (
	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/config"
	"github.com/ridgedb/ridge/internal/scheduler"
)

// BootMode mirrors tateyama's boot_mode: a process can come up serving
// normal traffic, or in a maintenance mode that only a subset of
// components care about.
type BootMode int

const (
	BootModeDatabaseServer BootMode = iota
	BootModeMaintenanceServer
	BootModeMaintenanceStandalone
	BootModeQuiesceServer
)

// Environment is the shared handle every Component receives at each
// lifecycle step: it carries configuration, the task scheduler, and the
// component registries, so any component can look up another by id (the
// routing service resolves services this way).
type Environment struct {
	Mode   BootMode
	Config config.Config
	Log    *zap.Logger
	Sched  *scheduler.Scheduler

	resources *registry
	services  *registry
	endpoints *registry
}

// NewEnvironment wires a fresh Environment around an already-constructed
// scheduler and logger.
func NewEnvironment(mode BootMode, cfg config.Config, log *zap.Logger, sched *scheduler.Scheduler) *Environment {
	return &Environment{
		Mode:      mode,
		Config:    cfg,
		Log:       log,
		Sched:     sched,
		resources: newRegistry(),
		services:  newRegistry(),
		endpoints: newRegistry(),
	}
}

func (e *Environment) registryFor(k Kind) *registry {
	switch k {
	case KindResource:
		return e.resources
	case KindService:
		return e.services
	case KindEndpoint:
		return e.endpoints
	default:
		return nil
	}
}

// FindServiceByID looks up a registered service by its numeric id — the
// mechanism the routing service uses to dispatch a framework request.
func (e *Environment) FindServiceByID(id uint32) (Component, bool) {
	return e.services.findByID(id)
}

// FindResourceByID looks up a registered resource by its numeric id.
func (e *Environment) FindResourceByID(id uint32) (Component, bool) {
	return e.resources.findByID(id)
}

// Each visits every registered component of kind k in insertion order,
// without stopping on error — a read-only inventory walk for tooling
// (systemsvc) rather than a lifecycle phase.
func (e *Environment) Each(k Kind, visit func(Component) error) error {
	return e.registryFor(k).each(false, visit)
}

// Package daemon wires every ridge component into one running process:
// the scheduler, the built-in routing service, the domain services
// (datastore, session, metrics, altimeter, debug, sql, endpoint-broker,
// authentication, system), both endpoints (shared-memory IPC and TCP
// stream), and the shared status area external tooling polls. Grounded
// on the teacher's internal/daemon/daemon.go: a New()/NewWithConfig()
// constructor that wires every subsystem into a struct, a Serve(ctx) that
// blocks until signaled, and a Close() that is safe to call from a defer.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/config"
	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/endpoints/ipc"
	"github.com/ridgedb/ridge/internal/endpoints/tcp"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/scheduler"
	"github.com/ridgedb/ridge/internal/services/altimeter"
	"github.com/ridgedb/ridge/internal/services/authsvc"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
	"github.com/ridgedb/ridge/internal/services/datastore"
	"github.com/ridgedb/ridge/internal/services/debugsvc"
	"github.com/ridgedb/ridge/internal/services/metricssvc"
	"github.com/ridgedb/ridge/internal/services/sessionsvc"
	"github.com/ridgedb/ridge/internal/services/sqlsvc"
	"github.com/ridgedb/ridge/internal/services/systemsvc"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/statusarea"
)

// Daemon is ridge's database server process: the scheduler, the
// framework.Server driving every component's lifecycle, and the shared
// status area external tooling (the ridged CLI) reads.
type Daemon struct {
	Config Config
	Log    *zap.Logger

	Scheduler *scheduler.Scheduler
	Server    *framework.Server
	Area      *statusarea.Area

	Datastore  *datastore.Service
	Session    *sessionsvc.Service
	Metrics    *metricssvc.Service
	Altimeter  *altimeter.Service
	Debug      *debugsvc.Service
	SQL        *sqlsvc.Service
	Broker     *brokersvc.Service
	Auth       *authsvc.Service
	System     *systemsvc.Service
	IPC        *ipc.Endpoint
	TCP        *tcp.Endpoint

	cancel context.CancelFunc
}

// New creates and wires a Daemon using configuration loaded from the
// default path.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon from an already-loaded Config.
func NewWithConfig(cfg Config) (*Daemon, error) {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	sched, err := scheduler.New(toSchedulerConfig(cfg.Scheduler), log)
	if err != nil {
		return nil, fmt.Errorf("construct scheduler: %w", err)
	}

	env := framework.NewEnvironment(framework.BootModeDatabaseServer, cfg, log, sched)
	srv := framework.NewServer(env)

	area := statusarea.New(cfg.Node.DatabaseName, filepath.Join(ridgeDataDir(cfg), "tsurugi.pid"))

	d := &Daemon{
		Config:    cfg,
		Log:       log,
		Scheduler: sched,
		Server:    srv,
		Area:      area,
	}

	promReg := prometheus.NewRegistry()

	d.Datastore = datastore.New(cfg.Datastore.Path)
	d.Auth = authsvc.New(ridgeDataDir(cfg))
	d.Altimeter = altimeter.New(log)
	d.Broker = brokersvc.New(log)
	d.SQL = sqlsvc.New()
	d.System = systemsvc.New()
	d.Metrics = metricssvc.New(sched, promReg)

	decls := session.NewVariableDeclarationSet(map[string]session.VariableType{
		"application_name": session.TypeString,
	})
	d.Session = sessionsvc.New(decls, area, d.Altimeter, log)

	d.Debug = &debugsvc.Service{
		Addr:      fmt.Sprintf("%s:%d", cfg.Telemetry.Host, cfg.Telemetry.Port),
		Area:      area,
		Registry:  promReg,
		Scheduler: sched,
		Checks: []debugsvc.Check{
			{Name: "datastore", Run: d.Datastore.Ping},
		},
	}

	routingSvc := routing.New(log)

	srv.AddService(routingSvc)
	srv.AddService(d.Datastore)
	srv.AddService(d.Session)
	srv.AddService(d.Metrics)
	srv.AddService(d.Altimeter)
	srv.AddService(d.Debug)
	srv.AddService(d.SQL)
	srv.AddService(d.Broker)
	srv.AddService(d.Auth)
	srv.AddService(d.System)

	dbInfo := contract.DatabaseInfo{Name: cfg.Node.DatabaseName}

	if cfg.IPCEndpoint.Enabled {
		d.IPC = ipc.New(ipc.Config{
			Enabled:               cfg.IPCEndpoint.Enabled,
			DatabaseName:          cfg.IPCEndpoint.DatabaseName,
			Threads:               cfg.IPCEndpoint.Threads,
			DatachannelBufferSize: cfg.IPCEndpoint.DatachannelBufferSize,
			MaxDatachannelBuffers: cfg.IPCEndpoint.MaxDatachannelBuffers,
			AdminSessions:         cfg.IPCEndpoint.AdminSessions,
		}, d.Session, d.Broker, area, dbInfo, log)
		srv.AddEndpoint(d.IPC)
	}

	if cfg.StreamEndpoint.Enabled {
		d.TCP = tcp.New(tcp.Config{
			Enabled: cfg.StreamEndpoint.Enabled,
			Host:    cfg.StreamEndpoint.Host,
			Port:    int(cfg.StreamEndpoint.Port),
			Threads: int(cfg.StreamEndpoint.Threads),
		}, d.Session, d.Broker, area, dbInfo, log)
		srv.AddEndpoint(d.TCP)
	}

	return d, nil
}

// Serve brings every component up (Server.Start, which runs Setup first),
// marks the status area activated, and blocks until ctx is canceled or
// SIGINT/SIGTERM arrives, at which point it shuts everything down in
// reverse order.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.Area.SetState(statusarea.StateReady)

	started := time.Now()
	if err := d.Scheduler.Start(); err != nil {
		d.Area.SetState(statusarea.StateBootError)
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := d.Server.Start(); err != nil {
		d.Area.SetState(statusarea.StateBootError)
		_ = d.Scheduler.Stop()
		return fmt.Errorf("start components: %w", err)
	}
	d.Area.SetState(statusarea.StateActivated)
	d.Altimeter.DBStart("", d.Config.Node.DatabaseName, altimeter.ResultSuccess)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	case <-waitShutdownRequested(d.Area):
	}

	d.Area.SetState(statusarea.StateDeactivating)
	err := d.Server.Shutdown()
	if stopErr := d.Scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	d.Altimeter.DBStop("", d.Config.Node.DatabaseName, altimeter.ResultSuccess, time.Since(started))
	d.Area.SetState(statusarea.StateDeactivated)
	return err
}

// Close cancels Serve's context, which makes Serve shut down and return; it
// does not wait for Serve to finish. Safe to call more than once and safe
// to call before Serve.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
}

// waitShutdownRequested returns a channel that closes once the status
// area's state reaches deactivating or deactivated. Setting the area's
// shutdown request does not change its state and so does not close it.
func waitShutdownRequested(area *statusarea.Area) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		area.WaitForState(statusarea.StateDeactivating, statusarea.StateDeactivated)
		close(ch)
	}()
	return ch
}

func toSchedulerConfig(c SchedulerSection) scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.ThreadCount = c.ThreadCount
	cfg.Affinity.CoreAffinity = c.CoreAffinity
	cfg.Affinity.InitialCore = c.InitialCore
	cfg.Affinity.AssignNUMANodesUniformly = c.AssignNUMANodesUniformly
	cfg.Affinity.ForceNUMANode = c.ForceNUMANode
	cfg.StealingEnabled = c.StealingEnabled
	cfg.StealingWait = c.StealingWait
	cfg.RatioCheckLocalFirstNum = c.RatioCheckLocalFirstNum
	cfg.RatioCheckLocalFirstDen = c.RatioCheckLocalFirstDen
	cfg.TaskPollingWait = c.TaskPollingWait
	cfg.BusyWorker = c.BusyWorker
	cfg.WorkerTryCount = c.WorkerTryCount
	cfg.WorkerSuspendTimeout = time.Duration(c.WorkerSuspendTimeoutMS) * time.Millisecond
	cfg.WatcherInterval = time.Duration(c.WatcherIntervalUS) * time.Microsecond
	return cfg
}

func ridgeDataDir(cfg Config) string {
	if cfg.Node.DataDir != "" {
		return cfg.Node.DataDir
	}
	return filepath.Join(ridgeHome(), "data")
}

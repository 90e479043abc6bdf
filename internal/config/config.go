// Package config loads ridge's TOML configuration, grounded on the
// teacher's internal/daemon/config.go: one struct per section, sensible
// defaults, and a tolerant loader that is happy to find no file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration document (SPEC_FULL.md ambient
// stack): one nested struct per TOML section.
type Config struct {
	Node           NodeConfig           `toml:"node"`
	Scheduler      SchedulerConfig      `toml:"scheduler"`
	IPCEndpoint    IPCEndpointConfig    `toml:"ipc_endpoint"`
	StreamEndpoint StreamEndpointConfig `toml:"stream_endpoint"`
	Datastore      DatastoreConfig      `toml:"datastore"`
	Logging        LoggingConfig        `toml:"logging"`
	Telemetry      TelemetryConfig      `toml:"telemetry"`
}

// NodeConfig identifies this ridge instance.
type NodeConfig struct {
	DatabaseName string `toml:"database_name"`
	DataDir      string `toml:"data_dir"`
}

// SchedulerConfig maps directly onto scheduler.Config.
type SchedulerConfig struct {
	ThreadCount              int    `toml:"thread_count"`
	CoreAffinity             bool   `toml:"core_affinity"`
	InitialCore              int    `toml:"initial_core"`
	AssignNUMANodesUniformly bool   `toml:"assign_numa_nodes_uniformly"`
	ForceNUMANode            int    `toml:"force_numa_node"`
	StealingEnabled          bool   `toml:"stealing_enabled"`
	StealingWait             int    `toml:"stealing_wait"`
	RatioCheckLocalFirstNum  int    `toml:"ratio_check_local_first_numerator"`
	RatioCheckLocalFirstDen  int    `toml:"ratio_check_local_first_denominator"`
	TaskPollingWait          int    `toml:"task_polling_wait"`
	BusyWorker               bool   `toml:"busy_worker"`
	WorkerTryCount           int    `toml:"worker_try_count"`
	WorkerSuspendTimeoutMS   int    `toml:"worker_suspend_timeout_ms"`
	WatcherIntervalUS        int    `toml:"watcher_interval_us"`
}

// IPCEndpointConfig controls the shared-memory endpoint (spec.md §6
// "[ipc_endpoint]").
type IPCEndpointConfig struct {
	Enabled               bool   `toml:"enabled"`
	DatabaseName          string `toml:"database_name"`
	Threads               uint32 `toml:"threads"`                 // max concurrent sessions
	DatachannelBufferSize uint32 `toml:"datachannel_buffer_size"` // KiB
	MaxDatachannelBuffers uint32 `toml:"max_datachannel_buffers"`
	AdminSessions         uint8  `toml:"admin_sessions"`
}

// StreamEndpointConfig controls the TCP endpoint (spec.md §6
// "[stream_endpoint]"). Host is ridge's own addition (the spec names only
// enabled/port/threads); it defaults to loopback.
type StreamEndpointConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    uint16 `toml:"port"`
	Threads uint32 `toml:"threads"`
}

// DatastoreConfig controls the sqlite-backed datastore service.
type DatastoreConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig controls zap's output.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	Production bool   `toml:"production"`
}

// TelemetryConfig controls the metrics/debug HTTP surface.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// DefaultConfig returns ridge's out-of-the-box configuration.
func DefaultConfig() Config {
	home := ridgeHome()
	return Config{
		Node: NodeConfig{
			DatabaseName: "ridge",
			DataDir:      filepath.Join(home, "data"),
		},
		Scheduler: SchedulerConfig{
			ThreadCount:             4,
			ForceNUMANode:           -1,
			StealingEnabled:         true,
			StealingWait:            1,
			RatioCheckLocalFirstNum: 1,
			RatioCheckLocalFirstDen: 2,
			TaskPollingWait:         2,
			WorkerTryCount:          1024,
			WorkerSuspendTimeoutMS:  10,
			WatcherIntervalUS:       25,
		},
		IPCEndpoint: IPCEndpointConfig{
			Enabled:               true,
			DatabaseName:          "ridge",
			Threads:               64,
			DatachannelBufferSize: 64,
			MaxDatachannelBuffers: 8,
			AdminSessions:         4,
		},
		StreamEndpoint: StreamEndpointConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    12345,
			Threads: 64,
		},
		Datastore: DatastoreConfig{
			Path: filepath.Join(home, "data", "ridge.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(home, "ridge.log"),
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    9090,
		},
	}
}

// Load reads config from path, falling back to DefaultConfig() if path
// does not exist. An explicit path of "" uses ~/.ridge/config.toml.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(ridgeHome(), "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "config: warning: ignoring unknown keys in %s: %v\n", path, undecoded)
	}
	return cfg, nil
}

// Save writes cfg back to path (or ~/.ridge/config.toml if empty).
func Save(cfg Config, path string) error {
	if path == "" {
		path = filepath.Join(ridgeHome(), "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// RidgeHome returns ridge's per-user data directory: $RIDGE_HOME if set,
// otherwise ~/.ridge.
func RidgeHome() string {
	if env := os.Getenv("RIDGE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ridge")
}

func ridgeHome() string { return RidgeHome() }

// Package daemon runs reconciliation cycles in response to external
// triggers.
//
// The daemon owns no sync logic of its own; it decides WHEN the engine
// runs:
//  1. On start (initial full cycle)
//  2. Periodically
//  3. When connectivity returns (probe transition offline → online)
//  4. On explicit Trigger() calls after local writes
//  5. When another process writes the shared database file
//
// Overlapping triggers are debounced into one cycle. Every phase of a
// cycle is idempotent, so a redundant cycle is harmless by design of
// the engine, just wasted work the debounce avoids.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"daytrack/internal/dashboard"
	"daytrack/internal/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// SyncInterval is how often a full cycle runs unprompted.
	SyncInterval time.Duration

	// DebounceInterval is how long to wait after a trigger before
	// running, batching rapid triggers together.
	DebounceInterval time.Duration

	// ProbeInterval is how often connectivity is polled for
	// offline-to-online transitions.
	ProbeInterval time.Duration

	// Logger for daemon activity. When nil and LogPath is set, a
	// rotating file logger is used; otherwise stderr.
	Logger *log.Logger

	// LogPath is an optional rotating log file location.
	LogPath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     5 * time.Minute,
		DebounceInterval: 500 * time.Millisecond,
		ProbeInterval:    15 * time.Second,
	}
}

// Daemon orchestrates trigger handling and cycle execution.
type Daemon struct {
	rec    sync.Reconciler
	probe  sync.Probe
	dbPath string
	config *Config
	events *dashboard.Handler

	watcher   *fsnotify.Watcher
	pendingMu stdsync.Mutex
	pendingAt time.Time

	// suppressUntil masks watcher events caused by the daemon's own
	// cycle writing the database, which would otherwise retrigger it.
	suppressMu    stdsync.Mutex
	suppressUntil time.Time

	online bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// New creates a Daemon.
//
// dbPath is the local store's database file; its directory is watched
// so writes from other processes sharing the store trigger a cycle.
// probe may be nil (connectivity transitions are then not detected).
// events may be nil (no dashboard broadcasting).
func New(rec sync.Reconciler, probe sync.Probe, dbPath string, events *dashboard.Handler, config *Config) (*Daemon, error) {
	if rec == nil {
		return nil, fmt.Errorf("reconciler cannot be nil")
	}
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		if config.LogPath != "" {
			config.Logger = log.New(&lumberjack.Logger{
				Filename:   config.LogPath,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
			}, "[daemon] ", log.LstdFlags)
		} else {
			config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		rec:     rec,
		probe:   probe,
		dbPath:  dbPath,
		config:  config,
		events:  events,
		watcher: watcher,
		online:  true,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// An initial full cycle runs immediately, then the trigger loops take
// over. This blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	d.runCycle(ctx)

	if err := d.watcher.Add(filepath.Dir(d.dbPath)); err != nil {
		return fmt.Errorf("failed to watch database directory: %w", err)
	}

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processTriggers()
	go d.periodicSync()

	if d.probe != nil {
		d.wg.Add(1)
		go d.watchConnectivity()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// Trigger queues a cycle, e.g. after a progress-changing local write.
// Rapid triggers are debounced into one cycle.
func (d *Daemon) Trigger() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.pendingAt = time.Now()
}

// watchFileEvents queues a cycle when another process writes the
// database file or its WAL.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	base := filepath.Base(d.dbPath)
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if name != base && name != base+"-wal" {
				continue
			}
			if d.suppressed() {
				continue
			}
			d.config.Logger.Printf("External write detected: %s", event.Name)
			d.Trigger()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processTriggers runs a queued cycle once it has been quiet for the
// debounce interval.
func (d *Daemon) processTriggers() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.pendingMu.Lock()
			due := !d.pendingAt.IsZero() && time.Since(d.pendingAt) >= d.config.DebounceInterval
			if due {
				d.pendingAt = time.Time{}
			}
			d.pendingMu.Unlock()

			if due {
				d.runCycle(d.ctx)
			}
		}
	}
}

// periodicSync runs unprompted cycles.
func (d *Daemon) periodicSync() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.runCycle(d.ctx)
		}
	}
}

// watchConnectivity polls the probe and queues a cycle on an
// offline-to-online transition, so edits made offline upload as soon
// as the network returns.
func (d *Daemon) watchConnectivity() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			online := d.probe(d.ctx)
			if online && !d.online {
				d.config.Logger.Println("Connectivity restored, scheduling cycle")
				d.Trigger()
			}
			d.online = online
		}
	}
}

// runCycle executes one full reconciliation cycle and reports it.
func (d *Daemon) runCycle(ctx context.Context) {
	res := d.rec.RunFullCycle(ctx)

	d.suppressMu.Lock()
	d.suppressUntil = time.Now().Add(2 * d.config.DebounceInterval)
	d.suppressMu.Unlock()

	if res.Offline {
		d.config.Logger.Println("Cycle aborted: offline")
	} else {
		d.config.Logger.Printf("Cycle: %s", res.Summary())
	}

	if d.events != nil {
		d.events.OnCycleComplete(res)
	}
}

// suppressed reports whether watcher events should currently be
// ignored because they were caused by the daemon's own cycle.
func (d *Daemon) suppressed() bool {
	d.suppressMu.Lock()
	defer d.suppressMu.Unlock()
	return time.Now().Before(d.suppressUntil)
}

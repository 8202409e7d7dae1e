// Package app wires the syncaccess runtime together.
//
// An Application owns the UI dispatcher, the listener event pool, the
// native toolkit and the logger, and hands them to access nodes as an
// access.Env. Run keeps the UI loop on the calling goroutine, which should
// be the main goroutine, and runs the program's own work beside it.
package app

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/syncaccess/internal/access"
	"github.com/dshills/syncaccess/internal/config"
	"github.com/dshills/syncaccess/internal/dispatch"
	"github.com/dshills/syncaccess/internal/logging"
	"github.com/dshills/syncaccess/internal/native"
	"github.com/dshills/syncaccess/internal/native/screen"
)

// Options configures application startup.
type Options struct {
	// ConfigPath is the TOML settings file. A missing file means defaults.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogOutput overrides the configured log destination when set.
	LogOutput io.Writer

	// Headless uses the in-memory toolkit with no screen.
	Headless bool

	// Simulate draws to an in-memory screen instead of the terminal.
	Simulate bool

	// Watch reloads the settings file when it changes.
	Watch bool
}

// Application is the running syncaccess process.
type Application struct {
	opts Options

	mu  sync.RWMutex
	cfg *config.Config

	log     *logging.Logger
	logFile *os.File

	ui      *dispatch.UIDispatcher
	events  *dispatch.AsyncDispatcher
	toolkit native.Toolkit
	term    *screen.Toolkit // nil when headless
	watcher *config.Watcher

	running atomic.Bool
	closed  atomic.Bool

	// Per-run state, guarded by mu.
	ready  chan struct{}
	cancel func()
}

// New loads settings and starts every component except the UI loop.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.release()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	loader := config.NewLoader(app.opts.ConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.Simulate {
		cfg.Screen.Simulate = true
	}
	app.cfg = cfg

	if err := app.initLogging(); err != nil {
		return &InitError{Component: "logging", Err: err}
	}

	app.ui = dispatch.NewUIDispatcher(
		dispatch.WithUIQueueSize(cfg.Dispatcher.QueueSize),
		dispatch.WithLockOSThread(cfg.Dispatcher.LockOSThread),
		dispatch.WithUILogger(app.log),
		dispatch.WithStartHook(app.uiStarted),
	)

	events := app.log.WithComponent("events")
	app.events = dispatch.NewAsyncDispatcher(
		dispatch.WithQueueSize(cfg.Dispatcher.EventQueueSize),
		dispatch.WithWorkerCount(cfg.Dispatcher.EventWorkers),
		dispatch.WithAsyncPanicHandler(func(event any, v any, stack []byte) {
			events.Error("panic in listener for %T: %v\n%s", event, v, stack)
		}),
	)
	if err := app.events.Start(); err != nil {
		return &InitError{Component: "events", Err: err}
	}

	if err := app.initToolkit(); err != nil {
		return &InitError{Component: "toolkit", Err: err}
	}

	if app.opts.Watch && app.opts.ConfigPath != "" {
		w, err := config.Watch(loader, app.reload, config.WithWatchLogger(app.log))
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		app.watcher = w
	}

	app.log.Debug("bootstrap complete (headless=%v simulate=%v)", app.opts.Headless, cfg.Screen.Simulate)
	return nil
}

func (app *Application) initToolkit() error {
	guard := native.WithThreadGuard(app.ui)
	switch {
	case app.opts.Headless:
		app.toolkit = native.NewMemory(guard)
		return nil
	case app.cfg.Screen.Simulate:
		size := app.cfg.ScreenSize()
		t, err := screen.NewSimulation(size.Width, size.Height, guard)
		if err != nil {
			return err
		}
		app.term = t
	default:
		t, err := screen.NewTerminal(guard)
		if err != nil {
			return err
		}
		app.term = t
	}
	app.toolkit = app.term
	return nil
}

// reload applies a changed settings file. Only the log level takes effect
// while running; the rest applies on the next start.
func (app *Application) reload(cfg *config.Config, err error) {
	if err != nil {
		return
	}
	app.mu.Lock()
	cfg.Screen.Simulate = app.cfg.Screen.Simulate
	app.cfg = cfg
	app.mu.Unlock()

	if app.opts.LogLevel == "" {
		app.log.SetLevel(cfg.LogLevel())
	}
}

// Env returns the environment access nodes are built with.
func (app *Application) Env() access.Env {
	return access.Env{
		Dispatcher: app.ui,
		Toolkit:    app.toolkit,
		Events:     app.events,
		Logger:     app.log.WithComponent("access"),
		Styles:     app.Config().StyleTable(),
	}
}

// Config returns the current settings.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Screen returns the terminal toolkit, nil when headless.
func (app *Application) Screen() *screen.Toolkit {
	return app.term
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Close stops the event pool and the config watcher and closes the log
// file. Call it after Run returns.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.release()
	return nil
}

// release tears down in reverse bootstrap order. It tolerates a partial
// bootstrap.
func (app *Application) release() {
	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	if app.events != nil {
		ctx, cancel := shutdownContext()
		if err := app.events.Stop(ctx); err != nil && !errors.Is(err, dispatch.ErrNotRunning) {
			app.log.Warn("stopping event pool: %v", err)
		}
		cancel()
	}
	if app.term != nil && app.cfg.Screen.Simulate {
		app.term.Shutdown()
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

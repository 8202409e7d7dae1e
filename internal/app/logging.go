package app

import (
	"io"
	"os"

	"github.com/dshills/syncaccess/internal/logging"
)

// initLogging picks the log destination. An explicit writer wins, then the
// configured file. A real terminal belongs to the screen, so without a file
// its logs are dropped; every other mode logs to stderr.
func (app *Application) initLogging() error {
	level := app.cfg.LogLevel()
	if app.opts.LogLevel != "" {
		level = logging.ParseLevel(app.opts.LogLevel)
	}

	var out io.Writer
	switch {
	case app.opts.LogOutput != nil:
		out = app.opts.LogOutput
	case app.cfg.Logging.File != "":
		f, err := os.OpenFile(app.cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		out = f
	case !app.opts.Headless && !app.cfg.Screen.Simulate:
		out = io.Discard
	default:
		out = os.Stderr
	}

	app.log = logging.New(logging.Config{
		Level:  level,
		Output: out,
		Prefix: "syncaccess",
	})
	return nil
}

// Package config loads syncaccess settings.
//
// Settings come from three layers, later ones overriding earlier ones:
// built-in defaults, a TOML file, and SYNCACCESS_* environment variables.
// The merged result is decoded strictly into Config and validated.
//
// Example file:
//
//	[dispatcher]
//	queueSize = 1024
//	lockOSThread = true
//	eventWorkers = 2
//
//	[logging]
//	level = "debug"
//	file = "/tmp/syncaccess.log"
//
//	[screen]
//	width = 100
//	height = 30
//
//	[styles]
//	framed = 2
package config

import (
	"fmt"
	"strings"

	"github.com/dshills/syncaccess/internal/logging"
	"github.com/dshills/syncaccess/internal/native"
)

// Config is the complete settings tree.
type Config struct {
	Dispatcher DispatcherConfig  `toml:"dispatcher"`
	Logging    LoggingConfig     `toml:"logging"`
	Screen     ScreenConfig      `toml:"screen"`
	Styles     map[string]uint32 `toml:"styles"`
}

// DispatcherConfig configures the UI goroutine and the listener pool.
type DispatcherConfig struct {
	// QueueSize bounds the UI task queue.
	QueueSize int `toml:"queueSize"`

	// LockOSThread pins the UI goroutine to its OS thread.
	LockOSThread bool `toml:"lockOSThread"`

	// EventWorkers is the number of goroutines delivering listener events.
	EventWorkers int `toml:"eventWorkers"`

	// EventQueueSize bounds the listener event queue.
	EventQueueSize int `toml:"eventQueueSize"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	Level string `toml:"level"`

	// File receives log output when set. The terminal belongs to the screen
	// toolkit while it runs.
	File string `toml:"file"`
}

// ScreenConfig configures the terminal toolkit.
type ScreenConfig struct {
	Width    int  `toml:"width"`
	Height   int  `toml:"height"`
	Simulate bool `toml:"simulate"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			QueueSize:      1024,
			LockOSThread:   true,
			EventWorkers:   1,
			EventQueueSize: 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Screen: ScreenConfig{
			Width:  80,
			Height: 24,
		},
		Styles: map[string]uint32{},
	}
}

var validLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks the settings for values the runtime cannot use.
func (c *Config) Validate() error {
	var errs []string
	if c.Dispatcher.QueueSize <= 0 {
		errs = append(errs, "dispatcher.queueSize must be positive")
	}
	if c.Dispatcher.EventWorkers <= 0 {
		errs = append(errs, "dispatcher.eventWorkers must be positive")
	}
	if c.Dispatcher.EventQueueSize <= 0 {
		errs = append(errs, "dispatcher.eventQueueSize must be positive")
	}
	if !isValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of %s", c.Logging.Level, strings.Join(validLevels, ", ")))
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, "screen.width and screen.height must be positive")
	}
	for name, bits := range c.Styles {
		if bits == 0 {
			errs = append(errs, fmt.Sprintf("styles.%s must set at least one bit", name))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func isValidLevel(level string) bool {
	level = strings.ToLower(level)
	for _, l := range validLevels {
		if l == level {
			return true
		}
	}
	return false
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// StyleTable returns the built-in style names merged with the configured ones.
func (c *Config) StyleTable() native.StyleTable {
	return native.DefaultStyleTable().Merge(c.Styles)
}

// ScreenSize returns the configured screen dimensions.
func (c *Config) ScreenSize() native.Size {
	return native.Size{Width: c.Screen.Width, Height: c.Screen.Height}
}

package app

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/syncaccess/internal/dispatch"
)

const (
	// frameTime is the redraw interval while a screen is attached.
	frameTime = time.Second / 30

	// shutdownTimeout bounds how long Run waits for main after the UI stops.
	shutdownTimeout = 5 * time.Second
)

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}

// Run runs the UI loop on the calling goroutine and main on a new one.
// main starts once the loop accepts tasks and receives a context that is
// cancelled by Shutdown, by a quit key, or when ctx is done. Run returns
// after main has returned and the UI loop has drained; the result is
// main's error, or ErrQuit when the user quit first.
func (app *Application) Run(ctx context.Context, main func(ctx context.Context) error) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	ready := make(chan struct{})
	app.mu.Lock()
	app.ready = ready
	app.cancel = func() { cancel(nil) }
	app.mu.Unlock()

	if app.term != nil && !app.Config().Screen.Simulate {
		if err := app.term.Init(); err != nil {
			return &InitError{Component: "screen", Err: err}
		}
		defer app.term.Shutdown()
	}

	mainDone := make(chan error, 1)
	go func() {
		select {
		case <-ready:
		case <-ctx.Done():
			mainDone <- nil
			return
		}
		if app.term != nil {
			go app.inputLoop(ctx, cancel)
			go app.frameLoop(ctx)
		}
		err := main(ctx)
		cancel(nil)
		mainDone <- err
	}()

	app.log.Info("ui loop starting")
	uiErr := app.ui.Run(ctx)
	app.log.Info("ui loop stopped")

	var mainErr error
	select {
	case mainErr = <-mainDone:
	case <-time.After(shutdownTimeout):
		mainErr = ErrShutdownTimeout
	}

	switch {
	case mainErr != nil:
		return mainErr
	case errors.Is(context.Cause(ctx), ErrQuit):
		return ErrQuit
	case uiErr != nil && !errors.Is(uiErr, context.Canceled):
		return uiErr
	}
	return nil
}

// uiStarted runs on the UI goroutine as the loop starts.
func (app *Application) uiStarted() {
	app.mu.Lock()
	ready := app.ready
	app.ready = nil
	app.mu.Unlock()
	if ready != nil {
		close(ready)
	}
}

// Shutdown cancels the running main and stops the UI loop.
func (app *Application) Shutdown() error {
	app.mu.RLock()
	cancel := app.cancel
	app.mu.RUnlock()
	if !app.running.Load() || cancel == nil {
		return ErrNotRunning
	}
	cancel()
	return nil
}

// Refresh schedules a redraw. It is a no-op when headless.
func (app *Application) Refresh() {
	if app.term == nil {
		return
	}
	if err := app.ui.Post(app.render); err != nil && !errors.Is(err, dispatch.ErrNotRunning) {
		app.log.Debug("refresh dropped: %v", err)
	}
}

// Render redraws the screen and waits for it.
func (app *Application) Render(ctx context.Context) error {
	if app.term == nil {
		return nil
	}
	return app.ui.RunAndWait(ctx, app.render)
}

func (app *Application) render(context.Context) error {
	app.term.Render()
	return nil
}

// inputLoop pumps terminal events to the UI goroutine until ctx is done.
func (app *Application) inputLoop(ctx context.Context, cancel context.CancelCauseFunc) {
	stop := context.AfterFunc(ctx, func() { app.term.Interrupt(nil) })
	defer stop()

	for {
		ev := app.term.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		if isQuit(ev) {
			app.log.Info("quit requested")
			cancel(ErrQuit)
			return
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok {
			continue
		}

		err := app.ui.Post(func(context.Context) error {
			if app.term.HandleEvent(ev) {
				app.term.Render()
			}
			return nil
		})
		switch {
		case errors.Is(err, dispatch.ErrNotRunning):
			return
		case err != nil:
			app.log.Warn("input event dropped: %v", err)
		}
	}
}

// frameLoop redraws at a fixed rate so changes made by listeners and by
// main show up without an explicit Refresh.
func (app *Application) frameLoop(ctx context.Context) {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if app.ui.QueueDepth() == 0 {
				app.Refresh()
			}
		}
	}
}

func isQuit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC, tcell.KeyCtrlQ:
		return true
	}
	return false
}

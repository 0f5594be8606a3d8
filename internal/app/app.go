// Package app runs the event and render loop on top of a selected backend.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/dualrender/internal/backend"
	"github.com/vkngwrapper/dualrender/internal/surface"
)

// DefaultIdleInterval is how long the loop sleeps per iteration while the
// window is minimized.
const DefaultIdleInterval = 10 * time.Millisecond

// Loop drives one backend until its window is closed.
type Loop struct {
	Backend      backend.Backend
	Logger       *slog.Logger
	IdleInterval time.Duration

	shouldClose bool
	rendering   bool
}

// Run polls window events and renders frames until the window asks to
// close, ctx is cancelled or a frame fails. The backend is closed before
// Run returns, whatever ended the loop. The returned error is the frame
// failure, if any, combined with any teardown failure.
func (l *Loop) Run(ctx context.Context) (err error) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	idle := l.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}

	defer func() {
		if closeErr := l.Backend.Close(); closeErr != nil {
			log.Error("teardown failed", slog.Any("error", closeErr))
			err = errors.CombineErrors(err, errors.Wrap(closeErr, "teardown"))
		}
		log.Info("shut down", slog.String("backend", l.Backend.Kind().String()))
	}()

	provider := l.Backend.Surface()
	l.shouldClose = false
	l.rendering = true

	for !l.shouldClose {
		if ctx.Err() != nil {
			log.Info("interrupted", slog.Any("cause", context.Cause(ctx)))
			break
		}

		for _, event := range provider.PollEvents() {
			l.handle(event, provider)
		}
		if l.shouldClose {
			break
		}

		if !l.rendering {
			select {
			case <-ctx.Done():
			case <-time.After(idle):
			}
			continue
		}

		if frameErr := l.Backend.RenderFrame(); frameErr != nil {
			log.Error("frame failed, closing",
				slog.Any("error", frameErr),
				slog.String("kind", backend.KindOf(frameErr).String()))
			l.shouldClose = true
			err = frameErr
		}
	}
	return err
}

func (l *Loop) handle(event surface.Event, provider surface.Provider) {
	switch e := event.(type) {
	case surface.CloseRequested:
		l.shouldClose = true
	case surface.SizeChanged:
		l.Backend.Resize(e.Width, e.Height)
	case surface.Minimized:
		l.rendering = false
	case surface.Restored:
		l.rendering = true
		l.Backend.Resize(provider.DrawableSize())
	}
}

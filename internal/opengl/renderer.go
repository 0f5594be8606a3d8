// Package opengl renders through a core-profile OpenGL context.
package opengl

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/dualrender/internal/backend"
	"github.com/vkngwrapper/dualrender/internal/surface"
	"github.com/vkngwrapper/dualrender/internal/window"
)

// Options configures the OpenGL backend.
type Options struct {
	Title         string
	Width, Height int
	ClearColor    mgl32.Vec4
	Logger        *slog.Logger
}

// Context is the GL state a Renderer draws with.
type Context interface {
	Viewport(width, height int)
	Clear(color mgl32.Vec4)
	Swap()
	Close() error
}

// Renderer is the OpenGL backend. It owns its window and context.
type Renderer struct {
	log     *slog.Logger
	window  *window.Window
	context Context
	clear   mgl32.Vec4

	width, height int
}

var _ backend.Backend = (*Renderer)(nil)

// New opens a window with a GL context current on the calling thread.
func New(opts Options) (r *Renderer, err error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	r = &Renderer{log: log, clear: opts.ClearColor}
	defer func() {
		if err != nil {
			if closeErr := r.Close(); closeErr != nil {
				log.Warn("cleanup after failed initialization", slog.Any("error", closeErr))
			}
			r = nil
			err = backend.InitFailure(err)
		}
	}()

	r.window, err = window.Open(window.Options{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		API:    window.OpenGL,
	})
	if err != nil {
		return r, err
	}

	ctx, err := newSDLContext(r.window.Window, log)
	if err != nil {
		return r, err
	}
	r.context = ctx
	log.Info("opengl context created", slog.String("version", ctx.version))

	r.Resize(r.window.DrawableSize())
	return r, nil
}

// Factory returns a backend.Factory creating a Renderer with opts.
func Factory(opts Options) backend.Factory {
	return func() (backend.Backend, error) {
		r, err := New(opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

func (r *Renderer) Kind() backend.Kind { return backend.OpenGL }

func (r *Renderer) Surface() surface.Provider { return r.window }

// Resize applies the new size to the viewport immediately.
func (r *Renderer) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.context.Viewport(width, height)
	r.log.Debug("viewport resized", slog.Int("width", width), slog.Int("height", height))
}

// RenderFrame clears the window and swaps buffers.
func (r *Renderer) RenderFrame() error {
	if r.width <= 0 || r.height <= 0 {
		return nil
	}
	r.context.Clear(r.clear)
	r.context.Swap()
	return nil
}

// Close deletes the context and then the window.
func (r *Renderer) Close() error {
	var err error
	if r.context != nil {
		err = r.context.Close()
		r.context = nil
	}
	if r.window != nil {
		err = errors.CombineErrors(err, r.window.Close())
		r.window = nil
	}
	return err
}

package opengl

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
)

// sdlContext is a GL context created by SDL on a window.
type sdlContext struct {
	window  *sdl.Window
	context sdl.GLContext
	version string
}

// newSDLContext creates a context on window, makes it current and loads the
// GL entry points. Buffer swaps wait for vertical blank where supported.
func newSDLContext(window *sdl.Window, log *slog.Logger) (*sdlContext, error) {
	context, err := window.GLCreateContext()
	if err != nil {
		return nil, errors.Wrap(err, "create GL context")
	}
	c := &sdlContext{window: window, context: context}

	if err := window.GLMakeCurrent(context); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "make GL context current")
	}

	if err := gl.Init(); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "load GL functions")
	}

	if err := sdl.GLSetSwapInterval(1); err != nil {
		log.Debug("swap interval not supported", slog.Any("error", err))
	}

	c.version = gl.GoStr(gl.GetString(gl.VERSION))
	return c, nil
}

func (c *sdlContext) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (c *sdlContext) Clear(color mgl32.Vec4) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (c *sdlContext) Swap() { c.window.GLSwap() }

func (c *sdlContext) Close() error {
	if c.context != nil {
		sdl.GLDeleteContext(c.context)
		c.context = nil
	}
	return nil
}

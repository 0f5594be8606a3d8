// Package window implements surface.Provider on top of SDL2.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/dualrender/internal/surface"
)

// API selects the graphics API the window is created for.
type API int

const (
	Vulkan API = iota
	OpenGL
)

// Options describes the window to open.
type Options struct {
	Title         string
	Width, Height int
	API           API
}

// Window is an SDL window. It owns the SDL video subsystem for as long as
// it is open.
type Window struct {
	*sdl.Window
	api API
}

var _ surface.Provider = (*Window)(nil)

// Open initializes SDL video and creates a resizable window.
func Open(opts Options) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "window: init SDL video")
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE)
	switch opts.API {
	case Vulkan:
		flags |= sdl.WINDOW_VULKAN
	case OpenGL:
		flags |= sdl.WINDOW_OPENGL
		// go-gl/gl v4.1-core needs a core profile context.
		sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
		sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
		sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
		sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	}

	win, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(opts.Width), int32(opts.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "window: create window")
	}

	return &Window{Window: win, api: opts.API}, nil
}

// PollEvents drains the SDL event queue.
func (w *Window) PollEvents() []surface.Event {
	var events []surface.Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if ev, ok := Translate(event, w.DrawableSize); ok {
			events = append(events, ev)
		}
	}
	return events
}

// DrawableSize returns the size of the drawable in pixels, which differs
// from the window size on high-DPI displays.
func (w *Window) DrawableSize() (width, height int) {
	var wi, hi int32
	switch w.api {
	case Vulkan:
		wi, hi = w.Window.VulkanGetDrawableSize()
	case OpenGL:
		wi, hi = w.Window.GLGetDrawableSize()
	}
	return int(wi), int(hi)
}

// Close destroys the window and shuts SDL down.
func (w *Window) Close() error {
	var err error
	if w.Window != nil {
		err = w.Window.Destroy()
		w.Window = nil
	}
	sdl.Quit()
	return errors.Wrap(err, "window: destroy")
}

// Translate converts an SDL event into a surface event. Events the
// renderers do not care about are dropped. Size changes report the
// drawable size in pixels, not the window size SDL carries in the event.
func Translate(event sdl.Event, drawableSize func() (int, int)) (surface.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return surface.CloseRequested{}, true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return surface.CloseRequested{}, true
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			width, height := drawableSize()
			return surface.SizeChanged{Width: width, Height: height}, true
		case sdl.WINDOWEVENT_MINIMIZED:
			return surface.Minimized{}, true
		case sdl.WINDOWEVENT_RESTORED:
			return surface.Restored{}, true
		}
	}
	return nil, false
}

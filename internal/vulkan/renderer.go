// Package vulkan renders through the Vulkan API using vkngwrapper.
package vulkan

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/dualrender/internal/backend"
	"github.com/vkngwrapper/dualrender/internal/surface"
	"github.com/vkngwrapper/dualrender/internal/window"
)

// Options configures the Vulkan backend.
type Options struct {
	Title         string
	Width, Height int

	Validation        bool
	MaxFramesInFlight int
	ClearColor        mgl32.Vec4
	Shaders           ShaderSource
	StatsInterval     time.Duration

	Logger *slog.Logger
}

// Renderer is the Vulkan backend. It owns its window.
type Renderer struct {
	log *slog.Logger

	window    *window.Window
	context   *DeviceContext
	gpu       GPU
	swapchain *Swapchain
	pipeline  *Pipeline
	frames    *Scheduler

	width, height int
}

var _ backend.Backend = (*Renderer)(nil)

// New opens a window and initializes Vulkan on it. Any failure tears down
// what was created and is reported as an initialization failure.
func New(opts Options) (r *Renderer, err error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	r = &Renderer{log: log, width: opts.Width, height: opts.Height}
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
		API:    window.Vulkan,
	})
	if err != nil {
		return r, err
	}

	r.context, err = NewDeviceContext(r.window.Window, ContextOptions{
		AppName:    opts.Title,
		Validation: opts.Validation,
		Logger:     log,
	})
	if err != nil {
		return r, err
	}
	r.gpu = r.context.GPU()

	return r, r.build(r.context.Surface(), r.context.Selection(), r.window.DrawableSize, opts)
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

// build creates everything on top of the logical device: the swapchain and
// its views, the render pass and pipeline, the framebuffers and the frame
// slots.
func (r *Renderer) build(target khr_surface.Surface, selection Selection, drawable func() (int, int), opts Options) error {
	var err error
	r.swapchain, err = NewSwapchain(r.gpu, SwapchainOptions{
		Surface:      target,
		Selection:    selection,
		DrawableSize: drawable,
		Logger:       r.log,
	})
	if err != nil {
		return err
	}

	if opts.Shaders == nil {
		return errors.New("no shader source")
	}
	r.pipeline, err = NewPipeline(r.gpu, r.swapchain.Format(), r.swapchain.Extent(), opts.Shaders)
	if err != nil {
		return err
	}

	if err = r.swapchain.AttachRenderPass(r.pipeline.RenderPass); err != nil {
		return err
	}

	r.frames, err = NewScheduler(r.gpu, r.swapchain, r.pipeline, SchedulerOptions{
		MaxFramesInFlight: opts.MaxFramesInFlight,
		GraphicsFamily:    *selection.Families.GraphicsFamily,
		ClearColor:        opts.ClearColor,
		StatsInterval:     opts.StatsInterval,
		Logger:            r.log,
	})
	if err != nil {
		return err
	}

	r.log.Debug("vulkan backend ready",
		slog.Int("images", r.swapchain.Len()),
		slog.Int("frames_in_flight", r.frames.FramesInFlight()))
	return nil
}

func (r *Renderer) Kind() backend.Kind { return backend.Vulkan }

func (r *Renderer) Surface() surface.Provider { return r.window }

// Resize records the new window size. The swapchain is rebuilt lazily
// after the next present. A zero size pauses rendering.
func (r *Renderer) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	if r.frames != nil && width > 0 && height > 0 {
		r.frames.NotifyResized()
	}
}

// RenderFrame draws one frame. Errors are fatal to the render loop.
func (r *Renderer) RenderFrame() error {
	if r.width <= 0 || r.height <= 0 {
		return nil
	}
	return r.frames.DrawFrame()
}

// Close waits for the device to finish and destroys everything in reverse
// order of creation. It is safe on a partially initialized renderer.
func (r *Renderer) Close() error {
	var err error
	if r.gpu != nil {
		err = errors.Wrap(r.gpu.WaitIdle(), "wait for device idle")
	}

	r.release()
	r.gpu = nil

	if r.context != nil {
		r.context.Destroy()
		r.context = nil
	}

	if r.window != nil {
		err = errors.CombineErrors(err, r.window.Close())
		r.window = nil
	}
	return err
}

// release destroys the objects built on the device: frame slots, command
// pool, framebuffers, pipeline, pipeline layout, render pass, image views
// and the swapchain.
func (r *Renderer) release() {
	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.swapchain != nil {
		r.swapchain.DestroyFramebuffers()
	}
	if r.pipeline != nil {
		r.pipeline.Destroy(r.gpu)
		r.pipeline = nil
	}
	if r.swapchain != nil {
		r.swapchain.DestroyChain()
		r.swapchain = nil
	}
}

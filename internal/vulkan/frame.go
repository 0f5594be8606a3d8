package vulkan

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/dualrender/internal/backend"
)

// frameSlot holds what one frame in flight needs. The fence guards the
// command buffer: it is waited on before the buffer is recorded again.
type frameSlot struct {
	commands       CommandBuffer
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	inFlight       core1_0.Fence
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// MaxFramesInFlight is the number of frame slots; it must be positive.
	MaxFramesInFlight int
	GraphicsFamily    int
	ClearColor        mgl32.Vec4
	StatsInterval     time.Duration
	Logger            *slog.Logger
}

// Scheduler records, submits and presents frames, cycling through a fixed
// ring of frame slots.
type Scheduler struct {
	gpu       GPU
	log       *slog.Logger
	swapchain *Swapchain
	pipeline  *Pipeline
	clear     mgl32.Vec4
	stats     *frameStats

	pool         core1_0.CommandPool
	slots        []frameSlot
	currentFrame int

	// resized is set when the window reported a new size; the swapchain is
	// rebuilt after the next present.
	resized bool
}

// NewScheduler allocates a command pool on the graphics family, one command
// buffer per slot and the slot's semaphores and fence. The fences start
// signaled so the first wait on each slot returns immediately.
func NewScheduler(gpu GPU, swapchain *Swapchain, pipeline *Pipeline, opts SchedulerOptions) (*Scheduler, error) {
	if opts.MaxFramesInFlight <= 0 {
		return nil, errors.Newf("max frames in flight must be positive, got %d", opts.MaxFramesInFlight)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Scheduler{
		gpu:       gpu,
		log:       log,
		swapchain: swapchain,
		pipeline:  pipeline,
		clear:     opts.ClearColor,
		stats:     newFrameStats(log, opts.StatsInterval),
	}

	if err := s.createSlots(opts.GraphicsFamily, opts.MaxFramesInFlight); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) createSlots(family, count int) error {
	var err error
	s.pool, err = s.gpu.CreateCommandPool(family)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	buffers, err := s.gpu.AllocateCommandBuffers(s.pool, count)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}

	for i := 0; i < count; i++ {
		s.slots = append(s.slots, frameSlot{commands: buffers[i]})
		cur := &s.slots[i]

		if cur.imageAvailable, err = s.gpu.CreateSemaphore(); err != nil {
			return errors.Wrapf(err, "create image available semaphore %d", i)
		}
		if cur.renderFinished, err = s.gpu.CreateSemaphore(); err != nil {
			return errors.Wrapf(err, "create render finished semaphore %d", i)
		}
		if cur.inFlight, err = s.gpu.CreateFence(true); err != nil {
			return errors.Wrapf(err, "create in flight fence %d", i)
		}
	}
	return nil
}

// FramesInFlight returns the size of the slot ring.
func (s *Scheduler) FramesInFlight() int { return len(s.slots) }

// CurrentFrame returns the index of the slot the next frame will use.
func (s *Scheduler) CurrentFrame() int { return s.currentFrame }

// NotifyResized makes the next present rebuild the swapchain even if the
// surface does not report itself stale.
func (s *Scheduler) NotifyResized() { s.resized = true }

func (s *Scheduler) advance() {
	s.currentFrame = (s.currentFrame + 1) % len(s.slots)
}

// DrawFrame renders and presents one frame. A stale surface found while
// acquiring abandons the frame and rebuilds the swapchain; one found while
// presenting rebuilds it after the frame. Every returned error is fatal to
// the render loop.
func (s *Scheduler) DrawFrame() error {
	slot := &s.slots[s.currentFrame]

	if err := s.gpu.WaitForFence(slot.inFlight); err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "wait for frame"))
	}

	imageIndex, res, err := s.gpu.AcquireNextImage(s.swapchain.Handle(), slot.imageAvailable)
	if res == khr_swapchain.VKErrorOutOfDate {
		s.stats.frameAbandoned()
		return s.recreate()
	} else if err != nil {
		return backend.RuntimeFailure(check("acquire next image", res, err))
	}

	if err := s.gpu.ResetFence(slot.inFlight); err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "reset frame fence"))
	}

	if err := slot.commands.Reset(); err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "reset command buffer"))
	}
	if err := s.record(slot.commands, imageIndex); err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "record command buffer"))
	}

	err = s.gpu.Submit(Submission{
		Commands: slot.commands,
		Wait:     slot.imageAvailable,
		Signal:   slot.renderFinished,
		Fence:    slot.inFlight,
	})
	if err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "submit draw command buffer"))
	}

	res, err = s.gpu.Present(Presentation{
		Swapchain: s.swapchain.Handle(),
		Image:     imageIndex,
		Wait:      slot.renderFinished,
	})
	if err != nil && !isStale(res) {
		return backend.RuntimeFailure(check("present", res, err))
	}
	if isStale(res) || s.resized {
		s.resized = false
		if err := s.recreate(); err != nil {
			return err
		}
	} else {
		s.stats.framePresented()
	}

	s.advance()
	return nil
}

func (s *Scheduler) record(buffer CommandBuffer, imageIndex int) error {
	if err := buffer.Begin(); err != nil {
		return err
	}

	extent := s.swapchain.Extent()
	err := buffer.BeginRenderPass(core1_0.RenderPassBeginInfo{
		RenderPass:  s.pipeline.RenderPass,
		Framebuffer: s.swapchain.Framebuffer(imageIndex),
		RenderArea:  scissorFor(extent),
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat(s.clear),
		},
	})
	if err != nil {
		return err
	}

	buffer.BindPipeline(s.pipeline.Pipeline)
	buffer.SetViewport(viewportFor(extent))
	buffer.SetScissor(scissorFor(extent))
	buffer.Draw(0, 0)
	buffer.EndRenderPass()

	return buffer.End()
}

// recreate rebuilds the swapchain. A surface without area is not an error:
// the rebuild is retried after the next present.
func (s *Scheduler) recreate() error {
	err := s.swapchain.Recreate()
	if errors.Is(err, ErrZeroExtent) {
		s.log.Debug("surface has no area, deferring swapchain recreation")
		s.resized = true
		return nil
	}
	if err != nil {
		return backend.RuntimeFailure(errors.Wrap(err, "recreate swapchain"))
	}
	s.stats.recreated()
	return nil
}

// Destroy releases the per-slot semaphores and fences and then the command
// pool, which frees the command buffers with it.
func (s *Scheduler) Destroy() {
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.renderFinished != nil {
			s.gpu.DestroySemaphore(slot.renderFinished)
		}
		if slot.imageAvailable != nil {
			s.gpu.DestroySemaphore(slot.imageAvailable)
		}
		if slot.inFlight != nil {
			s.gpu.DestroyFence(slot.inFlight)
		}
	}
	s.slots = nil

	if s.pool != nil {
		s.gpu.DestroyCommandPool(s.pool)
		s.pool = nil
	}
}

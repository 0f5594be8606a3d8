// Package surface defines the boundary between the renderers and the
// windowing system that supplies their drawable.
//
// Renderers only consume a Provider: they never create windows or decode
// platform events themselves.
package surface

// Event is a platform event delivered by PollEvents.
type Event interface {
	event()
}

// CloseRequested is delivered when the user or window manager asks the
// window to close.
type CloseRequested struct{}

// SizeChanged carries the new drawable size of the window in pixels.
type SizeChanged struct {
	Width, Height int
}

// Minimized is delivered when the window is iconified. Its drawable has no
// presentable area until Restored arrives.
type Minimized struct{}

// Restored is delivered when a minimized window becomes visible again.
type Restored struct{}

func (CloseRequested) event() {}
func (SizeChanged) event()    {}
func (Minimized) event()      {}
func (Restored) event()       {}

// Provider supplies a native drawable and the events affecting it.
type Provider interface {
	// PollEvents returns every pending event without blocking.
	// It returns nil when nothing is pending.
	PollEvents() []Event

	// DrawableSize returns the current drawable size in pixels.
	DrawableSize() (width, height int)

	// Close destroys the window and the platform connection.
	Close() error
}

// Package backend selects and drives one of the rendering backends.
//
// Exactly one backend is active for the lifetime of the process. The
// Selector tries the requested backend first and, unless the choice is
// forced, falls back to the others in a fixed order.
package backend

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/dualrender/internal/surface"
)

// Kind identifies a rendering backend.
type Kind int

const (
	// Vulkan is the explicit GPU API backend. It is the default.
	Vulkan Kind = iota + 1
	// OpenGL is the legacy immediate-mode backend.
	OpenGL
)

// Kinds lists every known backend in fallback order.
var Kinds = []Kind{Vulkan, OpenGL}

func (k Kind) String() string {
	switch k {
	case Vulkan:
		return "vulkan"
	case OpenGL:
		return "opengl"
	}
	return "unknown"
}

// ParseKind parses a backend name as accepted on the command line and in
// the configuration file.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vulkan", "vk":
		return Vulkan, nil
	case "opengl", "gl":
		return OpenGL, nil
	}
	return 0, errors.Newf("unknown backend %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Vulkan && k != OpenGL {
		return nil, errors.Newf("unknown backend %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Backend is an initialized renderer bound to its own window.
type Backend interface {
	// Kind reports which backend this is.
	Kind() Kind

	// Surface returns the window the backend presents to.
	Surface() surface.Provider

	// Resize notifies the backend that the drawable changed size.
	Resize(width, height int)

	// RenderFrame renders and presents one frame.
	// A non-nil error is fatal to the render loop.
	RenderFrame() error

	// Close releases every resource in reverse creation order, the window
	// last. It must be called exactly once, whatever error ended the loop.
	Close() error
}

// Factory initializes a backend. On failure it must release anything it
// created before returning.
type Factory func() (Backend, error)

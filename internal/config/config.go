// Package config holds the process configuration. It is fixed once the
// process starts: there is no live reconfiguration.
package config

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/vkngwrapper/dualrender/internal/backend"
)

// DefaultMaxFramesInFlight is the frame-slot count used when none, or an
// invalid one, is configured.
const DefaultMaxFramesInFlight = 2

// Config is the complete process configuration.
type Config struct {
	// Backend is the backend tried first.
	Backend backend.Kind `toml:"backend"`
	// Force disables falling back to another backend.
	Force bool `toml:"force"`
	// MaxFramesInFlight is the number of frame slots of the Vulkan scheduler.
	MaxFramesInFlight int `toml:"-"`
	// FramesInFlightSetting is max_frames_in_flight exactly as the file
	// wrote it. LoadFile turns it into MaxFramesInFlight, falling back to
	// the default when it is not an integer.
	FramesInFlightSetting any `toml:"max_frames_in_flight"`

	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`

	// Validation requests the Khronos validation layer. A requested layer
	// that is missing fails Vulkan initialization.
	Validation bool `toml:"validation"`
	// ShaderDir holds vert.spv and frag.spv. Empty selects the shaders
	// built into the binary.
	ShaderDir string `toml:"shader_dir"`

	ClearColor mgl32.Vec4 `toml:"clear_color"`

	LogLevel string `toml:"log_level"`
	// StatsInterval is how often frame statistics are logged, in seconds.
	// Zero disables them.
	StatsInterval float64 `toml:"stats_interval"`

	// Warnings collects diagnostics about rejected values that were replaced
	// with defaults.
	Warnings []string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:           backend.Vulkan,
		MaxFramesInFlight: DefaultMaxFramesInFlight,
		Title:             "xcb-multi",
		Width:             300,
		Height:            300,
		Validation:        true,
		ClearColor:        mgl32.Vec4{0, 1, 0, 1},
		LogLevel:          "info",
		StatsInterval:     5,
	}
}

// LoadFile overlays the TOML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "config: read %s", path)
	}
	return c.decode(data, path)
}

func (c *Config) decode(data []byte, source string) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return errors.Wrapf(err, "config: %s:%d:%d", source, row, col)
		}
		return errors.Wrapf(err, "config: %s", source)
	}
	c.applyFramesInFlightSetting()
	return nil
}

func (c *Config) applyFramesInFlightSetting() {
	raw := c.FramesInFlightSetting
	c.FramesInFlightSetting = nil
	switch v := raw.(type) {
	case nil:
	case int64:
		c.MaxFramesInFlight = int(v)
	case string:
		c.setFrameCount(v)
	default:
		c.warnf("max frames in flight must be an integer, got %v: using %d", v, DefaultMaxFramesInFlight)
		c.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
}

// Validate replaces out-of-range values with their defaults and records a
// warning for each replacement. Only an unusable window size is an error.
func (c *Config) Validate() error {
	if c.MaxFramesInFlight <= 0 {
		c.warnf("max frames in flight must be a positive integer, got %d: using %d",
			c.MaxFramesInFlight, DefaultMaxFramesInFlight)
		c.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
	if c.Backend != backend.Vulkan && c.Backend != backend.OpenGL {
		c.warnf("unknown backend %d: using %s", int(c.Backend), backend.Vulkan)
		c.Backend = backend.Vulkan
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		c.warnf("%v: using info", err)
		c.LogLevel = "info"
	}
	if c.StatsInterval < 0 {
		c.warnf("stats interval must not be negative, got %g: disabling", c.StatsInterval)
		c.StatsInterval = 0
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("config: window size %dx%d is not positive", c.Width, c.Height)
	}
	return nil
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, errors.Newf(format, args...).Error())
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.Newf("unknown log level %q", s)
	}
	return level, nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

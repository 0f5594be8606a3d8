package config

import (
	"flag"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/dualrender/internal/backend"
)

// Parse builds the configuration from the command line: defaults first,
// then the file named by --config, then any flag given explicitly.
// The returned configuration has been validated.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath   = fs.String("config", "", "TOML configuration `file`")
		framesRaw    = fs.String("vulkan-max-frames-in-flight", "", "number of Vulkan frame slots (positive integer)")
		title        = fs.String("title", "", "window title")
		width        = fs.Int("width", 0, "initial window width")
		height       = fs.Int("height", 0, "initial window height")
		validation   = fs.Bool("validation", true, "require the Khronos validation layer")
		shaderDir    = fs.String("shader-dir", "", "directory holding vert.spv and frag.spv, overriding the built-in shaders")
		logLevel     = fs.String("log-level", "", "debug, info, warn or error")
		statsSeconds = fs.Float64("stats-interval", 0, "seconds between frame statistics, 0 disables")
	)

	var choices []backendChoice
	fs.Var(&backendFlag{backendChoice{backend.Vulkan, false}, &choices}, "use-vulkan", "try Vulkan first (default)")
	fs.Var(&backendFlag{backendChoice{backend.OpenGL, false}, &choices}, "use-opengl", "try OpenGL first")
	fs.Var(&backendFlag{backendChoice{backend.Vulkan, true}, &choices}, "force-vulkan", "use Vulkan and never fall back")
	fs.Var(&backendFlag{backendChoice{backend.OpenGL, true}, &choices}, "force-opengl", "use OpenGL and never fall back")

	args, framesMissing := trimValuelessFrameFlag(args)
	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(err, "config: parse flags")
	}
	if fs.NArg() > 0 {
		return Config{}, errors.Newf("config: unexpected arguments %s", strings.Join(fs.Args(), " "))
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return Config{}, err
		}
	}

	// Backend flags apply in command-line order: the last one wins.
	for _, c := range choices {
		cfg.Backend, cfg.Force = c.kind, c.force
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "vulkan-max-frames-in-flight":
			cfg.setFrameCount(*framesRaw)
		case "title":
			cfg.Title = *title
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "validation":
			cfg.Validation = *validation
		case "shader-dir":
			cfg.ShaderDir = *shaderDir
		case "log-level":
			cfg.LogLevel = *logLevel
		case "stats-interval":
			cfg.StatsInterval = *statsSeconds
		}
	})
	// A valueless frame flag is always the last one given.
	if framesMissing {
		cfg.warnf("no value given for max frames in flight: using %d", DefaultMaxFramesInFlight)
		cfg.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// trimValuelessFrameFlag drops a frame-count flag that ends the command line
// without its value, so it can be reported and replaced by the default
// instead of failing the whole parse.
func trimValuelessFrameFlag(args []string) ([]string, bool) {
	if len(args) == 0 {
		return args, false
	}
	switch args[len(args)-1] {
	case "-vulkan-max-frames-in-flight", "--vulkan-max-frames-in-flight":
		return args[:len(args)-1], true
	}
	return args, false
}

// setFrameCount applies a frame-slot count given as text. Unparsable and
// non-positive values keep the default and leave a warning.
func (c *Config) setFrameCount(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		c.warnf("unknown number %q, failed to change max frames in flight: using %d",
			raw, DefaultMaxFramesInFlight)
		c.MaxFramesInFlight = DefaultMaxFramesInFlight
		return
	}
	c.MaxFramesInFlight = n
}

type backendChoice struct {
	kind  backend.Kind
	force bool
}

// backendFlag is a boolean flag that records its choice in the order the
// flags appear on the command line.
type backendFlag struct {
	choice backendChoice
	sink   *[]backendChoice
}

func (f *backendFlag) IsBoolFlag() bool { return true }

func (f *backendFlag) String() string { return "false" }

func (f *backendFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*f.sink = append(*f.sink, f.choice)
	}
	return nil
}

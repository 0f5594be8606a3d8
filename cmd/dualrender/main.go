// Command dualrender opens a window and clears it every frame through
// Vulkan or, failing that, OpenGL.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/vkngwrapper/dualrender/internal/app"
	"github.com/vkngwrapper/dualrender/internal/backend"
	"github.com/vkngwrapper/dualrender/internal/config"
	"github.com/vkngwrapper/dualrender/internal/opengl"
	"github.com/vkngwrapper/dualrender/internal/vulkan"
	"github.com/vkngwrapper/dualrender/shaders"
)

func init() {
	// SDL and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := time.Duration(cfg.StatsInterval * float64(time.Second))
	var shaderFS fs.FS = shaders.FS
	if cfg.ShaderDir != "" {
		shaderFS = os.DirFS(cfg.ShaderDir)
	}
	selector := &backend.Selector{
		Logger: log,
		Factories: map[backend.Kind]backend.Factory{
			backend.Vulkan: vulkan.Factory(vulkan.Options{
				Title:             cfg.Title,
				Width:             cfg.Width,
				Height:            cfg.Height,
				Validation:        cfg.Validation,
				MaxFramesInFlight: cfg.MaxFramesInFlight,
				ClearColor:        cfg.ClearColor,
				Shaders:           vulkan.ShadersFrom(shaderFS),
				StatsInterval:     stats,
				Logger:            log.With(slog.String("backend", backend.Vulkan.String())),
			}),
			backend.OpenGL: opengl.Factory(opengl.Options{
				Title:      cfg.Title,
				Width:      cfg.Width,
				Height:     cfg.Height,
				ClearColor: cfg.ClearColor,
				Logger:     log.With(slog.String("backend", backend.OpenGL.String())),
			}),
		},
	}

	b, err := selector.Select(cfg.Backend, cfg.Force)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		return 1
	}

	loop := &app.Loop{Backend: b, Logger: log}
	if err := loop.Run(ctx); err != nil {
		// A failed frame ends the loop like a close request does.
		log.Error("render loop ended with an error", slog.Any("error", err))
	}
	return 0
}

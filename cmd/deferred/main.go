// Command deferred renders the default scene with the deferred pipeline,
// either in a window or headless into a PNG file.
package main

import (
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/der-antikeks/deferred/config"
	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/gpu/opengl"
	"github.com/der-antikeks/deferred/gpu/soft"
	"github.com/der-antikeks/deferred/window"
)

func init() {
	// GLFW and the GL context stay on the main thread
	runtime.LockOSThread()
}

type flags struct {
	config        string
	headless      bool
	frames        int
	out           string
	width, height int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var f flags
	fs := pflag.NewFlagSet("deferred", pflag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "TOML configuration file")
	fs.BoolVar(&f.headless, "headless", false, "render with the software backend into --out")
	fs.IntVar(&f.frames, "frames", 1, "frames to render headless")
	fs.StringVarP(&f.out, "out", "o", "frame.png", "headless output image")
	fs.IntVar(&f.width, "width", 0, "override the window width")
	fs.IntVar(&f.height, "height", 0, "override the window height")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.width > 0 {
		cfg.Window.Width = f.width
	}
	if f.height > 0 {
		cfg.Window.Height = f.height
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	if f.headless {
		return headless(cfg, f, log)
	}
	return interactive(cfg, log)
}

func headless(cfg config.Config, f flags, log *slog.Logger) error {
	w, h := cfg.Window.Width, cfg.Window.Height
	b := soft.New(w, h)

	a, err := newApp(b, w, h, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	for i := 0; i < f.frames; i++ {
		if err := a.frame(time.Second/60, w, h); err != nil {
			return fatal(log, err)
		}
	}

	file, err := os.Create(f.out)
	if err != nil {
		return err
	}
	if err := png.Encode(file, b.Display()); err != nil {
		file.Close()
		return err
	}
	log.Info("frame written", "path", f.out, "frames", f.frames, "passes", a.renderer.Executed())
	return file.Close()
}

func interactive(cfg config.Config, log *slog.Logger) error {
	win, err := window.Open(window.Options{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
		VSync:  cfg.Window.VSync,
	}, log)
	if err != nil {
		return err
	}
	defer win.Close()

	b, err := opengl.New()
	if err != nil {
		return err
	}
	version, renderer := b.Version()
	log.Info("opengl", "version", version, "renderer", renderer)

	w, h := win.FramebufferSize()
	a, err := newApp(b, w, h, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()
	win.Control(&a.State)

	var (
		lastTime  = time.Now()
		ratio     = 0.01
		fps       = 60.0
		nextPrint = lastTime
	)

	for win.Running() {
		now := time.Now()
		delta := now.Sub(lastTime)
		lastTime = now

		fps = fps*(1-ratio) + (1.0/delta.Seconds())*ratio
		if math.IsInf(fps, 0) || math.IsNaN(fps) {
			fps = 60
		}
		if now.After(nextPrint) {
			nextPrint = now.Add(5 * time.Second)
			log.Debug("frame rate", "fps", fps, "frames", a.renderer.Frames())
		}

		w, h := win.FramebufferSize()
		if err := a.frame(delta, w, h); err != nil {
			return fatal(log, err)
		}
		win.Update()
	}
	return nil
}

// fatal logs backend failures with their checkpoint.
func fatal(log *slog.Logger, err error) error {
	var be *gpu.BackendError
	if errors.As(err, &be) {
		log.Error("backend failure", "checkpoint", be.Checkpoint, "err", be.Err)
	}
	return err
}

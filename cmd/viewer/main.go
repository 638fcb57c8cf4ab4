// Command viewer opens glTF models in a window, frames them and renders them through the
// configured post-processing chain.
//
// Usage:
//
//	viewer [-config viewer.yaml] [-env sky.hdr] [-headless [-frames n]] [paths...]
//
// Paths may be .gltf/.glb files or directories, which are searched recursively. More models can be
// dropped onto the window until the first batch has loaded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

type options struct {
	configPath string
	envPath    string
	headless   bool
	frames     uint64
	paths      []string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML or TOML config file")
	flag.StringVar(&opts.envPath, "env", "", "environment map (.hdr or .exr), overrides the config")
	flag.BoolVar(&opts.headless, "headless", false, "render with the recording backend and exit")
	flag.Uint64Var(&opts.frames, "frames", 1, "frames to render in headless mode")
	flag.Parse()
	opts.paths = flag.Args()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.envPath != "" {
		cfg.Environment.Path = opts.envPath
		cfg.Environment.Kind = ""
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ingestor := loader.NewIngestor(log)
	locators := ingestor.Ingest(opts.paths...)

	if opts.headless {
		return runHeadless(ctx, cfg, log, locators, opts.frames)
	}
	return runWindowed(ctx, cfg, log, ingestor, locators)
}

func runWindowed(ctx context.Context, cfg config.Config, log logger.Logger, ingestor *loader.Ingestor, locators []loader.Locator) error {
	// ── Window + Renderer ───────────────────────────────────────────────
	w, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, w,
		renderer.WithSize(w.Width(), w.Height()),
		renderer.WithPixelRatio(w.PixelRatio()),
		renderer.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	// ── Session ─────────────────────────────────────────────────────────
	s, err := viewer.NewSession(r, viewer.WithConfig(cfg), viewer.WithLogger(log))
	if err != nil {
		r.Release()
		return err
	}
	defer s.Dispose()

	eng, err := engine.NewEngine(s,
		engine.WithWindow(w),
		engine.WithRenderFrameLimit(cfg.Window.FrameLimit),
		engine.WithLogger(log),
	)
	if err != nil {
		return err
	}

	// ── Input ───────────────────────────────────────────────────────────
	keys := newKeyBindings(s, log)
	w.SetKeyDownCallback(keys.handle)
	w.SetDropCallback(func(paths []string) {
		go load(ctx, s, log, ingestor.Ingest(paths...))
	})

	// ── Assets ──────────────────────────────────────────────────────────
	if cfg.Environment.Path != "" {
		go s.SetEnvironment(ctx, cfg.Environment.Path)
	}
	if len(locators) > 0 {
		go load(ctx, s, log, locators)
	}

	go func() {
		<-ctx.Done()
		eng.Quit()
	}()
	eng.Run()
	return nil
}

func runHeadless(ctx context.Context, cfg config.Config, log logger.Logger, locators []loader.Locator, frames uint64) error {
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil,
		renderer.WithSize(cfg.Window.Width, cfg.Window.Height),
		renderer.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	backend := r.Backend().(*renderer.HeadlessBackend)

	s, err := viewer.NewSession(r, viewer.WithConfig(cfg), viewer.WithLogger(log))
	if err != nil {
		r.Release()
		return err
	}
	defer s.Dispose()

	if cfg.Environment.Path != "" {
		s.SetEnvironment(ctx, cfg.Environment.Path)
	}
	if err := s.Load(ctx, locators); err != nil {
		return err
	}

	eng, err := engine.NewEngine(s, engine.WithMaxFrames(max(frames, 1)), engine.WithLogger(log))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		eng.Quit()
	}()
	eng.Run()

	pos, target := s.CameraPose()
	log.Infof("%s: %d models, %d frames, %d passes recorded; camera %v -> %v",
		s.Status(), s.Scene().ModelCount(), eng.Frames(), len(backend.Ops()), pos, target)
	return nil
}

// load runs a batch load and reports the outcome. Drops after the first batch are refused by the
// session and only logged.
func load(ctx context.Context, s viewer.Session, log logger.Logger, locators []loader.Locator) {
	if len(locators) == 0 {
		log.Warnf("no .gltf or .glb files to load")
		return
	}
	err := s.Load(ctx, locators)
	switch {
	case err == nil:
		log.Infof("%s", s.Status())
	case errors.Is(err, viewer.ErrInvalidState), errors.Is(err, viewer.ErrLoadInProgress):
		log.Warnf("ignoring %d models: %v", len(locators), err)
	default:
		log.Errorf("%s: %v", s.Status(), err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rtedge/rtedge/pkg/capture"
	"github.com/rtedge/rtedge/pkg/config"
	"github.com/rtedge/rtedge/pkg/filter"
	_ "github.com/rtedge/rtedge/pkg/filter/opencv"
	"github.com/rtedge/rtedge/pkg/filter/soft"
	"github.com/rtedge/rtedge/pkg/graphics"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/monitoring"
	xos "github.com/rtedge/rtedge/pkg/os"
	"github.com/rtedge/rtedge/pkg/pipeline"
	"github.com/rtedge/rtedge/pkg/render"
	"github.com/rtedge/rtedge/pkg/service"
	"github.com/rtedge/rtedge/pkg/stats"
	"github.com/rtedge/rtedge/pkg/thread"
	"github.com/spf13/pflag"
)

var Version = "?"

func main() {
	code := 0
	thread.Main(func() { code = run(os.Args[1:]) })
	os.Exit(code)
}

func run(args []string) int {
	conf, flags, err := config.Parse("rtedge", args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(os.Stderr, flags.Usage())
		return 0
	}
	log := logger.NewConsole(conf.Debug, "rtedge", false)
	if err != nil {
		log.Error().Err(err).Msg("Bad configuration")
		return 2
	}
	log.Info().Str("version", Version).Str("conf", flags.File()).Msg("rtedge")
	log.Debug().Msgf("config: %+v", conf)

	if err := start(conf, flags, log); err != nil {
		log.Error().Err(err).Msg("Failed")
		return 1
	}
	return 0
}

func start(conf config.Config, flags *config.Flags, log *logger.Logger) error {
	if conf.Capture.Source == config.SourceCamera {
		lock, err := xos.NewFileLock(conf.LockPath())
		if err != nil {
			return err
		}
		if err = lock.TryLock(); err != nil {
			return fmt.Errorf("camera lock %v: %w", lock.Path(), err)
		}
		defer func() { _ = lock.Unlock() }()
	}

	ctx, stop := xos.ExpectTermination(context.Background())
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	metrics := stats.NewMetrics(reg)

	flt, err := filter.Open(conf.Filter.Backend, log)
	if err != nil {
		if conf.Filter.Backend == soft.Name {
			return err
		}
		log.Warn().Err(err).Msgf("Falling back to the %v filter", soft.Name)
		if flt, err = filter.Open(soft.Name, log); err != nil {
			return err
		}
	}

	var win *graphics.Window
	var gpu *graphics.OpenGL
	err = thread.CallErr(func() (err error) {
		win, err = graphics.NewWindow(graphics.Config{
			Title:  conf.Render.Title,
			Width:  conf.Render.Width,
			Height: conf.Render.Height,
			VSync:  conf.Render.VSync,
		}, log)
		if err != nil {
			return err
		}
		if gpu, err = graphics.NewOpenGL(log); err != nil {
			win.Destroy()
		}
		return err
	})
	if err != nil {
		_ = flt.Close()
		return err
	}

	renderer := render.New(gpu, log)
	pipe := pipeline.New(flt, renderer, pipeline.Options{
		Mode:    conf.Mode(),
		Window:  conf.Stats.Window,
		Overlay: conf.Render.Overlay,
		Metrics: metrics,
	}, log)

	var services service.Group
	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, reg, pipe.Stats, log)
		if err != nil {
			log.Error().Err(err).Msg("Monitoring is disabled")
		} else {
			services.Add(mon)
		}
	}
	services.Start()

	if flags.File() != "" {
		err = config.Watch(ctx, flags, config.OnModeChange(conf.Mode(), pipe.SetMode), log.Module("config"))
		if err != nil {
			log.Warn().Err(err).Msg("No config reload")
		}
	}

	// the display stops with the capture and the other way around
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	captured := make(chan error, 1)
	go func() {
		captured <- pipe.Run(ctx, source(conf.Capture, log))
		cancel()
	}()

	handler := graphics.Handler{Toggle: func() { pipe.ToggleMode() }}
	if !conf.Render.Overlay {
		handler.Title = func() string {
			return conf.Render.Title + " | " + strings.Join(pipe.Stats().Lines(), " | ")
		}
	}
	display := graphics.NewDisplay(win, log)
	displayErr := thread.CallErr(func() error { return display.Run(ctx, renderer, handler) })

	captureErr := teardown(cancel, captured, renderer, win.Destroy)

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := services.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("Shutdown")
	}

	s := pipe.Stats()
	log.Info().
		Uint64("processed", s.Processed).
		Uint64("dropped", s.Dropped).
		Uint64("failed", s.Failed).
		Uint64("skipped", s.Skipped).
		Msg("Bye")

	if errors.Is(displayErr, render.ErrShader) {
		log.Fatal().Err(displayErr).Msg("Renderer has failed")
	}
	return errors.Join(displayErr, captureErr)
}

// teardown stops the capture, which releases the filter once the source
// is closed, and then frees the GPU resources on the main thread.
func teardown(cancel context.CancelFunc, captured <-chan error, r *render.Renderer, destroy func()) error {
	cancel()
	err := <-captured
	thread.Call(func() {
		r.Release()
		destroy()
	})
	return err
}

func source(c config.Capture, log *logger.Logger) capture.Source {
	if c.Source == config.SourcePattern {
		return capture.NewPattern(capture.PatternConfig{
			Width:             c.Width,
			Height:            c.Height,
			Fps:               c.Fps,
			Padding:           c.Padding,
			ChromaPixelStride: c.ChromaPixelStride,
			Frames:            c.Frames,
		})
	}
	return capture.NewCamera(capture.CameraConfig{
		Device: c.Device,
		Width:  c.Width,
		Height: c.Height,
		Fps:    c.Fps,
	}, log)
}

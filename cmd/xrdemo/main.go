// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command xrdemo runs an immersive session on the simulated headset: it
// requests a session, clears every eye's render target each frame, and ends
// the session after a frame budget or duration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
	_ "github.com/gogpu/xr/backend/native" // registers the GPU backend
	"github.com/gogpu/xr/device/sim"
	"github.com/gogpu/xr/runloop"
	"github.com/gogpu/xr/webxr"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file")
		backendName = flag.String("backend", "", "render backend (software, native); empty picks the best available")
		frames      = flag.Int("frames", 0, "frames to render before ending the session; 0 runs until interrupted")
		duration    = flag.Duration("duration", 0, "end the session after this long")
		manual      = flag.Bool("manual", false, "run frame callbacks on the script loop")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "xrdemo: %v\n", err)
			os.Exit(2)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backendName
		case "frames":
			cfg.Frames = *frames
		case "duration":
			cfg.Duration = *duration
		case "manual":
			if *manual {
				cfg.RenderingMode = xr.RenderingModeManual
			}
		case "v":
			if *verbose {
				cfg.LogLevel = slog.LevelDebug
			}
		}
	})

	xr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, cfg)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xrdemo: %v\n", err)
		os.Exit(1)
	}
}

// run owns the backend, the script loop and the lifecycle for one session.
func run(ctx context.Context, cfg config) error {
	b, err := backend.Open(cfg.Backend)
	if err != nil {
		return fmt.Errorf("open backend %q: %w", cfg.Backend, err)
	}
	defer b.Close()
	log := xr.Logger()
	log.Info("xrdemo: backend ready", "backend", b.Name(), "mode", cfg.RenderingMode)

	script := runloop.New(
		runloop.WithName("script"),
		runloop.WithLogger(log),
		runloop.WithErrorHandler(func(err error) {
			log.Warn("xrdemo: script error", "err", err)
		}),
	)
	defer script.Close()

	rt := sim.New(cfg.simOptions()...)
	lc := xr.New(b, rt, xr.WithInitTimeout(cfg.InitTimeout))
	defer lc.Close()
	lc.SetEngine(&engine{backend: b, script: script, mode: cfg.RenderingMode})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := script.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("script loop: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return renderLoop(gctx, b, cfg.FrameRate)
	})
	g.Go(func() error {
		defer cancel()
		return drive(gctx, lc, b.Binder(), cfg)
	})
	return g.Wait()
}

// renderLoop ticks the backend at rate renders per second until ctx is done.
func renderLoop(ctx context.Context, b backend.RenderBackend, rate int) error {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := b.Render(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("render: %w", err)
		}
	}
}

// drive runs the session: request, animate, end.
func drive(ctx context.Context, lc *xr.Lifecycle, binder backend.Binder, cfg config) error {
	log := xr.Logger()

	s, err := webxr.RequestSession(lc, cfg.Mode).Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("request session: %w", err)
	}
	id := lc.SessionID()
	if cfg.PlaneDetection {
		if err := s.UpdateWorldTrackingState(webxr.WorldTrackingState{PlaneDetection: true}); err != nil {
			return err
		}
	}
	s.AddEventListener(webxr.EventInputSourcesChange, func(ev webxr.Event) {
		log.Info("xrdemo: input sources changed", "added", len(ev.Added), "removed", len(ev.Removed))
	})
	space, err := s.RequestReferenceSpace(webxr.SpaceLocalFloor)
	if err != nil {
		return err
	}

	var (
		rendered atomic.Int64
		budget   = make(chan struct{})
		once     sync.Once
	)
	var onFrame webxr.FrameCallback
	onFrame = func(_ time.Duration, f *webxr.Frame) error {
		pose, err := f.ViewerPose(space)
		if err != nil {
			return err
		}
		for _, v := range pose.Views {
			target, err := s.RenderTargetForEye(v.Eye)
			if err != nil {
				return err
			}
			cs := target.ClearState
			cs.Color = eyeColor(cfg.ClearColor, v.Eye)
			if err := binder.Bind(target.Framebuffer, cs); err != nil {
				return fmt.Errorf("clear %s eye: %w", v.Eye, err)
			}
		}
		if n := rendered.Add(1); cfg.Frames > 0 && n >= int64(cfg.Frames) {
			once.Do(func() { close(budget) })
			return nil
		}
		s.RequestAnimationFrame(onFrame)
		return nil
	}
	s.RequestAnimationFrame(onFrame)

	var deadline <-chan time.Time
	if cfg.Duration > 0 {
		timer := time.NewTimer(cfg.Duration)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case <-ctx.Done():
		return nil
	case <-budget:
	case <-deadline:
	}

	if _, err := s.End().Await(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("end session: %w", err)
	}
	log.Info("xrdemo: session ended", "frames", rendered.Load(), "session", id)
	return nil
}

// eyeColor mirrors the clear color for the right eye so both eyes are
// distinguishable in captures.
func eyeColor(c gputypes.Color, eye string) gputypes.Color {
	if eye == webxr.EyeRight {
		return gputypes.Color{R: c.B, G: c.G, B: c.R, A: c.A}
	}
	return c
}

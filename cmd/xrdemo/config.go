// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/device/sim"
	"github.com/gogpu/xr/webxr"
)

var errInvalidConfig = errors.New("invalid config")

type config struct {
	Backend        string
	Mode           string
	RenderingMode  xr.RenderingMode
	FrameRate      int
	Frames         int
	Duration       time.Duration
	InitTimeout    time.Duration
	PlaneDetection bool
	ClearColor     gputypes.Color
	LogLevel       slog.Level
	Device         deviceConfig
}

type deviceConfig struct {
	EyeWidth        uint32
	EyeHeight       uint32
	SwapchainLength int
	InitAttempts    int
	EndFrames       int
	RecycleEvery    int
	Hands           bool
	Controllers     bool
}

func defaultConfig() config {
	return config{
		Mode:        webxr.ModeImmersiveVR,
		FrameRate:   72,
		Frames:      300,
		InitTimeout: 5 * time.Second,
		ClearColor:  gputypes.Color{R: 0.1, G: 0.2, B: 0.4, A: 1},
		LogLevel:    slog.LevelInfo,
		Device: deviceConfig{
			EyeWidth:        1440,
			EyeHeight:       1600,
			SwapchainLength: 3,
			InitAttempts:    1,
			EndFrames:       2,
			Controllers:     true,
		},
	}
}

type fileConfig struct {
	Backend        string         `toml:"backend"`
	Mode           string         `toml:"mode"`
	RenderingMode  string         `toml:"rendering_mode"`
	FrameRate      int            `toml:"frame_rate"`
	Frames         int            `toml:"frames"`
	Duration       string         `toml:"duration"`
	InitTimeout    string         `toml:"init_timeout"`
	PlaneDetection bool           `toml:"plane_detection"`
	ClearColor     gputypes.Color `toml:"clear_color"`
	LogLevel       string         `toml:"log_level"`
	Device         fileDevice     `toml:"device"`
}

type fileDevice struct {
	EyeWidth        uint32 `toml:"eye_width"`
	EyeHeight       uint32 `toml:"eye_height"`
	SwapchainLength int    `toml:"swapchain_length"`
	InitAttempts    int    `toml:"init_attempts"`
	EndFrames       int    `toml:"end_frames"`
	RecycleEvery    int    `toml:"recycle_every"`
	Hands           bool   `toml:"hands"`
	Controllers     bool   `toml:"controllers"`
}

// loadConfig overlays the keys set in the TOML file at path on the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load xrdemo config: %w", err)
	}

	if meta.IsDefined("backend") {
		cfg.Backend = strings.TrimSpace(raw.Backend)
	}
	if meta.IsDefined("mode") {
		cfg.Mode = strings.TrimSpace(raw.Mode)
	}
	if meta.IsDefined("rendering_mode") {
		m, err := parseRenderingMode(raw.RenderingMode)
		if err != nil {
			return config{}, err
		}
		cfg.RenderingMode = m
	}
	if meta.IsDefined("frame_rate") {
		cfg.FrameRate = raw.FrameRate
	}
	if meta.IsDefined("frames") {
		cfg.Frames = raw.Frames
	}
	if meta.IsDefined("duration") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Duration))
		if err != nil {
			return config{}, fmt.Errorf("parse duration: %w", err)
		}
		cfg.Duration = d
	}
	if meta.IsDefined("init_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.InitTimeout))
		if err != nil {
			return config{}, fmt.Errorf("parse init_timeout: %w", err)
		}
		cfg.InitTimeout = d
	}
	if meta.IsDefined("plane_detection") {
		cfg.PlaneDetection = raw.PlaneDetection
	}
	if meta.IsDefined("clear_color") {
		cfg.ClearColor = raw.ClearColor
	}
	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
	}

	dev := &cfg.Device
	if meta.IsDefined("device", "eye_width") {
		dev.EyeWidth = raw.Device.EyeWidth
	}
	if meta.IsDefined("device", "eye_height") {
		dev.EyeHeight = raw.Device.EyeHeight
	}
	if meta.IsDefined("device", "swapchain_length") {
		dev.SwapchainLength = raw.Device.SwapchainLength
	}
	if meta.IsDefined("device", "init_attempts") {
		dev.InitAttempts = raw.Device.InitAttempts
	}
	if meta.IsDefined("device", "end_frames") {
		dev.EndFrames = raw.Device.EndFrames
	}
	if meta.IsDefined("device", "recycle_every") {
		dev.RecycleEvery = raw.Device.RecycleEvery
	}
	if meta.IsDefined("device", "hands") {
		dev.Hands = raw.Device.Hands
	}
	if meta.IsDefined("device", "controllers") {
		dev.Controllers = raw.Device.Controllers
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		xr.Logger().Warn("xrdemo: unknown config keys", "keys", undecoded)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case !webxr.IsSessionSupported(c.Mode):
		return fmt.Errorf("%w: unsupported mode %q", errInvalidConfig, c.Mode)
	case c.FrameRate <= 0:
		return fmt.Errorf("%w: frame_rate must be positive", errInvalidConfig)
	case c.Frames < 0:
		return fmt.Errorf("%w: frames must not be negative", errInvalidConfig)
	case c.Device.EyeWidth == 0 || c.Device.EyeHeight == 0:
		return fmt.Errorf("%w: eye size must not be zero", errInvalidConfig)
	case c.Device.SwapchainLength <= 0:
		return fmt.Errorf("%w: swapchain_length must be positive", errInvalidConfig)
	}
	return nil
}

func parseRenderingMode(s string) (xr.RenderingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automatic":
		return xr.RenderingModeAutomatic, nil
	case "manual":
		return xr.RenderingModeManual, nil
	default:
		return 0, fmt.Errorf("%w: rendering_mode %q", errInvalidConfig, s)
	}
}

func (c config) simOptions() []sim.Option {
	d := c.Device
	return []sim.Option{
		sim.WithEyeSize(xr.Size{Width: d.EyeWidth, Height: d.EyeHeight}),
		sim.WithSwapchainLength(d.SwapchainLength),
		sim.WithInitAttempts(d.InitAttempts),
		sim.WithEndFrames(d.EndFrames),
		sim.WithRecycleEvery(d.RecycleEvery),
		sim.WithHands(d.Hands),
		sim.WithControllers(d.Controllers),
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/backend"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrdemo.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigExample(t *testing.T) {
	cfg, err := loadConfig("xrdemo.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend != backend.BackendSoftware {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.FrameRate != 90 || cfg.Frames != 180 {
		t.Errorf("FrameRate, Frames = %d, %d", cfg.FrameRate, cfg.Frames)
	}
	if cfg.InitTimeout != 2*time.Second {
		t.Errorf("InitTimeout = %v", cfg.InitTimeout)
	}
	if !cfg.PlaneDetection {
		t.Error("PlaneDetection = false")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.ClearColor.B != 0.1 || cfg.ClearColor.A != 1 {
		t.Errorf("ClearColor = %+v", cfg.ClearColor)
	}
	if cfg.Device.EyeWidth != 1832 || cfg.Device.EyeHeight != 1920 {
		t.Errorf("eye size = %dx%d", cfg.Device.EyeWidth, cfg.Device.EyeHeight)
	}
	if cfg.Device.RecycleEvery != 60 || !cfg.Device.Hands || !cfg.Device.Controllers {
		t.Errorf("Device = %+v", cfg.Device)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "frames = 10\n[device]\nhands = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := defaultConfig()
	if cfg.Frames != 10 {
		t.Errorf("Frames = %d, want 10", cfg.Frames)
	}
	if cfg.FrameRate != def.FrameRate || cfg.Mode != def.Mode || cfg.InitTimeout != def.InitTimeout {
		t.Errorf("unset keys changed: %+v", cfg)
	}
	if !cfg.Device.Hands || cfg.Device.Controllers != def.Device.Controllers {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.SwapchainLength != def.Device.SwapchainLength {
		t.Errorf("SwapchainLength = %d", cfg.Device.SwapchainLength)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"syntax", "frames = = 3", false},
		{"duration", `duration = "soon"`, false},
		{"log level", `log_level = "loud"`, false},
		{"rendering mode", `rendering_mode = "eager"`, true},
		{"inline mode", `mode = "inline"`, true},
		{"frame rate", "frame_rate = 0", true},
		{"negative frames", "frames = -1", true},
		{"zero eye", "[device]\neye_width = 0", true},
		{"empty swapchain", "[device]\nswapchain_length = 0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, errInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(%v, errInvalidConfig) = %v, want %v", err, got, tt.invalid)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParseRenderingMode(t *testing.T) {
	tests := []struct {
		in   string
		want xr.RenderingMode
	}{
		{"automatic", xr.RenderingModeAutomatic},
		{" Manual ", xr.RenderingModeManual},
	}
	for _, tt := range tests {
		got, err := parseRenderingMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseRenderingMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestRunSoftwareSession(t *testing.T) {
	for _, mode := range []xr.RenderingMode{xr.RenderingModeAutomatic, xr.RenderingModeManual} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Backend = backend.BackendSoftware
			cfg.RenderingMode = mode
			cfg.FrameRate = 500
			cfg.Frames = 12
			cfg.Device.EyeWidth, cfg.Device.EyeHeight = 16, 16

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := run(ctx, cfg); err != nil {
				t.Fatalf("run: %v", err)
			}
			if ctx.Err() != nil {
				t.Fatal("session did not end before the timeout")
			}
		})
	}
}

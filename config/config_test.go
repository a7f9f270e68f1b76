package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ghostpatch.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[gateway]
addr = "0.0.0.0:9000"

[accessibility]
reduce_motion = true

[performance]
max_concurrent_effects = 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Gateway.Addr != "0.0.0.0:9000" {
		t.Errorf("Gateway.Addr = %q", cfg.Gateway.Addr)
	}
	if !cfg.Accessibility.ReduceMotion {
		t.Error("ReduceMotion not set")
	}
	if cfg.Performance.MaxConcurrentEffects != 4 {
		t.Errorf("MaxConcurrentEffects = %d", cfg.Performance.MaxConcurrentEffects)
	}

	// Keys absent from the file keep their defaults.
	if cfg.ContentDir != "content" {
		t.Errorf("ContentDir = %q, want default", cfg.ContentDir)
	}
	if cfg.Accessibility.IntensityScale != 1.0 {
		t.Errorf("IntensityScale = %v, want default 1.0", cfg.Accessibility.IntensityScale)
	}
	if cfg.Performance.TargetFrameRate != 60 {
		t.Errorf("TargetFrameRate = %d, want default 60", cfg.Performance.TargetFrameRate)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad log level", `log_level = "loud"`, "log_level"},
		{"empty gateway addr", "[gateway]\naddr = \" \"", "gateway.addr"},
		{"intensity out of range", "[accessibility]\nintensity_scale = 3.0", "intensity_scale"},
		{"zero max effects", "[performance]\nmax_concurrent_effects = 0", "max_concurrent_effects"},
		{"quality above one", "[performance]\nquality_scale = 1.5", "quality_scale"},
		{"zero frame rate", "[performance]\ntarget_frame_rate = 0", "target_frame_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, `log_level = `))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error %q missing load context", err)
	}
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

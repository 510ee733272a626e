package config

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.InactivityTimeout() != time.Second {
		t.Errorf("default timeout = %v", cfg.InactivityTimeout())
	}
	if cfg.ThumbnailSize != 80 || cfg.GridColumns != 10 || cfg.SurfaceWidth != 200 {
		t.Errorf("unexpected raster defaults: %+v", cfg)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("INACTIVITY_TIMEOUT_MS", "750")
	t.Setenv("GRID_COLUMNS", "8")
	t.Setenv("EXPORT_RETENTION", "2h")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := Load(fs, []string{"-grid-columns", "5", "-sound-enabled=false"})

	if cfg.InactivityTimeoutMs != 750 {
		t.Errorf("timeout from env = %d", cfg.InactivityTimeoutMs)
	}
	if cfg.GridColumns != 5 {
		t.Errorf("flag did not override env: columns = %d", cfg.GridColumns)
	}
	if cfg.SoundEnabled {
		t.Error("sound flag ignored")
	}
	if cfg.ExportRetention != 2*time.Hour {
		t.Errorf("retention = %v", cfg.ExportRetention)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.InactivityTimeoutMs = 0
	cfg.GridColumns = -1
	cfg.WSPath = "ws"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, part := range []string{"inactivity timeout", "grid columns", "ws path"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q misses %q", err, part)
		}
	}
}

package sim

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDetectorConfig_IsValid(t *testing.T) {
	cfg := DefaultDetectorConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default detector config invalid: %v", err)
	}
	if cfg.MagneticField != 2.0 {
		t.Errorf("magnetic field = %v, want 2.0", cfg.MagneticField)
	}
	if cfg.Geometry.Tracker.Layers != 8 {
		t.Errorf("tracker layers = %d, want 8", cfg.Geometry.Tracker.Layers)
	}
}

func TestLoadDetectorConfig_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")
	doc := `name: compact-barrel
description: compact test layout
magnetic_field: 3.8
geometry:
  tracker:
    inner_radius: 0.03
    outer_radius: 1.1
    length: 5.6
    layers: 10
  ecal:
    inner_radius: 1.2
    outer_radius: 1.7
    length: 6.0
    granularity: 0.02
  hcal:
    inner_radius: 1.8
    outer_radius: 2.9
    length: 7.0
    granularity: 0.087
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDetectorConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "compact-barrel" {
		t.Errorf("name = %q, want compact-barrel", cfg.Name)
	}
	if cfg.MagneticField != 3.8 {
		t.Errorf("magnetic field = %v, want 3.8", cfg.MagneticField)
	}
	if cfg.Geometry.HCal.Granularity != 0.087 {
		t.Errorf("hcal granularity = %v, want 0.087", cfg.Geometry.HCal.Granularity)
	}
}

func TestDetectorConfig_ValidateRejectsBadGeometry(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.Geometry.ECal.OuterRadius = cfg.Geometry.ECal.InnerRadius
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-increasing radii")
	}

	cfg = DefaultDetectorConfig()
	cfg.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestLoadDetectorConfig_MissingFile(t *testing.T) {
	if _, err := LoadDetectorConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

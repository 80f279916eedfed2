package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubdetectorSpec describes one cylindrical detector layer. Radii and length
// are in meters.
type SubdetectorSpec struct {
	InnerRadius float64 `yaml:"inner_radius" json:"inner_radius"`
	OuterRadius float64 `yaml:"outer_radius" json:"outer_radius"`
	Length      float64 `yaml:"length" json:"length"`
	Layers      int     `yaml:"layers,omitempty" json:"layers,omitempty"`
	Granularity float64 `yaml:"granularity,omitempty" json:"granularity,omitempty"`
}

// DetectorGeometry groups the subdetector layout.
type DetectorGeometry struct {
	Tracker SubdetectorSpec `yaml:"tracker" json:"tracker"`
	ECal    SubdetectorSpec `yaml:"ecal" json:"ecal"`
	HCal    SubdetectorSpec `yaml:"hcal" json:"hcal"`
}

// DetectorConfig is the detector description published on the config channel
// and served by the gateway.
type DetectorConfig struct {
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description,omitempty" json:"description,omitempty"`
	MagneticField float64          `yaml:"magnetic_field" json:"magnetic_field"` // Tesla
	Geometry      DetectorGeometry `yaml:"geometry" json:"geometry"`
}

// DefaultDetectorConfig returns the stock general-purpose detector layout.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Name:          "default",
		MagneticField: 2.0,
		Geometry: DetectorGeometry{
			Tracker: SubdetectorSpec{
				InnerRadius: 0.04,
				OuterRadius: 1.2,
				Length:      5.0,
				Layers:      8,
			},
			ECal: SubdetectorSpec{
				InnerRadius: 1.3,
				OuterRadius: 1.8,
				Length:      6.0,
				Granularity: 0.025,
			},
			HCal: SubdetectorSpec{
				InnerRadius: 1.9,
				OuterRadius: 3.0,
				Length:      7.0,
				Granularity: 0.1,
			},
		},
	}
}

// LoadDetectorConfig reads and validates a detector description from a YAML
// file.
func LoadDetectorConfig(path string) (*DetectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading detector config: %w", err)
	}
	var cfg DetectorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing detector config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the geometry for ordering and positivity.
func (c *DetectorConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("detector config requires a name")
	}
	if c.MagneticField < 0 {
		return fmt.Errorf("magnetic_field must be non-negative, got %f", c.MagneticField)
	}
	subs := []struct {
		name string
		spec SubdetectorSpec
	}{
		{"tracker", c.Geometry.Tracker},
		{"ecal", c.Geometry.ECal},
		{"hcal", c.Geometry.HCal},
	}
	for _, s := range subs {
		if s.spec.InnerRadius <= 0 || s.spec.OuterRadius <= s.spec.InnerRadius {
			return fmt.Errorf("%s radii must satisfy 0 < inner < outer, got [%f, %f]",
				s.name, s.spec.InnerRadius, s.spec.OuterRadius)
		}
		if s.spec.Length <= 0 {
			return fmt.Errorf("%s length must be positive, got %f", s.name, s.spec.Length)
		}
	}
	return nil
}

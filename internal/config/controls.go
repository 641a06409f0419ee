package config

import (
	_ "embed"
	"fmt"
	"os"

	"afpdash/internal/errors"

	"gopkg.in/yaml.v3"
)

//go:embed default-controls.yaml
var defaultControlsYAML []byte

// SliderConfig describes an integer slider
type SliderConfig struct {
	Label   string `yaml:"label" json:"label"`
	Min     int    `yaml:"min" json:"min"`
	Max     int    `yaml:"max" json:"max"`
	Default int    `yaml:"default" json:"default"`
}

// SelectConfig describes the sex selector
type SelectConfig struct {
	Label   string   `yaml:"label" json:"label"`
	Options []string `yaml:"options" json:"options"`
	Default string   `yaml:"default" json:"default"`
}

// ToggleConfig describes a checkbox
type ToggleConfig struct {
	Label   string `yaml:"label" json:"label"`
	Default bool   `yaml:"default" json:"default"`
}

// Controls holds the sidebar control bounds and defaults
type Controls struct {
	Sex            SelectConfig `yaml:"sexo" json:"sexo"`
	MinAge         SliderConfig `yaml:"edad_min" json:"edad_min"`
	MaxAge         SliderConfig `yaml:"edad_max" json:"edad_max"`
	MinMonths      SliderConfig `yaml:"meses_min" json:"meses_min"`
	PensionersOnly ToggleConfig `yaml:"solo_pensionados" json:"solo_pensionados"`
}

// DefaultControls returns the built-in control settings
func DefaultControls() *Controls {
	controls := &Controls{}
	if err := yaml.Unmarshal(defaultControlsYAML, controls); err != nil {
		panic(fmt.Sprintf("embedded default-controls.yaml is invalid: %v", err))
	}
	return controls
}

// LoadControls reads control settings from path layered over the defaults.
// An empty path returns the defaults.
func LoadControls(path string) (*Controls, error) {
	controls := DefaultControls()
	if path == "" {
		return controls, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read controls file %s", path)
	}
	if err := yaml.Unmarshal(data, controls); err != nil {
		return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to parse controls file %s", path)
	}
	if err := controls.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid controls file %s", path)
	}
	return controls, nil
}

// Validate checks that every default lies within its slider bounds
func (c *Controls) Validate() error {
	for _, s := range []struct {
		name   string
		slider SliderConfig
	}{
		{"edad_min", c.MinAge},
		{"edad_max", c.MaxAge},
		{"meses_min", c.MinMonths},
	} {
		if s.slider.Min > s.slider.Max {
			return errors.ConfigInvalid(fmt.Sprintf("%s: min %d exceeds max %d", s.name, s.slider.Min, s.slider.Max))
		}
		if s.slider.Default < s.slider.Min || s.slider.Default > s.slider.Max {
			return errors.ConfigInvalid(fmt.Sprintf("%s: default %d outside [%d,%d]", s.name, s.slider.Default, s.slider.Min, s.slider.Max))
		}
	}

	if len(c.Sex.Options) == 0 {
		return errors.ConfigInvalid("sexo: at least one option is required")
	}
	for _, o := range c.Sex.Options {
		if o == c.Sex.Default {
			return nil
		}
	}
	return errors.ConfigInvalid(fmt.Sprintf("sexo: default %q is not an option", c.Sex.Default))
}

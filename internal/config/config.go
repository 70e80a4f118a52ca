package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTickMs  = 25
	DefaultSpacing = 40
	MinSpacing     = 21
	MaxSpacing     = 100
)

var (
	ErrTickInterval = errors.New("config: tick_ms must be positive")
	ErrPrecision    = errors.New("config: precision must be between 0 and 15")
	ErrStopTime     = errors.New("config: stop_time must not be negative")
	ErrChargeKind   = errors.New("config: charge kind must be \"f\" or \"m\"")
)

type Config struct {
	FieldConstant  float64        `yaml:"field_constant"`
	Precision      int32          `yaml:"precision"`
	TickMs         int            `yaml:"tick_ms"`
	StopTime       *float64       `yaml:"stop_time,omitempty"`
	Grid           GridConfig     `yaml:"grid"`
	DisplayMinutes bool           `yaml:"display_minutes"`
	Charges        []ChargeConfig `yaml:"charges,omitempty"`
}

type GridConfig struct {
	Enabled bool `yaml:"enabled"`
	Spacing int  `yaml:"spacing"`
}

// ChargeConfig describes one charge of the initial arrangement. Kind is
// "f" for fixed or "m" for movable; DX and DY are ignored for fixed charges.
type ChargeConfig struct {
	Kind string  `yaml:"kind"`
	Q    float64 `yaml:"q"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	DX   float64 `yaml:"dx,omitempty"`
	DY   float64 `yaml:"dy,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		FieldConstant: field.DefaultConstant,
		Precision:     field.DefaultPrecision,
		TickMs:        DefaultTickMs,
		Grid:          GridConfig{Spacing: DefaultSpacing},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects unusable settings and clamps the grid spacing into
// [MinSpacing, MaxSpacing].
func (c *Config) Validate() error {
	if c.TickMs <= 0 {
		return ErrTickInterval
	}
	if c.Precision < 0 || c.Precision > 15 {
		return ErrPrecision
	}
	if c.StopTime != nil && (*c.StopTime < 0 || math.IsNaN(*c.StopTime)) {
		return ErrStopTime
	}
	c.Grid.Spacing = ClampSpacing(c.Grid.Spacing)
	for i, ch := range c.Charges {
		if ch.Kind != "f" && ch.Kind != "m" {
			return fmt.Errorf("charge %d: %w", i, ErrChargeKind)
		}
	}
	return nil
}

func (c *Config) Engine() *field.Engine {
	return field.NewWithConstant(c.FieldConstant, c.Precision)
}

// ChargeSet builds the configured arrangement in order.
func (c *Config) ChargeSet() (charge.Set, error) {
	set := make(charge.Set, 0, len(c.Charges))
	for i, ch := range c.Charges {
		switch ch.Kind {
		case "f":
			set = append(set, charge.NewFixed(ch.Q, ch.X, ch.Y))
		case "m":
			set = append(set, charge.NewMovable(ch.Q, ch.X, ch.Y, ch.DX, ch.DY))
		default:
			return nil, fmt.Errorf("charge %d: %w", i, ErrChargeKind)
		}
	}
	return set, nil
}

// SetCharges replaces the configured arrangement with set, taking each
// movable charge's initial position and velocity.
func (c *Config) SetCharges(set charge.Set) {
	c.Charges = make([]ChargeConfig, 0, len(set))
	for _, ch := range set {
		if ch.IsMovable() {
			c.Charges = append(c.Charges, ChargeConfig{
				Kind: "m", Q: ch.Q(),
				X: ch.Pos0().X, Y: ch.Pos0().Y,
				DX: ch.Vel0().X, DY: ch.Vel0().Y,
			})
			continue
		}
		c.Charges = append(c.Charges, ChargeConfig{Kind: "f", Q: ch.Q(), X: ch.Pos().X, Y: ch.Pos().Y})
	}
}

func ClampSpacing(s int) int {
	if s < MinSpacing {
		return MinSpacing
	}
	if s > MaxSpacing {
		return MaxSpacing
	}
	return s
}

// Snap moves (x, y) to the nearest grid point when the grid is enabled.
// Halfway points round up.
func (g GridConfig) Snap(x, y float64) (float64, float64) {
	if !g.Enabled {
		return x, y
	}
	return SnapToGrid(x, g.Spacing), SnapToGrid(y, g.Spacing)
}

func SnapToGrid(v float64, spacing int) float64 {
	s := float64(ClampSpacing(spacing))
	return math.Floor((v+float64(int(s)/2))/s) * s
}

package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FieldConstant != 800 {
		t.Errorf("expected field constant 800, got %v", cfg.FieldConstant)
	}
	if cfg.TickMs != 25 {
		t.Errorf("expected 25ms ticks, got %d", cfg.TickMs)
	}
	if cfg.Grid.Spacing != 40 || cfg.Grid.Enabled {
		t.Errorf("unexpected grid %+v", cfg.Grid)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "efield.yaml")

	cfg := GetPreset("orbit")
	cfg.Grid = GridConfig{Enabled: true, Spacing: 500}
	cfg.DisplayMinutes = true
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Grid.Spacing != MaxSpacing {
		t.Errorf("spacing not clamped: %d", got.Grid.Spacing)
	}
	if !got.DisplayMinutes || got.StopTime == nil || *got.StopTime != 30 {
		t.Errorf("unexpected config %+v", got)
	}
	if len(got.Charges) != 2 || got.Charges[1].DX != 2 {
		t.Errorf("charges = %+v", got.Charges)
	}
}

func TestValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name string
		edit func(*Config)
		want error
	}{
		{"tick", func(c *Config) { c.TickMs = 0 }, ErrTickInterval},
		{"precision", func(c *Config) { c.Precision = -1 }, ErrPrecision},
		{"stop", func(c *Config) { c.StopTime = &neg }, ErrStopTime},
		{"kind", func(c *Config) { c.Charges = []ChargeConfig{{Kind: "x"}} }, ErrChargeKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		v       float64
		spacing int
		want    float64
	}{
		{59, 40, 40},
		{60, 40, 80},
		{81, 40, 80},
		{0, 40, 0},
		{10, 5, 0}, // clamped to 21
		{11, 5, 21},
	}

	for _, tt := range tests {
		if got := SnapToGrid(tt.v, tt.spacing); got != tt.want {
			t.Errorf("SnapToGrid(%v, %d) = %v, want %v", tt.v, tt.spacing, got, tt.want)
		}
	}

	g := GridConfig{Spacing: 40}
	if x, y := g.Snap(59, 61); x != 59 || y != 61 {
		t.Error("disabled grid should not snap")
	}
	g.Enabled = true
	if x, y := g.Snap(59, 61); x != 40 || y != 80 {
		t.Errorf("Snap = %v, %v", x, y)
	}
}

func TestChargeSetRoundTrip(t *testing.T) {
	cfg := GetPreset("dipole")
	set, err := cfg.ChargeSet()
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 || set[0].IsMovable() || !set[1].IsMovable() {
		t.Fatalf("unexpected set %v", set)
	}

	out := DefaultConfig()
	out.SetCharges(set)
	if len(out.Charges) != 2 || out.Charges[1] != cfg.Charges[1] {
		t.Errorf("SetCharges = %+v", out.Charges)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("dipole")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	cfg.Charges[0].Q = 99
	if Presets["dipole"].Charges[0].Q == 99 {
		t.Error("GetPreset returned shared charges")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

package config

import "sort"

func fptr(v float64) *float64 { return &v }

func preset(stop *float64, charges ...ChargeConfig) *Config {
	cfg := DefaultConfig()
	cfg.StopTime = stop
	cfg.Charges = charges
	return cfg
}

var Presets = map[string]*Config{
	// A movable -1 forty units from a fixed +1; the first tick pulls it
	// in by 0.5.
	"dipole": preset(nil,
		ChargeConfig{Kind: "f", Q: 1, X: 200, Y: 200},
		ChargeConfig{Kind: "m", Q: -1, X: 240, Y: 200},
	),
	"orbit": preset(fptr(30),
		ChargeConfig{Kind: "f", Q: 5, X: 300, Y: 200},
		ChargeConfig{Kind: "m", Q: -1, X: 300, Y: 100, DX: 2, DY: 0},
	),
	"triangle": preset(fptr(10),
		ChargeConfig{Kind: "m", Q: 1, X: 200, Y: 120},
		ChargeConfig{Kind: "m", Q: 1, X: 160, Y: 200},
		ChargeConfig{Kind: "m", Q: 1, X: 240, Y: 200},
	),
	"capacitor": preset(fptr(20),
		ChargeConfig{Kind: "f", Q: 2, X: 100, Y: 80},
		ChargeConfig{Kind: "f", Q: 2, X: 100, Y: 160},
		ChargeConfig{Kind: "f", Q: 2, X: 100, Y: 240},
		ChargeConfig{Kind: "f", Q: -2, X: 400, Y: 80},
		ChargeConfig{Kind: "f", Q: -2, X: 400, Y: 160},
		ChargeConfig{Kind: "f", Q: -2, X: 400, Y: 240},
		ChargeConfig{Kind: "m", Q: 0.5, X: 120, Y: 160},
	),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	cp.Charges = append([]ChargeConfig(nil), cfg.Charges...)
	if cfg.StopTime != nil {
		cp.StopTime = fptr(*cfg.StopTime)
	}
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

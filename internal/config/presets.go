package config

import "fmt"

func stepsPtr(n int) *int { return &n }

// Presets are ready-made comparison scenarios selectable by name from the
// command line.
var Presets = map[string]*Config{
	"hover": {
		Env: EnvConfig{
			NumAgents: 3, Dt: 0.002, Decimation: 5, Seed: 1,
			InitPos: [3]float64{0, 0, 1},
		},
		Roles: []RoleConfig{
			{Kind: KindTracking, Name: "tracking", Slot: 0},
			{Kind: KindRL, Name: "rl", Slot: 1},
			{Kind: KindDDMPC, Name: "dd-mpc", Slot: 2},
		},
		Setpoints:  [][3]float64{{0, 0, 1.5}},
		Switching:  SwitchingConfig{MinAtTargetSteps: 10, ErrorThreshold: 0.05},
		Excitation: ExcitationConfig{Steps: 400, Seed: 7},
		OutputDir:  "runs",
	},
	"square": {
		Env: EnvConfig{
			NumAgents: 3, Dt: 0.002, Decimation: 5, Seed: 1,
			InitPos: [3]float64{0, 0, 1},
		},
		Roles: []RoleConfig{
			{Kind: KindTracking, Name: "tracking", Slot: 0},
			{Kind: KindRL, Name: "rl", Slot: 1},
			{Kind: KindDDMPC, Name: "dd-mpc", Slot: 2},
		},
		Setpoints: [][3]float64{
			{1, 0, 1.5},
			{1, 1, 1.5},
			{0, 1, 1.5},
			{0, 0, 1.5},
		},
		Switching:  SwitchingConfig{StepsPerSetpoint: stepsPtr(250), MinAtTargetSteps: 10, ErrorThreshold: 0.05},
		Excitation: ExcitationConfig{Steps: 400, Seed: 7},
		OutputDir:  "runs",
	},
	"noisy": {
		Env: EnvConfig{
			NumAgents: 3, Dt: 0.002, Decimation: 5, Seed: 1,
			ObsNoiseStd: 0.01, ActuatorNoiseStd: 0.02,
			InitPos: [3]float64{0, 0, 1},
		},
		Roles: []RoleConfig{
			{Kind: KindTracking, Name: "tracking", Slot: 0},
			{Kind: KindRL, Name: "rl", Slot: 1},
			{Kind: KindDDMPC, Name: "dd-mpc", Slot: 2},
		},
		Setpoints:  [][3]float64{{0, 0, 1.5}, {0.5, 0.5, 1.2}},
		Switching:  SwitchingConfig{StepsPerSetpoint: stepsPtr(400), MinAtTargetSteps: 10, ErrorThreshold: 0.08},
		Excitation: ExcitationConfig{Steps: 600, Seed: 7},
		OutputDir:  "runs",
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	cp.Roles = append([]RoleConfig(nil), p.Roles...)
	cp.Setpoints = append([][3]float64(nil), p.Setpoints...)
	if p.Switching.StepsPerSetpoint != nil {
		cp.Switching.StepsPerSetpoint = stepsPtr(*p.Switching.StepsPerSetpoint)
	}
	return &cp
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

// Describe renders a one-line summary for a preset listing.
func Describe(name string) string {
	p, ok := Presets[name]
	if !ok {
		return ""
	}
	mode := "stabilization"
	if p.Switching.StepsPerSetpoint != nil {
		mode = fmt.Sprintf("%d steps/setpoint", *p.Switching.StepsPerSetpoint)
	}
	return fmt.Sprintf("%d setpoints, %d roles, %s", len(p.Setpoints), len(p.Roles), mode)
}

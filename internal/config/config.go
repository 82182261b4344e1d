// Package config loads and validates comparison scenario files: the
// environment parameters, the controller roles with their agent slot
// assignments, the target setpoint sequence, and the switching policy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/quadbench/internal/envs"
	"github.com/san-kum/quadbench/internal/progress"
)

const (
	DefaultDt               = 0.002
	DefaultDecimation       = 5
	DefaultNumAgents        = 3
	DefaultErrorThreshold   = 0.05
	DefaultMinAtTargetSteps = 10
	DefaultExcitationSteps  = 400
)

// Role kind strings accepted in scenario files.
const (
	KindTracking = "tracking"
	KindRL       = "rl"
	KindDDMPC    = "dd_mpc"
)

type Config struct {
	Env        EnvConfig        `yaml:"env"`
	Roles      []RoleConfig     `yaml:"roles"`
	Setpoints  [][3]float64     `yaml:"setpoints"`
	Switching  SwitchingConfig  `yaml:"switching"`
	Excitation ExcitationConfig `yaml:"excitation"`
	OutputDir  string           `yaml:"output_dir"`
}

type EnvConfig struct {
	NumAgents        int        `yaml:"num_agents"`
	Dt               float64    `yaml:"dt"`
	Decimation       int        `yaml:"decimation"`
	ObsNoiseStd      float64    `yaml:"obs_noise_std"`
	ActuatorNoiseStd float64    `yaml:"actuator_noise_std"`
	Seed             int64      `yaml:"seed"`
	InitPos          [3]float64 `yaml:"init_pos"`
}

type RoleConfig struct {
	Kind        string             `yaml:"kind"`
	Name        string             `yaml:"name"`
	Slot        int                `yaml:"slot"`
	WeightsPath string             `yaml:"weights_path,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
}

// SwitchingConfig selects the setpoint switching mode. A present
// steps_per_setpoint key means fixed-duration switching; an absent key means
// the run waits for stabilization within error_threshold.
type SwitchingConfig struct {
	StepsPerSetpoint *int    `yaml:"steps_per_setpoint,omitempty"`
	MinAtTargetSteps int     `yaml:"min_at_target_steps"`
	ErrorThreshold   float64 `yaml:"error_threshold"`
}

// ExcitationConfig drives the dd_mpc identification rollout before the run.
type ExcitationConfig struct {
	Steps int   `yaml:"steps"`
	Seed  int64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Env: EnvConfig{
			NumAgents:  DefaultNumAgents,
			Dt:         DefaultDt,
			Decimation: DefaultDecimation,
			Seed:       1,
			InitPos:    [3]float64{0, 0, 1},
		},
		Roles: []RoleConfig{
			{Kind: KindTracking, Name: "tracking", Slot: 0},
			{Kind: KindRL, Name: "rl", Slot: 1},
			{Kind: KindDDMPC, Name: "dd-mpc", Slot: 2},
		},
		Setpoints: [][3]float64{
			{0, 0, 1.5},
			{1, 1, 1.5},
			{0, 0, 1},
		},
		Switching: SwitchingConfig{
			MinAtTargetSteps: DefaultMinAtTargetSteps,
			ErrorThreshold:   DefaultErrorThreshold,
		},
		Excitation: ExcitationConfig{
			Steps: DefaultExcitationSteps,
			Seed:  7,
		},
		OutputDir: "runs",
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
		return nil, err
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

func (c *Config) Validate() error {
	if c.Env.NumAgents <= 0 {
		return fmt.Errorf("config: num_agents must be positive, got %d", c.Env.NumAgents)
	}
	if c.Env.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Env.Dt)
	}
	if c.Env.Decimation <= 0 {
		return fmt.Errorf("config: decimation must be positive, got %d", c.Env.Decimation)
	}
	if len(c.Roles) == 0 {
		return fmt.Errorf("config: at least one role is required")
	}
	if len(c.Roles) > c.Env.NumAgents {
		return fmt.Errorf("config: %d roles but only %d agents", len(c.Roles), c.Env.NumAgents)
	}
	if len(c.Setpoints) == 0 {
		return fmt.Errorf("config: at least one setpoint is required")
	}

	seen := make(map[int]string, len(c.Roles))
	for _, r := range c.Roles {
		switch r.Kind {
		case KindTracking, KindRL, KindDDMPC:
		default:
			return fmt.Errorf("config: unknown role kind %q", r.Kind)
		}
		if r.Name == "" {
			return fmt.Errorf("config: role of kind %q has no name", r.Kind)
		}
		if r.Slot < 0 || r.Slot >= c.Env.NumAgents {
			return fmt.Errorf("config: role %q slot %d out of range [0, %d)", r.Name, r.Slot, c.Env.NumAgents)
		}
		if prev, dup := seen[r.Slot]; dup {
			return fmt.Errorf("config: roles %q and %q share agent slot %d", prev, r.Name, r.Slot)
		}
		seen[r.Slot] = r.Name
	}

	if c.Switching.StepsPerSetpoint == nil {
		if c.Switching.ErrorThreshold <= 0 {
			return fmt.Errorf("config: stabilization mode needs a positive error_threshold")
		}
		if c.Switching.MinAtTargetSteps <= 0 {
			return fmt.Errorf("config: stabilization mode needs a positive min_at_target_steps")
		}
	}

	return nil
}

// EnvParams converts the env section to the environment constructor config.
func (c *Config) EnvParams() envs.Config {
	return envs.Config{
		NumAgents:        c.Env.NumAgents,
		Dt:               c.Env.Dt,
		Decimation:       c.Env.Decimation,
		ObsNoiseStd:      c.Env.ObsNoiseStd,
		ActuatorNoiseStd: c.Env.ActuatorNoiseStd,
		Seed:             c.Env.Seed,
		InitPos:          c.Env.InitPos,
	}
}

// ProgressParams converts the switching section to the progress tracker
// config.
func (c *Config) ProgressParams() progress.Config {
	return progress.Config{
		StepsPerSetpoint: c.Switching.StepsPerSetpoint,
		MinAtTargetSteps: c.Switching.MinAtTargetSteps,
		ErrorThreshold:   c.Switching.ErrorThreshold,
	}
}

// Param reads a named tuning value from a role's params map, falling back to
// the given default when absent.
func (r RoleConfig) Param(name string, def float64) float64 {
	if v, ok := r.Params[name]; ok {
		return v
	}
	return def
}

package controllers

import (
	"math"

	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/physics"
)

// TrackingConfig tunes the cascaded position/attitude loops.
type TrackingConfig struct {
	PosKp float64 `yaml:"pos_kp"`
	PosKi float64 `yaml:"pos_ki"`
	PosKd float64 `yaml:"pos_kd"`
	AttKp float64 `yaml:"att_kp"`
	Dt    float64 `yaml:"dt"`
}

func DefaultTrackingConfig(dt float64) TrackingConfig {
	return TrackingConfig{
		PosKp: 4.0,
		PosKi: 0.4,
		PosKd: 3.5,
		AttKp: 4.0,
		Dt:    dt,
	}
}

// Tracking is a PID-based position controller with an attitude P loop on
// top, emitting CTBR actions in native units.
type Tracking struct {
	cfg      TrackingConfig
	mass     float64
	gravity  float64
	maxTilt  float64
	integral [3]float64
	prevErr  [3]float64
	first    bool
}

func NewTracking(cfg TrackingConfig) *Tracking {
	return &Tracking{
		cfg:     cfg,
		mass:    physics.DefaultMass,
		gravity: physics.DefaultGravity,
		maxTilt: 0.4,
		first:   true,
	}
}

func (c *Tracking) Reset() {
	c.integral = [3]float64{}
	c.prevErr = [3]float64{}
	c.first = true
}

func (c *Tracking) Compute(obs Observation, target [3]float64) ([]float64, error) {
	to, ok := obs.(TrackingObs)
	if !ok {
		return nil, ErrObservationType
	}

	// Position PID produces a desired world-frame acceleration.
	var accDes [3]float64
	for i := 0; i < 3; i++ {
		err := target[i] - to.Pos[i]

		deriv := 0.0
		if c.first {
			c.prevErr[i] = err
		} else if c.cfg.Dt > 0 {
			c.integral[i] += err * c.cfg.Dt
			deriv = (err - c.prevErr[i]) / c.cfg.Dt
		}
		c.prevErr[i] = err

		accDes[i] = c.cfg.PosKp*err + c.cfg.PosKi*c.integral[i] + c.cfg.PosKd*deriv
	}
	c.first = false

	// Collective thrust balances gravity plus the vertical correction.
	thrust := c.mass * (accDes[2] + c.gravity)
	thrust = norm.Clamp(thrust, 0, physics.MaxThrust)

	// Small-angle mapping from lateral acceleration to desired tilt
	// (fixed yaw): pitch leans into +x, roll leans into -y.
	pitchDes := norm.Clamp(accDes[0]/c.gravity, -c.maxTilt, c.maxTilt)
	rollDes := norm.Clamp(-accDes[1]/c.gravity, -c.maxTilt, c.maxTilt)

	roll, pitch := rollPitchFromQuat(to.Quat)

	pRate := norm.Clamp(c.cfg.AttKp*(rollDes-roll), -physics.MaxBodyRate, physics.MaxBodyRate)
	qRate := norm.Clamp(c.cfg.AttKp*(pitchDes-pitch), -physics.MaxBodyRate, physics.MaxBodyRate)

	return []float64{thrust, pRate, qRate}, nil
}

func rollPitchFromQuat(q []float64) (roll, pitch float64) {
	w, x, y, z := q[0], q[1], q[2], q[3]
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	s := 2 * (w*y - z*x)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	pitch = math.Asin(s)
	return roll, pitch
}

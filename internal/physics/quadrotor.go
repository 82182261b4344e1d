package physics

import (
	"fmt"

	"github.com/san-kum/quadbench/internal/dynamo"
)

const (
	DefaultMass    = 0.75
	DefaultGravity = 9.81

	// MaxThrust bounds the collective thrust action (N); twice hover weight.
	MaxThrust = 15.0
	// MaxBodyRate bounds the roll/pitch rate setpoints (rad/s).
	MaxBodyRate = 3.0
)

type Quadrotor struct {
	Mass      float64
	Inertia   [3]float64 // diagonal body inertia (Ixx, Iyy, Izz)
	Gravity   float64
	DragCoeff float64
	RateGain  float64 // inner rate loop proportional gain
	YawDamp   float64
}

func NewQuadrotor() *Quadrotor {
	return &Quadrotor{
		Mass:      DefaultMass,
		Inertia:   [3]float64{0.0023, 0.0023, 0.004},
		Gravity:   DefaultGravity,
		DragCoeff: 0.08,
		RateGain:  20.0,
		YawDamp:   0.5,
	}
}

func (q *Quadrotor) StateDim() int   { return 13 }
func (q *Quadrotor) ControlDim() int { return 3 }

// Derive computes state derivatives for a CTBR fixed-yaw control input
// u = [thrust, roll rate setpoint, pitch rate setpoint] in native units.
func (q *Quadrotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel := x[3:6]
	quat := x[6:10]
	rates := x[10:13]

	thrust, pDes, qDes := 0.0, 0.0, 0.0
	if len(u) >= 3 {
		thrust, pDes, qDes = u[0], u[1], u[2]
	}
	if thrust < 0 {
		thrust = 0
	}

	// Thrust acts along body z, rotated into the world frame.
	fBody := [3]float64{0, 0, thrust}
	fWorld := QuatRotate(quat, fBody)

	dx := make(dynamo.State, 13)

	dx[0], dx[1], dx[2] = vel[0], vel[1], vel[2]
	dx[3] = (fWorld[0] - q.DragCoeff*vel[0]) / q.Mass
	dx[4] = (fWorld[1] - q.DragCoeff*vel[1]) / q.Mass
	dx[5] = (fWorld[2]-q.DragCoeff*vel[2])/q.Mass - q.Gravity

	// qdot = 0.5 * quat ⊗ [0, ω]
	omega := []float64{0, rates[0], rates[1], rates[2]}
	qd := quatMul(quat, omega)
	dx[6] = 0.5 * qd[0]
	dx[7] = 0.5 * qd[1]
	dx[8] = 0.5 * qd[2]
	dx[9] = 0.5 * qd[3]

	// Inner rate loop: proportional torque toward the rate setpoints,
	// yaw rate damped toward zero (fixed-yaw action type).
	tauX := q.Inertia[0] * q.RateGain * (pDes - rates[0])
	tauY := q.Inertia[1] * q.RateGain * (qDes - rates[1])
	tauZ := -q.YawDamp * rates[2]

	dx[10] = (tauX - (q.Inertia[2]-q.Inertia[1])*rates[1]*rates[2]) / q.Inertia[0]
	dx[11] = (tauY - (q.Inertia[0]-q.Inertia[2])*rates[0]*rates[2]) / q.Inertia[1]
	dx[12] = (tauZ - (q.Inertia[1]-q.Inertia[0])*rates[0]*rates[1]) / q.Inertia[2]

	return dx
}

// HoverThrust is the collective thrust balancing gravity.
func (q *Quadrotor) HoverThrust() float64 {
	return q.Mass * q.Gravity
}

func (q *Quadrotor) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      q.Mass,
		"gravity":   q.Gravity,
		"drag":      q.DragCoeff,
		"rate_gain": q.RateGain,
		"yaw_damp":  q.YawDamp,
	}
}

func (q *Quadrotor) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		q.Mass = value
	case "gravity":
		q.Gravity = value
	case "drag":
		q.DragCoeff = value
	case "rate_gain":
		q.RateGain = value
	case "yaw_damp":
		q.YawDamp = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// InitialState returns a level quadrotor at rest at the given position.
func InitialState(pos [3]float64) dynamo.State {
	x := make(dynamo.State, 13)
	x[0], x[1], x[2] = pos[0], pos[1], pos[2]
	x[6] = 1 // identity quaternion
	return x
}

// Package physics implements the quadrotor rigid body stepped by the hover
// environment.
//
// The model uses a 13-dimensional state vector:
//
//	[0:3]   position (world frame, m)
//	[3:6]   linear velocity (world frame, m/s)
//	[6:10]  attitude quaternion (w, x, y, z)
//	[10:13] body rates (rad/s)
//
// Control inputs are collective-thrust-and-body-rates (CTBR) with fixed yaw:
// [total thrust (N), roll rate setpoint, pitch rate setpoint]. An inner
// proportional rate loop converts rate setpoints into body torques, matching
// the cascaded structure of real flight controllers.
package physics

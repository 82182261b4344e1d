// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [Control]: vector representing a control input
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//
// Higher layers build on these: internal/physics implements [System] for the
// quadrotor rigid body, internal/integrators implements [Integrator], and
// internal/envs steps a vector of systems in lockstep.
package dynamo

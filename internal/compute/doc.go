// Package compute selects the computation backend controller workers run on.
//
// Workers may hold device-resident state (an RL policy network, MPC data
// matrices). The comparison coordinator refuses to spawn workers on a backend
// that cannot share such state with worker goroutines, so capability is
// checked once, up front, instead of failing partway through a run.
//
// The CUDA backend requires building with the `cuda` tag; the default build
// falls back to the CPU backend.
package compute

// Package comparison runs several heterogeneous position controllers against
// separate agents of one shared environment, in lockstep.
//
// One coordinator goroutine owns the environment and drives the tick loop; a
// fixed set of worker goroutines each wrap one controller algorithm. Per tick
// the coordinator sends every worker a target signal, collects exactly one
// action per worker (in arbitrary completion order, routed by agent slot),
// normalizes native-unit actions to the canonical [-1, 1] range, steps the
// environment once with the batched action matrix, and sends each worker its
// role-specific observation. A setpoint progress tracker decides when to move
// to the next target and when the run ends.
//
// Channels are sized so the protocol's one-message-per-direction-per-tick
// invariant is enforced by capacity: a blocked send is a protocol violation
// surfacing, not normal buffering.
package comparison

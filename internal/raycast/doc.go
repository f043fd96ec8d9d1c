// Package raycast implements the ray-cast engine at the centre of the
// LiDAR simulator: a bounding volume hierarchy over an indexed triangle
// mesh, a closest-hit ray/BVH traversal, and a multi-beam sensor scan
// driver built on top of it.
//
// The package is synchronous and holds no goroutines of its own; a
// *Simulator is safe to use from exactly one goroutine at a time, and two
// Simulators share no state. Callers that want concurrency (one sensor
// per worker, one scan at a time per worker) arrange it themselves — see
// internal/hostshim for a minimal single-owner dispatcher.
package raycast

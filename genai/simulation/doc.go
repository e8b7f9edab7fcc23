// Package simulation drives a scripted, bounded conversation between two
// agent personas. The Runner executes a five-phase cycle (generate reply,
// persist turn, check termination, then analyze and finalize once inactive)
// over an explicit State value. Every persisted turn is durable before the
// next reply is generated, and execution position is checkpointed so a
// conversation survives process restarts without re-emitting committed turns.
package simulation

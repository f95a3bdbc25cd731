// Package components defines ECS components for the simulation.
package components

// Organism holds identity and lifecycle state.
// ID is the stable handle external code uses; ECS entities are recycled.
type Organism struct {
	ID        uint32
	ProfileID uint8   // index into the configured respiratory profiles
	Age       float32 // seconds alive
	Alive     bool
}

package components

// Position represents an organism's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an organism's velocity in world units per second.
type Velocity struct {
	X, Y float32
}

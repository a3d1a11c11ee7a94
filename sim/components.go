package sim

// Position is a world-frame position component.
type Position struct {
	X, Y float64
}

// Heading is the world-frame orientation component, in radians.
type Heading struct {
	A float64
}

// Wheels holds the last commanded wheel velocities.
type Wheels struct {
	Left, Right float64
}

// Robot tags an entity as a controlled robot and links it to its engine.
type Robot struct {
	Index int
	Name  string
}

// Obstacle tags an entity as a static obstacle.
type Obstacle struct {
	Radius float64
}

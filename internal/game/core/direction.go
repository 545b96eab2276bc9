package core

// Direction is one of the eight compass directions, ordered clockwise from
// North. Screen coordinates are used: North is -Y.
type Direction int8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest

	// DirNone means "no movement".
	DirNone Direction = -1
)

// AllDirections lists the eight directions in clockwise order.
var AllDirections = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionDeltas = [8][2]int{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

var directionNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Valid reports whether d is one of the eight compass directions.
func (d Direction) Valid() bool {
	return d >= North && d <= NorthWest
}

// Delta returns the unit step for d. DirNone yields (0,0).
func (d Direction) Delta() (dx, dy int) {
	if !d.Valid() {
		return 0, 0
	}
	v := directionDeltas[d]
	return v[0], v[1]
}

// RotateLeft turns 45 degrees counter-clockwise.
func (d Direction) RotateLeft() Direction {
	if !d.Valid() {
		return d
	}
	return (d + 7) % 8
}

// RotateRight turns 45 degrees clockwise.
func (d Direction) RotateRight() Direction {
	if !d.Valid() {
		return d
	}
	return (d + 1) % 8
}

// Opposite turns 180 degrees.
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return d
	}
	return (d + 4) % 8
}

func (d Direction) String() string {
	if !d.Valid() {
		return "NONE"
	}
	return directionNames[d]
}

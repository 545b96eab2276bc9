package common

// Abs returns the absolute value of an integer
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return Max(lo, Min(v, hi))
}

// Chebyshev returns the 8-directional step count between two points on an open grid.
func Chebyshev(x1, y1, x2, y2 int) int {
	return Max(Abs(x1-x2), Abs(y1-y2))
}

// DistanceSquared returns the squared Euclidean distance between two points.
func DistanceSquared(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// InWindow reports whether (x, y) lies in the centred window
// [-halfW, halfW] x [-halfH, halfH].
func InWindow(x, y, halfW, halfH int) bool {
	return x >= -halfW && x <= halfW && y >= -halfH && y <= halfH
}

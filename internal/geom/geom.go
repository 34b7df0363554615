// Package geom holds the planar primitives shared by identity assignment and
// temporal matching.
package geom

import "math"

// Point is a continuous image-space position.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned integer bounding box anchored at its top-left corner.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// HalfDiagonal returns hypot(w/2, h/2), the radius within which another
// observation is considered the same object.
func (r Rect) HalfDiagonal() float64 {
	return math.Hypot(float64(r.W)/2, float64(r.H)/2)
}

// Center returns the midpoint of the box.
func (r Rect) Center() Point {
	return Point{X: float64(r.X) + float64(r.W)/2, Y: float64(r.Y) + float64(r.H)/2}
}

// Array returns the box as [x, y, w, h].
func (r Rect) Array() [4]int {
	return [4]int{r.X, r.Y, r.W, r.H}
}

// RectFromArray builds a Rect from [x, y, w, h].
func RectFromArray(v [4]int) Rect {
	return Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
}

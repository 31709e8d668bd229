package retriever

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a 3D point in the camera frame (meters)
type Point = r3.Vec

func NewPoint(x, y, z float64) Point {
	return Point{
		X: x,
		Y: y,
		Z: z,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return r3.Norm(r3.Sub(p1, p2))
}

func midpoint(p1, p2 Point) Point {
	return r3.Scale(0.5, r3.Add(p1, p2))
}

// normalize returns unit vector of v. Second value is false for zero-length vectors
func normalize(v Point) (Point, bool) {
	n := r3.Norm(v)
	if n <= 0 {
		return v, false
	}
	return r3.Scale(1.0/n, v), true
}

func pointToList(p Point) []interface{} {
	return []interface{}{p.X, p.Y, p.Z}
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

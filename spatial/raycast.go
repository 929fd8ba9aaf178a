package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Raycaster intersects rays with the environment surface reconstructed by
// the device
type Raycaster interface {
	// Cast sends a ray from origin along direction and returns the first hit
	// point within maxDistance
	Cast(origin, direction r3.Vec, maxDistance float64) (r3.Vec, bool)
}

// PassthroughRaycaster reports a hit at origin + direction for every cast.
// It stands in for the surface when running without a spatial mesh, eg: on
// a desktop with a webcam
type PassthroughRaycaster struct{}

// Cast returns origin + direction
func (PassthroughRaycaster) Cast(origin, direction r3.Vec, maxDistance float64) (r3.Vec, bool) {
	return r3.Add(origin, direction), true
}

// Plane is an infinite plane given by a point on it and its normal
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// PlaneRaycaster intersects rays with a set of planes, a coarse model of a
// room's floor, walls and ceiling
type PlaneRaycaster struct {
	Planes []Plane
}

// NewRoomRaycaster returns a raycaster for an axis aligned box shaped room
// centered on the origin horizontally, with the floor at floorY
func NewRoomRaycaster(width, depth, height, floorY float64) *PlaneRaycaster {

	hw, hd := width/2, depth/2

	return &PlaneRaycaster{
		Planes: []Plane{
			{Point: r3.Vec{Y: floorY}, Normal: r3.Vec{Y: 1}},
			{Point: r3.Vec{Y: floorY + height}, Normal: r3.Vec{Y: -1}},
			{Point: r3.Vec{X: -hw}, Normal: r3.Vec{X: 1}},
			{Point: r3.Vec{X: hw}, Normal: r3.Vec{X: -1}},
			{Point: r3.Vec{Z: -hd}, Normal: r3.Vec{Z: 1}},
			{Point: r3.Vec{Z: hd}, Normal: r3.Vec{Z: -1}},
		},
	}
}

// Cast returns the nearest plane intersection in front of origin
func (pr *PlaneRaycaster) Cast(origin, direction r3.Vec, maxDistance float64) (r3.Vec, bool) {

	if r3.Norm(direction) == 0 {
		return r3.Vec{}, false
	}

	dir := r3.Unit(direction)
	nearest := math.Inf(1)

	for _, pl := range pr.Planes {

		denom := r3.Dot(pl.Normal, dir)

		// ray runs parallel to the plane
		if math.Abs(denom) < 1e-9 {
			continue
		}

		dist := r3.Dot(pl.Normal, r3.Sub(pl.Point, origin)) / denom

		if dist >= 0 && dist <= maxDistance && dist < nearest {
			nearest = dist
		}
	}

	if math.IsInf(nearest, 1) {
		return r3.Vec{}, false
	}

	return r3.Add(origin, r3.Scale(nearest, dir)), true
}

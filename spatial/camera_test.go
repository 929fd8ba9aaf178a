package spatial

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestWorldToViewport(t *testing.T) {

	cam := DefaultCamera(IdentityPose())

	center := cam.WorldToViewport(r3.Vec{Z: 2})

	if math.Abs(center.X-0.5) > 1e-9 || math.Abs(center.Y-0.5) > 1e-9 {
		t.Errorf("expected viewport center, got %v", center)
	}

	if math.Abs(center.Z-2) > 1e-9 {
		t.Errorf("expected depth 2, got %f", center.Z)
	}

	// a point on the top edge of the vertical field of view
	top := r3.Vec{Y: math.Tan(cam.VerticalFOV/2) * 3, Z: 3}

	if v := cam.WorldToViewport(top); math.Abs(v.Y-1) > 1e-9 {
		t.Errorf("expected top edge at y=1, got %v", v)
	}
}

func TestInView(t *testing.T) {

	pose := CameraPose{
		Position: r3.Vec{X: 5, Y: 1, Z: 5},
		Forward:  r3.Vec{X: -1},
		Right:    r3.Vec{Z: 1},
		Up:       r3.Vec{Y: 1},
	}
	cam := DefaultCamera(pose)

	tests := []struct {
		name string
		p    r3.Vec
		want bool
	}{
		{"straight ahead", r3.Vec{X: 2, Y: 1, Z: 5}, true},
		{"slightly right", r3.Vec{X: 2, Y: 1, Z: 5.5}, true},
		{"behind", r3.Vec{X: 8, Y: 1, Z: 5}, false},
		{"far to the side", r3.Vec{X: 4, Y: 1, Z: 20}, false},
		{"far above", r3.Vec{X: 4, Y: 10, Z: 5}, false},
	}

	for _, tc := range tests {
		if got := cam.InView(tc.p); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestInViewCameraPlane(t *testing.T) {

	cam := DefaultCamera(IdentityPose())

	if cam.InView(r3.Vec{X: 1}) {
		t.Errorf("expected point in the camera plane to be out of view")
	}
}

// Package spatial maps detections between the camera image and world space
package spatial

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// CameraPose is a snapshot of the device camera position and orientation.
// The direction vectors are expected to be unit length and orthogonal
type CameraPose struct {
	Position r3.Vec
	Forward  r3.Vec
	Right    r3.Vec
	Up       r3.Vec
}

// IdentityPose returns a pose at the origin looking down +Z with +Y up and +X
// to the right
func IdentityPose() CameraPose {
	return CameraPose{
		Forward: r3.Vec{Z: 1},
		Right:   r3.Vec{X: 1},
		Up:      r3.Vec{Y: 1},
	}
}

// Camera is a pinhole camera with a pose, used to test if world positions
// are visible
type Camera struct {
	Pose CameraPose
	// VerticalFOV is the vertical field of view in radians
	VerticalFOV float64
	// Aspect is the viewport width divided by its height
	Aspect float64
	// Near and Far are the clip plane distances
	Near float64
	Far  float64
}

// DefaultCamera returns a camera with the field of view of the device's
// front camera
func DefaultCamera(pose CameraPose) Camera {
	return Camera{
		Pose:        pose,
		VerticalFOV: 64.69 * math.Pi / 180,
		Aspect:      16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
	}
}

// ViewMatrix returns the 4x4 world to camera matrix.  Camera space has +X to
// the right, +Y up and +Z along the view direction
func (c Camera) ViewMatrix() *mat.Dense {

	p := c.Pose

	return mat.NewDense(4, 4, []float64{
		p.Right.X, p.Right.Y, p.Right.Z, -r3.Dot(p.Right, p.Position),
		p.Up.X, p.Up.Y, p.Up.Z, -r3.Dot(p.Up, p.Position),
		p.Forward.X, p.Forward.Y, p.Forward.Z, -r3.Dot(p.Forward, p.Position),
		0, 0, 0, 1,
	})
}

// ProjectionMatrix returns the perspective projection matrix.  The clip w
// component holds the view depth
func (c Camera) ProjectionMatrix() *mat.Dense {

	f := 1 / math.Tan(c.VerticalFOV/2)
	near, far := c.Near, c.Far

	return mat.NewDense(4, 4, []float64{
		f / c.Aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, 1, 0,
	})
}

// WorldToViewport projects a world position to normalized viewport
// coordinates.  X and Y are in [0,1] when inside the view, (0,0) being the
// bottom left, and Z is the depth in world units in front of the camera
func (c Camera) WorldToViewport(p r3.Vec) r3.Vec {

	var vp mat.Dense
	vp.Mul(c.ProjectionMatrix(), c.ViewMatrix())

	clip := mat.NewVecDense(4, nil)
	clip.MulVec(&vp, mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))

	w := clip.AtVec(3)

	if w == 0 {
		// point lies in the camera plane
		return r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: 0}
	}

	return r3.Vec{
		X: (clip.AtVec(0)/w + 1) / 2,
		Y: (clip.AtVec(1)/w + 1) / 2,
		Z: w,
	}
}

// InView reports whether the world position is visible in the camera, that
// is its viewport coordinates lie in [0,1] and it is not behind the camera
func (c Camera) InView(p r3.Vec) bool {
	v := c.WorldToViewport(p)
	return v.X >= 0 && v.X <= 1 && v.Y >= 0 && v.Y <= 1 && v.Z >= 0
}

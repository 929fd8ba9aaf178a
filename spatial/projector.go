package spatial

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect/postprocess/result"
)

// Resolution is an image size in pixels
type Resolution struct {
	Width  int
	Height int
}

// ProjectorParams defines the geometry used to map image positions into the
// world
type ProjectorParams struct {
	// ModelResolution is the resolution of the model input image
	ModelResolution Resolution
	// CameraResolution is the resolution of the camera frames before they
	// were scaled to the model input
	CameraResolution Resolution
	// PlaneWidth is the width of the virtual projection plane placed one
	// unit in front of the camera.  Its height follows the model aspect
	PlaneWidth float64
	// HeightOffset moves the projection plane along camera up to compensate
	// for the physical camera being mounted above eye level
	HeightOffset float64
	// CastOriginOffset is the distance above the camera position the ray
	// cast starts from
	CastOriginOffset float64
	// MaxCastLength is the maximum distance a ray cast may travel
	MaxCastLength float64
}

// DefaultProjectorParams returns the parameters for a 640x640 model fed from
// a 896x504 front camera
func DefaultProjectorParams() ProjectorParams {
	return ProjectorParams{
		ModelResolution:  Resolution{Width: 640, Height: 640},
		CameraResolution: Resolution{Width: 896, Height: 504},
		PlaneWidth:       1.3,
		HeightOffset:     -0.06,
		CastOriginOffset: 0.15,
		MaxCastLength:    10,
	}
}

// PlaneHeight returns the height of the virtual projection plane
func (p ProjectorParams) PlaneHeight() float64 {
	return p.PlaneWidth * float64(p.ModelResolution.Height) / float64(p.ModelResolution.Width)
}

// Offset is a relative position in the image plane, both axes in
// [-0.5,0.5] with (0,0) at the image center and Y growing downwards
type Offset struct {
	X float64
	Y float64
}

// Projector maps detections in the model image to world positions
type Projector struct {
	Params    ProjectorParams
	raycaster Raycaster
}

// NewProjector returns a projector casting against the given surface
func NewProjector(p ProjectorParams, raycaster Raycaster) *Projector {
	return &Projector{
		Params:    p,
		raycaster: raycaster,
	}
}

// ImageOffset scales a position in model resolution units back to the camera
// resolution and returns it relative to the image center
func (pr *Projector) ImageOffset(pt result.Point) Offset {

	model := pr.Params.ModelResolution
	cam := pr.Params.CameraResolution

	camW := float64(cam.Width)
	camH := float64(cam.Height)

	return Offset{
		X: (float64(pt.X)/float64(model.Width)*camW - camW/2) / camW,
		Y: (float64(pt.Y)/float64(model.Height)*camH - camH/2) / camH,
	}
}

// PlanePoint returns the world position of an image offset on the virtual
// projection plane one unit in front of the camera
func (pr *Projector) PlanePoint(pose CameraPose, off Offset) r3.Vec {

	pos := r3.Add(pose.Position, r3.Scale(pr.Params.HeightOffset, pose.Up))
	pos = r3.Add(pos, pose.Forward)
	pos = r3.Add(pos, r3.Scale(off.X*pr.Params.PlaneWidth, pose.Right))

	// image y grows downwards while world up grows upwards
	return r3.Sub(pos, r3.Scale(off.Y*pr.Params.PlaneHeight(), pose.Up))
}

// CastOrigin returns the point rays are cast from
func (pr *Projector) CastOrigin(pose CameraPose) r3.Vec {
	return r3.Add(pose.Position, r3.Scale(pr.Params.CastOriginOffset, pose.Up))
}

// PointInSpace returns the world position of the detection's center by
// casting a ray through it onto the environment surface.  False is returned
// when the ray does not hit the surface, the detection is unusable then
func (pr *Projector) PointInSpace(det result.Detection, pose CameraPose) (r3.Vec, bool) {

	target := pr.PlanePoint(pose, pr.ImageOffset(det.Center))
	origin := pr.CastOrigin(pose)

	return pr.raycaster.Cast(origin, r3.Sub(target, origin), pr.Params.MaxCastLength)
}

// Corners returns the bounding box corners on the projection plane in the
// order top left, top right, bottom right, bottom left
func (pr *Projector) Corners(det result.Detection, pose CameraPose) [4]r3.Vec {

	pts := [4]result.Point{det.TopLeft(), det.TopRight(), det.BottomRight(), det.BottomLeft()}

	var corners [4]r3.Vec

	for i, pt := range pts {
		corners[i] = pr.PlanePoint(pose, pr.ImageOffset(pt))
	}

	return corners
}

// Grid returns the plane positions of an n x n grid of image offsets covering
// the whole image, row by row from the top
func (pr *Projector) Grid(pose CameraPose, n int) []r3.Vec {

	if n < 2 {
		return nil
	}

	pts := make([]r3.Vec, 0, n*n)
	step := 1 / float64(n-1)

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			off := Offset{X: -0.5 + float64(col)*step, Y: -0.5 + float64(row)*step}
			pts = append(pts, pr.PlanePoint(pose, off))
		}
	}

	return pts
}

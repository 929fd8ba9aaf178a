package result

import "fmt"

// Point is a 2D coordinate in model input resolution units
type Point struct {
	X float32
	Y float32
}

// Add returns the sum of both points
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p minus o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Scale multiplies both axes by f
func (p Point) Scale(f float32) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Detection defines the attributes of a single object detected in the model
// output.  The same type is used before suppression (raw candidates) and after
// it.
type Detection struct {
	// Center of the bounding box in model input resolution units
	Center Point
	// Size is the width and height of the bounding box
	Size Point
	// Confidence is the probability score of the most likely class
	Confidence float32
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// ID is a unique ID assigned to the detection result.  It only serves
	// correlating log and debug output and is never used for tracking
	ID int64
}

// NewDetectionFromCorners creates a Detection from the top left and bottom
// right corners of its bounding box
func NewDetectionFromCorners(topLeft, bottomRight Point, confidence float32,
	class int) Detection {

	size := bottomRight.Sub(topLeft)

	return Detection{
		Center:     topLeft.Add(size.Scale(0.5)),
		Size:       size,
		Confidence: confidence,
		Class:      class,
	}
}

// TopLeft returns the top left corner of the bounding box
func (d Detection) TopLeft() Point {
	return d.Center.Sub(d.Size.Scale(0.5))
}

// BottomRight returns the bottom right corner of the bounding box
func (d Detection) BottomRight() Point {
	return d.Center.Add(d.Size.Scale(0.5))
}

// TopRight returns the top right corner of the bounding box
func (d Detection) TopRight() Point {
	return Point{X: d.Center.X + d.Size.X/2, Y: d.Center.Y - d.Size.Y/2}
}

// BottomLeft returns the bottom left corner of the bounding box
func (d Detection) BottomLeft() Point {
	return Point{X: d.Center.X - d.Size.X/2, Y: d.Center.Y + d.Size.Y/2}
}

// Area returns the area of the bounding box, zero for degenerate boxes
func (d Detection) Area() float32 {
	if d.Size.X <= 0 || d.Size.Y <= 0 {
		return 0
	}
	return d.Size.X * d.Size.Y
}

// String renders the detection for logging
func (d Detection) String() string {
	return fmt.Sprintf("class=%d conf=%.3f center=(%.1f,%.1f) size=(%.1f,%.1f)",
		d.Class, d.Confidence, d.Center.X, d.Center.Y, d.Size.X, d.Size.Y)
}

package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// Resizer scales camera frames to the model input resolution.  The frame is
// stretched to fill the whole input so a relative position in the model image
// is the same relative position in the camera frame
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// scale factors per axis
	scaleX float32
	scaleY float32
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		scaleX:     float32(destWidth) / float32(srcWidth),
		scaleY:     float32(destHeight) / float32(srcHeight),
	}
}

// Resize stretches src into dest at the model input resolution.  Frames
// already at the input resolution are copied
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat) {

	if src.Cols() == r.destWidth && src.Rows() == r.destHeight {
		src.CopyTo(dest)
		return
	}

	interp := gocv.InterpolationLinear

	// area interpolation avoids moire when shrinking
	if r.scaleX < 1 && r.scaleY < 1 {
		interp = gocv.InterpolationArea
	}

	gocv.Resize(src, dest, image.Pt(r.destWidth, r.destHeight), 0, 0, interp)
}

// Matches reports whether the resizer was created for frames of the given
// size
func (r *Resizer) Matches(width, height int) bool {
	return r.srcWidth == width && r.srcHeight == height
}

// ScaleX returns the horizontal scale factor from source to destination
func (r *Resizer) ScaleX() float32 {
	return r.scaleX
}

// ScaleY returns the vertical scale factor from source to destination
func (r *Resizer) ScaleY() float32 {
	return r.scaleY
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}

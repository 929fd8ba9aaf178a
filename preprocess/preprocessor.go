package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-holodetect"
)

// Preprocessor acquires the current camera frame and converts it into the
// model input tensor
type Preprocessor struct {
	source FrameSource
	// model input resolution
	width  int
	height int
	// resizer is created for the size of the first frame and recreated if
	// the frame size changes
	resizer *Resizer
	frame   gocv.Mat
	resized gocv.Mat
	// frameWidth and frameHeight are the size of the last camera frame
	frameWidth  int
	frameHeight int
}

// NewPreprocessor returns a preprocessor producing [1, 3, height, width] RGB
// tensors normalised to [0,1] from frames of source
func NewPreprocessor(source FrameSource, width, height int) *Preprocessor {
	return &Preprocessor{
		source:  source,
		width:   width,
		height:  height,
		frame:   gocv.NewMat(),
		resized: gocv.NewMat(),
	}
}

// Process reads the current frame and returns it as the model input tensor
func (p *Preprocessor) Process() (*holodetect.Tensor, error) {

	if err := p.source.Read(&p.frame); err != nil {
		return nil, fmt.Errorf("error reading frame: %w", err)
	}

	if p.frame.Empty() {
		return nil, ErrNoFrame
	}

	p.frameWidth = p.frame.Cols()
	p.frameHeight = p.frame.Rows()

	if p.resizer == nil || !p.resizer.Matches(p.frameWidth, p.frameHeight) {
		p.resizer = NewResizer(p.frameWidth, p.frameHeight, p.width, p.height)
	}

	p.resizer.Resize(p.frame, &p.resized)

	// scale to [0,1], swap BGR to RGB and lay out as NCHW
	blob := gocv.BlobFromImage(p.resized, 1.0/255.0, image.Pt(p.width, p.height),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading blob data: %w", err)
	}

	// blob memory is released on return so copy it out
	buf := make([]float32, len(data))
	copy(buf, data)

	return holodetect.NewTensor([]int{1, 3, p.height, p.width}, buf)
}

// Image returns the last frame resized to the model input resolution.  The
// Mat is owned by the preprocessor and overwritten on the next Process call
func (p *Preprocessor) Image() gocv.Mat {
	return p.resized
}

// FrameResolution returns the size of the last camera frame read
func (p *Preprocessor) FrameResolution() (width, height int) {
	return p.frameWidth, p.frameHeight
}

// Close frees the Mats and the frame source
func (p *Preprocessor) Close() error {

	p.frame.Close()
	p.resized.Close()

	if err := p.source.Close(); err != nil {
		return fmt.Errorf("error closing frame source: %w", err)
	}

	return nil
}

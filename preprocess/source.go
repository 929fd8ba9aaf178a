package preprocess

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned when the frame source has no frame available
var ErrNoFrame = errors.New("no camera frame available")

// FrameSource provides the current camera frame
type FrameSource interface {
	// Read copies the current frame as a BGR image into dst
	Read(dst *gocv.Mat) error
	// Close releases the source
	Close() error
}

// VideoSource reads frames from a camera device or video file
type VideoSource struct {
	capture *gocv.VideoCapture
	// loop restarts video files at their end
	loop bool
}

// OpenVideoSource opens a camera device id or video file.  If loop is set a
// video file is rewound when its end is reached
func OpenVideoSource(device interface{}, loop bool) (*VideoSource, error) {

	capture, err := gocv.OpenVideoCapture(device)

	if err != nil {
		return nil, fmt.Errorf("error opening video capture %v: %w", device, err)
	}

	return &VideoSource{
		capture: capture,
		loop:    loop,
	}, nil
}

// Resolution returns the frame size reported by the capture device
func (v *VideoSource) Resolution() (width, height int) {
	return int(v.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(v.capture.Get(gocv.VideoCaptureFrameHeight))
}

// Read implements FrameSource
func (v *VideoSource) Read(dst *gocv.Mat) error {

	if v.capture.Read(dst) && !dst.Empty() {
		return nil
	}

	if !v.loop {
		return ErrNoFrame
	}

	v.capture.Set(gocv.VideoCapturePosFrames, 0)

	if v.capture.Read(dst) && !dst.Empty() {
		return nil
	}

	return ErrNoFrame
}

// Close implements FrameSource
func (v *VideoSource) Close() error {
	return v.capture.Close()
}

// StaticSource returns the same image for every frame, used for replaying a
// single still image
type StaticSource struct {
	img gocv.Mat
}

// NewStaticSource returns a source serving a copy of img, the caller keeps
// ownership of img
func NewStaticSource(img gocv.Mat) *StaticSource {
	return &StaticSource{
		img: img.Clone(),
	}
}

// LoadStaticSource reads an image file as the frame source
func LoadStaticSource(file string) (*StaticSource, error) {

	img := gocv.IMRead(file, gocv.IMReadColor)

	if img.Empty() {
		return nil, fmt.Errorf("error reading image file %s", file)
	}

	return &StaticSource{img: img}, nil
}

// Read implements FrameSource
func (s *StaticSource) Read(dst *gocv.Mat) error {

	if s.img.Empty() {
		return ErrNoFrame
	}

	s.img.CopyTo(dst)
	return nil
}

// Close implements FrameSource
func (s *StaticSource) Close() error {
	return s.img.Close()
}

package preprocess

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

// emptySource never has a frame
type emptySource struct {
	closed bool
}

func (e *emptySource) Read(dst *gocv.Mat) error {
	return ErrNoFrame
}

func (e *emptySource) Close() error {
	e.closed = true
	return nil
}

func TestPreprocessorTensor(t *testing.T) {

	// solid BGR image with blue=255, green=0, red=51
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 51, 0), 504, 896, gocv.MatTypeCV8UC3)
	defer img.Close()

	pre := NewPreprocessor(NewStaticSource(img), 64, 48)
	defer pre.Close()

	tensor, err := pre.Process()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantShape := []int{1, 3, 48, 64}

	for i, d := range wantShape {
		if tensor.Dim(i) != d {
			t.Fatalf("expected shape %v, got %v", wantShape, tensor.Shape)
		}
	}

	// channels are in RGB order after conversion
	wantChannel := []float32{0.2, 0, 1}

	for c, want := range wantChannel {
		for _, pos := range [][2]int{{0, 0}, {24, 32}, {47, 63}} {
			got := tensor.At(0, c, pos[0], pos[1])

			if got < want-1e-3 || got > want+1e-3 {
				t.Errorf("channel %d at %v expected %f, got %f", c, pos, want, got)
			}
		}
	}

	if w, h := pre.FrameResolution(); w != 896 || h != 504 {
		t.Errorf("expected frame resolution 896x504, got %dx%d", w, h)
	}

	if pre.Image().Cols() != 64 || pre.Image().Rows() != 48 {
		t.Errorf("expected resized debug image 64x48, got %dx%d",
			pre.Image().Cols(), pre.Image().Rows())
	}
}

func TestPreprocessorNoFrame(t *testing.T) {

	src := &emptySource{}
	pre := NewPreprocessor(src, 64, 64)

	if _, err := pre.Process(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}

	if err := pre.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}

	if !src.closed {
		t.Errorf("expected frame source to be closed")
	}
}

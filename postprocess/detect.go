package postprocess

import (
	"fmt"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
)

// ModelVersion identifies the YOLO model family and with it the layout of the
// output tensor
type ModelVersion int

const (
	// V8 output is laid out as [1, attribute, box] with center, size and one
	// score per class
	V8 ModelVersion = 8
	// V10 output is laid out as [1, box, attribute] with corners, confidence
	// and class index
	V10 ModelVersion = 10
)

// String returns the model version name
func (v ModelVersion) String() string {
	switch v {
	case V8:
		return "yolov8"
	case V10:
		return "yolov10"
	default:
		return fmt.Sprintf("yolo(%d)", int(v))
	}
}

// Decoder turns one raw output tensor into candidate detections
type Decoder interface {
	// Decode returns all boxes with a confidence at or above threshold
	Decode(tensor *holodetect.Tensor, threshold float32) []result.Detection
}

// NewDecoder returns the decoder for the given model version
func NewDecoder(version ModelVersion) (Decoder, error) {
	switch version {
	case V8:
		return NewYOLOv8(), nil
	case V10:
		return NewYOLOv10(), nil
	default:
		return nil, fmt.Errorf("unsupported model version %s", version)
	}
}

// Processor runs decoding and duplicate suppression on model output
type Processor struct {
	// Decoder is the model version specific decoder
	Decoder Decoder
	// OverlapThreshold is the maximum allowed Intersection Over Union (IoU)
	// between two bounding boxes of the same class for both to be kept
	OverlapThreshold float32
}

// NewProcessor returns a processor for the model version using the default
// overlap threshold
func NewProcessor(version ModelVersion) (*Processor, error) {

	dec, err := NewDecoder(version)

	if err != nil {
		return nil, err
	}

	return &Processor{
		Decoder:          dec,
		OverlapThreshold: DefaultOverlapThreshold,
	}, nil
}

// Process decodes the tensor and removes overlapping boxes
func (p *Processor) Process(tensor *holodetect.Tensor, threshold float32) []result.Detection {
	return NMS(p.Decoder.Decode(tensor, threshold), p.OverlapThreshold)
}

package postprocess

import (
	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
)

// yolov8BoxAttrs are the number of leading attributes describing the box
// geometry (center x, center y, width, height) before the class scores
const yolov8BoxAttrs = 4

// YOLOv8 defines the struct for YOLOv8 model output decoding
type YOLOv8 struct {
	// idGen provides the next number for each detection result ID
	idGen *result.IDGenerator
}

// NewYOLOv8 returns an instance of the YOLOv8 decoder
func NewYOLOv8() *YOLOv8 {
	return &YOLOv8{
		idGen: result.NewIDGenerator(),
	}
}

// Decode reads an output tensor of shape [1, 4+classes, boxes].  The class of
// each box is the arg-max of its class scores and the confidence is that
// maximum score
func (y *YOLOv8) Decode(tensor *holodetect.Tensor, threshold float32) []result.Detection {

	if !tensor.Valid() || tensor.Rank() != 3 || tensor.Len() == 0 {
		return nil
	}

	attrs := tensor.Dim(1)
	boxes := tensor.Dim(2)

	if attrs <= yolov8BoxAttrs || boxes == 0 {
		return nil
	}

	dets := make([]result.Detection, 0)

	for box := 0; box < boxes; box++ {

		// get most likely class, first maximum wins
		maxClass := 0
		maxScore := tensor.At(0, yolov8BoxAttrs, box)

		for c := 1; c < attrs-yolov8BoxAttrs; c++ {
			score := tensor.At(0, yolov8BoxAttrs+c, box)

			if score > maxScore {
				maxScore = score
				maxClass = c
			}
		}

		if maxScore < threshold {
			continue
		}

		dets = append(dets, result.Detection{
			Center: result.Point{
				X: tensor.At(0, 0, box),
				Y: tensor.At(0, 1, box),
			},
			Size: result.Point{
				X: tensor.At(0, 2, box),
				Y: tensor.At(0, 3, box),
			},
			Confidence: maxScore,
			Class:      maxClass,
			ID:         y.idGen.GetNext(),
		})
	}

	return dets
}

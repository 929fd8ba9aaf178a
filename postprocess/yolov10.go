package postprocess

import (
	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
)

// yolov10Attrs are the attributes per box: x1, y1, x2, y2, confidence, class
const yolov10Attrs = 6

// YOLOv10 defines the struct for YOLOv10 model output decoding.  YOLOv10 is
// NMS free at training time but boxes of the same object can still overlap
// when confidence thresholds are low, so suppression is still applied after
// decoding
type YOLOv10 struct {
	// idGen provides the next number for each detection result ID
	idGen *result.IDGenerator
}

// NewYOLOv10 returns an instance of the YOLOv10 decoder
func NewYOLOv10() *YOLOv10 {
	return &YOLOv10{
		idGen: result.NewIDGenerator(),
	}
}

// Decode reads an output tensor of shape [1, boxes, 6] holding the box
// corners, the confidence and the class index
func (y *YOLOv10) Decode(tensor *holodetect.Tensor, threshold float32) []result.Detection {

	if !tensor.Valid() || tensor.Rank() != 3 || tensor.Len() == 0 {
		return nil
	}

	boxes := tensor.Dim(1)

	if tensor.Dim(2) < yolov10Attrs || boxes == 0 {
		return nil
	}

	dets := make([]result.Detection, 0)

	for box := 0; box < boxes; box++ {

		confidence := tensor.At(0, box, 4)

		if confidence < threshold {
			continue
		}

		topLeft := result.Point{X: tensor.At(0, box, 0), Y: tensor.At(0, box, 1)}
		bottomRight := result.Point{X: tensor.At(0, box, 2), Y: tensor.At(0, box, 3)}

		det := result.NewDetectionFromCorners(topLeft, bottomRight, confidence,
			int(tensor.At(0, box, 5)))
		det.ID = y.idGen.GetNext()

		dets = append(dets, det)
	}

	return dets
}

package postprocess

import (
	"math"
	"sort"

	"github.com/swdee/go-holodetect/postprocess/result"
)

// DefaultOverlapThreshold is the IoU above which a lower confidence box of
// the same class is dropped
const DefaultOverlapThreshold = 0.15

// IoU works out the Intersection over Union of two boxes.  Boxes that do not
// overlap have an intersection of zero, and degenerate boxes or a zero union
// give an IoU of zero
func IoU(a, b result.Detection) float32 {

	areaA := a.Area()
	areaB := b.Area()

	if areaA == 0 || areaB == 0 {
		return 0
	}

	tlA, brA := a.TopLeft(), a.BottomRight()
	tlB, brB := b.TopLeft(), b.BottomRight()

	w := math.Max(0, math.Min(float64(brA.X), float64(brB.X))-math.Max(float64(tlA.X), float64(tlB.X)))
	h := math.Max(0, math.Min(float64(brA.Y), float64(brB.Y))-math.Max(float64(tlA.Y), float64(tlB.Y)))
	intersection := w * h

	union := float64(areaA) + float64(areaB) - intersection

	if union <= 0 {
		return 0
	}

	return float32(intersection / union)
}

// NMS implements a greedy per class Non-Maximum Suppression.  Within each
// class the boxes are ordered by descending confidence, equal confidences
// keep their input order.  The highest remaining box is kept and every other
// box overlapping it by more than threshold is dropped, until the class is
// exhausted.  Classes are returned in the order they first appear in dets
func NMS(dets []result.Detection, threshold float32) []result.Detection {

	if len(dets) == 0 {
		return nil
	}

	// group by class preserving first appearance order
	var classOrder []int
	groups := make(map[int][]result.Detection)

	for _, det := range dets {
		if _, exists := groups[det.Class]; !exists {
			classOrder = append(classOrder, det.Class)
		}
		groups[det.Class] = append(groups[det.Class], det)
	}

	kept := make([]result.Detection, 0, len(dets))

	for _, class := range classOrder {
		kept = append(kept, suppressClass(groups[class], threshold)...)
	}

	return kept
}

// suppressClass runs greedy suppression over boxes of a single class
func suppressClass(boxes []result.Detection, threshold float32) []result.Detection {

	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Confidence > boxes[j].Confidence
	})

	removed := make([]bool, len(boxes))
	selected := make([]result.Detection, 0, len(boxes))

	for i := range boxes {

		if removed[i] {
			continue
		}

		selected = append(selected, boxes[i])

		// compare the current box with all remaining boxes
		for j := i + 1; j < len(boxes); j++ {
			if removed[j] {
				continue
			}

			if IoU(boxes[i], boxes[j]) > threshold {
				removed[j] = true
			}
		}
	}

	return selected
}

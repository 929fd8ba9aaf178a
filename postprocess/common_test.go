package postprocess

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swdee/go-holodetect/postprocess/result"
)

// almostEqual checks if two float32 values are approximately equal
func almostEqual(a, b, tolerance float32) bool {
	return float32(math.Abs(float64(a)-float64(b))) <= tolerance
}

// box is a helper to create a detection from corner coordinates
func box(x1, y1, x2, y2, conf float32, class int) result.Detection {
	return result.NewDetectionFromCorners(result.Point{X: x1, Y: y1},
		result.Point{X: x2, Y: y2}, conf, class)
}

// randomBoxes generates n boxes inside a 640x640 image
func randomBoxes(rnd *rand.Rand, n int, classes int) []result.Detection {

	dets := make([]result.Detection, n)

	for i := range dets {
		x := rnd.Float32() * 600
		y := rnd.Float32() * 600
		w := rnd.Float32()*120 + 1
		h := rnd.Float32()*120 + 1
		dets[i] = box(x, y, x+w, y+h, rnd.Float32(), rnd.Intn(classes))
	}

	return dets
}

func TestIoU(t *testing.T) {

	tests := []struct {
		name string
		a, b result.Detection
		want float32
	}{
		{"identical", box(0, 0, 10, 10, 1, 0), box(0, 0, 10, 10, 1, 0), 1},
		{"half contained", box(0, 0, 20, 20, 1, 0), box(0, 0, 20, 10, 1, 0), 0.5},
		{"quarter shift", box(0, 0, 10, 10, 1, 0), box(5, 0, 15, 10, 1, 0), 50.0 / 150.0},
		{"disjoint", box(0, 0, 10, 10, 1, 0), box(20, 20, 30, 30, 1, 0), 0},
		{"touching edges", box(0, 0, 10, 10, 1, 0), box(10, 0, 20, 10, 1, 0), 0},
		{"zero width", box(0, 0, 0, 10, 1, 0), box(0, 0, 10, 10, 1, 0), 0},
		{"both degenerate", box(5, 5, 5, 5, 1, 0), box(5, 5, 5, 5, 1, 0), 0},
	}

	for _, tc := range tests {
		got := IoU(tc.a, tc.b)

		if !almostEqual(got, tc.want, 1e-5) {
			t.Errorf("%s: IoU expected %f, got %f", tc.name, tc.want, got)
		}
	}
}

func TestIoUSymmetric(t *testing.T) {

	rnd := rand.New(rand.NewSource(7))
	dets := randomBoxes(rnd, 60, 1)

	for i := range dets {
		for j := range dets {
			if IoU(dets[i], dets[j]) != IoU(dets[j], dets[i]) {
				t.Fatalf("IoU not symmetric for %v and %v", dets[i], dets[j])
			}
		}

		if !almostEqual(IoU(dets[i], dets[i]), 1, 1e-5) {
			t.Errorf("IoU of box with itself expected 1, got %f", IoU(dets[i], dets[i]))
		}
	}
}

func TestNMSEmpty(t *testing.T) {
	if got := NMS(nil, DefaultOverlapThreshold); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

func TestNMSProperties(t *testing.T) {

	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {

		dets := randomBoxes(rnd, 80, 3)

		best := make(map[int]result.Detection)

		for _, d := range dets {
			if b, ok := best[d.Class]; !ok || d.Confidence > b.Confidence {
				best[d.Class] = d
			}
		}

		kept := NMS(append([]result.Detection(nil), dets...), DefaultOverlapThreshold)

		// no two surviving boxes of the same class overlap above threshold
		for i := range kept {
			for j := i + 1; j < len(kept); j++ {
				if kept[i].Class != kept[j].Class {
					continue
				}

				if iou := IoU(kept[i], kept[j]); iou > DefaultOverlapThreshold {
					t.Fatalf("round %d: kept boxes overlap with IoU %f", round, iou)
				}
			}
		}

		// highest confidence box of every class survives
		for class, b := range best {
			found := false

			for _, k := range kept {
				if k == b {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("round %d: best box of class %d was dropped", round, class)
			}
		}
	}
}

func TestNMSOrdering(t *testing.T) {

	dets := []result.Detection{
		box(0, 0, 10, 10, 0.5, 1),
		box(100, 100, 110, 110, 0.7, 0),
		box(200, 0, 210, 10, 0.9, 1),
		box(300, 0, 310, 10, 0.5, 1),
		box(1, 1, 11, 11, 0.6, 1),
	}

	got := NMS(dets, DefaultOverlapThreshold)

	want := []result.Detection{
		box(200, 0, 210, 10, 0.9, 1),
		box(1, 1, 11, 11, 0.6, 1),
		box(300, 0, 310, 10, 0.5, 1),
		box(100, 100, 110, 110, 0.7, 0),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NMS mismatch (-want +got):\n%s", diff)
	}
}

func TestNMSEqualConfidenceIsStable(t *testing.T) {

	dets := []result.Detection{
		box(0, 0, 10, 10, 0.8, 0),
		box(1, 0, 11, 10, 0.8, 0),
	}

	for i := 0; i < 10; i++ {
		got := NMS(append([]result.Detection(nil), dets...), DefaultOverlapThreshold)

		if len(got) != 1 || got[0] != dets[0] {
			t.Fatalf("expected first of equal confidence boxes to be kept, got %v", got)
		}
	}
}

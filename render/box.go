package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
	"github.com/swdee/go-holodetect/tracker"
)

// boxLabel holds the precalculated rendering of a box label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// boxRect returns the detection bounding box in pixels
func boxRect(det result.Detection) image.Rectangle {
	tl := det.TopLeft()
	br := det.BottomRight()
	return image.Rect(int(tl.X), int(tl.Y), int(br.X), int(br.Y))
}

// DetectionBoxes renders the bounding boxes of the detections on an image at
// model input resolution, labelled with class name and confidence
func DetectionBoxes(img *gocv.Mat, dets []result.Detection,
	labels holodetect.Labels, font Font, lineThickness int) {

	boxLabels := make([]boxLabel, 0, len(dets))

	for _, det := range dets {

		clr := ClassColor(det.Class)
		rect := boxRect(det)

		gocv.Rectangle(img, rect, clr, lineThickness)

		text := tracker.LabelText(labels.Name(det.Class), det.Confidence)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// place the label above the box, or inside it at the image top
		top := rect.Min.Y
		if top-textSize.Y-2*font.Pad < 0 {
			top = rect.Min.Y + textSize.Y + 2*font.Pad
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(rect.Min.X, top-textSize.Y-2*font.Pad,
				rect.Min.X+textSize.X+2*font.Pad, top),
			clr:     clr,
			text:    text,
			textPos: image.Pt(rect.Min.X+font.Pad, top-font.Pad),
		})
	}

	// draw labels last so they are not overlapped by other boxes
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// GridDots draws an n x n grid of dots evenly covering the image, the image
// side of the world projection grid
func GridDots(img *gocv.Mat, n int, clr color.RGBA, radius int) {

	if n < 2 {
		return
	}

	w := float64(img.Cols() - 1)
	h := float64(img.Rows() - 1)
	step := 1 / float64(n-1)

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			pt := image.Pt(int(float64(col)*step*w+0.5), int(float64(row)*step*h+0.5))
			gocv.Circle(img, pt, radius, clr, -1)
		}
	}
}

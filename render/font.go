package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Pad is the space kept around the text inside its label box
	Pad int
}

// DefaultFont returns the font used for debug image labels, sized for a
// 640 pixel model input image
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.45,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       3,
	}
}

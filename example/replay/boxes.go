package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swdee/go-holodetect"
)

// Box is a recorded detection in model input pixels
type Box struct {
	X1         float32 `yaml:"x1"`
	Y1         float32 `yaml:"y1"`
	X2         float32 `yaml:"x2"`
	Y2         float32 `yaml:"y2"`
	Confidence float32 `yaml:"confidence"`
	Class      int     `yaml:"class"`
}

// Recording is the model output replayed on every inference pass
type Recording struct {
	// Layers is the layer count of the simulated model
	Layers int   `yaml:"layers"`
	Boxes  []Box `yaml:"boxes"`
}

// defaultRecording is used when no recording file is given, a person and a
// cup on a table in front of the camera
func defaultRecording() Recording {
	return Recording{
		Layers: 40,
		Boxes: []Box{
			{X1: 260, Y1: 200, X2: 380, Y2: 460, Confidence: 0.87, Class: 0},
			{X1: 270, Y1: 210, X2: 390, Y2: 470, Confidence: 0.41, Class: 0},
			{X1: 420, Y1: 400, X2: 470, Y2: 460, Confidence: 0.64, Class: 41},
		},
	}
}

// loadRecording reads a YAML recording file
func loadRecording(file string) (Recording, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return Recording{}, fmt.Errorf("error reading recording: %w", err)
	}

	rec := Recording{Layers: 40}

	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Recording{}, fmt.Errorf("error decoding recording: %w", err)
	}

	return rec, nil
}

// Tensor returns the recording as a YOLOv10 output tensor of shape
// [1, boxes, 6]
func (r Recording) Tensor() (*holodetect.Tensor, error) {

	data := make([]float32, 0, len(r.Boxes)*6)

	for _, b := range r.Boxes {
		data = append(data, b.X1, b.Y1, b.X2, b.Y2, b.Confidence, float32(b.Class))
	}

	return holodetect.NewTensor([]int{1, len(r.Boxes), 6}, data)
}

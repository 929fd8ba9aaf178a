// Package settings holds the user adjustable pipeline configuration and
// notifies subscribers when it changes
package settings

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayerBudget is the number of model layers executed per frame
type LayerBudget int

const (
	// BudgetLow executes a few layers per frame keeping the frame rate high
	BudgetLow LayerBudget = iota
	// BudgetHigh executes more layers per frame for quicker results
	BudgetHigh
	// BudgetFull runs the whole model in a single frame
	BudgetFull
)

// Layers returns the number of layers to step per frame
func (b LayerBudget) Layers() int {
	switch b {
	case BudgetHigh:
		return 10
	case BudgetFull:
		return math.MaxInt
	default:
		return 5
	}
}

// String returns the budget name
func (b LayerBudget) String() string {
	switch b {
	case BudgetLow:
		return "low"
	case BudgetHigh:
		return "high"
	case BudgetFull:
		return "full"
	default:
		return fmt.Sprintf("budget(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler
func (b LayerBudget) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *LayerBudget) UnmarshalText(text []byte) error {

	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "low":
		*b = BudgetLow
	case "high":
		*b = BudgetHigh
	case "full":
		*b = BudgetFull
	default:
		return fmt.Errorf("%w: layer budget %q", ErrInvalidValue, text)
	}

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (b *LayerBudget) UnmarshalYAML(node *yaml.Node) error {
	return b.UnmarshalText([]byte(node.Value))
}

// Threshold is the minimum confidence a detection must have
type Threshold int

const (
	ThresholdLow Threshold = iota
	ThresholdMedium
	ThresholdHigh
)

// Value returns the confidence threshold
func (t Threshold) Value() float32 {
	switch t {
	case ThresholdLow:
		return 0.1
	case ThresholdHigh:
		return 0.6
	default:
		return 0.3
	}
}

// String returns the threshold name
func (t Threshold) String() string {
	switch t {
	case ThresholdLow:
		return "low"
	case ThresholdMedium:
		return "medium"
	case ThresholdHigh:
		return "high"
	default:
		return fmt.Sprintf("threshold(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler
func (t Threshold) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Threshold) UnmarshalText(text []byte) error {

	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "low":
		*t = ThresholdLow
	case "medium":
		*t = ThresholdMedium
	case "high":
		*t = ThresholdHigh
	default:
		return fmt.Errorf("%w: threshold %q", ErrInvalidValue, text)
	}

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	return t.UnmarshalText([]byte(node.Value))
}

// Settings is the pipeline configuration
type Settings struct {
	LayerBudget LayerBudget `yaml:"layerBudget"`
	Threshold   Threshold   `yaml:"threshold"`
	// DebugImage shows the model input image
	DebugImage bool `yaml:"debugImage"`
	// DebugBoundingBoxes draws bounding boxes on the debug image and in the
	// world
	DebugBoundingBoxes bool `yaml:"debugBoundingBoxes"`
	// DebugGrid shows the projection grid
	DebugGrid bool `yaml:"debugGrid"`
	// DebugRaycast draws the rays cast to position objects
	DebugRaycast bool `yaml:"debugRaycast"`
}

// Defaults returns the settings of a fresh install
func Defaults() Settings {
	return Settings{
		LayerBudget: BudgetLow,
		Threshold:   ThresholdMedium,
	}
}

// Field names a single setting
type Field string

const (
	FieldLayerBudget        Field = "layerBudget"
	FieldThreshold          Field = "threshold"
	FieldDebugImage         Field = "debugImage"
	FieldDebugBoundingBoxes Field = "debugBoundingBoxes"
	FieldDebugGrid          Field = "debugGrid"
	FieldDebugRaycast       Field = "debugRaycast"
)

// Diff returns the fields that differ between s and o
func (s Settings) Diff(o Settings) []Field {

	var fields []Field

	if s.LayerBudget != o.LayerBudget {
		fields = append(fields, FieldLayerBudget)
	}
	if s.Threshold != o.Threshold {
		fields = append(fields, FieldThreshold)
	}
	if s.DebugImage != o.DebugImage {
		fields = append(fields, FieldDebugImage)
	}
	if s.DebugBoundingBoxes != o.DebugBoundingBoxes {
		fields = append(fields, FieldDebugBoundingBoxes)
	}
	if s.DebugGrid != o.DebugGrid {
		fields = append(fields, FieldDebugGrid)
	}
	if s.DebugRaycast != o.DebugRaycast {
		fields = append(fields, FieldDebugRaycast)
	}

	return fields
}

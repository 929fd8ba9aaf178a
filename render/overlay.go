package render

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/pipeline"
	"github.com/swdee/go-holodetect/settings"
)

// DefaultGridSize is the number of grid points per axis of the debug grid
const DefaultGridSize = 11

// ImageSource provides the model input image of the last pass
type ImageSource interface {
	Image() gocv.Mat
}

// ImageOverlay draws the detections of every pass onto the model input
// image.  It is enabled by the DebugImage setting, DebugBoundingBoxes and
// DebugGrid control what is drawn
type ImageOverlay struct {
	source      ImageSource
	labels      holodetect.Labels
	font        Font
	onImage     func(img gocv.Mat)
	img         gocv.Mat
	unsubscribe func()

	mu      sync.Mutex
	toggles settings.Settings
}

// NewImageOverlay returns an overlay drawing on images of source.  onImage is
// called with the annotated image after each pass, the Mat is only valid
// during the call
func NewImageOverlay(source ImageSource, labels holodetect.Labels,
	provider *settings.Provider, onImage func(img gocv.Mat)) *ImageOverlay {

	o := &ImageOverlay{
		source:  source,
		labels:  labels,
		font:    DefaultFont(),
		onImage: onImage,
		img:     gocv.NewMat(),
		toggles: settings.Defaults(),
	}

	if provider != nil {
		o.toggles = provider.Get()
		o.unsubscribe = provider.Subscribe(o.settingsChanged)
	}

	return o
}

func (o *ImageOverlay) settingsChanged(c settings.Change) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toggles = c.Current
}

// PassCompleted implements pipeline.DebugSink
func (o *ImageOverlay) PassCompleted(p pipeline.Pass) {

	o.mu.Lock()
	toggles := o.toggles
	o.mu.Unlock()

	if !toggles.DebugImage {
		return
	}

	src := o.source.Image()

	if src.Empty() {
		return
	}

	src.CopyTo(&o.img)

	if toggles.DebugGrid {
		GridDots(&o.img, DefaultGridSize, Cyan, 3)
	}

	if toggles.DebugBoundingBoxes {
		DetectionBoxes(&o.img, p.Detections, o.labels, o.font, 2)
	}

	if o.onImage != nil {
		o.onImage(o.img)
	}
}

// Image returns the last annotated image
func (o *ImageOverlay) Image() gocv.Mat {
	return o.img
}

// Close stops listening to settings changes and frees the image
func (o *ImageOverlay) Close() error {

	if o.unsubscribe != nil {
		o.unsubscribe()
	}

	return o.img.Close()
}

package render

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect/pipeline"
	"github.com/swdee/go-holodetect/settings"
	"github.com/swdee/go-holodetect/spatial"
	"github.com/swdee/go-holodetect/tracker"
)

// Line is a world space debug line
type Line struct {
	From  r3.Vec
	To    r3.Vec
	Color color.RGBA
}

// Scene holds the world space debug geometry of one pass
type Scene struct {
	// Lines are bounding box outlines and cast rays
	Lines []Line
	// Points are the projection grid positions
	Points []r3.Vec
	// Pose is the camera pose of the pass
	Pose spatial.CameraPose
}

// WorldDebug collects world space debug geometry.  It receives the
// confirmed objects from the tracker and publishes a Scene at the end of
// every pass
type WorldDebug struct {
	projector   *spatial.Projector
	gridSize    int
	unsubscribe func()

	mu       sync.Mutex
	toggles  settings.Settings
	building Scene
	scene    Scene
}

// NewWorldDebug returns a collector using projector for the grid
func NewWorldDebug(projector *spatial.Projector, provider *settings.Provider) *WorldDebug {

	w := &WorldDebug{
		projector: projector,
		gridSize:  DefaultGridSize,
		toggles:   settings.Defaults(),
	}

	if provider != nil {
		w.toggles = provider.Get()
		w.unsubscribe = provider.Subscribe(w.settingsChanged)
	}

	return w
}

func (w *WorldDebug) settingsChanged(c settings.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.toggles = c.Current
}

// ObjectConfirmed implements tracker.ItemObserver
func (w *WorldDebug) ObjectConfirmed(obj tracker.TrackedObject, corners [4]r3.Vec,
	castOrigin r3.Vec) {

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.toggles.DebugBoundingBoxes {
		clr := ClassColor(obj.Class)

		for i := range corners {
			w.building.Lines = append(w.building.Lines, Line{
				From:  corners[i],
				To:    corners[(i+1)%len(corners)],
				Color: clr,
			})
		}
	}

	if w.toggles.DebugRaycast {
		w.building.Lines = append(w.building.Lines, Line{
			From:  castOrigin,
			To:    obj.Position,
			Color: Yellow,
		})
	}
}

// PassCompleted implements pipeline.DebugSink
func (w *WorldDebug) PassCompleted(p pipeline.Pass) {

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.toggles.DebugGrid {
		w.building.Points = w.projector.Grid(p.Pose, w.gridSize)
	}

	w.building.Pose = p.Pose
	w.scene = w.building
	w.building = Scene{}
}

// Scene returns the geometry of the last completed pass
func (w *WorldDebug) Scene() Scene {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scene
}

// Close stops listening to settings changes
func (w *WorldDebug) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}

// TopDown renders a scene and markers seen from above onto img, centered on
// the camera position.  Scale is the number of pixels per world unit
func TopDown(img *gocv.Mat, scene Scene, markers []tracker.Marker,
	scale float64, font Font) {

	cx := float64(img.Cols()) / 2
	cy := float64(img.Rows()) / 2
	origin := scene.Pose.Position

	// world x to the right and world z upwards on the image
	toPixel := func(p r3.Vec) image.Point {
		return image.Pt(int(cx+(p.X-origin.X)*scale), int(cy-(p.Z-origin.Z)*scale))
	}

	camera := toPixel(origin)
	gocv.Circle(img, camera, 5, White, -1)
	gocv.Line(img, camera, toPixel(r3.Add(origin, scene.Pose.Forward)), White, 1)

	for _, pt := range scene.Points {
		gocv.Circle(img, toPixel(pt), 2, Cyan, -1)
	}

	for _, l := range scene.Lines {
		gocv.Line(img, toPixel(l.From), toPixel(l.To), l.Color, 1)
	}

	for _, mk := range markers {
		pt := toPixel(mk.Position)
		gocv.Circle(img, pt, 4, Green, -1)
		gocv.PutTextWithParams(img, mk.Text, pt.Add(image.Pt(6, -6)),
			font.Face, font.Scale, font.Color, font.Thickness, font.LineType, false)
	}
}

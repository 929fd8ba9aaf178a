package tracker

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
	"github.com/swdee/go-holodetect/spatial"
)

// Params defines the matching and confirmation rules of the Tracker
type Params struct {
	// MaxMatchDistance is the maximum world distance between a detection and
	// a tracked object of the same class for them to be associated
	MaxMatchDistance float64
	// Timeout is the time an object may stay in view without being detected
	// before it is removed
	Timeout time.Duration
	// MinTimesSeen is the number of passes an object must be detected in
	// before it gets a marker
	MinTimesSeen int
}

// DefaultParams returns the tracking parameters used on the device
func DefaultParams() Params {
	return Params{
		MaxMatchDistance: 0.4,
		Timeout:          3 * time.Second,
		MinTimesSeen:     4,
	}
}

// TrackedObject is a physical object observed over several inference passes
type TrackedObject struct {
	// Class of the object, it never changes once tracked
	Class int
	// Detection is the most recent detection matched to the object
	Detection result.Detection
	// Pose is the camera pose Detection was captured with
	Pose spatial.CameraPose
	// Position of the object in world space
	Position r3.Vec
	// LastSeen is when the object was last detected or came back into view
	LastSeen time.Time
	// TimesSeen is the number of passes the object was detected in
	TimesSeen int
	// InView is set when the object position was visible to the camera on
	// the last pass
	InView bool
	// Marker is the handle of the visual marker placed on the object, or
	// NoMarker before confirmation
	Marker MarkerHandle
}

// Confirmed reports whether the object has been seen often enough to be
// considered real
func (o TrackedObject) Confirmed(minTimesSeen int) bool {
	return o.TimesSeen >= minTimesSeen
}

// ItemObserver receives the confirmed objects of each pass, used for debug
// visualization
type ItemObserver interface {
	// ObjectConfirmed is called for every confirmed object in view with the
	// corners of its bounding box on the projection plane and the point the
	// position ray was cast from
	ObjectConfirmed(obj TrackedObject, corners [4]r3.Vec, castOrigin r3.Vec)
}

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Option configures optional Tracker collaborators
type Option func(*Tracker)

// WithObserver sets the observer notified of confirmed objects
func WithObserver(o ItemObserver) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

// WithClock replaces the wall clock, used in tests
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithLogger sets the logger, defaults to the package logger
func WithLogger(l *logrus.Entry) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// Tracker associates detections of consecutive passes with persistent
// world anchored objects by nearest neighbour matching
type Tracker struct {
	params    Params
	projector *spatial.Projector
	labeler   Labeler
	labels    holodetect.Labels
	observer  ItemObserver
	clock     Clock
	log       *logrus.Entry
	objects   []*TrackedObject
}

// New returns a Tracker projecting detections with projector and placing
// markers through labeler.  Labels provide the class names for marker text
func New(p Params, projector *spatial.Projector, labeler Labeler,
	labels holodetect.Labels, opts ...Option) *Tracker {

	t := &Tracker{
		params:    p,
		projector: projector,
		labeler:   labeler,
		labels:    labels,
		clock:     systemClock{},
		log:       holodetect.Logger().WithField("component", "tracker"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Update runs one tracking pass over the suppressed detections of a
// completed inference.  Pose is the camera pose the input frame was captured
// with and view the current camera used to test visibility
func (t *Tracker) Update(dets []result.Detection, pose spatial.CameraPose,
	view spatial.Camera) {

	now := t.clock.Now()

	// objects created during this pass are claimed by their detection
	claimed := make([]bool, len(t.objects), len(t.objects)+len(dets))

	// Step 1: match detections to tracked objects
	for _, det := range dets {

		pos, ok := t.projector.PointInSpace(det, pose)

		if !ok {
			t.log.WithField("detection", det.ID).Trace("no surface hit, skipping detection")
			continue
		}

		if idx := t.nearest(det.Class, pos, claimed); idx >= 0 {
			obj := t.objects[idx]
			obj.Detection = det
			obj.Pose = pose
			obj.Position = pos
			obj.TimesSeen++
			obj.InView = true
			obj.LastSeen = now
			claimed[idx] = true
			continue
		}

		t.objects = append(t.objects, &TrackedObject{
			Class:     det.Class,
			Detection: det,
			Pose:      pose,
			Position:  pos,
			LastSeen:  now,
			TimesSeen: 1,
			InView:    true,
		})
		claimed = append(claimed, true)

		t.log.WithFields(logrus.Fields{
			"class":    t.labels.Name(det.Class),
			"position": pos,
		}).Debug("tracking new object")
	}

	// Step 2: age unmatched objects and evict the stale ones
	keep := t.objects[:0]

	for i, obj := range t.objects {

		if claimed[i] {
			keep = append(keep, obj)
			continue
		}

		wasInView := obj.InView
		obj.InView = view.InView(obj.Position)

		if obj.InView && !wasInView {
			// came back into view, give it a fresh chance to be detected
			obj.LastSeen = now

		} else if obj.InView && now.Sub(obj.LastSeen) > t.params.Timeout {
			t.evict(obj)
			continue
		}

		keep = append(keep, obj)
	}

	// clear evicted pointers from the backing array
	for i := len(keep); i < len(t.objects); i++ {
		t.objects[i] = nil
	}

	t.objects = keep

	// Step 3: place or move markers on confirmed objects
	for _, obj := range t.objects {

		if !obj.InView || !obj.Confirmed(t.params.MinTimesSeen) {
			continue
		}

		if t.labeler != nil {
			obj.Marker = t.labeler.CreateOrReposition(obj.Marker, obj.Position,
				LabelText(t.labels.Name(obj.Class), obj.Detection.Confidence))
		}

		if t.observer != nil {
			t.observer.ObjectConfirmed(*obj, t.projector.Corners(obj.Detection, obj.Pose),
				t.projector.CastOrigin(obj.Pose))
		}
	}
}

// nearest returns the index of the closest unclaimed object of class at most
// the match distance away, or -1.  Equal distances resolve to the earlier
// object
func (t *Tracker) nearest(class int, pos r3.Vec, claimed []bool) int {

	best := -1
	bestDist := math.Inf(1)

	for i, obj := range t.objects {

		if claimed[i] || obj.Class != class {
			continue
		}

		d := r3.Norm(r3.Sub(obj.Position, pos))

		if d > t.params.MaxMatchDistance {
			continue
		}

		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	return best
}

// evict releases the object's marker
func (t *Tracker) evict(obj *TrackedObject) {

	if obj.Marker != NoMarker && t.labeler != nil {
		t.labeler.Release(obj.Marker)
	}

	t.log.WithFields(logrus.Fields{
		"class":     t.labels.Name(obj.Class),
		"timesSeen": obj.TimesSeen,
	}).Debug("object timed out")
}

// Objects returns a copy of the tracked objects in the order they were first
// tracked
func (t *Tracker) Objects() []TrackedObject {

	objs := make([]TrackedObject, len(t.objects))

	for i, obj := range t.objects {
		objs[i] = *obj
	}

	return objs
}

// Reset removes all tracked objects and releases their markers
func (t *Tracker) Reset() {

	for _, obj := range t.objects {
		if obj.Marker != NoMarker && t.labeler != nil {
			t.labeler.Release(obj.Marker)
		}
	}

	t.objects = nil
}

// LabelText formats the marker text of an object, the confidence is shown
// as a percentage rounded to three decimals
func LabelText(name string, confidence float32) string {

	pct := math.Round(float64(confidence)*100*1000) / 1000

	return fmt.Sprintf("%s (%s%%)", name, strconv.FormatFloat(pct, 'f', -1, 64))
}

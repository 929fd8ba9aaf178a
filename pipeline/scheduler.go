// Package pipeline drives the detection pipeline one frame at a time,
// spreading each inference pass over as many frames as the layer budget
// requires
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess/result"
	"github.com/swdee/go-holodetect/settings"
	"github.com/swdee/go-holodetect/spatial"
)

// State is the step of the inference pass the scheduler is in
type State int32

const (
	// PreProcessing captures the camera frame and pose
	PreProcessing State = iota
	// Executing runs model layers within the layer budget
	Executing
	// ReadOutput requests the output tensor
	ReadOutput
	// Idle waits for the output readback to complete
	Idle
	// PostProcessing decodes the output and updates the tracker
	PostProcessing
	// Closed is entered on Close, ticks do nothing afterwards
	Closed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case PreProcessing:
		return "PreProcessing"
	case Executing:
		return "Executing"
	case ReadOutput:
		return "ReadOutput"
	case Idle:
		return "Idle"
	case PostProcessing:
		return "PostProcessing"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	// ErrUnknownState is the panic message for an invalid scheduler state
	ErrUnknownState = errors.New("unknown scheduler state")
	// ErrMissingCollaborator is returned by New when a required collaborator
	// is not set
	ErrMissingCollaborator = errors.New("missing pipeline collaborator")
)

// Preprocessor converts the current camera frame into the model input
type Preprocessor interface {
	Process() (*holodetect.Tensor, error)
	Close() error
}

// Processor decodes the model output into suppressed detections
type Processor interface {
	Process(tensor *holodetect.Tensor, threshold float32) []result.Detection
}

// Tracker matches the detections of a pass with the tracked objects
type Tracker interface {
	Update(dets []result.Detection, pose spatial.CameraPose, view spatial.Camera)
}

// CameraSource provides the device camera
type CameraSource interface {
	// Pose returns the current camera pose
	Pose() spatial.CameraPose
	// Camera returns the current camera used for visibility tests
	Camera() spatial.Camera
}

// Pass holds the results of a completed inference pass
type Pass struct {
	// Input is the model input tensor of the pass
	Input *holodetect.Tensor
	// Detections after suppression
	Detections []result.Detection
	// Pose the camera had when the frame was captured
	Pose spatial.CameraPose
	// Frames is the number of ticks the pass took
	Frames int
	// Duration from capture to the end of post processing
	Duration time.Duration
}

// DebugSink receives every completed pass, used for visualization
type DebugSink interface {
	PassCompleted(p Pass)
}

// Config are the collaborators of a Scheduler
type Config struct {
	Engine       holodetect.Engine
	Preprocessor Preprocessor
	Processor    Processor
	Tracker      Tracker
	Camera       CameraSource
	// Settings provide the layer budget and threshold, defaults are used if
	// nil
	Settings *settings.Provider
	// LayerBudget when positive fixes the number of layers stepped per frame
	// and the layer budget setting is ignored
	LayerBudget int
	// Sinks are optional debug sinks
	Sinks []DebugSink
	// Logger defaults to the package logger
	Logger *logrus.Entry
}

// Scheduler runs the pipeline as a state machine advanced by Tick once per
// frame.  All methods must be called from the frame loop goroutine except
// the readback callback the engine delivers
type Scheduler struct {
	cfg   Config
	log   *logrus.Entry
	state atomic.Int32

	// settings received from the provider, applied at the start of a pass
	mu               sync.Mutex
	pendingBudget    int
	pendingThreshold float32
	unsubscribe      func()

	// values latched for the current pass
	budget    int
	threshold float32

	input   *holodetect.Tensor
	cursor  holodetect.Cursor
	output  holodetect.Output
	pose    spatial.CameraPose
	started time.Time
	frames  int
}

// New returns a scheduler in the PreProcessing state
func New(cfg Config) (*Scheduler, error) {

	switch {
	case cfg.Engine == nil:
		return nil, fmt.Errorf("%w: engine", ErrMissingCollaborator)
	case cfg.Preprocessor == nil:
		return nil, fmt.Errorf("%w: preprocessor", ErrMissingCollaborator)
	case cfg.Processor == nil:
		return nil, fmt.Errorf("%w: processor", ErrMissingCollaborator)
	case cfg.Tracker == nil:
		return nil, fmt.Errorf("%w: tracker", ErrMissingCollaborator)
	case cfg.Camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingCollaborator)
	}

	s := &Scheduler{
		cfg: cfg,
		log: cfg.Logger,
	}

	if s.log == nil {
		s.log = holodetect.Logger().WithField("component", "scheduler")
	}

	current := settings.Defaults()

	if cfg.Settings != nil {
		current = cfg.Settings.Get()
		s.unsubscribe = cfg.Settings.Subscribe(s.settingsChanged)
	}

	s.pendingBudget = current.LayerBudget.Layers()
	s.pendingThreshold = current.Threshold.Value()
	s.state.Store(int32(PreProcessing))

	return s, nil
}

// settingsChanged records new settings for the next pass
func (s *Scheduler) settingsChanged(c settings.Change) {

	if !c.Has(settings.FieldLayerBudget) && !c.Has(settings.FieldThreshold) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingBudget = c.Current.LayerBudget.Layers()
	s.pendingThreshold = c.Current.Threshold.Value()
}

// State returns the current state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Tick advances the pipeline by one frame.  It never blocks on inference.
// A collaborator error abandons the pass and the next tick starts a new one
func (s *Scheduler) Tick() error {

	st := s.State()

	switch st {
	case PreProcessing:
		return s.preProcess()

	case Executing:
		return s.execute()

	case ReadOutput:
		return s.readOutput()

	case Idle:
		s.frames++
		return nil

	case PostProcessing:
		return s.postProcess()

	case Closed:
		return nil

	default:
		panic(fmt.Sprintf("%v: %s", ErrUnknownState, st))
	}
}

// preProcess captures the frame and the pose it was taken with
func (s *Scheduler) preProcess() error {

	s.input = nil

	s.mu.Lock()
	s.budget = s.pendingBudget
	s.threshold = s.pendingThreshold
	s.mu.Unlock()

	if s.cfg.LayerBudget > 0 {
		s.budget = s.cfg.LayerBudget
	}

	s.started = time.Now()
	s.frames = 1
	s.pose = s.cfg.Camera.Pose()

	input, err := s.cfg.Preprocessor.Process()

	if err != nil {
		return s.fail("preprocessing", err)
	}

	s.input = input
	s.state.Store(int32(Executing))

	return nil
}

// execute submits the input on first entry and steps at most budget layers
func (s *Scheduler) execute() error {

	if s.cursor == nil {
		cursor, err := s.cfg.Engine.Submit(s.input)

		if err != nil {
			return s.fail("submitting input", err)
		}

		s.cursor = cursor
	}

	s.frames++

	hasMore := true

	for i := 0; i < s.budget && hasMore; i++ {
		hasMore = s.cursor.Step()
	}

	if !hasMore {
		s.cursor = nil
		s.state.Store(int32(ReadOutput))
	}

	return nil
}

// readOutput requests the output tensor and waits for the readback
func (s *Scheduler) readOutput() error {

	s.frames++

	out, err := s.cfg.Engine.PeekOutput()

	if err != nil {
		return s.fail("peeking output", err)
	}

	s.output = out

	// the callback may fire before RequestReadback returns
	s.state.Store(int32(Idle))
	out.RequestReadback(s.readbackReady)

	return nil
}

// readbackReady is called by the engine once the output is readable, it may
// run on any goroutine
func (s *Scheduler) readbackReady() {
	if !s.state.CompareAndSwap(int32(Idle), int32(PostProcessing)) {
		s.log.WithField("state", s.State()).Debug("ignoring readback callback")
	}
}

// postProcess decodes the output, updates the tracker and starts over
func (s *Scheduler) postProcess() error {

	s.frames++

	out, err := s.output.MakeReadable()

	if err != nil {
		return s.fail("reading output", err)
	}

	dets := s.cfg.Processor.Process(out, s.threshold)

	s.cfg.Tracker.Update(dets, s.pose, s.cfg.Camera.Camera())

	pass := Pass{
		Input:      s.input,
		Detections: dets,
		Pose:       s.pose,
		Frames:     s.frames,
		Duration:   time.Since(s.started),
	}

	for _, sink := range s.cfg.Sinks {
		sink.PassCompleted(pass)
	}

	s.log.WithFields(logrus.Fields{
		"detections": len(dets),
		"frames":     s.frames,
		"duration":   pass.Duration,
	}).Debug("inference pass completed")

	s.output = nil
	s.state.Store(int32(PreProcessing))

	return nil
}

// fail abandons the current pass
func (s *Scheduler) fail(step string, err error) error {

	s.input = nil
	s.cursor = nil
	s.output = nil
	s.state.Store(int32(PreProcessing))

	s.log.WithError(err).Warnf("error %s, restarting pass", step)

	return fmt.Errorf("error %s: %w", step, err)
}

// Close stops the scheduler and releases the in flight input, the
// preprocessor and the engine.  Ticks after Close do nothing
func (s *Scheduler) Close() error {

	if State(s.state.Swap(int32(Closed))) == Closed {
		return nil
	}

	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.input = nil
	s.cursor = nil
	s.output = nil

	var errs []error

	if err := s.cfg.Preprocessor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing preprocessor: %w", err))
	}

	if err := s.cfg.Engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing engine: %w", err))
	}

	return errors.Join(errs...)
}

package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/postprocess"
	"github.com/swdee/go-holodetect/postprocess/result"
	"github.com/swdee/go-holodetect/settings"
	"github.com/swdee/go-holodetect/spatial"
)

var errCamera = errors.New("camera unavailable")

// fakePreprocessor returns a fixed input tensor
type fakePreprocessor struct {
	input  *holodetect.Tensor
	err    error
	calls  int
	closed bool
}

func (f *fakePreprocessor) Process() (*holodetect.Tensor, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.input, nil
}

func (f *fakePreprocessor) Close() error {
	f.closed = true
	return nil
}

// trackerCall records one tracker update
type trackerCall struct {
	dets []result.Detection
	pose spatial.CameraPose
	view spatial.Camera
}

// recordTracker records tracker updates, it is safe for concurrent use
type recordTracker struct {
	mu    sync.Mutex
	calls []trackerCall
}

func (r *recordTracker) Update(dets []result.Detection, pose spatial.CameraPose, view spatial.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, trackerCall{dets: dets, pose: pose, view: view})
}

func (r *recordTracker) Calls() []trackerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trackerCall(nil), r.calls...)
}

// recordSink records completed passes
type recordSink struct {
	passes []Pass
}

func (r *recordSink) PassCompleted(p Pass) {
	r.passes = append(r.passes, p)
}

// outputTensor returns a YOLOv10 output with two separate boxes of
// confidence 0.4 and 0.2
func outputTensor(t *testing.T) *holodetect.Tensor {

	tensor, err := holodetect.NewTensor([]int{1, 2, 6}, []float32{
		100, 100, 200, 200, 0.4, 0,
		400, 400, 500, 500, 0.2, 1,
	})
	require.NoError(t, err)

	return tensor
}

type fixture struct {
	sched    *Scheduler
	engine   *holodetect.ReplayEngine
	pre      *fakePreprocessor
	tracker  *recordTracker
	sink     *recordSink
	camera   *StaticCamera
	settings *settings.Provider
}

func newFixture(t *testing.T, layers int, initial settings.Settings,
	opts ...holodetect.ReplayOption) *fixture {
	return newFixtureWith(t, layers, initial, nil, opts...)
}

// newFixtureWith is newFixture with a hook to adjust the scheduler config
func newFixtureWith(t *testing.T, layers int, initial settings.Settings,
	configure func(*Config), opts ...holodetect.ReplayOption) *fixture {

	engine, err := holodetect.NewReplayEngine(layers, outputTensor(t), opts...)
	require.NoError(t, err)

	input, err := holodetect.NewTensor([]int{1, 3, 4, 4}, nil)
	require.NoError(t, err)

	proc, err := postprocess.NewProcessor(postprocess.V10)
	require.NoError(t, err)

	f := &fixture{
		engine:   engine,
		pre:      &fakePreprocessor{input: input},
		tracker:  &recordTracker{},
		sink:     &recordSink{},
		camera:   NewStaticCamera(spatial.DefaultCamera(spatial.IdentityPose())),
		settings: settings.NewProvider(initial),
	}

	cfg := Config{
		Engine:       engine,
		Preprocessor: f.pre,
		Processor:    proc,
		Tracker:      f.tracker,
		Camera:       f.camera,
		Settings:     f.settings,
		Sinks:        []DebugSink{f.sink},
	}

	if configure != nil {
		configure(&cfg)
	}

	f.sched, err = New(cfg)
	require.NoError(t, err)

	return f
}

// budgetSettings returns default settings with the given budget
func budgetSettings(b settings.LayerBudget) settings.Settings {
	s := settings.Defaults()
	s.LayerBudget = b
	return s
}

// ticksUntil ticks until the scheduler leaves state and returns the number of
// ticks spent in it
func ticksUntil(t *testing.T, s *Scheduler, state State) int {

	n := 0

	for s.State() == state {
		require.NoError(t, s.Tick())
		n++
		require.Less(t, n, 100, "scheduler stuck in %s", state)
	}

	return n
}

func TestLayerBudgetTicks(t *testing.T) {

	tests := []struct {
		name   string
		budget settings.LayerBudget
		layers int
		want   int
	}{
		{"low budget", settings.BudgetLow, 12, 3},
		{"low budget exact", settings.BudgetLow, 10, 2},
		{"high budget", settings.BudgetHigh, 25, 3},
		{"full budget", settings.BudgetFull, 40, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.layers, budgetSettings(tc.budget))

			require.NoError(t, f.sched.Tick())
			require.Equal(t, Executing, f.sched.State())

			assert.Equal(t, tc.want, ticksUntil(t, f.sched, Executing))
			assert.Equal(t, ReadOutput, f.sched.State())
			assert.Equal(t, 1, f.engine.Submitted())
		})
	}
}

func TestBudgetOfTwoLayers(t *testing.T) {

	f := newFixtureWith(t, 5, budgetSettings(settings.BudgetFull), func(c *Config) {
		c.LayerBudget = 2
	})

	require.NoError(t, f.sched.Tick())
	require.Equal(t, Executing, f.sched.State())

	// 2 + 2 + 1 layers
	assert.Equal(t, 3, ticksUntil(t, f.sched, Executing))
	assert.Equal(t, ReadOutput, f.sched.State())
	assert.Equal(t, 1, f.engine.Submitted())

	// the fixed budget also ignores later settings changes
	f.settings.SetLayerBudget(settings.BudgetLow)

	for f.sched.State() != PreProcessing {
		require.NoError(t, f.sched.Tick())
	}

	require.NoError(t, f.sched.Tick())
	assert.Equal(t, 3, ticksUntil(t, f.sched, Executing))
}

func TestFullPass(t *testing.T) {

	f := newFixture(t, 5, budgetSettings(settings.BudgetFull))

	wantStates := []State{Executing, ReadOutput, PostProcessing, PreProcessing}

	for _, want := range wantStates {
		require.NoError(t, f.sched.Tick())
		require.Equal(t, want, f.sched.State())
	}

	calls := f.tracker.Calls()
	require.Len(t, calls, 1)

	// default medium threshold keeps only the 0.4 box
	require.Len(t, calls[0].dets, 1)
	assert.InDelta(t, 0.4, calls[0].dets[0].Confidence, 1e-6)

	require.Len(t, f.sink.passes, 1)
	assert.Same(t, f.pre.input, f.sink.passes[0].Input)
	assert.Equal(t, 4, f.sink.passes[0].Frames)
	assert.Same(t, f.pre.input, f.engine.LastInput())
}

func TestPoseCapturedAtPreProcessing(t *testing.T) {

	f := newFixture(t, 10, settings.Defaults())

	start := f.camera.Pose()
	require.NoError(t, f.sched.Tick())

	moved := start
	moved.Position = r3.Vec{X: 2, Y: 1, Z: -3}
	f.camera.SetPose(moved)

	ticksUntil(t, f.sched, Executing)
	require.NoError(t, f.sched.Tick())
	require.NoError(t, f.sched.Tick())

	calls := f.tracker.Calls()
	require.Len(t, calls, 1)

	assert.Equal(t, start, calls[0].pose)
	assert.Equal(t, moved, calls[0].view.Pose)
}

func TestSettingsLatchedPerPass(t *testing.T) {

	f := newFixture(t, 12, settings.Defaults())

	require.NoError(t, f.sched.Tick())

	// changes during the pass apply to the next one
	f.settings.SetThreshold(settings.ThresholdLow)
	f.settings.SetLayerBudget(settings.BudgetFull)

	assert.Equal(t, 3, ticksUntil(t, f.sched, Executing))
	ticksUntil(t, f.sched, ReadOutput)
	ticksUntil(t, f.sched, PostProcessing)

	require.NoError(t, f.sched.Tick())
	assert.Equal(t, 1, ticksUntil(t, f.sched, Executing))
	ticksUntil(t, f.sched, ReadOutput)
	ticksUntil(t, f.sched, PostProcessing)

	calls := f.tracker.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].dets, 1)
	assert.Len(t, calls[1].dets, 2)
}

func TestAsyncReadback(t *testing.T) {

	f := newFixture(t, 5, budgetSettings(settings.BudgetFull), holodetect.WithAsyncReadback())

	require.NoError(t, f.sched.Tick())
	require.NoError(t, f.sched.Tick())
	require.NoError(t, f.sched.Tick())

	require.Eventually(t, func() bool {
		// idle ticks are no-ops until the callback arrives
		if err := f.sched.Tick(); err != nil {
			return false
		}
		return len(f.tracker.Calls()) == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, PreProcessing, f.sched.State())
}

func TestFloat16Readback(t *testing.T) {

	f := newFixture(t, 1, settings.Defaults(), holodetect.WithFloat16Readback())

	for i := 0; i < 4; i++ {
		require.NoError(t, f.sched.Tick())
	}

	calls := f.tracker.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].dets, 1)
	assert.InDelta(t, 150, calls[0].dets[0].Center.X, 1e-3)
}

func TestCollaboratorErrorRestartsPass(t *testing.T) {

	f := newFixture(t, 5, settings.Defaults())
	f.pre.err = errCamera

	err := f.sched.Tick()
	assert.ErrorIs(t, err, errCamera)
	assert.Equal(t, PreProcessing, f.sched.State())

	f.pre.err = nil
	require.NoError(t, f.sched.Tick())
	assert.Equal(t, Executing, f.sched.State())
	assert.Equal(t, 2, f.pre.calls)
}

func TestEngineErrorRestartsPass(t *testing.T) {

	f := newFixture(t, 5, settings.Defaults())
	require.NoError(t, f.engine.Close())

	require.NoError(t, f.sched.Tick())

	err := f.sched.Tick()
	assert.ErrorIs(t, err, holodetect.ErrEngineClosed)
	assert.Equal(t, PreProcessing, f.sched.State())
}

func TestCloseReleasesResources(t *testing.T) {

	f := newFixture(t, 20, settings.Defaults())

	require.NoError(t, f.sched.Tick())
	require.NoError(t, f.sched.Tick())
	require.Equal(t, Executing, f.sched.State())

	require.NoError(t, f.sched.Close())

	assert.Equal(t, Closed, f.sched.State())
	assert.True(t, f.engine.Closed())
	assert.True(t, f.pre.closed)
	assert.Nil(t, f.sched.input)

	for i := 0; i < 10; i++ {
		require.NoError(t, f.sched.Tick())
	}

	assert.Equal(t, 1, f.pre.calls)
	assert.Equal(t, 1, f.engine.Submitted())
	assert.Empty(t, f.tracker.Calls())

	// late readback callbacks are ignored
	f.sched.readbackReady()
	assert.Equal(t, Closed, f.sched.State())

	// closing twice is a no-op
	assert.NoError(t, f.sched.Close())
}

func TestUnknownStatePanics(t *testing.T) {

	f := newFixture(t, 5, settings.Defaults())
	f.sched.state.Store(42)

	assert.PanicsWithValue(t, "unknown scheduler state: State(42)", func() {
		_ = f.sched.Tick()
	})
}

func TestNewMissingCollaborator(t *testing.T) {

	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

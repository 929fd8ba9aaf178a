package holodetect

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEngineClosed is returned when calling an engine after Close
	ErrEngineClosed = errors.New("engine is closed")
	// ErrNoOutput is returned when peeking before any pass completed
	ErrNoOutput = errors.New("no completed inference pass")
)

// ReplayEngine is an Engine that returns a prerecorded output tensor for every
// pass.  It simulates a model with a fixed number of layers so layer budgets
// can be exercised without an inference backend
type ReplayEngine struct {
	// layers is the number of layers each pass takes
	layers int
	// output is returned on every completed pass
	output *Tensor
	// half stores the output as float16 to simulate GPU readback
	half bool
	// asyncReadback delivers readback callbacks from another goroutine
	asyncReadback bool

	mu        sync.Mutex
	completed bool
	closed    bool
	submitted int
	lastInput *Tensor
}

// ReplayOption configures a ReplayEngine
type ReplayOption func(*ReplayEngine)

// WithFloat16Readback stores the output in half precision and converts it back
// on MakeReadable, as GPU backends do
func WithFloat16Readback() ReplayOption {
	return func(e *ReplayEngine) {
		e.half = true
	}
}

// WithAsyncReadback delivers readback callbacks on a separate goroutine
func WithAsyncReadback() ReplayOption {
	return func(e *ReplayEngine) {
		e.asyncReadback = true
	}
}

// NewReplayEngine returns an engine with the given layer count that produces
// output on every pass
func NewReplayEngine(layers int, output *Tensor, opts ...ReplayOption) (*ReplayEngine, error) {

	if layers < 1 {
		return nil, fmt.Errorf("replay engine needs at least one layer, got %d", layers)
	}

	e := &ReplayEngine{
		layers: layers,
		output: output,
	}

	for _, o := range opts {
		o(e)
	}

	return e, nil
}

// Submit starts a new pass
func (e *ReplayEngine) Submit(input *Tensor) (Cursor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	e.submitted++
	e.lastInput = input
	e.completed = false

	return &replayCursor{engine: e, remaining: e.layers}, nil
}

// PeekOutput returns the output of the last completed pass
func (e *ReplayEngine) PeekOutput() (Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	if !e.completed {
		return nil, ErrNoOutput
	}

	out := &replayOutput{async: e.asyncReadback}

	if e.half {
		out.shape = e.output.Shape
		out.half = e.output.ToFloat16()
	} else {
		out.tensor = e.output
	}

	return out, nil
}

// Close releases the engine
func (e *ReplayEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Submitted returns the number of passes submitted so far
func (e *ReplayEngine) Submitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

// LastInput returns the input tensor of the most recent pass
func (e *ReplayEngine) LastInput() *Tensor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastInput
}

// Closed reports if Close has been called
func (e *ReplayEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *ReplayEngine) complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = true
}

// replayCursor counts down the remaining layers of a pass
type replayCursor struct {
	engine    *ReplayEngine
	remaining int
}

// Step runs one layer
func (c *replayCursor) Step() bool {

	if c.remaining <= 0 {
		return false
	}

	c.remaining--

	if c.remaining == 0 {
		c.engine.complete()
		return false
	}

	return true
}

// replayOutput holds the output of a replayed pass
type replayOutput struct {
	tensor *Tensor
	shape  []int
	half   []uint16
	async  bool
}

// RequestReadback calls onReady immediately or from a goroutine
func (o *replayOutput) RequestReadback(onReady func()) {
	if o.async {
		go onReady()
		return
	}
	onReady()
}

// MakeReadable returns the output tensor
func (o *replayOutput) MakeReadable() (*Tensor, error) {

	if o.half != nil {
		return NewTensorFloat16(o.shape, o.half)
	}

	if o.tensor == nil {
		return nil, ErrNoOutput
	}

	return o.tensor, nil
}

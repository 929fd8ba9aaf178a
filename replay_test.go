package holodetect

import (
	"errors"
	"testing"
	"time"
)

func TestReplayEngineLayers(t *testing.T) {

	output, _ := NewTensor([]int{1, 1, 6}, []float32{1, 2, 3, 4, 0.5, 0})
	engine, err := NewReplayEngine(3, output)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := engine.PeekOutput(); !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput before a pass completes, got %v", err)
	}

	input, _ := NewTensor([]int{1, 3, 2, 2}, nil)
	cursor, err := engine.Submit(input)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps := 0

	for cursor.Step() {
		steps++
	}

	// the final layer reports completion
	if steps != 2 {
		t.Errorf("expected 2 steps with more layers remaining, got %d", steps)
	}

	if cursor.Step() {
		t.Errorf("expected completed cursor to stay completed")
	}

	out, err := engine.PeekOutput()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ready := false
	out.RequestReadback(func() { ready = true })

	if !ready {
		t.Fatalf("expected synchronous readback")
	}

	got, err := out.MakeReadable()

	if err != nil || got != output {
		t.Errorf("expected replayed output tensor, got %v (%v)", got, err)
	}

	if engine.Submitted() != 1 || engine.LastInput() != input {
		t.Errorf("expected submitted input to be recorded")
	}
}

func TestReplayEngineRejectsNoLayers(t *testing.T) {

	if _, err := NewReplayEngine(0, nil); err == nil {
		t.Errorf("expected error for zero layers")
	}
}

func TestReplayEngineAsyncFloat16(t *testing.T) {

	output, _ := NewTensor([]int{1, 1, 6}, []float32{100, 100, 200, 200, 0.5, 3})
	engine, _ := NewReplayEngine(1, output, WithAsyncReadback(), WithFloat16Readback())

	cursor, _ := engine.Submit(nil)

	if cursor.Step() {
		t.Fatalf("expected single layer pass to complete in one step")
	}

	out, err := engine.PeekOutput()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	out.RequestReadback(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("readback callback not delivered")
	}

	got, err := out.MakeReadable()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got == output {
		t.Errorf("expected a converted copy of the output")
	}

	for i, v := range output.Data {
		if got.Data[i] != v {
			t.Errorf("element %d expected %f, got %f", i, v, got.Data[i])
		}
	}
}

func TestReplayEngineClose(t *testing.T) {

	output, _ := NewTensor([]int{1, 1, 6}, nil)
	engine, _ := NewReplayEngine(2, output)

	if err := engine.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !engine.Closed() {
		t.Errorf("expected engine to be closed")
	}

	if _, err := engine.Submit(nil); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("expected ErrEngineClosed on submit, got %v", err)
	}

	if _, err := engine.PeekOutput(); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("expected ErrEngineClosed on peek, got %v", err)
	}
}

package holodetect

// Engine is the neural network inference engine the pipeline drives.  The
// engine executes a model layer by layer so a single inference pass can be
// spread across several frames
type Engine interface {
	// Submit schedules the input tensor for inference and returns a cursor
	// used to advance execution
	Submit(input *Tensor) (Cursor, error)
	// PeekOutput returns a handle to the output of the last completed pass
	PeekOutput() (Output, error)
	// Close releases the engine and any device memory it holds
	Close() error
}

// Cursor is a resumable handle on an in-flight inference pass
type Cursor interface {
	// Step executes the next layer of the model and reports whether more
	// layers remain to be run
	Step() bool
}

// Output is a handle to an output tensor that may still live in device
// memory
type Output interface {
	// RequestReadback starts copying the tensor to host memory and calls
	// onReady once the data can be read.  onReady may be called from any
	// goroutine
	RequestReadback(onReady func())
	// MakeReadable returns the tensor contents in host memory
	MakeReadable() (*Tensor, error)
}

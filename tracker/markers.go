package tracker

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect/postprocess/result"
)

// MarkerHandle identifies a visual marker placed by a Labeler
type MarkerHandle int64

// NoMarker is the handle of an object without a marker
const NoMarker MarkerHandle = 0

// Labeler places text markers at world positions, eg: holographic labels
// anchored to the detected objects
type Labeler interface {
	// CreateOrReposition creates a marker when handle is NoMarker, otherwise
	// moves the existing marker and updates its text.  The handle of the
	// marker is returned
	CreateOrReposition(handle MarkerHandle, pos r3.Vec, text string) MarkerHandle
	// Release removes the marker
	Release(handle MarkerHandle)
}

// Marker is a label placed in the world
type Marker struct {
	Handle   MarkerHandle
	Position r3.Vec
	Text     string
	// Moves counts how often the marker was repositioned after creation
	Moves int
}

// MarkerRegistry is an in memory Labeler keeping the current markers, used
// when no display is attached
type MarkerRegistry struct {
	ids     *result.IDGenerator
	markers map[MarkerHandle]*Marker
	sync.Mutex
}

// NewMarkerRegistry returns an empty registry
func NewMarkerRegistry() *MarkerRegistry {
	return &MarkerRegistry{
		ids:     result.NewIDGenerator(),
		markers: make(map[MarkerHandle]*Marker),
	}
}

// CreateOrReposition implements Labeler.  An unknown handle creates a new
// marker
func (m *MarkerRegistry) CreateOrReposition(handle MarkerHandle, pos r3.Vec,
	text string) MarkerHandle {

	m.Lock()
	defer m.Unlock()

	if mk, exists := m.markers[handle]; exists {
		mk.Position = pos
		mk.Text = text
		mk.Moves++
		return handle
	}

	handle = MarkerHandle(m.ids.GetNext())
	m.markers[handle] = &Marker{
		Handle:   handle,
		Position: pos,
		Text:     text,
	}

	return handle
}

// Release implements Labeler
func (m *MarkerRegistry) Release(handle MarkerHandle) {
	m.Lock()
	defer m.Unlock()

	delete(m.markers, handle)
}

// Get returns the marker for handle
func (m *MarkerRegistry) Get(handle MarkerHandle) (Marker, bool) {
	m.Lock()
	defer m.Unlock()

	mk, exists := m.markers[handle]

	if !exists {
		return Marker{}, false
	}

	return *mk, true
}

// Markers returns the current markers ordered by handle
func (m *MarkerRegistry) Markers() []Marker {
	m.Lock()
	defer m.Unlock()

	list := make([]Marker, 0, len(m.markers))

	for _, mk := range m.markers {
		list = append(list, *mk)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Handle < list[j].Handle
	})

	return list
}

// Len returns the number of markers placed
func (m *MarkerRegistry) Len() int {
	m.Lock()
	defer m.Unlock()

	return len(m.markers)
}

// Reset removes all markers and restarts handle numbering
func (m *MarkerRegistry) Reset() {
	m.Lock()
	defer m.Unlock()

	m.markers = make(map[MarkerHandle]*Marker)
	m.ids.Reset()
}

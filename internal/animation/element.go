package animation

import "sync"

// Animatable is a target whose numeric properties can be tweened.
type Animatable interface {
	Property(name string) float64
	SetProperty(name string, value float64)
}

// Element is a named, map-backed Animatable safe for concurrent use.
type Element struct {
	name string

	mu    sync.RWMutex
	props map[string]float64
}

// NewElement creates an element with a copy of initial as its properties.
func NewElement(name string, initial map[string]float64) *Element {
	props := make(map[string]float64, len(initial))
	for k, v := range initial {
		props[k] = v
	}
	return &Element{name: name, props: props}
}

// Name returns the element name.
func (e *Element) Name() string {
	return e.name
}

// Property returns the current value of name, or zero if it was never set.
func (e *Element) Property(name string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props[name]
}

// SetProperty sets name to value.
func (e *Element) SetProperty(name string, value float64) {
	e.mu.Lock()
	e.props[name] = value
	e.mu.Unlock()
}

// Properties returns a snapshot of every property.
func (e *Element) Properties() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.props))
	for k, v := range e.props {
		out[k] = v
	}
	return out
}

func (e *Element) String() string {
	return e.name
}

package animation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownEasing is returned for easing names that are not registered.
var ErrUnknownEasing = errors.New("unknown easing")

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(p float64) float64

const (
	EasingLinear    = "linear"
	EasingIn        = "ease-in"
	EasingOut       = "ease-out"
	EasingInOut     = "ease-in-out"
	defaultEasingID = EasingLinear
)

var easings = map[string]Easing{
	EasingLinear: func(p float64) float64 { return p },
	EasingIn:     func(p float64) float64 { return p * p },
	EasingOut:    func(p float64) float64 { return p * (2 - p) },
	EasingInOut: func(p float64) float64 {
		if p < 0.5 {
			return 2 * p * p
		}
		return -1 + (4-2*p)*p
	},
}

// ParseEasing returns the easing registered under name. An empty name is linear.
func ParseEasing(name string) (Easing, error) {
	if name == "" {
		name = defaultEasingID
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	return fn, nil
}

// EasingNames lists the registered easings, sorted.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

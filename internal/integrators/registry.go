package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/aflc/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"rk45":  func() dynamo.Integrator { return NewRK45() },
}

// ErrUnknown is returned by New for an unregistered method name.
var ErrUnknown = errors.New("integrators: unknown method")

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknown, name, Names())
	}
	return mk(), nil
}

// Names lists the registered methods in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

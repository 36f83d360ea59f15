package demos

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a fresh instance of a demo.
type Factory func() Demo

var (
	registryMu sync.RWMutex
	demos      = make(map[string]Factory)
)

// Register makes a demo available by name. It is called from init in the
// file that defines the demo:
//
//	func init() {
//	    demos.Register("VK_Simple_Triangle", func() demos.Demo { return &simpleTriangle{} })
//	}
//
// Register panics if factory is nil or the name is already taken.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("demos: Register factory is nil")
	}
	if _, dup := demos[name]; dup {
		panic("demos: Register called twice for " + name)
	}
	demos[name] = factory
}

// New creates the demo registered under name.
func New(name string) (Demo, error) {
	registryMu.RLock()
	factory, ok := demos[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDemo, name)
	}
	return factory(), nil
}

// Names returns the registered demo names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a demo with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := demos[name]
	return ok
}

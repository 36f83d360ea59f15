package harness

import (
	"sort"
	"sync"
)

// Info describes a registered test case.
type Info struct {
	Name        string
	Description string

	// Contacts lists who to ask when the case breaks.
	Contacts []string
}

// Entry is a registered test case.
type Entry struct {
	Info Info
	Case TestCase
}

var (
	registryMu sync.RWMutex
	tests      = make(map[string]Entry)
)

// AddTest registers a test case. It is called from init in the package that
// defines the case and panics on a duplicate name.
func AddTest(info Info, tc TestCase) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if tc == nil {
		panic("harness: AddTest case is nil")
	}
	if info.Name == "" {
		panic("harness: AddTest with empty name")
	}
	if _, dup := tests[info.Name]; dup {
		panic("harness: AddTest called twice for " + info.Name)
	}
	tests[info.Name] = Entry{Info: info, Case: tc}
}

// Tests returns every registered case sorted by name.
func Tests() []Entry {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Entry, 0, len(tests))
	for _, e := range tests {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Info.Name < out[j].Info.Name })
	return out
}

// Lookup returns the case registered under name.
func Lookup(name string) (Entry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := tests[name]
	return e, ok
}

func removeTest(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(tests, name)
}

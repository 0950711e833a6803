// Package catalog defines the policy table shared between the gate engine
// and the tsgate CLI: which symbols are intercepted, and what happens to a
// call once the process has gone multi-threaded.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the decision applied to an intercepted call while gating is
// enabled. While gating is disabled every policy degrades to a forward.
type Policy string

const (
	// PolicyForward always calls the real implementation.
	PolicyForward Policy = "forward"
	// PolicySubstitute answers from the engine's shadow data instead of
	// calling the real implementation.
	PolicySubstitute Policy = "substitute"
	// PolicyAbort treats the call as a programming error.
	PolicyAbort Policy = "abort"
)

func (p Policy) String() string {
	return string(p)
}

func (p Policy) valid() bool {
	switch p {
	case PolicyForward, PolicySubstitute, PolicyAbort:
		return true
	}
	return false
}

// Well-known symbols the engine treats specially.
const (
	// SymbolGetenv is the single substitute case: a read-only environment
	// lookup answered from the shadow snapshot while gating is enabled.
	SymbolGetenv = "getenv"

	// SymbolLastError reports the resolver's own failure indicator. It is
	// exempt from gating: the dispatcher depends on it to resolve every
	// other symbol, so intercepting it would be circular.
	SymbolLastError = "lasterror"

	// SymbolThreadCreate is the thread-start hook's delegate. It is not a
	// catalog entry: the ratchet is engine behavior, not policy.
	SymbolThreadCreate = "thread_create"
)

// Entry is a single catalog rule.
type Entry struct {
	Symbol string `yaml:"symbol"`
	Policy Policy `yaml:"policy"`
	Reason string `yaml:"reason,omitempty"`
}

// Table is an immutable symbol -> policy mapping. Build one with New, Default
// or Load; it is safe for concurrent readers.
type Table struct {
	entries map[string]Entry
	order   []string
}

// New builds a table from the given entries. A later entry for the same
// symbol replaces an earlier one.
func New(entries []Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Symbol == "" {
			return nil, fmt.Errorf("catalog entry with empty symbol")
		}
		if !e.Policy.valid() {
			return nil, fmt.Errorf("catalog entry %q: unknown policy %q", e.Symbol, e.Policy)
		}
		if _, seen := t.entries[e.Symbol]; !seen {
			t.order = append(t.order, e.Symbol)
		}
		t.entries[e.Symbol] = e
	}
	return t, nil
}

// PolicyFor returns the policy for a symbol and whether the symbol is
// catalogued at all.
func (t *Table) PolicyFor(symbol string) (Policy, bool) {
	e, ok := t.entries[symbol]
	return e.Policy, ok
}

// Entry returns the full rule for a symbol.
func (t *Table) Entry(symbol string) (Entry, bool) {
	e, ok := t.entries[symbol]
	return e, ok
}

// Has reports whether the symbol is catalogued.
func (t *Table) Has(symbol string) bool {
	_, ok := t.entries[symbol]
	return ok
}

// Entries returns the catalog rules in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, sym := range t.order {
		out = append(out, t.entries[sym])
	}
	return out
}

// Len returns the number of catalogued symbols.
func (t *Table) Len() int {
	return len(t.entries)
}

// Symbols returns the catalogued symbol names in declaration order.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// overrideFile is the YAML shape of a catalog override file.
type overrideFile struct {
	Entries []Entry `yaml:"entries"`
}

// Load reads a YAML override file and applies it on top of the built-in
// catalog. Overrides may relax or tighten policies and add symbols, but the
// resolver failure indicator stays forward-only.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	for _, e := range file.Entries {
		if e.Symbol == SymbolLastError && e.Policy != PolicyForward {
			return nil, fmt.Errorf("catalog entry %q: policy must remain %s", e.Symbol, PolicyForward)
		}
		// The shadow only answers environment lookups; a substitute policy on
		// any other symbol would have nothing to dispatch to.
		if e.Policy == PolicySubstitute && e.Symbol != SymbolGetenv {
			return nil, fmt.Errorf("catalog entry %q: no substitute implementation, only %s can be %s", e.Symbol, SymbolGetenv, PolicySubstitute)
		}
	}

	return New(append(defaultEntries(), file.Entries...))
}

// Default returns the built-in catalog.
func Default() *Table {
	t, err := New(defaultEntries())
	if err != nil {
		// The built-in entries are static data; a bad entry is a bug here,
		// not a runtime condition.
		panic(err)
	}
	return t
}

// Package resolver locates the real implementation behind each intercepted
// symbol. Production code resolves against the running process's own runtime
// (see Host); tests supply a TableProvider of fakes. Resolution is lazy and
// memoized once per symbol.
package resolver

import (
	"errors"
	"fmt"
	"sync/atomic"

	"tsgate/pkg/catalog"
)

// Func is a resolved callable. Argument marshaling is the caller's problem;
// the dispatcher's typed wrappers do the unpacking.
type Func func(args ...any) (any, error)

// ErrNotFound is returned when a provider has no implementation for a symbol.
var ErrNotFound = errors.New("symbol not found")

// Provider supplies real implementations by symbol name. Lookup must be a
// pure function of the symbol: two calls for the same name return
// interchangeable implementations.
type Provider interface {
	Lookup(symbol string) (Func, error)
}

// TableProvider is a Provider backed by a plain function table.
type TableProvider map[string]Func

// Lookup implements Provider.
func (tp TableProvider) Lookup(symbol string) (Func, error) {
	fn, ok := tp[symbol]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", symbol, ErrNotFound)
	}
	return fn, nil
}

// entry is the per-symbol memoization slot. The pointer is written at most
// to one value: concurrent first resolutions may both hit the provider, but
// the lookup is idempotent so whichever lands is as good as the other.
type entry struct {
	fn atomic.Pointer[Func]
}

// Cache memoizes provider lookups, one slot per known symbol. Slots are
// pre-created from the symbol list at construction so no lock guards them.
type Cache struct {
	provider Provider
	entries  map[string]*entry
	lastErr  atomic.Pointer[error]
}

// New builds a cache over the provider with slots for the given symbols.
// The resolver's own failure indicator is always present under
// catalog.SymbolLastError and never consults the provider.
func New(provider Provider, symbols []string) *Cache {
	c := &Cache{
		provider: provider,
		entries:  make(map[string]*entry, len(symbols)+1),
	}
	for _, sym := range symbols {
		if _, ok := c.entries[sym]; !ok {
			c.entries[sym] = &entry{}
		}
	}

	le := &entry{}
	lastErrFn := Func(func(args ...any) (any, error) {
		return c.LastError(), nil
	})
	le.fn.Store(&lastErrFn)
	c.entries[catalog.SymbolLastError] = le
	return c
}

// Resolve returns the real implementation for symbol, performing the
// provider lookup at most effectively-once per symbol. A failed lookup is
// recorded (observable via LastError) and reported to the caller; it is not
// cached, resolution being idempotent either way.
func (c *Cache) Resolve(symbol string) (Func, error) {
	e, ok := c.entries[symbol]
	if !ok {
		// Symbol outside the pre-sized set: no memo slot, straight lookup.
		return c.lookup(symbol)
	}

	if fn := e.fn.Load(); fn != nil {
		return *fn, nil
	}

	fn, err := c.lookup(symbol)
	if err != nil {
		return nil, err
	}
	e.fn.Store(&fn)
	return fn, nil
}

func (c *Cache) lookup(symbol string) (Func, error) {
	fn, err := c.provider.Lookup(symbol)
	if err != nil {
		c.lastErr.Store(&err)
		return nil, err
	}
	return fn, nil
}

// LastError returns the most recent resolution failure, or nil. This is the
// one piece of resolver state exposed to callers; the dispatcher forwards it
// unconditionally because gating it would be circular.
func (c *Cache) LastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

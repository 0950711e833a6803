// Package gate implements the runtime thread-safety gate: a policy-driven
// dispatcher in front of a fixed catalog of functions that are unsafe once a
// process becomes multi-threaded. Until a second thread is requested every
// call forwards to the real implementation; afterwards the catalog decides
// per symbol between forwarding, answering from the environment shadow, and
// treating the call as a fatal programming error.
package gate

import (
	"log/slog"

	"tsgate/internal/resolver"
	"tsgate/internal/syncutil"
	"tsgate/pkg/catalog"
)

// Engine is the process-wide gate context. The composition root creates one
// and hands it to every interposition entry point; tests may hold several.
type Engine struct {
	// mu serializes every transition of inited/disabled and is the lock the
	// fork hooks hold across process duplication.
	mu       syncutil.Mutex
	inited   bool
	disabled bool

	shadow    *shadow
	provider  resolver.Provider
	resolver  *resolver.Cache
	catalog   *catalog.Table
	logger    *slog.Logger
	decisions *DecisionLog
	fault     FaultHandler
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithResolver sets the real-implementation provider. Defaults to the host
// runtime provider.
func WithResolver(p resolver.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithCatalog sets the policy table. Defaults to catalog.Default().
func WithCatalog(t *catalog.Table) Option {
	return func(e *Engine) { e.catalog = t }
}

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDecisionLog attaches a JSON-lines log of enabled-state decisions.
func WithDecisionLog(dl *DecisionLog) Option {
	return func(e *Engine) { e.decisions = dl }
}

// WithFaultHandler replaces the production terminate-on-fault handler.
func WithFaultHandler(h FaultHandler) Option {
	return func(e *Engine) { e.fault = h }
}

// New constructs an engine. The engine starts uninitialized: every dispatch
// forwards transparently until Initialize has run.
func New(opts ...Option) *Engine {
	e := &Engine{
		disabled: true,
		catalog:  catalog.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fault == nil {
		e.fault = Terminate(e.logger)
	}

	if e.provider == nil {
		e.provider = resolver.Host()
	}
	e.resolver = resolver.New(e.provider, append(e.catalog.Symbols(), catalog.SymbolThreadCreate))
	return e
}

// Initialize captures the environment shadow and arms the engine, state
// disabled. It must run once, before any catalogued function is used from
// more than one thread; calling it twice is a caller error and is not
// detected.
func (e *Engine) Initialize(environ []string) {
	e.shadow = newShadow(environ)

	e.mu.Lock()
	e.disabled = true
	e.inited = true
	e.mu.Unlock()

	e.logger.Debug("gate initialized", "shadow_entries", e.shadow.len(), "catalog_entries", e.catalog.Len())
}

// Enable switches gating on. Idempotent.
func (e *Engine) Enable() {
	e.mu.Lock()
	e.disabled = false
	e.mu.Unlock()
}

// Disable switches gating off. Idempotent.
func (e *Engine) Disable() {
	e.mu.Lock()
	e.disabled = true
	e.mu.Unlock()
}

// Enabled reports whether gating is active, serialized against writers by
// the guard lock.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inited && !e.disabled
}

// Catalog returns the engine's policy table.
func (e *Engine) Catalog() *catalog.Table {
	return e.catalog
}

package gate

import (
	"fmt"

	"tsgate/pkg/catalog"
)

// Call dispatches one intercepted invocation. While the engine is
// uninitialized or disabled the call forwards transparently to the real
// implementation. While enabled, the catalog policy decides: forward,
// answer from the shadow, or raise a violation through the fault handler.
// The returned error carries the fault when a (test-installed) handler
// declines to terminate.
func (e *Engine) Call(symbol string, args ...any) (any, error) {
	if !e.active() {
		return e.forward(symbol, args)
	}

	policy, ok := e.catalog.PolicyFor(symbol)
	if !ok {
		// Not a catalogued function; the gate has no opinion.
		return e.forward(symbol, args)
	}

	switch policy {
	case catalog.PolicyForward:
		e.record(symbol, policy, "forwarded", "")
		return e.forward(symbol, args)

	case catalog.PolicySubstitute:
		e.record(symbol, policy, "substituted", "")
		return e.substitute(symbol, args)

	default: // catalog.PolicyAbort
		entry, _ := e.catalog.Entry(symbol)
		verr := &ViolationError{Symbol: symbol, Reason: entry.Reason}
		e.record(symbol, policy, "aborted", verr.Error())
		e.fault(verr)
		return nil, verr
	}
}

// active reports whether policy decisions apply: initialized and enabled.
func (e *Engine) active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inited && !e.disabled
}

// forward resolves and invokes the real implementation. A symbol the
// runtime cannot supply is a configuration fault, surfaced on this first
// invocation rather than at initialization.
func (e *Engine) forward(symbol string, args []any) (any, error) {
	fn, err := e.resolver.Resolve(symbol)
	if err != nil {
		rerr := &ResolveError{Symbol: symbol, Err: err}
		e.record(symbol, catalog.PolicyForward, "unresolved", rerr.Error())
		e.fault(rerr)
		return nil, rerr
	}
	return fn(args...)
}

// substitute answers from engine-owned shadow data instead of the live
// process state. The environment lookup is the only substitute case.
func (e *Engine) substitute(symbol string, args []any) (any, error) {
	switch symbol {
	case catalog.SymbolGetenv:
		if len(args) < 1 {
			return nil, fmt.Errorf("%s: missing name argument", symbol)
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: argument 0: want string, got %T", symbol, args[0])
		}
		value, found := e.shadow.lookup(name)
		if !found {
			return nil, nil
		}
		return value, nil
	}
	return nil, fmt.Errorf("%s: no substitute implementation", symbol)
}

// record notes an enabled-state decision in the log and the decision file.
// Disabled-state forwards are deliberately unlogged: transparency includes
// the observability surface.
func (e *Engine) record(symbol string, policy catalog.Policy, outcome, detail string) {
	e.logger.Debug("gate decision", "symbol", symbol, "policy", policy.String(), "outcome", outcome)
	if e.decisions != nil {
		e.decisions.Record(DecisionRecord{
			Symbol:  symbol,
			Policy:  policy.String(),
			Outcome: outcome,
			Detail:  detail,
		})
	}
}

// Decide reports the policy branch a call to symbol would take right now,
// without invoking anything. The second result is false when the engine
// would forward because it is uninitialized or disabled.
func (e *Engine) Decide(symbol string) (catalog.Policy, bool) {
	if !e.active() {
		return catalog.PolicyForward, false
	}
	policy, ok := e.catalog.PolicyFor(symbol)
	if !ok {
		return catalog.PolicyForward, true
	}
	return policy, true
}

// StartThread is the thread-start hook: the one-way ratchet from disabled to
// enabled, taken on the first request for a second thread, before the real
// thread-creation primitive runs.
func (e *Engine) StartThread(fn func()) error {
	e.mu.Lock()
	flipped := e.inited && e.disabled
	if flipped {
		e.disabled = false
	}
	e.mu.Unlock()

	if flipped {
		e.logger.Info("second thread requested, gating enabled")
	}

	create, err := e.resolver.Resolve(catalog.SymbolThreadCreate)
	if err != nil {
		rerr := &ResolveError{Symbol: catalog.SymbolThreadCreate, Err: err}
		e.fault(rerr)
		return rerr
	}
	_, err = create(fn)
	return err
}

// Getenv is the typed wrapper over the substitute case. While disabled it
// reads the live environment through the real implementation; while enabled
// it answers from the shadow. The (value, ok) shape mirrors the underlying
// value-or-not-found contract.
func (e *Engine) Getenv(name string) (string, bool) {
	v, err := e.Call(catalog.SymbolGetenv, name)
	if err != nil || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Setenv mutates the live environment; banned while enabled.
func (e *Engine) Setenv(name, value string) error {
	_, err := e.Call("setenv", name, value)
	return err
}

// Unsetenv removes a live environment variable; banned while enabled.
func (e *Engine) Unsetenv(name string) error {
	_, err := e.Call("unsetenv", name)
	return err
}

// Putenv installs a NAME=VALUE pair in the live environment; banned while
// enabled.
func (e *Engine) Putenv(pair string) error {
	_, err := e.Call("putenv", pair)
	return err
}

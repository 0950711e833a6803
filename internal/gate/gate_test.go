package gate

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"tsgate/internal/resolver"
)

// faultRecorder captures faults so abort paths are assertable in-process.
type faultRecorder struct {
	faults []error
}

func (r *faultRecorder) handler() FaultHandler {
	return func(err error) { r.faults = append(r.faults, err) }
}

func (r *faultRecorder) last() error {
	if len(r.faults) == 0 {
		return nil
	}
	return r.faults[len(r.faults)-1]
}

// testProvider fakes the real implementations over a mutable live
// environment, with a counter on the thread-creation primitive.
func testProvider(live map[string]string, threads *int32) resolver.TableProvider {
	return resolver.TableProvider{
		"getenv": func(args ...any) (any, error) {
			v, ok := live[args[0].(string)]
			if !ok {
				return nil, nil
			}
			return v, nil
		},
		"setenv": func(args ...any) (any, error) {
			live[args[0].(string)] = args[1].(string)
			return nil, nil
		},
		"unsetenv": func(args ...any) (any, error) {
			delete(live, args[0].(string))
			return nil, nil
		},
		"rand": func(args ...any) (any, error) {
			return 7, nil
		},
		"thread_create": func(args ...any) (any, error) {
			atomic.AddInt32(threads, 1)
			args[0].(func())()
			return nil, nil
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, live map[string]string, threads *int32, opts ...Option) (*Engine, *faultRecorder) {
	t.Helper()
	rec := &faultRecorder{}
	opts = append([]Option{
		WithResolver(testProvider(live, threads)),
		WithFaultHandler(rec.handler()),
		WithLogger(quietLogger()),
	}, opts...)
	return New(opts...), rec
}

func TestForwardBeforeInitialize(t *testing.T) {
	live := map[string]string{"HOME": "/home/u"}
	var threads int32
	e, rec := newTestEngine(t, live, &threads)

	// Abort capability only exists after Initialize: everything forwards.
	if v, ok := e.Getenv("HOME"); !ok || v != "/home/u" {
		t.Errorf("Getenv: got (%q, %v), want (/home/u, true)", v, ok)
	}
	if v, err := e.Call("rand"); err != nil || v != 7 {
		t.Errorf("rand: got (%v, %v), want (7, nil)", v, err)
	}
	if err := e.Setenv("A", "1"); err != nil {
		t.Errorf("Setenv: %v", err)
	}
	if live["A"] != "1" {
		t.Error("Setenv did not reach the live environment")
	}
	if rec.last() != nil {
		t.Errorf("unexpected fault: %v", rec.last())
	}
}

func TestTransparencyWhileDisabled(t *testing.T) {
	live := map[string]string{"HOME": "/home/u"}
	var threads int32
	e, rec := newTestEngine(t, live, &threads)
	e.Initialize([]string{"HOME=/elsewhere"})

	// Disabled: the shadow is ignored, the live environment answers.
	if v, ok := e.Getenv("HOME"); !ok || v != "/home/u" {
		t.Errorf("Getenv: got (%q, %v), want (/home/u, true)", v, ok)
	}
	if v, err := e.Call("rand"); err != nil || v != 7 {
		t.Errorf("rand: got (%v, %v), want (7, nil)", v, err)
	}
	if rec.last() != nil {
		t.Errorf("unexpected fault: %v", rec.last())
	}
}

func TestThreadStartRatchet(t *testing.T) {
	live := map[string]string{}
	var threads int32
	var ran int32
	e, _ := newTestEngine(t, live, &threads)
	e.Initialize(nil)

	if e.Enabled() {
		t.Fatal("enabled before any thread was requested")
	}

	if err := e.StartThread(func() { atomic.AddInt32(&ran, 1) }); err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if !e.Enabled() {
		t.Error("first thread request did not enable gating")
	}
	if threads != 1 || ran != 1 {
		t.Errorf("delegate: threads=%d ran=%d, want 1/1", threads, ran)
	}

	// Already enabled: no-op on state, still delegates.
	if err := e.StartThread(func() { atomic.AddInt32(&ran, 1) }); err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if !e.Enabled() {
		t.Error("second thread request changed state")
	}
	if threads != 2 || ran != 2 {
		t.Errorf("delegate: threads=%d ran=%d, want 2/2", threads, ran)
	}

	// The ratchet never disables.
	e.Disable()
	e.Enable()
	if err := e.StartThread(func() {}); err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if !e.Enabled() {
		t.Error("StartThread disabled gating")
	}
}

func TestThreadStartBeforeInitialize(t *testing.T) {
	live := map[string]string{}
	var threads int32
	e, rec := newTestEngine(t, live, &threads)

	if err := e.StartThread(func() {}); err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if e.Enabled() {
		t.Error("uninitialized engine reported enabled")
	}
	if threads != 1 {
		t.Errorf("delegate invoked %d times, want 1", threads)
	}
	if rec.last() != nil {
		t.Errorf("unexpected fault: %v", rec.last())
	}
}

func TestForkHooks(t *testing.T) {
	t.Run("parent keeps state", func(t *testing.T) {
		e, _ := newTestEngine(t, map[string]string{}, new(int32))
		e.Initialize(nil)
		e.Enable()

		hooks := e.ForkHooks()
		hooks.Prepare()
		hooks.Parent()
		if !e.Enabled() {
			t.Error("parent state changed across duplication")
		}
	})

	t.Run("child resets enabled to disabled", func(t *testing.T) {
		e, _ := newTestEngine(t, map[string]string{}, new(int32))
		e.Initialize(nil)
		e.Enable()

		hooks := e.ForkHooks()
		hooks.Prepare()
		hooks.Child()
		if e.Enabled() {
			t.Error("child still enabled after duplication")
		}
	})

	t.Run("child keeps disabled", func(t *testing.T) {
		e, _ := newTestEngine(t, map[string]string{}, new(int32))
		e.Initialize(nil)

		hooks := e.ForkHooks()
		hooks.Prepare()
		hooks.Child()
		if e.Enabled() {
			t.Error("disabled child became enabled")
		}
	})

	t.Run("child before initialize", func(t *testing.T) {
		e, _ := newTestEngine(t, map[string]string{}, new(int32))

		hooks := e.ForkHooks()
		hooks.Prepare()
		hooks.Child()
		if e.Enabled() {
			t.Error("uninitialized child became enabled")
		}
	})
}

func TestShadowConsistency(t *testing.T) {
	live := map[string]string{"A": "1", "B": "2"}
	var threads int32
	e, rec := newTestEngine(t, live, &threads)
	e.Initialize([]string{"A=1", "B=2"})
	e.Enable()

	// Mutating the live environment behind the shadow's back has no effect
	// on enabled lookups.
	live["C"] = "3"
	live["A"] = "changed"

	if v, ok := e.Getenv("A"); !ok || v != "1" {
		t.Errorf("A: got (%q, %v), want (1, true)", v, ok)
	}
	if v, ok := e.Getenv("B"); !ok || v != "2" {
		t.Errorf("B: got (%q, %v), want (2, true)", v, ok)
	}
	if _, ok := e.Getenv("C"); ok {
		t.Error("C visible through the shadow")
	}

	// The mutation call itself is a violation.
	err := e.Setenv("C", "3")
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Fatalf("Setenv: got %v, want ViolationError", err)
	}
	if rec.last() == nil {
		t.Error("violation not raised through the fault handler")
	}
}

func TestAbortOnViolation(t *testing.T) {
	// catgets has no implementation in the fake provider: the abort policy
	// must still fire before resolution is attempted.
	symbols := []string{"setenv", "unsetenv", "rand", "strtok", "catgets"}

	for _, sym := range symbols {
		t.Run(sym, func(t *testing.T) {
			live := map[string]string{}
			e, rec := newTestEngine(t, live, new(int32))
			e.Initialize(nil)

			// Disabled: no fault (rand forwards; others may forward or be
			// unresolvable depending on the fake, so only rand is invoked).
			if sym == "rand" {
				if _, err := e.Call(sym); err != nil {
					t.Fatalf("disabled call: %v", err)
				}
				if rec.last() != nil {
					t.Fatalf("disabled call faulted: %v", rec.last())
				}
			}

			e.Enable()
			_, err := e.Call(sym)
			var verr *ViolationError
			if !errors.As(err, &verr) {
				t.Fatalf("enabled call: got %v, want ViolationError", err)
			}
			if verr.Symbol != sym {
				t.Errorf("violation symbol: got %q, want %q", verr.Symbol, sym)
			}
			if !errors.As(rec.last(), &verr) {
				t.Error("violation not raised through the fault handler")
			}
		})
	}
}

func TestConfigFaultOnUnresolved(t *testing.T) {
	e, rec := newTestEngine(t, map[string]string{}, new(int32))
	e.Initialize(nil)

	// hcreate is catalogued but the fake provider has no implementation:
	// forwarding it while disabled is a configuration fault.
	_, err := e.Call("hcreate", 16)
	var rerr *ResolveError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want ResolveError", err)
	}
	if !errors.Is(err, resolver.ErrNotFound) {
		t.Errorf("fault does not wrap ErrNotFound: %v", err)
	}
	if !errors.As(rec.last(), &rerr) {
		t.Error("fault not raised through the fault handler")
	}

	// Enabled, the abort policy fires before resolution is attempted.
	e.Enable()
	_, err = e.Call("hcreate", 16)
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Errorf("enabled call: got %v, want ViolationError", err)
	}
}

func TestLastErrorExemptWhileEnabled(t *testing.T) {
	e, rec := newTestEngine(t, map[string]string{}, new(int32))
	e.Initialize(nil)
	e.Enable()

	v, err := e.Call("lasterror")
	if err != nil {
		t.Fatalf("lasterror: %v", err)
	}
	if v != nil {
		t.Errorf("before any failure: got %v, want nil", v)
	}
	if rec.last() != nil {
		t.Errorf("exempt symbol faulted: %v", rec.last())
	}
}

func TestUncataloguedSymbolForwards(t *testing.T) {
	live := map[string]string{}
	rec := &faultRecorder{}
	provider := testProvider(live, new(int32))
	provider["mkdtemp"] = func(args ...any) (any, error) { return "/tmp/x", nil }

	e := New(
		WithResolver(provider),
		WithFaultHandler(rec.handler()),
		WithLogger(quietLogger()),
	)
	e.Initialize(nil)
	e.Enable()

	v, err := e.Call("mkdtemp")
	if err != nil || v != "/tmp/x" {
		t.Errorf("got (%v, %v), want (/tmp/x, nil)", v, err)
	}
}

func TestDecide(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{}, new(int32))

	if policy, gated := e.Decide("rand"); gated {
		t.Errorf("uninitialized: got (%v, %v), want forward/ungated", policy, gated)
	}

	e.Initialize(nil)
	e.Enable()

	tests := []struct {
		symbol string
		want   string
	}{
		{"rand", "abort"},
		{"getenv", "substitute"},
		{"lasterror", "forward"},
		{"mkdtemp", "forward"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			policy, gated := e.Decide(tt.symbol)
			if !gated || policy.String() != tt.want {
				t.Errorf("got (%v, %v), want (%s, true)", policy, gated, tt.want)
			}
		})
	}
}

// TestGateScenario walks the end-to-end sequence: transparent lookup while
// disabled, shadow lookup while enabled, termination on banned mutation.
func TestGateScenario(t *testing.T) {
	live := map[string]string{"PATH": "/bin", "HOME": "/home/u"}
	var threads int32
	logPath := filepath.Join(t.TempDir(), "decisions.jsonl")
	dl, err := NewDecisionLog(logPath)
	if err != nil {
		t.Fatalf("NewDecisionLog: %v", err)
	}
	defer dl.Close()

	e, rec := newTestEngine(t, live, &threads, WithDecisionLog(dl))
	e.Initialize([]string{"PATH=/bin", "HOME=/home/u"})

	// Disabled: real call-through.
	if v, ok := e.Getenv("HOME"); !ok || v != "/home/u" {
		t.Fatalf("disabled Getenv: got (%q, %v)", v, ok)
	}

	e.Enable()

	// Enabled: shadow.
	if v, ok := e.Getenv("HOME"); !ok || v != "/home/u" {
		t.Fatalf("enabled Getenv: got (%q, %v)", v, ok)
	}

	// Banned mutation terminates (recorded here instead).
	err = e.Setenv("C", "3")
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Fatalf("Setenv: got %v, want ViolationError", err)
	}
	if rec.last() == nil {
		t.Fatal("violation not raised through the fault handler")
	}
	if _, mutated := live["C"]; mutated {
		t.Error("banned mutation reached the live environment")
	}

	records, err := ReadDecisionLog(logPath)
	if err != nil {
		t.Fatalf("ReadDecisionLog: %v", err)
	}
	var sawSubstitute, sawAbort bool
	for _, r := range records {
		if r.Symbol == "getenv" && r.Outcome == "substituted" {
			sawSubstitute = true
		}
		if r.Symbol == "setenv" && r.Outcome == "aborted" {
			sawAbort = true
		}
	}
	if !sawSubstitute || !sawAbort {
		t.Errorf("decision log missing records: substitute=%v abort=%v", sawSubstitute, sawAbort)
	}
}

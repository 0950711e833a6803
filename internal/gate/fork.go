package gate

// Hooks are the three callbacks run around process duplication. Register
// them exactly once, during initialization, with whatever host mechanism can
// notify before and after a copy-the-address-space event (pthread_atfork is
// the classic example).
type Hooks struct {
	// Prepare runs before duplication and acquires the guard lock, so no
	// thread is mid-transition while the address space is copied.
	Prepare func()
	// Parent runs after duplication in the parent and releases the lock.
	// The parent's state is unchanged.
	Parent func()
	// Child runs after duplication in the child. A fresh child has exactly
	// one thread, so if the engine was initialized and enabled the state is
	// forced back to disabled before the lock is released.
	Child func()
}

// ForkHooks returns the engine's duplication protocol.
func (e *Engine) ForkHooks() Hooks {
	return Hooks{
		Prepare: func() {
			e.mu.Lock()
		},
		Parent: func() {
			e.mu.Unlock()
		},
		Child: func() {
			if e.inited && !e.disabled {
				e.disabled = true
			}
			e.mu.Unlock()
		},
	}
}

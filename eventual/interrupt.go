package eventual

import "sync"

// Interrupt is a one-shot cancellation token that can be registered with a
// pipeline via Node.Register. Triggering it runs whatever handler the leaf
// node installed, whether that installation happened before or after Trigger
// was called — mirrors the done-notification idiom used throughout the
// dispatch core (see server.ServerContext.OnDone).
type Interrupt struct {
	mu        sync.Mutex
	triggered bool
	handler   func()
}

// NewInterrupt returns a fresh, untriggered Interrupt.
func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

// Install attaches handler as the action to run when Trigger is called.
// If the Interrupt was already triggered, Install runs handler inline and
// returns true; the caller (typically a handler's Prepare stage) must then
// abort instead of proceeding normally.
func (i *Interrupt) Install(handler func()) (alreadyTriggered bool) {
	i.mu.Lock()
	already := i.triggered
	if !already {
		i.handler = handler
	}
	i.mu.Unlock()

	if already && handler != nil {
		handler()
	}
	return already
}

// Trigger fires the interrupt exactly once, running the installed handler
// (if any) synchronously on the caller's goroutine.
func (i *Interrupt) Trigger() {
	i.mu.Lock()
	already := i.triggered
	i.triggered = true
	h := i.handler
	i.mu.Unlock()

	if !already && h != nil {
		h()
	}
}

// Triggered reports whether Trigger has already been called.
func (i *Interrupt) Triggered() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.triggered
}

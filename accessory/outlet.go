package accessory

import (
	"errors"
	"sync"
)

// ErrNoHandler is reported when a characteristic is accessed before the platform bound it
var ErrNoHandler = errors.New("characteristic has no handler")

// GetHandler answers a read of the power state through done
type GetHandler func(done func(on bool, err error))

// SetHandler applies a power state and reports completion through done
type SetHandler func(on bool, done func(err error))

// Outlet is the single service each Sonoff accessory exposes
type Outlet struct {
	Name string
	On   *Power
}

// NewOutlet returns an outlet with an unbound On characteristic
func NewOutlet(name string) *Outlet {
	return &Outlet{
		Name: name,
		On:   &Power{},
	}
}

// Power is the On characteristic; the host calls Get and Set, the platform installs the handlers.
type Power struct {
	mu  sync.Mutex
	get GetHandler
	set SetHandler
}

// OnGet installs the read handler, replacing the previous one
func (p *Power) OnGet(h GetHandler) *Power {
	p.mu.Lock()
	p.get = h
	p.mu.Unlock()
	return p
}

// OnSet installs the write handler, replacing the previous one
func (p *Power) OnSet(h SetHandler) *Power {
	p.mu.Lock()
	p.set = h
	p.mu.Unlock()
	return p
}

// Bound reports whether both handlers are installed
func (p *Power) Bound() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.get != nil && p.set != nil
}

// Get asks the bound handler for the current state. done is called exactly once.
func (p *Power) Get(done func(on bool, err error)) {
	p.mu.Lock()
	h := p.get
	p.mu.Unlock()

	if h == nil {
		done(false, ErrNoHandler)
		return
	}
	h(done)
}

// Set asks the bound handler to switch the outlet. done is called exactly once.
func (p *Power) Set(on bool, done func(err error)) {
	p.mu.Lock()
	h := p.set
	p.mu.Unlock()

	if h == nil {
		done(ErrNoHandler)
		return
	}
	h(on, done)
}

// GetSync is Get for callers without a callback of their own
func (p *Power) GetSync() (bool, error) {
	type result struct {
		on  bool
		err error
	}
	ch := make(chan result, 1)
	p.Get(func(on bool, err error) {
		ch <- result{on, err}
	})
	r := <-ch
	return r.on, r.err
}

// SetSync is Set for callers without a callback of their own
func (p *Power) SetSync(on bool) error {
	ch := make(chan error, 1)
	p.Set(on, func(err error) {
		ch <- err
	})
	return <-ch
}

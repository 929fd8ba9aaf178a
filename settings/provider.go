package settings

import (
	"errors"
	"sync"
)

// ErrInvalidValue is returned when a setting can not be parsed
var ErrInvalidValue = errors.New("invalid setting value")

// Change describes one effective settings change
type Change struct {
	// Fields that changed
	Fields []Field
	// Previous and Current settings
	Previous Settings
	Current  Settings
}

// Has reports whether field is part of the change
func (c Change) Has(field Field) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

type subscriber struct {
	id int
	fn func(Change)
}

// Provider holds the current settings.  Changes may come from any goroutine,
// subscribers are called on the goroutine making the change after the
// provider lock is released
type Provider struct {
	current Settings
	subs    []subscriber
	nextID  int
	sync.Mutex
}

// NewProvider returns a provider holding the initial settings
func NewProvider(initial Settings) *Provider {
	return &Provider{
		current: initial,
	}
}

// Get returns the current settings
func (p *Provider) Get() Settings {
	p.Lock()
	defer p.Unlock()

	return p.current
}

// Set replaces the settings, subscribers are notified only when at least
// one field changed
func (p *Provider) Set(s Settings) {
	p.Update(func(cur *Settings) {
		*cur = s
	})
}

// Update applies fn to a copy of the current settings and stores the result.
// fn runs under the provider lock so concurrent updates never overwrite each
// other, it must not call back into the provider
func (p *Provider) Update(fn func(*Settings)) {

	p.Lock()

	prev := p.current
	next := prev
	fn(&next)

	fields := prev.Diff(next)

	if len(fields) == 0 {
		p.Unlock()
		return
	}

	p.current = next

	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)

	p.Unlock()

	change := Change{
		Fields:   fields,
		Previous: prev,
		Current:  next,
	}

	for _, sub := range subs {
		sub.fn(change)
	}
}

// SetLayerBudget changes the layer budget
func (p *Provider) SetLayerBudget(b LayerBudget) {
	p.Update(func(s *Settings) {
		s.LayerBudget = b
	})
}

// SetThreshold changes the confidence threshold
func (p *Provider) SetThreshold(t Threshold) {
	p.Update(func(s *Settings) {
		s.Threshold = t
	})
}

// Subscribe registers fn to be called on every change.  The returned func
// removes the subscription
func (p *Provider) Subscribe(fn func(Change)) (unsubscribe func()) {
	p.Lock()
	defer p.Unlock()

	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscriber{id: id, fn: fn})

	return func() {
		p.Lock()
		defer p.Unlock()

		for i, sub := range p.subs {
			if sub.id == id {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

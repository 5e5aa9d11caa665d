// internal/domain/identity/provider.go
package identity

import "sync"

// Identity describes the signed-in shopper for one session.
type Identity struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// Provider exposes the current identity of a session and change
// notifications. The cart engine subscribes to drive its mode
// transitions.
type Provider interface {
	Current() *Identity
	Subscribe(fn func(*Identity)) (unsubscribe func())
}

// SessionProvider is a session-scoped mutable identity holder.
// One instance is created per storefront session and torn down with
// it; nothing is shared across sessions.
type SessionProvider struct {
	mu      sync.Mutex
	current *Identity
	subs    map[int]func(*Identity)
	nextID  int
}

// NewSessionProvider creates an empty (anonymous) identity provider.
func NewSessionProvider() *SessionProvider {
	return &SessionProvider{
		subs: make(map[int]func(*Identity)),
	}
}

// Current returns the current identity, or nil when anonymous.
func (p *SessionProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// Set replaces the current identity and notifies subscribers.
// Passing nil is equivalent to Clear.
func (p *SessionProvider) Set(id *Identity) {
	p.mu.Lock()
	if id == nil {
		p.current = nil
	} else {
		copied := *id
		p.current = &copied
	}
	fns := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the
	// provider.
	for _, fn := range fns {
		fn(id)
	}
}

// Clear drops the current identity and notifies subscribers.
func (p *SessionProvider) Clear() {
	p.Set(nil)
}

// Subscribe registers a callback invoked on every identity change.
// The returned function removes the subscription.
func (p *SessionProvider) Subscribe(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

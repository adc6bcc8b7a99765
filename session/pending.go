package session

import "sync"

// PendingDestination remembers the route a user tried to reach before
// being sent to the login page. It is consume-once: the first successful
// login reads and discards it.
type PendingDestination struct {
	mu    sync.Mutex
	route string
}

// Set records the attempted route, replacing any previous one.
func (p *PendingDestination) Set(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.route = route
}

// Consume returns the recorded route and clears it. The boolean reports
// whether a route was set.
func (p *PendingDestination) Consume() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	route := p.route
	p.route = ""
	return route, route != ""
}

// Peek returns the recorded route without consuming it.
func (p *PendingDestination) Peek() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.route, p.route != ""
}

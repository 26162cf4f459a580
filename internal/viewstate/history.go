package viewstate

import (
	"net/url"
	"sync"
)

// Address is a navigable location holding the section query parameter.
// Subscribers hear only navigation the program did not cause itself
// (reload, deep link, back, forward); Push never notifies.
type Address interface {
	Current() *url.URL
	Push(u *url.URL)
	Subscribe(fn func(*url.URL)) (cancel func())
}

// History is an in-memory Address with back and forward stacks
type History struct {
	mu      sync.Mutex
	back    []*url.URL
	current *url.URL
	forward []*url.URL
	subs    map[int]func(*url.URL)
	nextID  int
}

// NewHistory creates a history positioned at initial
func NewHistory(initial *url.URL) *History {
	if initial == nil {
		initial, _ = url.Parse(DefaultAddress)
	}
	return &History{
		current: clone(initial),
		subs:    make(map[int]func(*url.URL)),
	}
}

// Current returns a copy of the current address
func (h *History) Current() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.current)
}

// Push records u as a new entry without notifying subscribers
func (h *History) Push(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if u.String() == h.current.String() {
		return
	}
	h.back = append(h.back, h.current)
	h.current = clone(u)
	h.forward = nil
}

// Subscribe registers fn for external navigation
func (h *History) Subscribe(fn func(*url.URL)) (cancel func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Load navigates to u as if it were typed or reloaded
func (h *History) Load(u *url.URL) {
	h.mu.Lock()
	if u.String() != h.current.String() {
		h.back = append(h.back, h.current)
		h.current = clone(u)
		h.forward = nil
	}
	h.mu.Unlock()

	h.notify()
}

// Back moves to the previous entry. It reports false when there is none.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.back) == 0 {
		h.mu.Unlock()
		return false
	}
	h.forward = append(h.forward, h.current)
	h.current = h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.mu.Unlock()

	h.notify()
	return true
}

// Forward moves to the next entry. It reports false when there is none.
func (h *History) Forward() bool {
	h.mu.Lock()
	if len(h.forward) == 0 {
		h.mu.Unlock()
		return false
	}
	h.back = append(h.back, h.current)
	h.current = h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.mu.Unlock()

	h.notify()
	return true
}

// CanBack reports whether Back would move
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.back) > 0
}

// CanForward reports whether Forward would move
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.forward) > 0
}

func (h *History) notify() {
	h.mu.Lock()
	current := clone(h.current)
	subs := make([]func(*url.URL), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(current)
	}
}

func clone(u *url.URL) *url.URL {
	c := *u
	return &c
}

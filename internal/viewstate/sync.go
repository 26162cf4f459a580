package viewstate

import (
	"net/url"
	"sync"
)

// Synchronizer holds the selected section and keeps it in step with an Address.
// Select writes the address; external navigation rewrites only the selection.
type Synchronizer struct {
	mu        sync.Mutex
	section   Section
	addr      Address
	cancel    func()
	listeners map[int]func(Section)
	nextID    int
}

var (
	instance *Synchronizer
	once     sync.Once
)

// Get returns the process-wide synchronizer
func Get() *Synchronizer {
	once.Do(func() {
		instance = NewSynchronizer()
	})
	return instance
}

// NewSynchronizer creates an unmounted synchronizer selecting Overview
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		section:   Overview,
		listeners: make(map[int]func(Section)),
	}
}

// Mount attaches the synchronizer to addr and derives the selection from it.
// A previous address is detached first.
func (s *Synchronizer) Mount(addr Address) Section {
	s.Unmount()

	cancel := addr.Subscribe(s.navigated)

	s.mu.Lock()
	s.addr = addr
	s.cancel = cancel
	changed := s.setLocked(FromAddress(addr.Current()))
	section := s.section
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if changed {
		notify(listeners, section)
	}
	return section
}

// Unmount detaches from the current address; the selection is kept
func (s *Synchronizer) Unmount() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.addr = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Section returns the current selection
func (s *Synchronizer) Section() Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section
}

// Address returns the mounted address rendered as a string, or "" when unmounted
func (s *Synchronizer) Address() string {
	s.mu.Lock()
	addr := s.addr
	s.mu.Unlock()

	if addr == nil {
		return ""
	}
	return addr.Current().String()
}

// Select makes sec the current section and pushes the rewritten address
func (s *Synchronizer) Select(sec Section) {
	sec = ParseSection(string(sec))

	s.mu.Lock()
	changed := s.setLocked(sec)
	addr := s.addr
	listeners := s.listenersLocked()
	s.mu.Unlock()

	// Compare the raw tab so an unknown or missing value is rewritten to the
	// canonical one even when it already resolves to sec
	if addr != nil && addr.Current().Query().Get(QueryKey) != string(sec) {
		addr.Push(WithSection(addr.Current(), sec))
	}
	if changed {
		notify(listeners, sec)
	}
}

// OnChange registers fn to be called with the new section after every change
func (s *Synchronizer) OnChange(fn func(Section)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// navigated pulls the selection into agreement with an externally changed
// address. The address is never written back from here.
func (s *Synchronizer) navigated(u *url.URL) {
	sec := FromAddress(u)

	s.mu.Lock()
	changed := s.setLocked(sec)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if changed {
		notify(listeners, sec)
	}
}

func (s *Synchronizer) setLocked(sec Section) bool {
	if s.section == sec {
		return false
	}
	s.section = sec
	return true
}

func (s *Synchronizer) listenersLocked() []func(Section) {
	out := make([]func(Section), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Section), sec Section) {
	for _, fn := range listeners {
		fn(sec)
	}
}

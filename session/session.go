package session

import (
	"sync"

	"alightgram/model"
)

type listener struct {
	id int
	fn func(*models.Principal)
}

// AuthState is the per-connection sign-in state. Listeners are called in
// subscription order with the current principal on subscribe and again on
// every change, nil meaning signed out.
type AuthState struct {
	mu        sync.Mutex
	principal *models.Principal
	listeners []listener
	nextID    int
}

func NewAuthState() *AuthState {
	return &AuthState{}
}

func (a *AuthState) Current() *models.Principal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.principal
}

// Subscribe registers fn and returns the function that removes it.
func (a *AuthState) Subscribe(fn func(*models.Principal)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners = append(a.listeners, listener{id: id, fn: fn})
	current := a.principal
	a.mu.Unlock()

	fn(current)

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

func (a *AuthState) SignIn(p *models.Principal) {
	a.set(p)
}

func (a *AuthState) SignOut() {
	a.set(nil)
}

func (a *AuthState) set(p *models.Principal) {
	a.mu.Lock()
	a.principal = p
	fns := make([]func(*models.Principal), 0, len(a.listeners))
	for _, l := range a.listeners {
		fns = append(fns, l.fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// Session ties a connection's auth state to its view: signing in opens the
// feed and signing out returns to AUTH from wherever the view was.
type Session struct {
	ID    string
	Auth  *AuthState
	View  *Machine
	Theme string

	unsubscribe func()
}

func New(id, theme string) *Session {
	s := &Session{
		ID:    id,
		Auth:  NewAuthState(),
		View:  NewMachine(),
		Theme: theme,
	}
	s.unsubscribe = s.Auth.Subscribe(s.follow)
	return s
}

func (s *Session) follow(p *models.Principal) {
	cur := s.View.Current()
	switch {
	case p != nil && cur.State == StateAuth:
		_, _ = s.View.Fire(EventSignedIn, p.UID)
	case p != nil && cur.UID != p.UID:
		_, _ = s.View.Fire(EventSignedOut, "")
		_, _ = s.View.Fire(EventSignedIn, p.UID)
	case p == nil && cur.State != StateAuth:
		_, _ = s.View.Fire(EventSignedOut, "")
	}
}

func (s *Session) Close() {
	s.unsubscribe()
}

package authsync

import "sync"

// State is the application-wide view of the current session.
type State struct {
	IsAuthenticated bool
	Token           string
	Email           string
	Name            string
	Role            string
	IsHost          bool
}

func (s State) User() *User {
	if !s.IsAuthenticated {
		return nil
	}
	return &User{Email: s.Email, Name: s.Name, Role: s.Role, IsHost: s.IsHost}
}

func stateFromRecord(rec Record) State {
	return State{
		IsAuthenticated: true,
		Token:           rec.Token,
		Email:           rec.Email,
		Name:            rec.Name,
		Role:            rec.Role,
		IsHost:          rec.IsHost,
	}
}

// AuthState holds the current State. The Synchronizer is its only writer.
type AuthState struct {
	mu    sync.RWMutex
	state State
}

func NewAuthState() *AuthState {
	return &AuthState{}
}

func (a *AuthState) Load() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *AuthState) Store(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *AuthState) Reset() {
	a.Store(State{})
}

package httpapi

import (
	"sync"
	"sync/atomic"

	"github.com/hiapplyco/apply-codes-sub006/internal/interview"
)

// SessionRegistry tracks live interview sessions by session id and supports
// graceful draining. When draining is enabled, new sessions are rejected
// while in-flight interviews finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic in Add(), so no
// session can slip in between StartDraining and Wait.
type SessionRegistry struct {
	mu       sync.Mutex
	draining bool
	engines  map[string]*interview.Engine
	wg       sync.WaitGroup
	count    atomic.Int64
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{engines: make(map[string]*interview.Engine)}
}

// Add registers a live session. Returns false if the registry is draining or
// the id is already registered, meaning the connection should be refused.
func (sr *SessionRegistry) Add(sessionID string, e *interview.Engine) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.draining {
		return false
	}
	if _, exists := sr.engines[sessionID]; exists {
		return false
	}
	sr.engines[sessionID] = e
	sr.wg.Add(1)
	sr.count.Add(1)
	return true
}

// Remove unregisters a session. Must be called exactly once per successful Add.
func (sr *SessionRegistry) Remove(sessionID string) {
	sr.mu.Lock()
	_, exists := sr.engines[sessionID]
	delete(sr.engines, sessionID)
	sr.mu.Unlock()
	if exists {
		sr.count.Add(-1)
		sr.wg.Done()
	}
}

// Get returns the engine for a live session, or nil.
func (sr *SessionRegistry) Get(sessionID string) *interview.Engine {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.engines[sessionID]
}

// StartDraining sets the draining flag so that future Add calls return false
// and closes every live engine so clients disconnect promptly.
func (sr *SessionRegistry) StartDraining() {
	sr.mu.Lock()
	sr.draining = true
	engines := make([]*interview.Engine, 0, len(sr.engines))
	for _, e := range sr.engines {
		engines = append(engines, e)
	}
	sr.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
}

// IsDraining reports whether the registry is in draining mode.
func (sr *SessionRegistry) IsDraining() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.draining
}

// ActiveCount returns the number of currently live sessions.
func (sr *SessionRegistry) ActiveCount() int64 {
	return sr.count.Load()
}

// Wait blocks until every live session has been removed.
func (sr *SessionRegistry) Wait() {
	sr.wg.Wait()
}

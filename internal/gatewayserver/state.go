package gatewayserver

import (
	"sync"
	"time"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
)

// state holds the current engine snapshot. Handlers read it once per
// request; reloads swap it whole.
type state struct {
	mu        sync.RWMutex
	engine    *hateoas.Engine
	loadedAt  time.Time
	startedAt time.Time
}

func newState(e *hateoas.Engine) *state {
	now := time.Now()
	return &state{engine: e, loadedAt: now, startedAt: now}
}

func (s *state) Engine() *hateoas.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *state) SetEngine(e *hateoas.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = e
	s.loadedAt = time.Now()
}

func (s *state) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *state) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

package sampleapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	Title *string `json:"title"`
}

type Thought struct {
	ThoughtID   uuid.UUID `json:"thoughtId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Description *string   `json:"description"`
	Topic       *Topic    `json:"topic"`
	Places      []string  `json:"places"`
}

// PlacesAvailable is derived from Places and is read-only in the API.
func (t Thought) PlacesAvailable() bool { return len(t.Places) >= 1 }

type NewThought struct {
	Description *string  `json:"description"`
	Places      []string `json:"places,omitempty"`
}

type ThoughtCreated struct {
	ID uuid.UUID `json:"id"`
}

type ThoughtList struct {
	Thoughts []thoughtView `json:"thoughts"`
	Total    int           `json:"total"`
}

// thoughtView is the wire form of Thought.
type thoughtView struct {
	Thought
	PlacesAvailable bool `json:"placesAvailable"`
}

func view(t Thought) thoughtView {
	return thoughtView{Thought: t, PlacesAvailable: t.PlacesAvailable()}
}

// Store keeps thoughts and topics in memory.
type Store struct {
	mu       sync.RWMutex
	thoughts map[uuid.UUID]Thought
	order    []uuid.UUID
	topics   map[string]Topic
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		thoughts: map[uuid.UUID]Thought{},
		topics:   map[string]Topic{},
		now:      time.Now,
	}
}

// NewSeededStore returns a store holding the two demo thoughts, the second
// filed under the "Misc" topic.
func NewSeededStore() *Store {
	s := NewStore()
	misc := "Misc"
	s.AddTopic(Topic{Title: &misc})
	s.Add(NewThought{Description: strPtr("Create new HATEOAS impl,")})
	t := s.Add(NewThought{Description: strPtr("Do not mess it up")})
	s.SetTopic(t.ThoughtID, "Misc")
	return s
}

func strPtr(s string) *string { return &s }

func (s *Store) AddTopic(t Topic) {
	if t.Title == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[*t.Title] = t
}

func (s *Store) Topic(title string) (Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[title]
	return t, ok
}

func (s *Store) Add(in NewThought) Thought {
	t := Thought{
		ThoughtID:   uuid.New(),
		OccurredAt:  s.now().UTC(),
		Description: in.Description,
		Places:      append([]string(nil), in.Places...),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thoughts[t.ThoughtID] = t
	s.order = append(s.order, t.ThoughtID)
	return t
}

// SetTopic files a thought under an existing topic.
func (s *Store) SetTopic(id uuid.UUID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.thoughts[id]
	if !ok {
		return false
	}
	topic, ok := s.topics[title]
	if !ok {
		return false
	}
	t.Topic = &topic
	s.thoughts[id] = t
	return true
}

func (s *Store) Get(id uuid.UUID) (Thought, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.thoughts[id]
	return t, ok
}

// Delete removes a thought and returns how many were removed.
func (s *Store) Delete(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.thoughts[id]; !ok {
		return 0
	}
	delete(s.thoughts, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1
}

// List returns all thoughts in insertion order.
func (s *Store) List() []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Thought, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.thoughts[id])
	}
	return out
}

package agrivaani

import (
	"context"
	"sort"
	"sync"
)

// memoryConversationStore is an in-memory message log.
type memoryConversationStore struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemoryConversationStore creates an in-memory conversation store.
func NewMemoryConversationStore() ConversationStore {
	return &memoryConversationStore{}
}

func (s *memoryConversationStore) Append(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	return nil
}

func (s *memoryConversationStore) Recent(ctx context.Context, n int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.ordered()
	if n > 0 && len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered, nil
}

func (s *memoryConversationStore) All(ctx context.Context) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ordered(), nil
}

func (s *memoryConversationStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	return nil
}

// ordered returns a copy sorted by CreatedAt. Concurrent appends may land
// out of arrival order; the timestamp defines the ordering.
func (s *memoryConversationStore) ordered() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// memoryFactStore is an in-memory fact store.
type memoryFactStore struct {
	mu    sync.RWMutex
	facts []Fact
}

// NewMemoryFactStore creates an in-memory memory store.
func NewMemoryFactStore() MemoryStore {
	return &memoryFactStore{}
}

func (s *memoryFactStore) Append(ctx context.Context, fact Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = append(s.facts, fact)
	return nil
}

func (s *memoryFactStore) All(ctx context.Context) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Fact, len(s.facts))
	copy(out, s.facts)
	return out, nil
}

func (s *memoryFactStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = nil
	return nil
}

// storePair resets both in-memory stores together.
type storePair struct {
	conversations ConversationStore
	facts         MemoryStore
}

// NewStorePair bundles a conversation and memory store into a Resetter.
// In-memory clears cannot fail, so sequential clearing is atomic enough; the
// postgres store provides a transactional Reset instead.
func NewStorePair(conversations ConversationStore, facts MemoryStore) Resetter {
	return &storePair{conversations: conversations, facts: facts}
}

func (p *storePair) Reset(ctx context.Context) error {
	if err := p.conversations.Clear(ctx); err != nil {
		return NewPersistenceError("clearing conversation", err)
	}
	if err := p.facts.Clear(ctx); err != nil {
		return NewPersistenceError("clearing memory", err)
	}
	return nil
}

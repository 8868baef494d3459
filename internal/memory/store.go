package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CustomerStore loads and persists customer memory. Implementations
// must never let a persistence failure crash turn processing; callers
// log and continue.
type CustomerStore interface {
	GetOrCreate(ctx context.Context, customerID, name string) (*CustomerMemory, error)
	Save(ctx context.Context, mem *CustomerMemory) error
}

// SessionStore tracks live sessions.
type SessionStore interface {
	Create(ctx context.Context, sessionID, customerID string) (*SessionMemory, error)
	Get(ctx context.Context, sessionID string) (*SessionMemory, error)
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryCustomerStore keeps customer memory in a map. Data is lost on
// service restart - for persistence, use a database-backed store.
type InMemoryCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*CustomerMemory
}

// NewInMemoryCustomerStore creates an empty customer store.
func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{customers: make(map[string]*CustomerMemory)}
}

// GetOrCreate returns a copy of the stored memory, creating it on first
// access. Copies keep callers from mutating store state without Save.
func (s *InMemoryCustomerStore) GetOrCreate(ctx context.Context, customerID, name string) (*CustomerMemory, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mem, exists := s.customers[customerID]
	if !exists {
		mem = NewCustomerMemory(customerID, name)
		s.customers[customerID] = mem
	}
	return copyCustomerMemory(mem), nil
}

// Save stores a copy of the given memory.
func (s *InMemoryCustomerStore) Save(ctx context.Context, mem *CustomerMemory) error {
	if mem == nil || mem.CustomerID == "" {
		return fmt.Errorf("customer ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[mem.CustomerID] = copyCustomerMemory(mem)
	return nil
}

func copyCustomerMemory(mem *CustomerMemory) *CustomerMemory {
	out := *mem
	out.Goals = append([]GoalRecord(nil), mem.Goals...)
	out.SessionSummaries = append([]string(nil), mem.SessionSummaries...)
	out.Preferences = make(map[string]string, len(mem.Preferences))
	for k, v := range mem.Preferences {
		out.Preferences[k] = v
	}
	return &out
}

// InMemorySessionStore keeps live sessions in a map. Unlike customer
// memory, a session is owned by a single conversation, so Get returns
// the live instance rather than a copy.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionMemory
	now      func() time.Time
}

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*SessionMemory),
		now:      time.Now,
	}
}

// Create registers a new session.
func (s *InMemorySessionStore) Create(ctx context.Context, sessionID, customerID string) (*SessionMemory, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return nil, fmt.Errorf("session already exists: %s", sessionID)
	}
	session := NewSessionMemory(sessionID, customerID, s.now())
	s.sessions[sessionID] = session
	return session, nil
}

// Get retrieves a live session by ID.
func (s *InMemorySessionStore) Get(ctx context.Context, sessionID string) (*SessionMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// Delete destroys a session's state at session end.
func (s *InMemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

var (
	_ CustomerStore = (*InMemoryCustomerStore)(nil)
	_ SessionStore  = (*InMemorySessionStore)(nil)
)

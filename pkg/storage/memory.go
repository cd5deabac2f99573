package storage

import (
	"context"
	"strings"
	"sync"
)

// Object is a stored blob with its options
type Object struct {
	Data    []byte
	Options ObjectOptions
}

// MemoryStore keeps objects in process memory. Used for local development
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemoryStore creates an empty store whose public URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, key string, data []byte, opts ObjectOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{
		Data:    append([]byte(nil), data...),
		Options: opts,
	}
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return m.baseURL + "/" + escapeKey(key)
}

// Get returns the object stored at key
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

package storage

import (
	"context"
	"sync"
)

// MemoryObject is an object held by a MemoryStore.
type MemoryObject struct {
	Body        []byte
	ContentType string
}

// MemoryStore keeps objects in process memory. It backs BLOB_DRIVER=memory
// and tests.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]MemoryObject
}

// NewMemoryStore returns an empty store whose URLs are rooted at baseURL + "/blobs".
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]MemoryObject)}
}

func (m *MemoryStore) PutObject(_ context.Context, bucket, object string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+object] = MemoryObject{
		Body:        append([]byte(nil), body...),
		ContentType: contentType,
	}
	return publicURL(m.baseURL+"/blobs", bucket, object), nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(bucket, object string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+object]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

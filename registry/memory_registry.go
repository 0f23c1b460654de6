package registry

import (
	"context"
	"sort"
	"sync"

	"rosrpc/schema"
	"rosrpc/service"
)

// MemoryRegistry is an in-process Registry. It is safe for concurrent use.
type MemoryRegistry struct {
	mu       sync.RWMutex
	messages map[string]*schema.Schema
	services map[string]*service.Descriptor
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		messages: make(map[string]*schema.Schema),
		services: make(map[string]*service.Descriptor),
	}
}

func (r *MemoryRegistry) RegisterMessage(_ context.Context, s *schema.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.messages[s.Name()]; ok {
		if old.Token() != s.Token() {
			return &ConflictError{Kind: KindMessage, Type: s.Name(), Existing: old.Token(), Incoming: s.Token()}
		}
		return nil
	}
	r.messages[s.Name()] = s
	return nil
}

func (r *MemoryRegistry) RegisterService(_ context.Context, d *service.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.services[d.Name()]; ok {
		if old.Token() != d.Token() {
			return &ConflictError{Kind: KindService, Type: d.Name(), Existing: old.Token(), Incoming: d.Token()}
		}
		return nil
	}
	r.services[d.Name()] = d
	return nil
}

func (r *MemoryRegistry) Message(_ context.Context, typeName string) (*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.messages[typeName]
	if !ok {
		return nil, notFound(KindMessage, typeName)
	}
	return s, nil
}

func (r *MemoryRegistry) Service(_ context.Context, typeName string) (*service.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.services[typeName]
	if !ok {
		return nil, notFound(KindService, typeName)
	}
	return d, nil
}

// Messages returns the registered message type names, sorted.
func (r *MemoryRegistry) Messages(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.messages), nil
}

// Services returns the registered service type names, sorted.
func (r *MemoryRegistry) Services(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.services), nil
}

// forget drops one entry; the etcd registry uses it to invalidate its cache.
func (r *MemoryRegistry) forget(kind Kind, typeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case KindMessage:
		delete(r.messages, typeName)
	case KindService:
		delete(r.services, typeName)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

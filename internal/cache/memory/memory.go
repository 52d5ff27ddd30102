package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/visualright/filterlab/internal/cache"
)

// Provider implements an in-memory cache bounded by the total size of the stored objects
// When full, the least recently used objects are evicted first
type Provider struct {
	maxBytes int
	size     int
	entries  map[string]*list.Element
	order    *list.List
	mutex    sync.Mutex
}

type entry struct {
	key  string
	data []byte
}

// New returns a new Provider instance, a maxBytes of zero or less means unbounded
func New(maxBytes int) *Provider {
	return &Provider{
		maxBytes: maxBytes,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	element, exists := p.entries[key]
	if !exists {
		return nil, cache.ErrNotFound
	}

	p.order.MoveToFront(element)
	return element.Value.(*entry).data, nil
}

// Set adds an object to the cache
// Objects larger than the whole cache are silently dropped
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if element, exists := p.entries[key]; exists {
		p.remove(element)
	}

	if p.maxBytes > 0 && len(data) > p.maxBytes {
		return nil
	}

	p.entries[key] = p.order.PushFront(&entry{key: key, data: data})
	p.size += len(data)

	for p.maxBytes > 0 && p.size > p.maxBytes {
		p.remove(p.order.Back())
	}

	return nil
}

// Len returns the number of cached objects
func (p *Provider) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.entries)
}

func (p *Provider) remove(element *list.Element) {
	e := p.order.Remove(element).(*entry)
	delete(p.entries, e.key)
	p.size -= len(e.data)
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}

package cache

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a weighted least recently used cache. Each entry carries a weight
// and the least recently used entries are evicted once the total weight
// exceeds the budget.
type Cache interface {
	GetWeight() int
	GetBudget() int

	// Insert adds a new entry. ErrKeyExists is returned if the key is
	// already cached.
	Insert(key string, value interface{}, weight int) error

	// Retrieve returns the cached value and marks the entry as most recently
	// used.
	Retrieve(key string) (interface{}, bool)

	Clear()
}

type entry struct {
	key    string
	value  interface{}
	weight int
}

type cache struct {
	log *logrus.Entry

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
	weight  int
	budget  int
}

// NewCache returns an empty cache that holds entries up to budget total weight.
func NewCache(budget int) Cache {
	return &cache{
		log:     logrus.StandardLogger().WithField("type", "cache"),
		order:   list.New(),
		entries: make(map[string]*list.Element),
		budget:  budget,
	}
}

func (c *cache) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) Insert(key string, value interface{}, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return ErrKeyExists
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value, weight: weight})
	c.weight += weight

	for c.weight > c.budget {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}

		evicted := c.order.Remove(oldest).(*entry)
		delete(c.entries, evicted.key)
		c.weight -= evicted.weight

		c.log.WithFields(logrus.Fields{
			"weight": evicted.weight,
			"spare":  c.budget - c.weight,
		}).Trace("evicted entry")
	}

	return nil
}

func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*entry).value, true
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.weight = 0
}

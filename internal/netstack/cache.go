package netstack

import (
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip"
)

// Cache maps IPv4 protocol addresses to the link-layer address last
// observed for them, the way a guest kernel's neighbor table does.
// Entries never expire here; eviction policy belongs to whatever owns the
// cache's lifetime.
type Cache struct {
	mu      sync.RWMutex
	entries map[tcpip.Address]tcpip.LinkAddress
}

// NewCache returns an empty ARP cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[tcpip.Address]tcpip.LinkAddress)}
}

// Insert records or overwrites the link address learned for protoAddr.
func (c *Cache) Insert(protoAddr tcpip.Address, linkAddr tcpip.LinkAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[protoAddr] = linkAddr
}

// Lookup returns the link address cached for protoAddr, if any.
func (c *Cache) Lookup(protoAddr tcpip.Address) (tcpip.LinkAddress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	linkAddr, ok := c.entries[protoAddr]
	return linkAddr, ok
}

// Delete removes any entry cached for protoAddr.
func (c *Cache) Delete(protoAddr tcpip.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, protoAddr)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

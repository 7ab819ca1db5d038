// Package cache defines the opaque memory content cache collaborator and
// provides MemCache, an in-memory reference implementation usable both in
// tests and as the backing store for internal/netface.
package cache

import (
	"sync"

	enc "github.com/named-data/ndnd/std/encoding"

	"github.com/ndnvc/publisher/internal/face"
	"github.com/ndnvc/publisher/media"
)

// PendingInterest exposes an interest the cache could not immediately
// satisfy, and when it was received, for generation-delay accounting.
type PendingInterest struct {
	Interest face.Interest
}

// ReceivedAtMS returns the pending interest's receipt timestamp.
func (p PendingInterest) ReceivedAtMS() int64 { return p.Interest.ReceivedAtMS }

// Cache is the opaque packet-level content store. It is optional: the
// publisher works without one, just skipping mirroring and generation
// delay computation.
type Cache interface {
	// Add inserts a packet the publisher just produced.
	Add(pkt media.Packet)
	// SetInterestFilter binds cb to reactive requests under prefix.
	SetInterestFilter(prefix enc.Name, cb face.InterestCallback)
	// GetPendingInterestsForName returns outstanding interests exactly
	// matching name, oldest first.
	GetPendingInterestsForName(name enc.Name) []PendingInterest
}

type filterEntry struct {
	prefix enc.Name
	cb     face.InterestCallback
}

// MemCache is a simple in-memory reference Cache. It also plays the role
// of interest dispatcher for a Face implementation: OnInterest routes an
// incoming interest to a matching filter callback, satisfies it from the
// store if cached, or else records it as pending.
type MemCache struct {
	mu      sync.Mutex
	packets map[string]media.Packet
	filters []filterEntry
	pending map[string][]PendingInterest
}

// NewMemCache creates an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{
		packets: make(map[string]media.Packet),
		pending: make(map[string][]PendingInterest),
	}
}

// Add stores pkt, keyed by its name, and drops any pending interests for
// that exact name (they are now satisfiable on next lookup).
func (c *MemCache) Add(pkt media.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := pkt.Name.String()
	c.packets[key] = pkt
	delete(c.pending, key)
}

// SetInterestFilter registers cb for interests under prefix.
func (c *MemCache) SetInterestFilter(prefix enc.Name, cb face.InterestCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, filterEntry{prefix: prefix, cb: cb})
}

// GetPendingInterestsForName returns pending interests exactly matching name.
func (c *MemCache) GetPendingInterestsForName(name enc.Name) []PendingInterest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingInterest, len(c.pending[name.String()]))
	copy(out, c.pending[name.String()])
	return out
}

// Lookup returns the cached packet for an exact name, if present.
func (c *MemCache) Lookup(name enc.Name) (media.Packet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt, ok := c.packets[name.String()]
	return pkt, ok
}

// OnInterest routes an incoming interest: to a matching registered
// filter, to a cached packet, or else records it pending. f is used by
// the matched filter callback (if any) to send its reply.
func (c *MemCache) OnInterest(it face.Interest, f face.Face) {
	c.mu.Lock()
	var matched *filterEntry
	for i := range c.filters {
		if isPrefixOf(c.filters[i].prefix, it.Name) {
			matched = &c.filters[i]
			break
		}
	}
	if matched == nil {
		if pkt, ok := c.packets[it.Name.String()]; ok {
			c.mu.Unlock()
			f.PutData(pkt)
			return
		}
		key := it.Name.String()
		c.pending[key] = append(c.pending[key], PendingInterest{Interest: it})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	matched.cb(it, f)
}

func isPrefixOf(prefix, name enc.Name) bool {
	if len(prefix) > len(name) {
		return false
	}
	for i := range prefix {
		if prefix[i].Compare(name[i]) != 0 {
			return false
		}
	}
	return true
}

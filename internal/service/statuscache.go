package service

import (
	"sync"

	"spacloud/internal/models"
)

// MergeOutcome reports what the cache did with a polled snapshot.
type MergeOutcome int

const (
	MergeAccepted MergeOutcome = iota
	MergeRejectedOffline
	MergeRejectedStale
)

func (o MergeOutcome) String() string {
	switch o {
	case MergeAccepted:
		return "accepted"
	case MergeRejectedOffline:
		return "rejected_offline"
	case MergeRejectedStale:
		return "rejected_stale"
	}
	return "unknown"
}

// ApplyOutcome reports what the cache did with a command-side mutation.
type ApplyOutcome int

const (
	ApplyUpdated ApplyOutcome = iota
	ApplyNotFound
	ApplyWrongType
)

func (o ApplyOutcome) String() string {
	switch o {
	case ApplyUpdated:
		return "updated"
	case ApplyNotFound:
		return "not_found"
	case ApplyWrongType:
		return "wrong_type"
	}
	return "unknown"
}

// cacheEntry carries one device's status under its own lock, so updates for
// different devices never wait on each other. st is nil until the first
// accepted snapshot.
type cacheEntry struct {
	mu sync.Mutex
	st models.DeviceStatus
}

// StatusCache holds the most recent known status per device and arbitrates
// between polled snapshots and locally applied command effects using the
// status timestamps. Later information wins; an equal timestamp also wins,
// because the cloud stamps with one-second resolution and a command landed in
// the same second as a poll must not be rolled back by it.
//
// The outer lock guards only the entry map; each read-decide-replace runs
// under the entry's own lock. Statuses handed to MergeFromPoll become owned
// by the cache. Statuses returned from Read and Snapshot are clones the
// caller may keep.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func NewStatusCache() *StatusCache {
	return &StatusCache{entries: make(map[string]*cacheEntry)}
}

func (c *StatusCache) lookup(deviceID string) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[deviceID]
	return e, ok
}

func (c *StatusCache) lookupOrCreate(deviceID string) *cacheEntry {
	if e, ok := c.lookup(deviceID); ok {
		return e
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[deviceID]; ok {
		return e
	}
	e := &cacheEntry{}
	c.entries[deviceID] = e
	return e
}

// Read returns a copy of the cached status, or false when the device has
// never produced an accepted snapshot.
func (c *StatusCache) Read(deviceID string) (models.DeviceStatus, bool) {
	e, ok := c.lookup(deviceID)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st == nil {
		return nil, false
	}
	return e.st.Clone(), true
}

// MergeFromPoll offers a polled snapshot to the cache. A zero timestamp marks
// an offline report and is always rejected without touching the stored
// status. A timestamp older than the stored one is rejected as stale.
func (c *StatusCache) MergeFromPoll(deviceID string, candidate models.DeviceStatus) MergeOutcome {
	if candidate.Timestamp() == 0 {
		return MergeRejectedOffline
	}

	e := c.lookupOrCreate(deviceID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st != nil && candidate.Timestamp() < e.st.Timestamp() {
		return MergeRejectedStale
	}
	e.st = candidate
	return MergeAccepted
}

// Apply runs a command-side mutation against the stored status and stamps it
// with now on success. mutate runs under the entry lock and must not block;
// it returns false when the stored status is not of the type it expects.
func (c *StatusCache) Apply(deviceID string, now int64, mutate func(models.DeviceStatus) bool) ApplyOutcome {
	e, ok := c.lookup(deviceID)
	if !ok {
		return ApplyNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == nil {
		return ApplyNotFound
	}
	if !mutate(e.st) {
		return ApplyWrongType
	}
	e.st.SetTimestamp(now)
	return ApplyUpdated
}

// Retain drops every entry whose device ID is not in keep. The reconciler
// calls it after a bindings refresh so unbound devices do not linger.
func (c *StatusCache) Retain(keep map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.entries {
		if _, ok := keep[id]; !ok {
			delete(c.entries, id)
		}
	}
}

// Snapshot returns a copy of every cached status keyed by device ID.
func (c *StatusCache) Snapshot() map[string]models.DeviceStatus {
	c.mu.RLock()
	refs := make(map[string]*cacheEntry, len(c.entries))
	for id, e := range c.entries {
		refs[id] = e
	}
	c.mu.RUnlock()

	out := make(map[string]models.DeviceStatus, len(refs))
	for id, e := range refs {
		e.mu.Lock()
		if e.st != nil {
			out[id] = e.st.Clone()
		}
		e.mu.Unlock()
	}
	return out
}

package auth

import (
	"sync"
	"time"
)

// Denylist tracks revoked token families until their refresh lifetime runs
// out. Logout on stateless JWTs works by revoking the family: both tokens of
// a pair carry the family id, and Validate consults the list. Entries expire
// on their own, so the list stays small and needs no persistence.
type Denylist struct {
	mu      sync.Mutex
	entries map[string]time.Time // tenantID + "/" + familyID -> expiry
	now     func() time.Time
}

// NewDenylist creates an empty denylist.
func NewDenylist() *Denylist {
	return &Denylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks a token family revoked until the given instant.
func (d *Denylist) Revoke(tenantID, familyID string, until time.Time) {
	if familyID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tenantID+"/"+familyID] = until
	d.prune()
}

// Revoked reports whether the family is currently revoked.
func (d *Denylist) Revoked(tenantID, familyID string) bool {
	if familyID == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.entries[tenantID+"/"+familyID]
	if !ok {
		return false
	}
	if d.now().After(until) {
		delete(d.entries, tenantID+"/"+familyID)
		return false
	}
	return true
}

// prune drops expired entries. Caller must hold the lock.
func (d *Denylist) prune() {
	now := d.now()
	for k, until := range d.entries {
		if now.After(until) {
			delete(d.entries, k)
		}
	}
}

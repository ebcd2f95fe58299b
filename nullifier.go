package trustauth

import (
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// NullifierRegistry is the set of consumed nullifiers. A nullifier,
// once consumed, cannot be consumed again; the only removal paths are
// garbage collection after the freshness window and the audited
// administrative revocation on AdminRegistry.
//
// A single in-process registry is adequate only for a single-node
// deployment: replay protection requires the consumed set to be
// globally consistent across every verifying instance.
type NullifierRegistry struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	consumed map[string]time.Time // hex nullifier -> firstSeenAt
}

// NewNullifierRegistry creates a registry. Zero window selects
// DefaultFreshnessWindow.
func NewNullifierRegistry(window time.Duration) *NullifierRegistry {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &NullifierRegistry{
		window:   window,
		now:      time.Now,
		consumed: make(map[string]time.Time),
	}
}

// Consume atomically marks a nullifier used. It returns true exactly
// once per nullifier: the check and the set are one operation under
// the registry lock, so two racing verifications cannot both observe
// "unused".
func (r *NullifierRegistry) Consume(nullifier []byte) bool {
	key := hex.EncodeToString(nullifier)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, used := r.consumed[key]; used {
		return false
	}
	r.consumed[key] = r.now()
	return true
}

// Seen reports whether a nullifier has been consumed
func (r *NullifierRegistry) Seen(nullifier []byte) bool {
	key := hex.EncodeToString(nullifier)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, used := r.consumed[key]
	return used
}

// Len returns the number of consumed nullifiers currently tracked
func (r *NullifierRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consumed)
}

// GC drops nullifiers older than the freshness window and returns how
// many were dropped. Entries still inside the window are never
// removed: a proof that old fails the expiry check anyway, so dropping
// the entry cannot reopen a replay.
func (r *NullifierRegistry) GC() int {
	cutoff := r.now().Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, firstSeen := range r.consumed {
		if firstSeen.Before(cutoff) {
			delete(r.consumed, key)
			removed++
		}
	}
	return removed
}

// remove is the revocation hook for AdminRegistry
func (r *NullifierRegistry) remove(nullifier []byte) bool {
	key := hex.EncodeToString(nullifier)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, used := r.consumed[key]; !used {
		return false
	}
	delete(r.consumed, key)
	return true
}

// AdminRegistry is the administrative handle over a registry. Revoking
// a consumed nullifier re-enables replay of its proof inside the
// freshness window, so the operation lives on this separate type,
// must name an operator and a reason, and is always audited. Normal
// verification code paths have no access to it.
type AdminRegistry struct {
	registry *NullifierRegistry
	audit    AuditEventHandler
	log      *slog.Logger
}

// NewAdminRegistry wraps a registry for administrative use
func NewAdminRegistry(registry *NullifierRegistry, audit AuditEventHandler, log *slog.Logger) *AdminRegistry {
	if audit == nil {
		audit = &NullAuditHandler{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &AdminRegistry{registry: registry, audit: audit, log: log}
}

// RevokeNullifier removes a consumed nullifier, re-admitting its
// proof. Fails with ErrNullifierUnknown if the nullifier was never
// consumed. The attempt is audited whether or not it succeeds.
func (a *AdminRegistry) RevokeNullifier(nullifier []byte, operator, reason string) error {
	if operator == "" || reason == "" {
		return ErrProofConfig.WithContext("reason", "revocation requires an operator and a reason")
	}

	event := NewAuditEvent(AuditEventNullifierRevoked).
		WithNullifier(hex.EncodeToString(nullifier)).
		WithMetadata("operator", operator).
		WithMetadata("reason", reason)

	if !a.registry.remove(nullifier) {
		err := ErrNullifierUnknown.WithContext("nullifier", hex.EncodeToString(nullifier))
		a.audit.OnNullifierRevocation(event.WithError(err).Build())
		return err
	}

	a.audit.OnNullifierRevocation(event.Build())
	a.log.Warn("nullifier revoked, replay window reopened",
		"operator", operator, "reason", reason)
	return nil
}

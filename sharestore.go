package trustauth

import (
	"sync"
)

// KeyShareStore holds shares addressed by (keyID, shareIndex) and
// supplies them to signers. Shares are immutable after creation and
// destroyed on key rotation. Implementations must be safe for
// concurrent use; a durable backend can replace the in-memory store in
// multi-instance deployments.
type KeyShareStore interface {
	PutShare(share *KeyShare) error
	GetShare(keyID string, index ShareIndex) (*KeyShare, error)
	SharesForKey(keyID string) []*KeyShare
	RotateKey(keyID string) int
}

// InMemoryShareStore keeps shares in a mutex-guarded map. Adequate for
// a single-node deployment.
type InMemoryShareStore struct {
	mu     sync.RWMutex
	shares map[string]map[ShareIndex]*KeyShare
	audit  AuditEventHandler
}

// NewInMemoryShareStore creates an empty share store. A nil handler
// disables auditing.
func NewInMemoryShareStore(audit AuditEventHandler) *InMemoryShareStore {
	if audit == nil {
		audit = &NullAuditHandler{}
	}
	return &InMemoryShareStore{
		shares: make(map[string]map[ShareIndex]*KeyShare),
		audit:  audit,
	}
}

// PutShare stores a share. Overwriting an existing (keyID, index) slot
// is rejected: shares never change after creation.
func (s *InMemoryShareStore) PutShare(share *KeyShare) error {
	if share == nil || share.KeyID == "" || share.Index == 0 || share.Value == nil {
		return ErrShareConfig.WithContext("reason", "incomplete share")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byIndex, ok := s.shares[share.KeyID]
	if !ok {
		byIndex = make(map[ShareIndex]*KeyShare)
		s.shares[share.KeyID] = byIndex
	}
	if _, exists := byIndex[share.Index]; exists {
		return ErrShareExists.
			WithContext("key_id", share.KeyID).
			WithContext("share_index", share.Index)
	}

	byIndex[share.Index] = share
	return nil
}

// GetShare returns the share for (keyID, index)
func (s *InMemoryShareStore) GetShare(keyID string, index ShareIndex) (*KeyShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.shares[keyID][index]
	if !ok {
		return nil, ErrShareNotFound.
			WithContext("key_id", keyID).
			WithContext("share_index", index)
	}
	return share, nil
}

// SharesForKey returns every stored share for a key
func (s *InMemoryShareStore) SharesForKey(keyID string) []*KeyShare {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byIndex := s.shares[keyID]
	out := make([]*KeyShare, 0, len(byIndex))
	for _, share := range byIndex {
		out = append(out, share)
	}
	return out
}

// RotateKey destroys every share for a key and returns how many were
// destroyed. Share values are zeroized before the references are
// dropped.
func (s *InMemoryShareStore) RotateKey(keyID string) int {
	s.mu.Lock()
	byIndex := s.shares[keyID]
	delete(s.shares, keyID)
	s.mu.Unlock()

	for _, share := range byIndex {
		share.Zeroize()
	}

	s.audit.OnShareLifecycle(NewAuditEvent(AuditEventKeyRotation).
		WithKey(keyID).
		WithMetadata("shares_destroyed", len(byIndex)).
		Build())

	return len(byIndex)
}

// ProvisionKey splits a secret and stores the resulting shares in one
// step. Parameters are graded by a ThresholdValidator first; hard
// violations abort before any share is generated.
func ProvisionKey(
	engine *SecretSharingEngine,
	store KeyShareStore,
	audit AuditEventHandler,
	keyID string,
	secret Scalar,
	threshold int,
	totalShares int,
) ([]*KeyShare, *ValidationResult, error) {
	if audit == nil {
		audit = &NullAuditHandler{}
	}

	validation := NewDefaultThresholdValidator().Validate(threshold, totalShares)
	if !validation.Valid {
		return nil, validation, ErrShareConfig.
			WithContext("errors", validation.Errors)
	}

	shares, err := engine.GenerateShares(keyID, secret, threshold, totalShares)
	if err != nil {
		return nil, validation, err
	}

	for _, share := range shares {
		if err := store.PutShare(share); err != nil {
			return nil, validation, err
		}
	}

	audit.OnShareLifecycle(NewAuditEvent(AuditEventShareGeneration).
		WithKey(keyID).
		WithMetadata("threshold", threshold).
		WithMetadata("total_shares", totalShares).
		WithMetadata("security_level", string(validation.SecurityLevel)).
		Build())

	return shares, validation, nil
}

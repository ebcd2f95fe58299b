package trustauth

import (
	"bytes"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// VerificationResult is the decision reported to the caller and the
// audit sink
type VerificationResult struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	RiskScore int    `json:"risk_score"`
}

// VerifierConfig configures a ProofVerifier
type VerifierConfig struct {
	// FreshnessWindow is the maximum proof age. Zero means
	// DefaultFreshnessWindow.
	FreshnessWindow time.Duration

	// Hash must match the algorithm proofs were generated with
	Hash HashAlgorithm
}

// ProofVerifier validates proofs against expected public inputs and
// the nullifier registry. Checks run in a fixed order and fail closed:
// any error means "not authorized".
type ProofVerifier struct {
	registry *NullifierRegistry
	config   VerifierConfig
	audit    AuditEventHandler
	log      *slog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	verifyCount uint64
	granted     uint64
	denied      uint64
}

// NewProofVerifier creates a verifier over the given registry. Nil
// audit or log fall back to no-op and the default logger.
func NewProofVerifier(
	registry *NullifierRegistry,
	config VerifierConfig,
	audit AuditEventHandler,
	log *slog.Logger,
) *ProofVerifier {
	if config.FreshnessWindow <= 0 {
		config.FreshnessWindow = DefaultFreshnessWindow
	}
	if audit == nil {
		audit = &NullAuditHandler{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProofVerifier{
		registry: registry,
		config:   config,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

// VerifyProof checks a proof against the expected resource and action.
// The check order is fixed: replay, freshness, resource, action,
// structure. On success the nullifier is consumed atomically; a raced
// duplicate verification is reported as replay.
func (pv *ProofVerifier) VerifyProof(proof *Proof, expectedResource, expectedAction string) (*VerificationResult, error) {
	result, err := pv.verify(proof, expectedResource, expectedAction)

	pv.mu.Lock()
	pv.verifyCount++
	if result.Valid {
		pv.granted++
	} else {
		pv.denied++
	}
	pv.mu.Unlock()

	pv.recordDecision(proof, expectedResource, expectedAction, result, err)
	return result, err
}

func (pv *ProofVerifier) verify(proof *Proof, expectedResource, expectedAction string) (*VerificationResult, error) {
	if proof == nil {
		return denial(ErrInvalidProof), ErrInvalidProof.WithContext("reason", "nil proof")
	}

	// 1. Replay
	if pv.registry.Seen(proof.Nullifier) {
		return denial(ErrReplay), ErrReplay
	}

	// 2. Freshness
	age := pv.now().Sub(proof.PublicInputs.Timestamp)
	if age > pv.config.FreshnessWindow {
		return denial(ErrProofExpired), ErrProofExpired.WithContext("age", age.String())
	}

	// 3. Resource
	resourceHash, err := hashPublicInput(pv.config.Hash, expectedResource)
	if err != nil {
		return denial(ErrInvalidProof), ErrInvalidProof.WithCause(err)
	}
	if !bytes.Equal(resourceHash, proof.PublicInputs.ResourceHash) {
		return denial(ErrResourceMismatch), ErrResourceMismatch.WithContext("expected", expectedResource)
	}

	// 4. Action
	actionHash, err := hashPublicInput(pv.config.Hash, expectedAction)
	if err != nil {
		return denial(ErrInvalidProof), ErrInvalidProof.WithCause(err)
	}
	if !bytes.Equal(actionHash, proof.PublicInputs.ActionHash) {
		return denial(ErrActionMismatch), ErrActionMismatch.WithContext("expected", expectedAction)
	}

	// 5. Structure
	if err := validateProofStructure(proof); err != nil {
		return denial(ErrInvalidProof), err
	}

	// Atomic check-and-set: losing the race to another verification of
	// the same proof is a replay, not a grant.
	if !pv.registry.Consume(proof.Nullifier) {
		return denial(ErrReplay), ErrReplay
	}

	return &VerificationResult{Valid: true, RiskScore: 0}, nil
}

// validateProofStructure checks the digest fields are well formed.
// The proof value binds the commitments to a signature the verifier
// never sees, so only structural validation is possible here; the
// scheme's authorization guarantee comes from the commitments, the
// binding at generation time, and the single-use nullifier.
func validateProofStructure(proof *Proof) error {
	digests := [][]byte{
		proof.Value,
		proof.Nullifier,
		proof.Commitments.Identity,
		proof.Commitments.Permission,
		proof.Commitments.TrustScore,
	}
	for _, d := range digests {
		if len(d) != 32 || bytes.Equal(d, make([]byte, 32)) {
			return ErrInvalidProof.WithContext("reason", "malformed digest field")
		}
	}
	if proof.PublicInputs.Timestamp.IsZero() {
		return ErrInvalidProof.WithContext("reason", "missing timestamp")
	}
	if proof.PublicInputs.MinimumTrustScore < 0 || proof.PublicInputs.MinimumTrustScore > 100 {
		return ErrInvalidProof.WithContext("trust_score", proof.PublicInputs.MinimumTrustScore)
	}
	return nil
}

func denial(err *AuthError) *VerificationResult {
	return &VerificationResult{
		Valid:     false,
		Reason:    err.Code,
		RiskScore: err.RiskScore,
	}
}

func (pv *ProofVerifier) recordDecision(
	proof *Proof,
	resource, action string,
	result *VerificationResult,
	err error,
) {
	eventType := AuditEventAuthorizationGranted
	if !result.Valid {
		eventType = AuditEventAuthorizationDenied
	}

	builder := NewAuditEvent(eventType).
		WithTarget(resource, action).
		WithRiskScore(result.RiskScore)
	if proof != nil {
		builder = builder.WithNullifier(hex.EncodeToString(proof.Nullifier))
	}
	if err != nil {
		builder = builder.WithError(err)
	}
	pv.audit.OnAuthorizationDecision(builder.Build())
}

// CleanupExpiredProofs drops nullifiers older than the freshness
// window. Best effort and non-blocking with respect to verification
// correctness: the proof cache ages out on its own, and a nullifier
// inside its window is never removed.
func (pv *ProofVerifier) CleanupExpiredProofs() int {
	removed := pv.registry.GC()
	if removed > 0 {
		pv.log.Debug("dropped expired nullifiers", "count", removed)
	}
	return removed
}

// Stats returns verification counters
func (pv *ProofVerifier) Stats() (verifyCount, granted, denied uint64) {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	return pv.verifyCount, pv.granted, pv.denied
}

// IsDenial reports whether an error is one of the verification
// denials, as opposed to a configuration or internal failure
func IsDenial(err error) bool {
	return errors.Is(err, ErrReplay) ||
		errors.Is(err, ErrProofExpired) ||
		errors.Is(err, ErrResourceMismatch) ||
		errors.Is(err, ErrActionMismatch) ||
		errors.Is(err, ErrInvalidProof)
}

package trustauth

import (
	"fmt"
)

// ErrorCategory represents the category of trustauth error
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategorySharing       ErrorCategory = "sharing"
	ErrorCategorySigning       ErrorCategory = "signing"
	ErrorCategoryVerification  ErrorCategory = "verification"
	ErrorCategoryStorage       ErrorCategory = "storage"
	ErrorCategoryInternal      ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"      // Non-critical, operation can continue
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Important, may affect functionality
	ErrorSeverityHigh     ErrorSeverity = "high"     // Critical, operation should stop
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level failure
)

// AuthError represents a structured error in the trustauth library.
// Verification errors additionally carry the risk score reported to
// the audit sink.
type AuthError struct {
	Category  ErrorCategory          `json:"category"`
	Severity  ErrorSeverity          `json:"severity"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	RiskScore int                    `json:"risk_score,omitempty"`
	Cause     error                  `json:"-"` // Original error, not serialized
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so that derived copies produced by
// WithContext/WithCause still compare equal to their sentinel.
func (e *AuthError) Is(target error) bool {
	other, ok := target.(*AuthError)
	return ok && other.Code == e.Code
}

func (e *AuthError) clone() *AuthError {
	clone := &AuthError{
		Category:  e.Category,
		Severity:  e.Severity,
		Code:      e.Code,
		Message:   e.Message,
		RiskScore: e.RiskScore,
		Cause:     e.Cause,
		Context:   make(map[string]interface{}, len(e.Context)),
	}
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	return clone
}

// WithContext returns a copy of the error with added context. The
// original sentinel is never mutated.
func (e *AuthError) WithContext(key string, value interface{}) *AuthError {
	clone := e.clone()
	clone.Context[key] = value
	return clone
}

// WithCause returns a copy of the error with the underlying cause set
func (e *AuthError) WithCause(cause error) *AuthError {
	clone := e.clone()
	clone.Cause = cause
	return clone
}

// NewAuthError creates a new trustauth error
func NewAuthError(category ErrorCategory, severity ErrorSeverity, code, message string) *AuthError {
	return &AuthError{
		Category: category,
		Severity: severity,
		Code:     code,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// newVerificationError creates a verification error carrying a risk score
func newVerificationError(code, message string, riskScore int) *AuthError {
	err := NewAuthError(ErrorCategoryVerification, ErrorSeverityHigh, code, message)
	err.RiskScore = riskScore
	return err
}

// Sharing and configuration errors
var (
	ErrShareConfig = NewAuthError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_SHARE_CONFIG",
		"share configuration is invalid: threshold must satisfy 2 <= t <= n <= 255")

	ErrInsufficientShares = NewAuthError(
		ErrorCategorySharing, ErrorSeverityHigh, "INSUFFICIENT_SHARES",
		"not enough shares to reconstruct the secret")

	ErrShareGeneration = NewAuthError(
		ErrorCategorySharing, ErrorSeverityHigh, "SHARE_GENERATION_FAILED",
		"failed to generate key shares")

	ErrShareReconstruction = NewAuthError(
		ErrorCategorySharing, ErrorSeverityHigh, "SHARE_RECONSTRUCTION_FAILED",
		"failed to reconstruct secret from shares")

	ErrInconsistentShares = NewAuthError(
		ErrorCategorySharing, ErrorSeverityHigh, "INCONSISTENT_SHARES",
		"shares do not reconstruct a consistent secret")
)

// Storage errors
var (
	ErrShareNotFound = NewAuthError(
		ErrorCategoryStorage, ErrorSeverityMedium, "SHARE_NOT_FOUND",
		"no share stored for the requested key and index")

	ErrShareExists = NewAuthError(
		ErrorCategoryStorage, ErrorSeverityMedium, "SHARE_EXISTS",
		"a share for this key and index already exists; shares are immutable")
)

// Signing errors
var (
	ErrRequestNotFound = NewAuthError(
		ErrorCategorySigning, ErrorSeverityMedium, "REQUEST_NOT_FOUND",
		"signature request not found or expired")

	ErrDuplicateSigner = NewAuthError(
		ErrorCategorySigning, ErrorSeverityMedium, "DUPLICATE_SIGNER",
		"this share index has already contributed a partial signature")

	ErrRequestConfig = NewAuthError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_REQUEST_CONFIG",
		"signature request configuration is invalid")
)

// Proof errors
var (
	ErrProofConfig = NewAuthError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_PROOF_CONFIG",
		"proof generation inputs are invalid")

	ErrNullifierUnknown = NewAuthError(
		ErrorCategoryVerification, ErrorSeverityMedium, "NULLIFIER_UNKNOWN",
		"nullifier has not been consumed")
)

// Verification errors, ordered by the verifier's check sequence. Risk
// scores feed the audit record for each denial.
var (
	ErrReplay = newVerificationError("REPLAY_DETECTED",
		"nullifier has already been consumed", 100)

	ErrProofExpired = newVerificationError("PROOF_EXPIRED",
		"proof timestamp is outside the freshness window", 50)

	ErrResourceMismatch = newVerificationError("RESOURCE_MISMATCH",
		"proof was generated for a different resource", 80)

	ErrActionMismatch = newVerificationError("ACTION_MISMATCH",
		"proof was generated for a different action", 80)

	ErrInvalidProof = newVerificationError("INVALID_PROOF",
		"proof failed structural or cryptographic validation", 100)
)

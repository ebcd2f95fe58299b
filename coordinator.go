package trustauth

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestState is the lifecycle state of a signature request
type RequestState string

const (
	RequestStateCollecting RequestState = "collecting"
	RequestStateComplete   RequestState = "complete"
)

// DefaultRequestTTL bounds how long an abandoned request is kept
const DefaultRequestTTL = 10 * time.Minute

// PartialSignature is one share holder's contribution to a request
type PartialSignature struct {
	Index     ShareIndex
	SignerID  string
	Signature Scalar
	Timestamp time.Time
}

// SignatureRequest collects partial signatures until the threshold is
// reached. The state machine is Collecting -> Complete, terminal: the
// combined signature is computed exactly once, at the contribution
// that reaches the threshold, and never recomputed.
type SignatureRequest struct {
	ID        string
	Message   []byte
	Threshold int
	CreatedAt time.Time
	ExpiresAt time.Time

	mu       sync.Mutex
	state    RequestState
	partials map[ShareIndex]*PartialSignature
	combined Scalar
}

// State returns the current request state
func (r *SignatureRequest) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Contributions returns how many distinct share indices have signed
func (r *SignatureRequest) Contributions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.partials)
}

// CombinedSignature returns the combined signature once complete
func (r *SignatureRequest) CombinedSignature() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RequestStateComplete {
		return nil, false
	}
	return r.combined.Bytes(), true
}

// SignatureResult reports the request state after a contribution
type SignatureResult struct {
	RequestID         string
	State             RequestState
	Contributions     int
	CombinedSignature []byte // set once the request is complete
}

// CoordinatorConfig configures a SignatureRequestCoordinator
type CoordinatorConfig struct {
	// RequestTTL is how long an open request may live before it is
	// evicted. Zero means DefaultRequestTTL.
	RequestTTL time.Duration

	// Hash selects the algorithm for message digests
	Hash HashAlgorithm
}

// SignatureRequestCoordinator runs M-of-N signing: it opens requests,
// accepts partial signatures computed from key shares, and combines
// them into one signature at the threshold.
//
// A partial signature is h*share_i where h is the message digest
// mapped into the field. Combining with Lagrange weights at x=0 yields
// h*secret, so the combination is order independent and consistent
// with the sharing scheme.
type SignatureRequestCoordinator struct {
	engine *SecretSharingEngine
	config CoordinatorConfig
	audit  AuditEventHandler
	log    *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	requests map[string]*SignatureRequest
}

// NewSignatureRequestCoordinator creates a coordinator using the given
// sharing engine's field. Nil audit or log fall back to no-op and the
// default logger.
func NewSignatureRequestCoordinator(
	engine *SecretSharingEngine,
	config CoordinatorConfig,
	audit AuditEventHandler,
	log *slog.Logger,
) *SignatureRequestCoordinator {
	if config.RequestTTL <= 0 {
		config.RequestTTL = DefaultRequestTTL
	}
	if audit == nil {
		audit = &NullAuditHandler{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SignatureRequestCoordinator{
		engine:   engine,
		config:   config,
		audit:    audit,
		log:      log,
		now:      time.Now,
		requests: make(map[string]*SignatureRequest),
	}
}

// CreateRequest opens a request in the Collecting state. An empty id
// gets a generated one.
func (c *SignatureRequestCoordinator) CreateRequest(id string, message []byte, threshold int) (*SignatureRequest, error) {
	if threshold < 2 {
		return nil, ErrRequestConfig.WithContext("threshold", threshold)
	}
	if len(message) == 0 {
		return nil, ErrRequestConfig.WithContext("reason", "empty message")
	}
	if id == "" {
		id = uuid.NewString()
	}

	now := c.now()
	request := &SignatureRequest{
		ID:        id,
		Message:   bytes.Clone(message),
		Threshold: threshold,
		CreatedAt: now,
		ExpiresAt: now.Add(c.config.RequestTTL),
		state:     RequestStateCollecting,
		partials:  make(map[ShareIndex]*PartialSignature),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.requests[id]; exists {
		return nil, ErrRequestConfig.WithContext("reason", "request id already in use")
	}
	c.requests[id] = request
	return request, nil
}

// AddPartialSignature contributes one share holder's partial signature.
// Contributions to a completed request are an idempotent read: they
// return the existing combined signature without error or mutation.
func (c *SignatureRequestCoordinator) AddPartialSignature(
	requestID string,
	signerID string,
	share *KeyShare,
) (*SignatureResult, error) {
	if share == nil || share.Value == nil || share.Index == 0 {
		return nil, ErrShareConfig.WithContext("reason", "incomplete share")
	}

	c.mu.RLock()
	request, ok := c.requests[requestID]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrRequestNotFound.WithContext("request_id", requestID)
	}

	// Per-request lock: exactly one caller observes the count crossing
	// the threshold and performs the combine step.
	request.mu.Lock()
	defer request.mu.Unlock()

	if request.state == RequestStateComplete {
		return &SignatureResult{
			RequestID:         request.ID,
			State:             RequestStateComplete,
			Contributions:     len(request.partials),
			CombinedSignature: request.combined.Bytes(),
		}, nil
	}

	if c.now().After(request.ExpiresAt) {
		return nil, ErrRequestNotFound.
			WithContext("request_id", requestID).
			WithContext("reason", "expired")
	}

	if _, contributed := request.partials[share.Index]; contributed {
		return nil, ErrDuplicateSigner.
			WithContext("request_id", requestID).
			WithContext("share_index", share.Index)
	}

	partial, err := c.partialSignature(request.Message, share)
	if err != nil {
		return nil, err
	}

	request.partials[share.Index] = &PartialSignature{
		Index:     share.Index,
		SignerID:  signerID,
		Signature: partial,
		Timestamp: c.now(),
	}

	result := &SignatureResult{
		RequestID:     request.ID,
		State:         request.state,
		Contributions: len(request.partials),
	}

	if len(request.partials) == request.Threshold {
		combined, err := c.combine(request)
		if err != nil {
			// The contribution is kept; the request stays collectable
			// only in theory, since combining is deterministic. Surface
			// the failure to the caller.
			delete(request.partials, share.Index)
			return nil, err
		}

		request.combined = combined
		request.state = RequestStateComplete
		result.State = RequestStateComplete
		result.CombinedSignature = combined.Bytes()

		c.audit.OnRequestLifecycle(NewAuditEvent(AuditEventRequestCompleted).
			WithRequest(request.ID).
			WithMetadata("threshold", request.Threshold).
			Build())
	}

	return result, nil
}

// partialSignature derives the deterministic partial signature
// h(message) * shareValue in the field
func (c *SignatureRequestCoordinator) partialSignature(message []byte, share *KeyShare) (Scalar, error) {
	h, err := hashToScalar(c.engine.Curve(), c.config.Hash, domainPartialSig, message)
	if err != nil {
		return nil, ErrShareGeneration.WithCause(err)
	}
	return h.Mul(share.Value), nil
}

// combine folds the collected partials into one signature with
// Lagrange weights evaluated at x=0. Must be called with the request
// lock held and exactly threshold contributions present.
func (c *SignatureRequestCoordinator) combine(request *SignatureRequest) (Scalar, error) {
	indices := make([]ShareIndex, 0, len(request.partials))
	for index := range request.partials {
		indices = append(indices, index)
	}

	combined := c.engine.Curve().ScalarZero()
	for i, index := range indices {
		coefficient, err := c.engine.lagrangeCoefficient(indices, i)
		if err != nil {
			return nil, err
		}
		combined = combined.Add(request.partials[index].Signature.Mul(coefficient))
	}
	return combined, nil
}

// VerifyCombined checks a combined signature against an independently
// reconstructed secret: it must equal h(message)*secret.
func (c *SignatureRequestCoordinator) VerifyCombined(message, combined []byte, secret Scalar) (bool, error) {
	h, err := hashToScalar(c.engine.Curve(), c.config.Hash, domainPartialSig, message)
	if err != nil {
		return false, err
	}
	expected := h.Mul(secret)
	return bytes.Equal(expected.Bytes(), combined), nil
}

// Request returns the request with the given id, if present
func (c *SignatureRequestCoordinator) Request(requestID string) (*SignatureRequest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	request, ok := c.requests[requestID]
	return request, ok
}

// CleanupExpiredRequests evicts requests past their TTL and returns
// how many were removed. Abandoned requests are audited as expired;
// completed ones are evicted silently.
func (c *SignatureRequestCoordinator) CleanupExpiredRequests() int {
	now := c.now()

	c.mu.Lock()
	var expired []*SignatureRequest
	for id, request := range c.requests {
		if now.After(request.ExpiresAt) {
			expired = append(expired, request)
			delete(c.requests, id)
		}
	}
	c.mu.Unlock()

	removed := 0
	for _, request := range expired {
		removed++
		if request.State() != RequestStateComplete {
			c.audit.OnRequestLifecycle(NewAuditEvent(AuditEventRequestExpired).
				WithRequest(request.ID).
				WithMetadata("contributions", request.Contributions()).
				Build())
		}
	}
	if removed > 0 {
		c.log.Debug("evicted expired signature requests", "count", removed)
	}
	return removed
}

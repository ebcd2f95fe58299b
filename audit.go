package trustauth

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	// Authorization decisions
	AuditEventAuthorizationGranted AuditEventType = "authorization_granted"
	AuditEventAuthorizationDenied  AuditEventType = "authorization_denied"

	// Administrative events
	AuditEventNullifierRevoked AuditEventType = "nullifier_revoked"
	AuditEventKeyRotation      AuditEventType = "key_rotation"
	AuditEventShareGeneration  AuditEventType = "share_generation"

	// Signature request lifecycle
	AuditEventRequestCompleted AuditEventType = "request_completed"
	AuditEventRequestExpired   AuditEventType = "request_expired"
)

// AuditEvent is one record for the append-only audit sink. The sink is
// write-only: nothing in this library reads events back.
type AuditEvent struct {
	// Event metadata
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType AuditEventType `json:"event_type"`

	// Subject context
	KeyID     string `json:"key_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Resource  string `json:"resource,omitempty"`
	Action    string `json:"action,omitempty"`
	Nullifier string `json:"nullifier,omitempty"` // hex

	// Decision information
	RiskScore int    `json:"risk_score"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AuditEventHandler is the append-only audit sink. Applications
// implement this to record authorization outcomes according to their
// own retention requirements.
type AuditEventHandler interface {
	// OnAuthorizationDecision is called for every proof verification outcome
	OnAuthorizationDecision(event *AuditEvent)

	// OnNullifierRevocation is called when an operator revokes a consumed nullifier
	OnNullifierRevocation(event *AuditEvent)

	// OnShareLifecycle is called when shares are generated or a key is rotated
	OnShareLifecycle(event *AuditEvent)

	// OnRequestLifecycle is called when a signature request completes or expires
	OnRequestLifecycle(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnAuthorizationDecision(event *AuditEvent) {}
func (n *NullAuditHandler) OnNullifierRevocation(event *AuditEvent)   {}
func (n *NullAuditHandler) OnShareLifecycle(event *AuditEvent)        {}
func (n *NullAuditHandler) OnRequestLifecycle(event *AuditEvent)      {}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEvent creates a builder for the given event type
func NewAuditEvent(eventType AuditEventType) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   uuid.NewString(),
			Timestamp: time.Now().UTC(),
			EventType: eventType,
			Success:   true,
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithKey sets the key identifier
func (b *AuditEventBuilder) WithKey(keyID string) *AuditEventBuilder {
	b.event.KeyID = keyID
	return b
}

// WithRequest sets the signature request identifier
func (b *AuditEventBuilder) WithRequest(requestID string) *AuditEventBuilder {
	b.event.RequestID = requestID
	return b
}

// WithTarget sets the resource and action the decision concerns
func (b *AuditEventBuilder) WithTarget(resource, action string) *AuditEventBuilder {
	b.event.Resource = resource
	b.event.Action = action
	return b
}

// WithNullifier sets the hex-encoded nullifier
func (b *AuditEventBuilder) WithNullifier(nullifier string) *AuditEventBuilder {
	b.event.Nullifier = nullifier
	return b
}

// WithRiskScore sets the risk score of a denial
func (b *AuditEventBuilder) WithRiskScore(riskScore int) *AuditEventBuilder {
	b.event.RiskScore = riskScore
	return b
}

// WithError marks the event as failed and records the error
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}

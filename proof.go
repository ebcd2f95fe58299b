package trustauth

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultFreshnessWindow is how long a proof stays verifiable
const DefaultFreshnessWindow = 5 * time.Minute

// DefaultProofCacheSize bounds the proof cache
const DefaultProofCacheSize = 4096

// PublicInputs are the proof fields a verifier checks in the clear
type PublicInputs struct {
	ResourceHash      []byte    `json:"resource_hash"`
	ActionHash        []byte    `json:"action_hash"`
	MinimumTrustScore int       `json:"minimum_trust_score"`
	Timestamp         time.Time `json:"timestamp"`
}

// Commitments hide the subject's identity, role set, and trust score.
// Each commitment is hash(value || nonce) with a fresh random nonce,
// so it reveals nothing about the value without the nonce.
type Commitments struct {
	Identity   []byte `json:"identity"`
	Permission []byte `json:"permission"`
	TrustScore []byte `json:"trust_score"`
}

// Proof is an anonymous authorization proof: hiding commitments over
// the requester's attributes, public inputs naming the resource and
// action, a single-use nullifier for replay protection, and a value
// binding all of it to an authentic signature from the subject.
//
// This is a commitment-plus-replay-protection scheme, not a
// zero-knowledge proof system: verifiers learn the public inputs and
// trust the binding signature, and nothing proves the committed
// attributes satisfy a statement.
type Proof struct {
	Value        []byte       `json:"value"`
	PublicInputs PublicInputs `json:"public_inputs"`
	Commitments  Commitments  `json:"commitments"`
	Nullifier    []byte       `json:"nullifier"`
}

// CommitmentBuilder generates proofs and caches them, keyed by
// nullifier, until the freshness window elapses. The cache is an
// expirable LRU, so stale entries age out without explicit cleanup.
type CommitmentBuilder struct {
	hash   HashAlgorithm
	window time.Duration
	cache  *expirable.LRU[string, *Proof]
	now    func() time.Time
}

// NewCommitmentBuilder creates a builder. Zero window and cacheSize
// select the defaults.
func NewCommitmentBuilder(hash HashAlgorithm, window time.Duration, cacheSize int) *CommitmentBuilder {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if cacheSize <= 0 {
		cacheSize = DefaultProofCacheSize
	}
	return &CommitmentBuilder{
		hash:   hash,
		window: window,
		cache:  expirable.NewLRU[string, *Proof](cacheSize, nil, window),
		now:    time.Now,
	}
}

// GenerateProof builds a proof that the subject may perform action on
// resource, bound to authSignature (the subject's signature over the
// request, produced by an external Signer).
func (b *CommitmentBuilder) GenerateProof(
	subjectID string,
	resource string,
	action string,
	trustScore int,
	roles []string,
	authSignature []byte,
) (*Proof, error) {
	if subjectID == "" || resource == "" || action == "" {
		return nil, ErrProofConfig.WithContext("reason", "subject, resource, and action are required")
	}
	if len(authSignature) == 0 {
		return nil, ErrProofConfig.WithContext("reason", "missing auth signature")
	}
	if trustScore < 0 || trustScore > 100 {
		return nil, ErrProofConfig.WithContext("trust_score", trustScore)
	}

	timestamp := b.now().UTC()
	timestampBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp.UnixNano()))

	trustScoreBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(trustScoreBytes, uint64(trustScore))

	identity, err := b.commit([]byte(subjectID))
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}
	permission, err := b.commit(canonicalRoleSet(roles))
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}
	trust, err := b.commit(trustScoreBytes)
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}

	nullifier, err := digest(b.hash, domainNullifier,
		[]byte(subjectID), []byte(resource), timestampBytes)
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}

	resourceHash, err := hashPublicInput(b.hash, resource)
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}
	actionHash, err := hashPublicInput(b.hash, action)
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}

	value, err := digest(b.hash, domainProofBind,
		identity, permission, trust,
		resourceHash, actionHash, trustScoreBytes, timestampBytes,
		nullifier, authSignature)
	if err != nil {
		return nil, ErrProofConfig.WithCause(err)
	}

	proof := &Proof{
		Value: value,
		PublicInputs: PublicInputs{
			ResourceHash:      resourceHash,
			ActionHash:        actionHash,
			MinimumTrustScore: trustScore,
			Timestamp:         timestamp,
		},
		Commitments: Commitments{
			Identity:   identity,
			Permission: permission,
			TrustScore: trust,
		},
		Nullifier: nullifier,
	}

	b.cache.Add(hex.EncodeToString(nullifier), proof)
	return proof, nil
}

// CachedProof returns the cached proof for a nullifier while it is
// inside the freshness window
func (b *CommitmentBuilder) CachedProof(nullifier []byte) (*Proof, bool) {
	return b.cache.Get(hex.EncodeToString(nullifier))
}

// CacheLen returns how many proofs are currently cached
func (b *CommitmentBuilder) CacheLen() int {
	return b.cache.Len()
}

// commit produces hash(value || nonce) with a fresh 32-byte nonce
func (b *CommitmentBuilder) commit(value []byte) ([]byte, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return digest(b.hash, domainCommitment, value, nonce)
}

// hashPublicInput hashes a resource or action name the same way on
// the proving and verifying side
func hashPublicInput(algorithm HashAlgorithm, value string) ([]byte, error) {
	return digest(algorithm, domainPublicInput, []byte(value))
}

// canonicalRoleSet encodes a role set order-independently
func canonicalRoleSet(roles []string) []byte {
	sorted := make([]string, len(roles))
	copy(sorted, roles)
	sort.Strings(sorted)
	return []byte(strings.Join(sorted, "\x00"))
}

package trustauth

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProofInputValidation(t *testing.T) {
	builder := NewCommitmentBuilder(BLAKE2B, 0, 0)
	sig := []byte("auth-signature")

	cases := []struct {
		name       string
		subject    string
		resource   string
		action     string
		trustScore int
		sig        []byte
	}{
		{"empty subject", "", "doc-1", "read", 80, sig},
		{"empty resource", "alice", "", "read", 80, sig},
		{"empty action", "alice", "doc-1", "", 80, sig},
		{"missing signature", "alice", "doc-1", "read", 80, nil},
		{"trust score below range", "alice", "doc-1", "read", -1, sig},
		{"trust score above range", "alice", "doc-1", "read", 101, sig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.GenerateProof(tc.subject, tc.resource, tc.action, tc.trustScore, nil, tc.sig)
			assert.ErrorIs(t, err, ErrProofConfig)
		})
	}
}

func TestGenerateProofShape(t *testing.T) {
	builder := NewCommitmentBuilder(BLAKE2B, 0, 0)

	proof, err := builder.GenerateProof("alice", "doc-42", "read", 85,
		[]string{"reader", "auditor"}, []byte("auth-signature"))
	require.NoError(t, err)

	assert.Len(t, proof.Value, 32)
	assert.Len(t, proof.Nullifier, 32)
	assert.Len(t, proof.Commitments.Identity, 32)
	assert.Len(t, proof.Commitments.Permission, 32)
	assert.Len(t, proof.Commitments.TrustScore, 32)
	assert.False(t, proof.PublicInputs.Timestamp.IsZero())
	assert.Equal(t, 85, proof.PublicInputs.MinimumTrustScore)

	expectedResource, err := hashPublicInput(BLAKE2B, "doc-42")
	require.NoError(t, err)
	assert.Equal(t, expectedResource, proof.PublicInputs.ResourceHash)

	// Commitments never contain the raw attributes
	assert.NotContains(t, string(proof.Commitments.Identity), "alice")
	assert.NotContains(t, string(proof.Commitments.Permission), "reader")
}

func TestCommitmentsHideIdenticalInputs(t *testing.T) {
	builder := NewCommitmentBuilder(SHA256_HKDF, 0, 0)

	// Same attributes twice: fresh nonces make every commitment differ
	first, err := builder.GenerateProof("alice", "doc-1", "read", 90,
		[]string{"admin"}, []byte("sig"))
	require.NoError(t, err)
	second, err := builder.GenerateProof("alice", "doc-1", "read", 90,
		[]string{"admin"}, []byte("sig"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(first.Commitments.Identity, second.Commitments.Identity),
		"identity commitments should be hiding")
	assert.False(t, bytes.Equal(first.Commitments.Permission, second.Commitments.Permission),
		"permission commitments should be hiding")
	assert.False(t, bytes.Equal(first.Commitments.TrustScore, second.Commitments.TrustScore),
		"trust score commitments should be hiding")
}

func TestNullifierDerivation(t *testing.T) {
	builder := NewCommitmentBuilder(BLAKE2B, 0, 0)
	fixed := time.Now()
	builder.now = func() time.Time { return fixed }

	// Same subject, resource, and timestamp derive the same nullifier
	first, err := builder.GenerateProof("alice", "doc-1", "read", 90, nil, []byte("sig"))
	require.NoError(t, err)
	second, err := builder.GenerateProof("alice", "doc-1", "write", 90, nil, []byte("sig"))
	require.NoError(t, err)
	assert.Equal(t, first.Nullifier, second.Nullifier,
		"nullifier is derived from subject, resource, and timestamp only")

	// A different resource or subject changes it
	otherResource, err := builder.GenerateProof("alice", "doc-2", "read", 90, nil, []byte("sig"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Nullifier, otherResource.Nullifier)

	otherSubject, err := builder.GenerateProof("bob", "doc-1", "read", 90, nil, []byte("sig"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Nullifier, otherSubject.Nullifier)

	// So does time
	builder.now = func() time.Time { return fixed.Add(time.Second) }
	later, err := builder.GenerateProof("alice", "doc-1", "read", 90, nil, []byte("sig"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Nullifier, later.Nullifier)
}

func TestProofCache(t *testing.T) {
	builder := NewCommitmentBuilder(BLAKE2B, 0, 8)

	proof, err := builder.GenerateProof("alice", "doc-1", "read", 90, nil, []byte("sig"))
	require.NoError(t, err)

	cached, ok := builder.CachedProof(proof.Nullifier)
	require.True(t, ok)
	assert.Same(t, proof, cached)
	assert.Equal(t, 1, builder.CacheLen())

	_, ok = builder.CachedProof([]byte("no-such-nullifier"))
	assert.False(t, ok)
}

func TestCanonicalRoleSetOrderIndependent(t *testing.T) {
	a := canonicalRoleSet([]string{"reader", "admin", "auditor"})
	b := canonicalRoleSet([]string{"auditor", "reader", "admin"})
	assert.Equal(t, a, b)

	c := canonicalRoleSet([]string{"reader", "admin"})
	assert.NotEqual(t, a, c)
}

package trustauth

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/canopy-network/canopy/lib/crypto"
)

// Signer is the opaque signature primitive callers use to
// authenticate proof requests. Any unforgeable scheme satisfies the
// contract; the library never inspects signatures beyond bytes.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() []byte
	Verifier() SignatureVerifier
}

// SignatureVerifier checks a signature produced by the matching Signer
type SignatureVerifier interface {
	Verify(message, signature []byte) bool
}

// Ed25519Signer signs with a standard Ed25519 key
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Signer generates a fresh Ed25519 signing key
func NewEd25519Signer() (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return &Ed25519Signer{priv: priv, pub: pub}, nil
}

func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

func (s *Ed25519Signer) PublicKey() []byte {
	out := make([]byte, len(s.pub))
	copy(out, s.pub)
	return out
}

func (s *Ed25519Signer) Verifier() SignatureVerifier {
	return &ed25519Verifier{pub: s.pub}
}

type ed25519Verifier struct {
	pub ed25519.PublicKey
}

func (v *ed25519Verifier) Verify(message, signature []byte) bool {
	return ed25519.Verify(v.pub, message, signature)
}

// BLSSigner signs with a Canopy BLS12-381 key. Deployments that
// anchor authorization to validator identities use this backend.
type BLSSigner struct {
	key *crypto.BLS12381PrivateKey
}

// NewBLSSigner generates a fresh BLS12-381 signing key
func NewBLSSigner() (*BLSSigner, error) {
	keyInterface, err := crypto.NewBLS12381PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bls key: %w", err)
	}

	key, ok := keyInterface.(*crypto.BLS12381PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unexpected bls key type %T", keyInterface)
	}
	return &BLSSigner{key: key}, nil
}

func (s *BLSSigner) Sign(message []byte) ([]byte, error) {
	return s.key.Sign(message), nil
}

func (s *BLSSigner) PublicKey() []byte {
	return s.key.PublicKey().Bytes()
}

func (s *BLSSigner) Verifier() SignatureVerifier {
	return &blsVerifier{pub: s.key.PublicKey()}
}

type blsVerifier struct {
	pub crypto.PublicKeyI
}

func (v *blsVerifier) Verify(message, signature []byte) bool {
	return v.pub.VerifyBytes(message, signature)
}

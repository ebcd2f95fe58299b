package trustauth

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm specifies which hash algorithm backs commitments,
// nullifiers, and hash-to-scalar derivation
type HashAlgorithm int

const (
	// SHA256_HKDF uses SHA256 with HKDF expansion (compatible with existing deployments)
	SHA256_HKDF HashAlgorithm = iota
	// BLAKE2B uses Blake2b with domain separation (better security and performance)
	BLAKE2B
	// SHAKE256 uses SHAKE256 XOF (best for key derivation, quantum-resistant)
	SHAKE256
)

// Domain separators. Every hash in the library is bound to a protocol
// context so digests cannot be replayed across contexts.
const (
	domainCommitment  = "TRUSTAUTH_COMMITMENT_V1"
	domainNullifier   = "TRUSTAUTH_NULLIFIER_V1"
	domainPublicInput = "TRUSTAUTH_PUBLIC_INPUT_V1"
	domainProofBind   = "TRUSTAUTH_PROOF_BINDING_V1"
	domainPartialSig  = "TRUSTAUTH_PARTIAL_SIGNATURE_V1"
)

// transcript serializes parts with length prefixes to avoid ambiguity
// between adjacent fields
func transcript(domain string, parts ...[]byte) []byte {
	size := len(domain)
	for _, part := range parts {
		size += 4 + len(part)
	}

	out := make([]byte, 0, size)
	out = append(out, domain...)
	for _, part := range parts {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(part)))
		out = append(out, length[:]...)
		out = append(out, part...)
	}
	return out
}

// digest hashes a domain-separated transcript to 32 bytes
func digest(algorithm HashAlgorithm, domain string, parts ...[]byte) ([]byte, error) {
	data := transcript(domain, parts...)

	switch algorithm {
	case SHA256_HKDF:
		sum := sha256.Sum256(data)
		return sum[:], nil

	case BLAKE2B:
		sum := blake2b.Sum256(data)
		return sum[:], nil

	case SHAKE256:
		out := make([]byte, 32)
		shake := sha3.NewShake256()
		shake.Write(data)
		if _, err := shake.Read(out); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %d", algorithm)
	}
}

// hashToScalar derives a uniformly distributed field element from a
// domain-separated transcript. 64 bytes of output are produced before
// reduction to avoid modular bias.
func hashToScalar(curve Curve, algorithm HashAlgorithm, domain string, parts ...[]byte) (Scalar, error) {
	data := transcript(domain, parts...)
	wide := make([]byte, 64)

	switch algorithm {
	case SHA256_HKDF:
		ikm := sha256.Sum256(data)
		reader := hkdf.New(sha256.New, ikm[:], nil, []byte(domain))
		if _, err := io.ReadFull(reader, wide); err != nil {
			return nil, err
		}

	case BLAKE2B:
		sum := blake2b.Sum512(data)
		copy(wide, sum[:])

	case SHAKE256:
		shake := sha3.NewShake256()
		shake.Write(data)
		if _, err := shake.Read(wide); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %d", algorithm)
	}

	return curve.ScalarFromUniformBytes(wide)
}

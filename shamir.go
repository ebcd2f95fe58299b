package trustauth

import (
	"time"
)

// ShareIndex identifies a share holder, 1-based. Index 0 is never
// issued: evaluating the polynomial at x=0 would hand out the secret.
type ShareIndex uint32

// KeyShare is one share of a split signing key. Shares are immutable
// after creation and destroyed on key rotation.
type KeyShare struct {
	KeyID       string
	Index       ShareIndex
	Value       Scalar
	Threshold   int
	TotalShares int
	CreatedAt   time.Time
}

// Zeroize securely clears the share value
func (ks *KeyShare) Zeroize() {
	if ks.Value != nil {
		ks.Value.Zeroize()
	}
}

// SecretSharingEngine splits and reconstructs secrets with Shamir's
// scheme over the scalar field of the configured curve. All arithmetic
// is exact modular arithmetic; any t shares reconstruct the identical
// secret and any t-1 reveal nothing about it.
type SecretSharingEngine struct {
	curve Curve
}

// NewSecretSharingEngine creates a new secret sharing engine
func NewSecretSharingEngine(curve Curve) *SecretSharingEngine {
	return &SecretSharingEngine{curve: curve}
}

// Curve returns the field the engine shares over
func (e *SecretSharingEngine) Curve() Curve {
	return e.curve
}

// GenerateShares splits secret into totalShares shares of which any
// threshold reconstruct it. The polynomial has degree threshold-1 with
// the secret as constant term and is evaluated at x = 1..totalShares.
func (e *SecretSharingEngine) GenerateShares(
	keyID string,
	secret Scalar,
	threshold int,
	totalShares int,
) ([]*KeyShare, error) {
	if threshold < 2 {
		return nil, ErrShareConfig.WithContext("threshold", threshold)
	}
	if threshold > totalShares {
		return nil, ErrShareConfig.
			WithContext("threshold", threshold).
			WithContext("total_shares", totalShares)
	}
	if totalShares > 255 {
		return nil, ErrShareConfig.WithContext("total_shares", totalShares)
	}

	polynomial, err := NewRandomPolynomial(e.curve, threshold-1, secret)
	if err != nil {
		return nil, ErrShareGeneration.WithCause(err)
	}
	defer polynomial.Zeroize()

	now := time.Now().UTC()
	shares := make([]*KeyShare, totalShares)
	for i := 0; i < totalShares; i++ {
		index := ShareIndex(i + 1)
		x, err := e.indexScalar(index)
		if err != nil {
			return nil, ErrShareGeneration.WithCause(err)
		}

		shares[i] = &KeyShare{
			KeyID:       keyID,
			Index:       index,
			Value:       polynomial.Evaluate(x),
			Threshold:   threshold,
			TotalShares: totalShares,
			CreatedAt:   now,
		}
	}

	return shares, nil
}

// ReconstructSecret recovers the constant term via Lagrange
// interpolation at x=0. It needs at least threshold shares; the
// threshold is carried by the shares themselves.
func (e *SecretSharingEngine) ReconstructSecret(shares []*KeyShare) (Scalar, error) {
	if len(shares) == 0 {
		return nil, ErrInsufficientShares.WithContext("got", 0)
	}

	threshold := shares[0].Threshold
	if len(shares) < threshold {
		return nil, ErrInsufficientShares.
			WithContext("need", threshold).
			WithContext("got", len(shares))
	}

	seen := make(map[ShareIndex]bool, len(shares))
	for _, share := range shares {
		if share.KeyID != shares[0].KeyID || share.Threshold != threshold {
			return nil, ErrShareConfig.WithContext("key_id", share.KeyID)
		}
		if seen[share.Index] {
			return nil, ErrShareConfig.WithContext("duplicate_index", share.Index)
		}
		seen[share.Index] = true
	}

	selected := shares[:threshold]
	indices := make([]ShareIndex, len(selected))
	for i, share := range selected {
		indices[i] = share.Index
	}

	secret := e.curve.ScalarZero()
	for i, share := range selected {
		coefficient, err := e.lagrangeCoefficient(indices, i)
		if err != nil {
			return nil, err
		}
		secret = secret.Add(share.Value.Mul(coefficient))
	}

	return secret, nil
}

// VerifyShares reconstructs with two different subsets and checks the
// results agree. With exactly threshold shares there is only one
// subset, so nothing can be cross-checked.
func (e *SecretSharingEngine) VerifyShares(shares []*KeyShare) error {
	if len(shares) == 0 {
		return ErrInsufficientShares.WithContext("got", 0)
	}
	threshold := shares[0].Threshold
	if len(shares) < threshold {
		return ErrInsufficientShares.
			WithContext("need", threshold).
			WithContext("got", len(shares))
	}
	if len(shares) == threshold {
		return nil
	}

	first, err := e.ReconstructSecret(shares[:threshold])
	if err != nil {
		return err
	}

	alt := make([]*KeyShare, threshold)
	copy(alt[:threshold-1], shares[:threshold-1])
	alt[threshold-1] = shares[threshold]

	second, err := e.ReconstructSecret(alt)
	if err != nil {
		return err
	}

	if !first.Equal(second) {
		return ErrInconsistentShares
	}
	return nil
}

// lagrangeCoefficient computes the Lagrange basis polynomial for
// indices[i] evaluated at x=0.
func (e *SecretSharingEngine) lagrangeCoefficient(indices []ShareIndex, i int) (Scalar, error) {
	xi, err := e.indexScalar(indices[i])
	if err != nil {
		return nil, err
	}

	numerator := e.curve.ScalarOne()
	denominator := e.curve.ScalarOne()
	for j, index := range indices {
		if j == i {
			continue
		}
		xj, err := e.indexScalar(index)
		if err != nil {
			return nil, err
		}

		// numerator *= (0 - x_j); denominator *= (x_i - x_j)
		numerator = numerator.Mul(xj.Negate())
		denominator = denominator.Mul(xi.Sub(xj))
	}

	denomInv, err := denominator.Invert()
	if err != nil {
		return nil, ErrShareReconstruction.WithCause(err)
	}
	return numerator.Mul(denomInv), nil
}

// indexScalar embeds a share index into the field. Index 0 maps to
// x=0, the secret itself, and is rejected outright.
func (e *SecretSharingEngine) indexScalar(index ShareIndex) (Scalar, error) {
	if index == 0 || index > 255 {
		return nil, ErrShareConfig.WithContext("share_index", index)
	}
	padded := make([]byte, e.curve.ScalarSize())
	padded[0] = byte(index)
	return e.curve.ScalarFromBytes(padded)
}

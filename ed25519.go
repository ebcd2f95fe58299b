package trustauth

import (
	"crypto/rand"
	"encoding/hex"

	"filippo.io/edwards25519"
)

// Ed25519Curve implements the Curve interface over the Ed25519 scalar
// field. This is the default field for share arithmetic: every scalar
// operation filippo.io/edwards25519 provides is constant time.
type Ed25519Curve struct{}

// NewEd25519Curve creates a new Ed25519 curve instance
func NewEd25519Curve() *Ed25519Curve {
	return &Ed25519Curve{}
}

func (c *Ed25519Curve) Name() string    { return "ed25519" }
func (c *Ed25519Curve) ScalarSize() int { return 32 }

func (c *Ed25519Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar, err := new(edwards25519.Scalar).SetCanonicalBytes(data)
	if err != nil {
		return nil, ErrInvalidScalar
	}

	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, ErrInvalidScalarLength
	}

	// SetUniformBytes wants exactly 64 bytes; pad shorter inputs
	uniformBytes := make([]byte, 64)
	copy(uniformBytes, data)

	scalar, _ := edwards25519.NewScalar().SetUniformBytes(uniformBytes)
	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarRandom() (Scalar, error) {
	bytes := make([]byte, 64) // 64 bytes for uniform distribution
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}

	scalar, _ := edwards25519.NewScalar().SetUniformBytes(bytes)
	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarZero() Scalar {
	return &Ed25519Scalar{inner: edwards25519.NewScalar()}
}

func (c *Ed25519Curve) ScalarOne() Scalar {
	scalar := edwards25519.NewScalar()
	scalar.SetCanonicalBytes([]byte{
		1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	})
	return &Ed25519Scalar{inner: scalar}
}

func (c *Ed25519Curve) ValidateScalar(data []byte) error {
	if len(data) != 32 {
		return ErrInvalidScalarLength
	}

	_, err := new(edwards25519.Scalar).SetCanonicalBytes(data)
	if err != nil {
		return ErrInvalidScalar
	}

	return nil
}

// Ed25519Scalar implements the Scalar interface
type Ed25519Scalar struct {
	inner *edwards25519.Scalar
}

func (s *Ed25519Scalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *Ed25519Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Ed25519Scalar) Add(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Add(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Sub(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Subtract(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Mul(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Multiply(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Negate() Scalar {
	result := edwards25519.NewScalar()
	result.Negate(s.inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}

	result := edwards25519.NewScalar()
	result.Invert(s.inner)
	return &Ed25519Scalar{inner: result}, nil
}

func (s *Ed25519Scalar) Equal(other Scalar) bool {
	return s.inner.Equal(other.(*Ed25519Scalar).inner) == 1
}

func (s *Ed25519Scalar) IsZero() bool {
	zero := edwards25519.NewScalar()
	return s.inner.Equal(zero) == 1
}

func (s *Ed25519Scalar) Zeroize() {
	// Replacing the inner scalar with a fresh zero clears the state
	s.inner = edwards25519.NewScalar()
}

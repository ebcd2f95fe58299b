package trustauth

import (
	"errors"
	"fmt"
)

// Curve exposes the scalar field of a supported curve. Every share and
// partial-signature computation in this library is scalar-field
// arithmetic; no group operations are required.
type Curve interface {
	// Metadata
	Name() string
	ScalarSize() int

	// Scalar operations
	ScalarFromBytes([]byte) (Scalar, error)
	ScalarFromUniformBytes([]byte) (Scalar, error)
	ScalarRandom() (Scalar, error)
	ScalarZero() Scalar
	ScalarOne() Scalar

	// Validation
	ValidateScalar([]byte) error
}

// Scalar represents a scalar value in the curve's field
type Scalar interface {
	// Serialization
	Bytes() []byte
	String() string

	// Arithmetic operations
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() (Scalar, error)

	// Comparison
	Equal(Scalar) bool
	IsZero() bool

	// Security
	Zeroize()
}

// CurveType represents supported curve types
type CurveType string

const (
	Ed25519   CurveType = "ed25519"
	Secp256k1 CurveType = "secp256k1"
)

// NewCurve creates a new curve instance
func NewCurve(curveType CurveType) (Curve, error) {
	switch curveType {
	case Ed25519:
		return NewEd25519Curve(), nil
	case Secp256k1:
		return NewSecp256k1Curve(), nil
	default:
		return nil, fmt.Errorf("unsupported curve type: %s", curveType)
	}
}

// Common errors
var (
	ErrInvalidScalarLength = errors.New("invalid scalar length")
	ErrInvalidScalar       = errors.New("invalid scalar value")
	ErrScalarZero          = errors.New("scalar is zero")
)

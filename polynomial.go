package trustauth

import (
	"fmt"
)

// Polynomial represents a polynomial over a scalar field
type Polynomial struct {
	curve        Curve
	coefficients []Scalar
}

// NewRandomPolynomial creates a random polynomial with the given degree
// and constant term. The constant term is the shared secret.
func NewRandomPolynomial(curve Curve, degree int, constantTerm Scalar) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative")
	}

	coefficients := make([]Scalar, degree+1)
	// Copy the constant term: Zeroize clears every coefficient, and the
	// caller keeps ownership of the secret
	coefficients[0] = constantTerm.Add(curve.ScalarZero())

	for i := 1; i <= degree; i++ {
		coeff, err := curve.ScalarRandom()
		if err != nil {
			return nil, fmt.Errorf("failed to generate coefficient %d: %w", i, err)
		}
		coefficients[i] = coeff
	}

	return &Polynomial{
		curve:        curve,
		coefficients: coefficients,
	}, nil
}

// Evaluate evaluates the polynomial at a given point using Horner's
// method: f(x) = a0 + x(a1 + x(a2 + ...))
func (p *Polynomial) Evaluate(x Scalar) Scalar {
	if len(p.coefficients) == 0 {
		return p.curve.ScalarZero()
	}

	result := p.coefficients[len(p.coefficients)-1]
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}

	return result
}

// Degree returns the degree of the polynomial
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Zeroize securely clears the polynomial coefficients
func (p *Polynomial) Zeroize() {
	for _, coeff := range p.coefficients {
		if coeff != nil {
			coeff.Zeroize()
		}
	}
	for i := range p.coefficients {
		p.coefficients[i] = nil
	}
	p.coefficients = nil
}

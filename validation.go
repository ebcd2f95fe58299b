package trustauth

import (
	"fmt"
	"math"
)

// SecurityLevel grades a threshold configuration
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// DefaultByzantineRatio is the 2/3 bound for Byzantine fault tolerance
const DefaultByzantineRatio = 2.0 / 3.0

// ValidationResult contains the result of parameter validation
type ValidationResult struct {
	Valid                   bool          `json:"valid"`
	SecurityLevel           SecurityLevel `json:"security_level"`
	ByzantineFaultTolerance bool          `json:"byzantine_fault_tolerance"`
	Warnings                []string      `json:"warnings,omitempty"`
	Errors                  []string      `json:"errors,omitempty"`
}

// ThresholdValidator grades threshold parameters before shares are
// provisioned. Hard violations invalidate the configuration; ratio
// findings are advisory warnings.
type ThresholdValidator struct {
	MinShareHolders     int     `json:"min_share_holders"`
	MinThreshold        int     `json:"min_threshold"`
	MaxShareHolders     int     `json:"max_share_holders"`
	ByzantineRatio      float64 `json:"byzantine_ratio"`
	RecommendedMinRatio float64 `json:"recommended_min_ratio"`
	RecommendedMaxRatio float64 `json:"recommended_max_ratio"`
}

// NewDefaultThresholdValidator creates a validator with secure defaults
func NewDefaultThresholdValidator() *ThresholdValidator {
	return &ThresholdValidator{
		MinShareHolders:     3,
		MinThreshold:        2,
		MaxShareHolders:     255, // share indices are single bytes
		ByzantineRatio:      DefaultByzantineRatio,
		RecommendedMinRatio: 0.51,
		RecommendedMaxRatio: 0.80,
	}
}

// Validate grades a (threshold, totalShares) configuration
func (tv *ThresholdValidator) Validate(threshold, totalShares int) *ValidationResult {
	result := &ValidationResult{
		Valid:         true,
		SecurityLevel: SecurityLevelMedium,
	}

	if threshold < tv.MinThreshold {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("threshold %d is below minimum %d", threshold, tv.MinThreshold))
	}
	if totalShares > tv.MaxShareHolders {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("total shares %d exceeds maximum %d", totalShares, tv.MaxShareHolders))
	}
	if threshold > totalShares {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("threshold %d exceeds total shares %d", threshold, totalShares))
	}
	if !result.Valid {
		result.SecurityLevel = SecurityLevelLow
		return result
	}

	if totalShares < tv.MinShareHolders {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("fewer than %d share holders provides no redundancy", tv.MinShareHolders))
		result.SecurityLevel = SecurityLevelLow
	}

	ratio := float64(threshold) / float64(totalShares)
	// Byzantine fault tolerance requires a strict two-thirds majority
	byzantineMin := int(math.Floor(float64(totalShares)*tv.ByzantineRatio)) + 1
	if threshold >= byzantineMin {
		result.ByzantineFaultTolerance = true
	}

	switch {
	case ratio < tv.RecommendedMinRatio:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("threshold ratio %.2f is below the recommended minimum %.2f", ratio, tv.RecommendedMinRatio))
		result.SecurityLevel = SecurityLevelLow
	case ratio > tv.RecommendedMaxRatio:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("threshold ratio %.2f risks availability above %.2f", ratio, tv.RecommendedMaxRatio))
	case result.ByzantineFaultTolerance:
		result.SecurityLevel = SecurityLevelHigh
	}

	return result
}

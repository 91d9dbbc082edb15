package domain

import (
	"fmt"
	"strings"
)

// RiskLevel is the ordered tsunami risk tier.
type RiskLevel int

const (
	RiskMinimal RiskLevel = iota
	RiskLow
	RiskModerate
	RiskHigh
	RiskExtreme
)

var riskNames = []string{"minimal", "low", "moderate", "high", "extreme"}

// SizeCategory buckets an impactor by diameter.
type SizeCategory int

const (
	SizeNegligible SizeCategory = iota
	SizeMinor
	SizeModerate
	SizeMajor
	SizeCatastrophic
)

var sizeNames = []string{"negligible", "minor", "moderate", "major", "catastrophic"}

// ConfidenceLevel grades a casualty estimate by the population data behind it.
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = []string{"low", "medium", "high"}

// DataSource records where an externally sourced value came from.
type DataSource int

const (
	SourceDefault DataSource = iota
	SourceLive
	SourceCached
)

var sourceNames = []string{"default", "live", "cached"}

// DataQuality annotates results that were computed with missing samples.
type DataQuality int

const (
	QualityComplete DataQuality = iota
	QualityIncomplete
)

var qualityNames = []string{"complete", "incomplete"}

// RiskLevels lists every tier in ascending order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskMinimal, RiskLow, RiskModerate, RiskHigh, RiskExtreme}
}

func (r RiskLevel) String() string { return enumName(riskNames, int(r)) }
func (r RiskLevel) MarshalText() ([]byte, error) { return marshalEnum(riskNames, int(r), "risk_level") }
func (r *RiskLevel) UnmarshalText(b []byte) error { return unmarshalEnum(riskNames, b, "risk_level", (*int)(r)) }
func (s SizeCategory) String() string { return enumName(sizeNames, int(s)) }
func (s SizeCategory) MarshalText() ([]byte, error) { return marshalEnum(sizeNames, int(s), "size_category") }
func (s *SizeCategory) UnmarshalText(b []byte) error {
	return unmarshalEnum(sizeNames, b, "size_category", (*int)(s))
}
func (c ConfidenceLevel) String() string { return enumName(confidenceNames, int(c)) }
func (c ConfidenceLevel) MarshalText() ([]byte, error) {
	return marshalEnum(confidenceNames, int(c), "confidence_level")
}
func (c *ConfidenceLevel) UnmarshalText(b []byte) error {
	return unmarshalEnum(confidenceNames, b, "confidence_level", (*int)(c))
}
func (d DataSource) String() string { return enumName(sourceNames, int(d)) }
func (d DataSource) MarshalText() ([]byte, error) { return marshalEnum(sourceNames, int(d), "source") }
func (d *DataSource) UnmarshalText(b []byte) error {
	return unmarshalEnum(sourceNames, b, "source", (*int)(d))
}
func (q DataQuality) String() string { return enumName(qualityNames, int(q)) }
func (q DataQuality) MarshalText() ([]byte, error) { return marshalEnum(qualityNames, int(q), "data_quality") }
func (q *DataQuality) UnmarshalText(b []byte) error {
	return unmarshalEnum(qualityNames, b, "data_quality", (*int)(q))
}

// ParseRiskLevel converts a tier name such as "high" into a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	var r RiskLevel
	err := r.UnmarshalText([]byte(s))
	return r, err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

func marshalEnum(names []string, i int, kind string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("domain: invalid %s %d", kind, i)
	}
	return []byte(names[i]), nil
}

func unmarshalEnum(names []string, text []byte, kind string, dst *int) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range names {
		if n == s {
			*dst = i
			return nil
		}
	}
	return Validation(kind, string(text), "unknown value (valid: "+strings.Join(names, ", ")+")")
}

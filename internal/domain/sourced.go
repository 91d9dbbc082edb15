package domain

// Sourced tags a value with its provenance so a fallback default can never be
// mistaken for live data.
type Sourced[T any] struct {
	Value  T          `json:"value"`
	Source DataSource `json:"source"`
	Note   string     `json:"note,omitempty"`
}

// Live wraps a value obtained from an external source.
func Live[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Source: SourceLive}
}

// Cached wraps a value served from a cache of an external source.
func Cached[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Source: SourceCached}
}

// Fallback wraps a documented default used because the source failed.
func Fallback[T any](v T, note string) Sourced[T] {
	return Sourced[T]{Value: v, Source: SourceDefault, Note: note}
}

// IsDefault reports whether the value is a fallback default.
func (s Sourced[T]) IsDefault() bool {
	return s.Source == SourceDefault
}

package domain

import (
	"fmt"
	"strings"
)

// OnMatch converts a raw filter match into include or exclude intent.
type OnMatch string

const (
	// Include keeps documents that match.
	Include OnMatch = "include"

	// Exclude rejects documents that match.
	Exclude OnMatch = "exclude"
)

// ParseOnMatch resolves a configured value. An empty value resolves to
// Include.
func ParseOnMatch(s string) (OnMatch, error) {
	switch OnMatch(strings.ToLower(strings.TrimSpace(s))) {
	case "", Include:
		return Include, nil
	case Exclude:
		return Exclude, nil
	}
	return "", &ConfigurationError{Param: "on_match", Err: fmt.Errorf("unknown value %q", s)}
}

// FilterVerdict is the outcome of one filter for one document.
type FilterVerdict int

const (
	// NotApplicable means the filter opted out of the document.
	NotApplicable FilterVerdict = iota

	// NotMatched means the filter predicate did not match.
	NotMatched

	// MatchedInclude means an include filter matched.
	MatchedInclude

	// MatchedExclude means an exclude filter matched.
	MatchedExclude
)

// String returns a readable verdict name.
func (v FilterVerdict) String() string {
	switch v {
	case NotMatched:
		return "not_matched"
	case MatchedInclude:
		return "matched_include"
	case MatchedExclude:
		return "matched_exclude"
	default:
		return "not_applicable"
	}
}

// Accepted reports whether the verdict, taken alone, lets a document through.
func (v FilterVerdict) Accepted() bool {
	return v != MatchedExclude
}

// FilterResult pairs a verdict with the filter that produced it.
type FilterResult struct {
	// Filter is the filter name.
	Filter string

	// OnMatch is the filter's resolved intent.
	OnMatch OnMatch

	// Verdict is the outcome for the document.
	Verdict FilterVerdict
}

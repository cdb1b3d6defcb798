package diyanet

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// FetchError wraps a transport failure or an unexpected HTTP status for
// a single request.
type FetchError struct {
	Url string
	Err error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Url, e.Err)
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// Kinds of geographic units reported by NotFoundError.
const (
	KindCountry = "country"
	KindState   = "state"
	KindRegion  = "region"
)

// NotFoundError reports a name that matched nothing at one hierarchy
// level. Suggestion holds the closest known name, when one is close
// enough to be worth printing.
type NotFoundError struct {
	Kind       string
	Name       string
	Suggestion string
}

func (e NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown/unsupported %s: %q (closest match: %q)", e.Kind, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown/unsupported %s: %q", e.Kind, e.Name)
}

// ParseError reports markup or JSON that did not have the expected shape.
type ParseError struct {
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Reason)
}

// TimeFormatError reports a value that could not be read as a time of day.
type TimeFormatError struct {
	Value string
}

func (e TimeFormatError) Error() string {
	return fmt.Sprintf("invalid time of day: %q", e.Value)
}

const suggestionThreshold = 0.8

// closestName picks the candidate most similar to name, or "" when
// nothing clears the similarity threshold.
func closestName(name string, candidates []string) string {
	folded := strings.ToLower(name)

	var best string
	var bestSimilarity float64
	for _, candidate := range candidates {
		similarity := matchr.JaroWinkler(folded, strings.ToLower(candidate), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	if bestSimilarity < suggestionThreshold {
		return ""
	}
	return best
}

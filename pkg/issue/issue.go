// Package issue defines the diagnostic record produced by every checker.
package issue

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/scielo/articlecheck/pkg/document"
)

// Severity is the configured importance of a rule.
type Severity string

// Severity constants, most severe first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// rank orders severities; lower is more severe.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 4
	}
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() <= other.rank()
}

// IsValid reports whether s is one of the known severities.
func (s Severity) IsValid() bool {
	return s.rank() < 4
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q", v)
	}
	return s, nil
}

// Kind is the kind of check that produced a diagnostic.
type Kind string

// Check kinds.
const (
	KindExists      Kind = "exists"
	KindMatch       Kind = "match"
	KindValueInList Kind = "value-in-list"
	KindSimilarity  Kind = "similarity"
	KindUniqueness  Kind = "uniqueness"
)

// ResponseOK is the response of a passing diagnostic.
const ResponseOK = "OK"

// Diagnostic is the outcome of one check on one item.
type Diagnostic struct {
	// Title is a short human-readable name of the check.
	Title string `json:"title"`

	// Context identifies the article or sub-article owning the item.
	Context document.Context `json:"context"`

	// Item and SubItem name the checked element and attribute/child,
	// e.g. "xref" and "@rid".
	Item    string `json:"item"`
	SubItem string `json:"sub_item,omitempty"`

	Kind   Kind `json:"validation_type"`
	Passed bool `json:"passed"`

	Expected string `json:"expected_value,omitempty"`
	Obtained string `json:"got_value,omitempty"`

	// Message is the rendered catalog message.
	Message string `json:"message,omitempty"`

	// Advice tells the author how to fix a failing check.
	Advice string `json:"advice,omitempty"`

	Severity Severity `json:"error_level"`

	// Rule is the configuration key the severity came from.
	Rule string `json:"rule,omitempty"`

	// Line is the source line of the item, when known.
	Line int `json:"line,omitempty"`

	// MessageID is the identifier from the message catalog.
	MessageID DiagnosticID `json:"message_id,omitempty"`

	Payload map[string]any `json:"data,omitempty"`
}

// Response returns "OK" for passing diagnostics and the severity name
// otherwise.
func (d Diagnostic) Response() string {
	if d.Passed {
		return ResponseOK
	}
	return string(d.Severity)
}

// Failed reports whether the check did not pass.
func (d Diagnostic) Failed() bool {
	return !d.Passed
}

// String returns a one-line representation of the diagnostic.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Response())
	b.WriteString(": ")
	b.WriteString(d.Title)
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	b.WriteString(" [")
	b.WriteString(d.Context.Parent)
	if d.Context.ParentID != "" {
		b.WriteString("#")
		b.WriteString(d.Context.ParentID)
	}
	if d.Context.ParentLang != "" {
		b.WriteString(" ")
		b.WriteString(d.Context.ParentLang)
	}
	b.WriteString("]")
	if d.Line > 0 {
		fmt.Fprintf(&b, " line %d", d.Line)
	}
	return b.String()
}

// Stats contains validation statistics.
type Stats struct {
	// RunID identifies the validation run in logs.
	RunID string `json:"run_id,omitempty"`
	// Digest is the hex blake3 digest of the validated bytes, if any.
	Digest string `json:"digest,omitempty"`
	// Duration is the total validation time in nanoseconds.
	Duration int64 `json:"duration"`
	// NodesVisited counts article and sub-article nodes validated.
	NodesVisited int `json:"nodes_visited"`
	// ElementsIndexed counts distinct element ids in the cross-reference graph.
	ElementsIndexed int `json:"elements_indexed"`
	// ReferencesIndexed counts distinct rid values in the cross-reference graph.
	ReferencesIndexed int `json:"references_indexed"`
}

// DurationMs returns the duration in milliseconds.
func (s *Stats) DurationMs() float64 {
	return float64(s.Duration) / 1e6
}

// Result is the ordered sequence of diagnostics from one validation run.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Stats       *Stats       `json:"stats,omitempty"`
}

// defaultCapacity is the pre-allocated capacity for Diagnostics.
const defaultCapacity = 32

// NewResult creates a new empty Result.
func NewResult() *Result {
	return &Result{
		Diagnostics: make([]Diagnostic, 0, defaultCapacity),
	}
}

// Add appends a diagnostic.
func (r *Result) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// AddSeq appends every diagnostic produced by seq, in order.
func (r *Result) AddSeq(seq iter.Seq[Diagnostic]) {
	for d := range seq {
		r.Diagnostics = append(r.Diagnostics, d)
	}
}

// Merge appends the diagnostics of other.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// All yields every diagnostic in order.
func (r *Result) All() iter.Seq[Diagnostic] {
	return slices.Values(r.Diagnostics)
}

// Failures yields the diagnostics that did not pass.
func (r *Result) Failures() iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, d := range r.Diagnostics {
			if d.Passed {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// FailureCount returns the number of failing diagnostics.
func (r *Result) FailureCount() int {
	count := 0
	for _, d := range r.Diagnostics {
		if !d.Passed {
			count++
		}
	}
	return count
}

// CountFailures returns the number of failing diagnostics with the given
// severity.
func (r *Result) CountFailures(severity Severity) int {
	count := 0
	for _, d := range r.Diagnostics {
		if !d.Passed && d.Severity == severity {
			count++
		}
	}
	return count
}

// HasFailuresAtLeast reports whether a failing diagnostic at min severity or
// above exists.
func (r *Result) HasFailuresAtLeast(min Severity) bool {
	for _, d := range r.Diagnostics {
		if !d.Passed && d.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

// Filter returns a new Result with the diagnostics accepted by keep.
func (r *Result) Filter(keep func(Diagnostic) bool) *Result {
	filtered := NewResult()
	filtered.Stats = r.Stats
	for _, d := range r.Diagnostics {
		if keep(d) {
			filtered.Diagnostics = append(filtered.Diagnostics, d)
		}
	}
	return filtered
}

// SortBySeverity orders failures first, most severe first. The sort is
// stable so document order is kept within a severity.
func (r *Result) SortBySeverity() {
	slices.SortStableFunc(r.Diagnostics, func(a, b Diagnostic) int {
		if a.Passed != b.Passed {
			if a.Passed {
				return 1
			}
			return -1
		}
		return a.Severity.rank() - b.Severity.rank()
	})
}

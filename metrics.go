package articlecheck

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scielo/articlecheck/pkg/issue"
)

// Metrics tracks validation counters using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Validation counts
	validationsTotal atomic.Uint64
	validationsClean atomic.Uint64
	validationsFault atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	// Failure counts by severity
	criticalTotal atomic.Uint64
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64
	infosTotal    atomic.Uint64

	// Failures per rule
	rules sync.Map // map[string]*atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// RecordValidation records a completed validation. clean is true when the
// document produced no failures.
func (m *Metrics) RecordValidation(duration time.Duration, clean bool) {
	m.validationsTotal.Add(1)
	if clean {
		m.validationsClean.Add(1)
	}

	ns := uint64(max(duration.Nanoseconds(), 0))
	m.validationTimeTotal.Add(ns)

	for {
		old := m.validationTimeMin.Load()
		if ns >= old || m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.validationTimeMax.Load()
		if ns <= old || m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordFault records a document that could not be validated at all.
func (m *Metrics) RecordFault() {
	m.validationsFault.Add(1)
}

// RecordFailure records one failing diagnostic.
func (m *Metrics) RecordFailure(d issue.Diagnostic) {
	switch d.Severity {
	case issue.SeverityCritical:
		m.criticalTotal.Add(1)
	case issue.SeverityError:
		m.errorsTotal.Add(1)
	case issue.SeverityWarning:
		m.warningsTotal.Add(1)
	case issue.SeverityInfo:
		m.infosTotal.Add(1)
	}
	if d.Rule != "" {
		m.ruleCounter(d.Rule).Add(1)
	}
}

// RecordResult records a validation result and each of its failures.
func (m *Metrics) RecordResult(r *issue.Result) {
	var duration time.Duration
	if r.Stats != nil {
		duration = time.Duration(r.Stats.Duration)
	}
	failures := 0
	for d := range r.Failures() {
		m.RecordFailure(d)
		failures++
	}
	m.RecordValidation(duration, failures == 0)
}

func (m *Metrics) ruleCounter(rule string) *atomic.Uint64 {
	if v, ok := m.rules.Load(rule); ok {
		return v.(*atomic.Uint64)
	}
	actual, _ := m.rules.LoadOrStore(rule, new(atomic.Uint64))
	return actual.(*atomic.Uint64)
}

// ValidationsTotal returns the number of completed validations.
func (m *Metrics) ValidationsTotal() uint64 {
	return m.validationsTotal.Load()
}

// ValidationsClean returns the number of validations without failures.
func (m *Metrics) ValidationsClean() uint64 {
	return m.validationsClean.Load()
}

// Faults returns the number of documents that could not be validated.
func (m *Metrics) Faults() uint64 {
	return m.validationsFault.Load()
}

// AverageValidationTime returns the average validation duration.
func (m *Metrics) AverageValidationTime() time.Duration {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.validationTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinValidationTime returns the minimum validation duration.
func (m *Metrics) MinValidationTime() time.Duration {
	minVal := m.validationTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // nanoseconds within int64 range
}

// MaxValidationTime returns the maximum validation duration.
func (m *Metrics) MaxValidationTime() time.Duration {
	return time.Duration(m.validationTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// Failures returns the number of failures recorded at severity.
func (m *Metrics) Failures(severity issue.Severity) uint64 {
	switch severity {
	case issue.SeverityCritical:
		return m.criticalTotal.Load()
	case issue.SeverityError:
		return m.errorsTotal.Load()
	case issue.SeverityWarning:
		return m.warningsTotal.Load()
	case issue.SeverityInfo:
		return m.infosTotal.Load()
	default:
		return 0
	}
}

// RuleStats is the failure count of one rule.
type RuleStats struct {
	Rule     string `json:"rule"`
	Failures uint64 `json:"failures"`
}

// RuleStats returns the failure counts per rule, most frequent first.
func (m *Metrics) RuleStats() []RuleStats {
	var stats []RuleStats
	m.rules.Range(func(key, value any) bool {
		stats = append(stats, RuleStats{Rule: key.(string), Failures: value.(*atomic.Uint64).Load()})
		return true
	})
	slices.SortFunc(stats, func(a, b RuleStats) int {
		if a.Failures != b.Failures {
			if a.Failures > b.Failures {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Rule, b.Rule)
	})
	return stats
}

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ValidationsTotal uint64 `json:"validations_total"`
	ValidationsClean uint64 `json:"validations_clean"`
	Faults           uint64 `json:"faults"`

	AvgValidationTimeNs uint64 `json:"avg_validation_time_ns"`
	MinValidationTimeNs uint64 `json:"min_validation_time_ns"`
	MaxValidationTimeNs uint64 `json:"max_validation_time_ns"`

	CriticalTotal uint64 `json:"critical_total"`
	ErrorsTotal   uint64 `json:"errors_total"`
	WarningsTotal uint64 `json:"warnings_total"`
	InfosTotal    uint64 `json:"infos_total"`

	Rules []RuleStats `json:"rules,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:           time.Now(),
		ValidationsTotal:    m.validationsTotal.Load(),
		ValidationsClean:    m.validationsClean.Load(),
		Faults:              m.validationsFault.Load(),
		AvgValidationTimeNs: uint64(m.AverageValidationTime()), //nolint:gosec // non-negative
		MinValidationTimeNs: uint64(m.MinValidationTime()),     //nolint:gosec // non-negative
		MaxValidationTimeNs: m.validationTimeMax.Load(),
		CriticalTotal:       m.criticalTotal.Load(),
		ErrorsTotal:         m.errorsTotal.Load(),
		WarningsTotal:       m.warningsTotal.Load(),
		InfosTotal:          m.infosTotal.Load(),
		Rules:               m.RuleStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.validationsTotal.Store(0)
	m.validationsClean.Store(0)
	m.validationsFault.Store(0)
	m.validationTimeTotal.Store(0)
	m.validationTimeMin.Store(^uint64(0))
	m.validationTimeMax.Store(0)
	m.criticalTotal.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.infosTotal.Store(0)
	m.rules.Range(func(key, _ any) bool {
		m.rules.Delete(key)
		return true
	})
}

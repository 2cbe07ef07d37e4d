package articlecheck

import (
	"sync"
	"testing"
	"time"

	"github.com/scielo/articlecheck/pkg/issue"
)

func TestMetrics_Basic(t *testing.T) {
	m := NewMetrics()

	if m.ValidationsTotal() != 0 {
		t.Errorf("ValidationsTotal() = %d; want 0", m.ValidationsTotal())
	}

	m.RecordValidation(100*time.Millisecond, true)
	m.RecordValidation(100*time.Millisecond, false)
	m.RecordFault()

	if m.ValidationsTotal() != 2 {
		t.Errorf("ValidationsTotal() = %d; want 2", m.ValidationsTotal())
	}
	if m.ValidationsClean() != 1 {
		t.Errorf("ValidationsClean() = %d; want 1", m.ValidationsClean())
	}
	if m.Faults() != 1 {
		t.Errorf("Faults() = %d; want 1", m.Faults())
	}
}

func TestMetrics_ValidationTime(t *testing.T) {
	m := NewMetrics()

	if avg := m.AverageValidationTime(); avg != 0 {
		t.Errorf("AverageValidationTime() = %v; want 0", avg)
	}
	if minTime := m.MinValidationTime(); minTime != 0 {
		t.Errorf("MinValidationTime() = %v; want 0", minTime)
	}

	m.RecordValidation(100*time.Millisecond, true)
	m.RecordValidation(200*time.Millisecond, true)
	m.RecordValidation(300*time.Millisecond, true)

	if avg := m.AverageValidationTime(); avg != 200*time.Millisecond {
		t.Errorf("AverageValidationTime() = %v; want 200ms", avg)
	}
	if minTime := m.MinValidationTime(); minTime != 100*time.Millisecond {
		t.Errorf("MinValidationTime() = %v; want 100ms", minTime)
	}
	if maxTime := m.MaxValidationTime(); maxTime != 300*time.Millisecond {
		t.Errorf("MaxValidationTime() = %v; want 300ms", maxTime)
	}
}

func TestMetrics_RecordResult(t *testing.T) {
	m := NewMetrics()

	r := issue.NewResult()
	r.Add(issue.Diagnostic{Passed: true, Severity: issue.SeverityError, Rule: "xref_rid_resolves"})
	r.Add(issue.Diagnostic{Severity: issue.SeverityCritical, Rule: "xref_rid_resolves"})
	r.Add(issue.Diagnostic{Severity: issue.SeverityCritical, Rule: "xref_rid_resolves"})
	r.Add(issue.Diagnostic{Severity: issue.SeverityInfo, Rule: "aff_country"})
	r.Stats = &issue.Stats{Duration: int64(5 * time.Millisecond)}
	m.RecordResult(r)

	tests := []struct {
		severity issue.Severity
		want     uint64
	}{
		{issue.SeverityCritical, 2},
		{issue.SeverityError, 0},
		{issue.SeverityWarning, 0},
		{issue.SeverityInfo, 1},
	}
	for _, tt := range tests {
		if got := m.Failures(tt.severity); got != tt.want {
			t.Errorf("Failures(%s) = %d; want %d", tt.severity, got, tt.want)
		}
	}

	rules := m.RuleStats()
	want := []RuleStats{{"xref_rid_resolves", 2}, {"aff_country", 1}}
	if len(rules) != len(want) {
		t.Fatalf("RuleStats() = %v; want %v", rules, want)
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("RuleStats()[%d] = %v; want %v", i, rules[i], want[i])
		}
	}

	if m.ValidationsClean() != 0 {
		t.Error("a result with failures is not clean")
	}
	if m.MaxValidationTime() != 5*time.Millisecond {
		t.Errorf("MaxValidationTime() = %v; want 5ms", m.MaxValidationTime())
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordValidation(time.Millisecond, true)
			m.RecordFailure(issue.Diagnostic{Severity: issue.SeverityError, Rule: "aff_orgname"})
		}()
	}
	wg.Wait()

	if m.ValidationsTotal() != 50 {
		t.Errorf("ValidationsTotal() = %d; want 50", m.ValidationsTotal())
	}
	if got := m.RuleStats(); len(got) != 1 || got[0].Failures != 50 {
		t.Errorf("RuleStats() = %v", got)
	}
}

func TestMetrics_SnapshotAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordValidation(time.Millisecond, false)
	m.RecordFailure(issue.Diagnostic{Severity: issue.SeverityWarning, Rule: "aff_city"})

	s := m.Snapshot()
	if s.ValidationsTotal != 1 || s.WarningsTotal != 1 || len(s.Rules) != 1 {
		t.Errorf("Snapshot() = %+v", s)
	}

	m.Reset()
	s = m.Snapshot()
	if s.ValidationsTotal != 0 || s.WarningsTotal != 0 || len(s.Rules) != 0 || s.MinValidationTimeNs != 0 {
		t.Errorf("Snapshot() after Reset = %+v", s)
	}
}

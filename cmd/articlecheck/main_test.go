package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/styleerror"
	"github.com/scielo/articlecheck/pkg/worker"
)

func sampleResult() *issue.Result {
	r := issue.NewResult()
	r.Add(issue.Diagnostic{Title: "fig is referenced", Passed: true, Severity: issue.SeverityError, Rule: "xref_target_referenced"})
	r.Add(issue.Diagnostic{Title: "rid resolves", Severity: issue.SeverityCritical, Rule: "xref_rid_resolves", Line: 12})
	r.Add(issue.Diagnostic{Title: "aff country", Severity: issue.SeverityInfo, Rule: "aff_country"})
	r.Stats = &issue.Stats{NodesVisited: 2}
	return r
}

func TestPrinterKeep(t *testing.T) {
	tests := []struct {
		name        string
		minSeverity issue.Severity
		verbose     bool
		want        int
	}{
		{"all failures", issue.SeverityInfo, false, 2},
		{"errors only", issue.SeverityError, false, 1},
		{"verbose", issue.SeverityInfo, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &printer{minSeverity: tt.minSeverity, verbose: tt.verbose}
			if got := len(sampleResult().Filter(p.keep).Diagnostics); got != tt.want {
				t.Errorf("kept %d diagnostics, want %d", got, tt.want)
			}
		})
	}
}

func TestPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{out: &buf, format: OutputText, minSeverity: issue.SeverityInfo}
	p.add(&worker.JobResult{Name: "a.xml", Result: sampleResult()})
	p.add(&worker.JobResult{Name: "b.xml", Error: errors.New("XML syntax error")})
	p.flush()

	out := buf.String()
	for _, want := range []string{
		"== a.xml ==",
		"Status: INVALID",
		"Critical: 1, Errors: 0, Warnings: 0, Info: 1",
		"CRIT  [xref_rid_resolves] rid resolves @ line 12",
		"Error validating b.xml: XML syntax error",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestPrinterOrdersBySeverity(t *testing.T) {
	r := issue.NewResult()
	r.Add(issue.Diagnostic{Title: "aff country", Severity: issue.SeverityInfo, Rule: "aff_country"})
	r.Add(issue.Diagnostic{Title: "fig is cited", Passed: true, Severity: issue.SeverityError, Rule: "xref_target_referenced"})
	r.Add(issue.Diagnostic{Title: "rid resolves", Severity: issue.SeverityCritical, Rule: "xref_rid_resolves"})
	r.Add(issue.Diagnostic{Title: "translation", Severity: issue.SeverityError, Rule: "translation_similarity"})

	p := &printer{minSeverity: issue.SeverityInfo, verbose: true}
	shown := p.shown(r)

	want := []string{"rid resolves", "translation", "aff country", "fig is cited"}
	if len(shown.Diagnostics) != len(want) {
		t.Fatalf("shown %d diagnostics, want %d", len(shown.Diagnostics), len(want))
	}
	for i, d := range shown.Diagnostics {
		if d.Title != want[i] {
			t.Errorf("Diagnostics[%d] = %q, want %q", i, d.Title, want[i])
		}
	}
	if r.Diagnostics[0].Title != "aff country" {
		t.Error("ordering should not change the validation result")
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{out: &buf, format: OutputJSON, minSeverity: issue.SeverityError}
	p.add(&worker.JobResult{Name: "a.xml", Result: sampleResult()})
	p.add(&worker.JobResult{Name: "b.xml", Error: errors.New("no article")})
	p.flush()

	var outputs []ValidationOutput
	if err := json.Unmarshal(buf.Bytes(), &outputs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	if outputs[0].Valid || outputs[0].Critical != 1 || len(outputs[0].Result.Diagnostics) != 1 {
		t.Errorf("outputs[0] = %+v", outputs[0])
	}
	if outputs[1].Fault != "no article" {
		t.Errorf("outputs[1].Fault = %q", outputs[1].Fault)
	}
}

func TestCollectJobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xml", "b.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<article/>"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	jobs, hasErrors := collectJobs([]string{filepath.Join(dir, "*.xml"), filepath.Join(dir, "missing-*.xml")})
	if len(jobs) != 2 {
		t.Errorf("got %d jobs, want 2", len(jobs))
	}
	if !hasErrors {
		t.Error("an unmatched pattern should be reported")
	}
}

func TestLoadStyleErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"schema and schematron", `
- kind: schema
  line: 4
  message: "Element 'fig': Missing child element(s)."
- kind: schematron
  location: /article/body[1]/fig[1]
  message: fig requires a graphic
`, 2, false},
		{"unknown kind", "- kind: dtd\n  message: x\n", 0, true},
		{"not a list", "kind: schema\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "style.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			errs, err := loadStyleErrors(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadStyleErrors() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(errs) != tt.want {
				t.Errorf("got %d errors, want %d", len(errs), tt.want)
			}
			if tt.want > 0 && errs[0].Kind != styleerror.KindSchema {
				t.Errorf("errs[0].Kind = %q", errs[0].Kind)
			}
		})
	}
}

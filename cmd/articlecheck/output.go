package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/scielo/articlecheck"
	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/worker"
)

// ValidationOutput represents the JSON output of one document.
type ValidationOutput struct {
	Document string        `json:"document"`
	Valid    bool          `json:"valid"`
	Critical int           `json:"critical"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Info     int           `json:"info"`
	Fault    string        `json:"fault,omitempty"`
	Duration string        `json:"duration"`
	Result   *issue.Result `json:"result,omitempty"`
}

// printer writes results as they arrive in text mode and all at once in
// JSON mode.
type printer struct {
	out         io.Writer
	format      OutputFormat
	minSeverity issue.Severity
	verbose     bool

	outputs []ValidationOutput
}

// keep reports whether d is shown.
func (p *printer) keep(d issue.Diagnostic) bool {
	if d.Passed {
		return p.verbose
	}
	return d.Severity.AtLeast(p.minSeverity)
}

// shown returns the kept diagnostics of result, failures first and most
// severe first.
func (p *printer) shown(result *issue.Result) *issue.Result {
	shown := result.Filter(p.keep)
	shown.SortBySeverity()
	return shown
}

func (p *printer) add(jr *worker.JobResult) {
	duration := time.Duration(jr.Duration).Round(time.Microsecond)

	if jr.Error != nil {
		if p.format == OutputJSON {
			p.outputs = append(p.outputs, ValidationOutput{
				Document: jr.Name,
				Fault:    jr.Error.Error(),
				Duration: duration.String(),
			})
			return
		}
		fmt.Fprintf(p.out, "Error validating %s: %v\n\n", jr.Name, jr.Error)
		return
	}

	result := jr.Result
	if p.format == OutputJSON {
		p.outputs = append(p.outputs, ValidationOutput{
			Document: jr.Name,
			Valid:    !result.HasFailuresAtLeast(issue.SeverityError),
			Critical: result.CountFailures(issue.SeverityCritical),
			Errors:   result.CountFailures(issue.SeverityError),
			Warnings: result.CountFailures(issue.SeverityWarning),
			Info:     result.CountFailures(issue.SeverityInfo),
			Duration: duration.String(),
			Result:   p.shown(result),
		})
		return
	}
	p.printText(jr.Name, result, duration)
}

func (p *printer) flush() {
	if p.format != OutputJSON {
		return
	}
	data, _ := json.MarshalIndent(p.outputs, "", "  ")
	fmt.Fprintln(p.out, string(data))
}

func (p *printer) printText(name string, result *issue.Result, duration time.Duration) {
	status := "VALID"
	if result.HasFailuresAtLeast(issue.SeverityError) {
		status = "INVALID"
	}

	fmt.Fprintf(p.out, "== %s ==\n", name)
	fmt.Fprintf(p.out, "Status: %s\n", status)
	fmt.Fprintf(p.out, "Critical: %d, Errors: %d, Warnings: %d, Info: %d\n",
		result.CountFailures(issue.SeverityCritical),
		result.CountFailures(issue.SeverityError),
		result.CountFailures(issue.SeverityWarning),
		result.CountFailures(issue.SeverityInfo))

	if result.Stats != nil {
		fmt.Fprintf(p.out, "Nodes: %d, Ids: %d, Rids: %d\n",
			result.Stats.NodesVisited, result.Stats.ElementsIndexed, result.Stats.ReferencesIndexed)
		fmt.Fprintf(p.out, "Duration: %s\n", duration)
	}

	shown := p.shown(result)
	if len(shown.Diagnostics) > 0 {
		fmt.Fprintln(p.out, "\nDiagnostics:")
		for _, d := range shown.Diagnostics {
			location := ""
			if d.Line > 0 {
				location = fmt.Sprintf(" @ line %d", d.Line)
			}
			fmt.Fprintf(p.out, "  %s [%s] %s%s\n", severityIcon(d), d.Rule, describe(d), location)
		}
	}

	fmt.Fprintln(p.out)
}

// describe returns the message of d, or its title when it has none.
func describe(d issue.Diagnostic) string {
	text := d.Title
	if d.Message != "" {
		text = d.Message
	}
	if d.Context.ParentID != "" {
		text += fmt.Sprintf(" (%s %s)", d.Context.Parent, d.Context.ParentID)
	}
	return text
}

func severityIcon(d issue.Diagnostic) string {
	if d.Passed {
		return "OK   "
	}
	switch d.Severity {
	case issue.SeverityCritical:
		return "CRIT "
	case issue.SeverityError:
		return "ERROR"
	case issue.SeverityWarning:
		return "WARN "
	case issue.SeverityInfo:
		return "INFO "
	default:
		return "     "
	}
}

func printMetrics(w io.Writer, m *articlecheck.Metrics) {
	fmt.Fprintf(w, "Validated: %d (%d clean, %d faults)\n", m.ValidationsTotal(), m.ValidationsClean(), m.Faults())
	fmt.Fprintf(w, "Time: avg %s, min %s, max %s\n",
		m.AverageValidationTime().Round(time.Microsecond),
		m.MinValidationTime().Round(time.Microsecond),
		m.MaxValidationTime().Round(time.Microsecond))
	for _, rs := range m.RuleStats() {
		fmt.Fprintf(w, "  %-28s %d\n", rs.Rule, rs.Failures)
	}
}

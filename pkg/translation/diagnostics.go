package translation

import (
	"iter"
	"strconv"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/issue"
)

// Check names the compared entity and the rules its diagnostics report under.
type Check struct {
	Item           string
	CountRule      config.Rule
	SimilarityRule config.Rule
}

// Diagnostics yields one failing count diagnostic when the cardinalities
// differ. Otherwise it yields one failing similarity diagnostic per pair with
// invalid fields and nothing for pairs that agree.
func (r *Report) Diagnostics(check Check, scope *config.Scope, ctx document.Context, line int) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		if !r.CountMatches() {
			d := issue.New(issue.DiagTranslationCount).
				Context(ctx).
				Item(check.Item, "count").
				Passed(false).
				Values(strconv.Itoa(r.MainCount), strconv.Itoa(r.TranslatedCount)).
				Severity(string(check.CountRule), scope.Severity(check.CountRule)).
				Line(line).
				Params(map[string]any{
					"main_count":       r.MainCount,
					"translated_count": r.TranslatedCount,
					"lang":             r.Lang,
				}).
				Build()
			yield(d)
			return
		}

		for _, p := range r.Pairs {
			if p.Passed() {
				continue
			}
			names := make([]string, 0, len(p.Mismatched))
			for _, f := range p.Mismatched {
				names = append(names, f.Field)
			}
			d := issue.New(issue.DiagTranslationSimilarity).
				Context(ctx).
				Item(check.Item, p.Translated.ID).
				Passed(false).
				Values(p.Main.Label, p.Translated.Label).
				Severity(string(check.SimilarityRule), scope.Severity(check.SimilarityRule)).
				Line(p.Translated.Line).
				Params(map[string]any{
					"lang":              r.Lang,
					"main_id":           p.Main.ID,
					"translated_id":     p.Translated.ID,
					"mismatched":        p.MismatchText(),
					"mismatched_fields": names,
					"valid":             p.Valid,
					"invalid":           p.Invalid,
				}).
				Build()
			if !yield(d) {
				return
			}
		}
	}
}

// Package validator runs every consistency check over an article and its
// sub-articles and collects the diagnostics in document order.
package validator

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/scielo/articlecheck/pkg/aff"
	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/logger"
	"github.com/scielo/articlecheck/pkg/styleerror"
	"github.com/scielo/articlecheck/pkg/translation"
	"github.com/scielo/articlecheck/pkg/xref"
)

// Validator checks articles against one resolved rule set. It is immutable
// after New and safe for concurrent use.
type Validator struct {
	config *Config
	scopes *config.Scopes

	scorer          *translation.Scorer
	mainXref        *xref.Checker
	translationXref *xref.Checker
}

// Config holds the validator configuration.
type Config struct {
	Rules     *config.Config // Rule set; the embedded defaults when nil
	RulesFile string         // YAML rule file, read when Rules is nil
}

// Option is a functional option for configuring the validator.
type Option func(*Config)

// WithConfig sets the rule set.
func WithConfig(rules *config.Config) Option {
	return func(c *Config) {
		c.Rules = rules
	}
}

// WithConfigFile reads the rule set from a YAML file.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.RulesFile = path
	}
}

// validateConfig holds per-call validation options.
type validateConfig struct {
	styleErrors []styleerror.Error
	digest      string
}

// ValidateOption configures a single Validate call.
type ValidateOption func(*validateConfig)

// ValidateWithStyleErrors reports errors found by an external schema or
// Schematron validator along with the consistency diagnostics.
func ValidateWithStyleErrors(errs ...styleerror.Error) ValidateOption {
	return func(c *validateConfig) {
		c.styleErrors = append(c.styleErrors, errs...)
	}
}

// New creates a Validator. Every configuration error is reported here,
// before any document is checked.
func New(opts ...Option) (*Validator, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	rules := cfg.Rules
	switch {
	case rules != nil:
	case cfg.RulesFile != "":
		var err error
		rules, err = config.LoadFile(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded rules from %s", cfg.RulesFile)
	default:
		rules = config.Default()
		logger.Debug("Using embedded default rules")
	}

	scopes, err := rules.Resolve()
	if err != nil {
		return nil, err
	}

	scorer, err := translation.NewScorer(scopes.Translation.Thresholds)
	if err != nil {
		return nil, err
	}
	mainXref, err := xref.NewChecker(scopes.Main)
	if err != nil {
		return nil, err
	}
	translationXref, err := xref.NewChecker(scopes.Translation)
	if err != nil {
		return nil, err
	}

	logger.Debug("  Required references: %v (main), %v (translation)",
		scopes.Main.RequiredTags(), scopes.Translation.RequiredTags())
	logger.Debug("  Compared fields: %v", scorer.Fields())

	return &Validator{
		config:          cfg,
		scopes:          scopes,
		scorer:          scorer,
		mainXref:        mainXref,
		translationXref: translationXref,
	}, nil
}

// Scopes returns the resolved main and translation configuration.
func (v *Validator) Scopes() *config.Scopes {
	return v.scopes
}

// Config returns the validator configuration.
func (v *Validator) Config() *Config {
	return v.config
}

// ValidateBytes parses data and validates the document. The returned
// statistics carry the blake3 digest of data.
func (v *Validator) ValidateBytes(ctx context.Context, data []byte, opts ...ValidateOption) (*issue.Result, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	sum := blake3.Sum256(data)
	opts = append(opts, func(c *validateConfig) {
		c.digest = hex.EncodeToString(sum[:])
	})
	return v.Validate(ctx, doc, opts...)
}

// Validate checks doc: the main article first, then every translation
// (recursively), then the other sub-articles. A failing check never stops
// the others.
func (v *Validator) Validate(ctx context.Context, doc *document.Document, opts ...ValidateOption) (*issue.Result, error) {
	startTime := time.Now()

	var vc validateConfig
	for _, opt := range opts {
		opt(&vc)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := v.newRun(ctx, doc)
	r.log.Debug("Validating %d node(s), languages %v", len(doc.Nodes()), doc.Languages())

	article := doc.Article()
	r.validateMain(article)
	r.validateTranslations(article)
	r.validateNonTranslations(article, v.scopes.Main)
	if r.err != nil {
		return nil, r.err
	}

	for _, e := range vc.styleErrors {
		r.result.Add(styleerror.Diagnostic(doc, e, v.scopes))
	}

	r.result.Stats = &issue.Stats{
		RunID:             r.id,
		Digest:            vc.digest,
		Duration:          time.Since(startTime).Nanoseconds(),
		NodesVisited:      r.visited,
		ElementsIndexed:   len(r.graph.ElementsByID),
		ReferencesIndexed: len(r.graph.ReferencesByRID),
	}

	r.log.Info("Validated %d node(s) in %.3fms: %d failures (%d critical, %d errors, %d warnings)",
		r.visited,
		r.result.Stats.DurationMs(),
		r.result.FailureCount(),
		r.result.CountFailures(issue.SeverityCritical),
		r.result.CountFailures(issue.SeverityError),
		r.result.CountFailures(issue.SeverityWarning),
	)

	return r.result, nil
}

// extraction is the outcome of affiliation extraction for one node.
type extraction struct {
	affs []aff.Affiliation
	err  error
}

// run holds the state of one Validate call. Everything derived from the
// document is computed once here.
type run struct {
	v   *Validator
	ctx context.Context
	id  string
	log *logger.Logger

	graph *xref.Graph
	affs  map[*document.Node]extraction

	result  *issue.Result
	visited int
	err     error
}

func (v *Validator) newRun(ctx context.Context, doc *document.Document) *run {
	id := uuid.New().String()
	r := &run{
		v:      v,
		ctx:    ctx,
		id:     id,
		log:    logger.Default().With("run_id", id),
		graph:  xref.Build(doc, xref.Options{Tags: v.scopes.Main.Tags}),
		affs:   make(map[*document.Node]extraction, len(doc.Nodes())),
		result: issue.NewResult(),
	}
	for _, n := range doc.Nodes() {
		affs, err := aff.Extract(n)
		r.affs[n] = extraction{affs: affs, err: err}
	}
	return r
}

// check runs the per-node checks with the given scope.
func (r *run) check(node *document.Node, scope *config.Scope, checker *xref.Checker) bool {
	if r.err != nil {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return false
	}
	r.visited++

	id, _ := node.ID()
	r.log.Debug("  %s %q (%s scope)", node.Kind(), id, scope.Name)

	r.result.AddSeq(checker.Check(r.graph, node))

	ex := r.affs[node]
	if ex.err != nil {
		d, ok := aff.FaultDiagnostic(ex.err, scope)
		if !ok {
			r.err = fmt.Errorf("extracting affiliations: %w", ex.err)
			return false
		}
		r.result.Add(d)
		return true
	}
	r.result.AddSeq(aff.Check(ex.affs, scope))
	return true
}

func (r *run) validateMain(article *document.Node) {
	r.check(article, r.v.scopes.Main, r.v.mainXref)
}

// validateTranslations checks every translation of parent with the
// translation scope and compares its affiliations with the parent's.
func (r *run) validateTranslations(parent *document.Node) {
	for _, t := range parent.Translations() {
		if !r.check(t, r.v.scopes.Translation, r.v.translationXref) {
			return
		}
		r.compare(parent, t)
		r.validateTranslations(t)
		r.validateNonTranslations(t, r.v.scopes.Translation)
	}
}

// validateNonTranslations checks sub-articles that are not translations,
// such as reviews, with the scope of their parent.
func (r *run) validateNonTranslations(parent *document.Node, scope *config.Scope) {
	checker := r.v.mainXref
	if scope.Name == config.ScopeTranslation {
		checker = r.v.translationXref
	}
	for _, sub := range parent.NotTranslations() {
		if !r.check(sub, scope, checker) {
			return
		}
		r.validateTranslations(sub)
		r.validateNonTranslations(sub, scope)
	}
}

var affTranslationCheck = translation.Check{
	Item:           aff.TagAff,
	CountRule:      config.RuleAffTranslationCount,
	SimilarityRule: config.RuleAffTranslationSimilarity,
}

// compare checks the affiliations of a translation against its parent's.
// Nodes whose front matter could not be read were already reported.
func (r *run) compare(parent, t *document.Node) {
	main, translated := r.affs[parent], r.affs[t]
	if main.err != nil || translated.err != nil {
		return
	}
	lang, _ := t.Lang()
	report := r.v.scorer.Compare(aff.Records(main.affs), aff.Records(translated.affs), lang)
	r.result.AddSeq(report.Diagnostics(affTranslationCheck, r.v.scopes.Translation, t.Context(), t.Element().LineNumber))
}

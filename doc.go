// Package articlecheck checks the internal consistency of JATS/SPS
// scholarly articles.
//
// An article is one XML document holding a main article and any number of
// sub-articles: translations, reviewer reports, replies. The checks look
// for problems a schema cannot catch:
//
//   - Cross-references: every cited figure, table or formula has an xref
//     pointing at it, and every xref rid resolves to an element.
//   - Affiliations: each aff carries the expected parts (original text,
//     institution, country with a valid ISO code, city, state).
//   - Translations: a translated sub-article has as many affiliations as
//     its parent, and each pair says the same thing.
//
// # Quick Start
//
//	v, err := validator.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := v.ValidateBytes(ctx, xmlData)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for d := range result.Failures() {
//	    fmt.Println(d)
//	}
//
// # Rules
//
// Which elements must be referenced, the similarity thresholds, the
// severity of every rule and the allowed country codes come from a YAML
// rule set. The embedded defaults are returned by config.DefaultYAML;
// pass another file with validator.WithConfigFile. A translation scope
// overrides parts of the main scope for translated sub-articles.
//
// # Packages
//
//   - pkg/document: parsed article tree and sub-article contexts
//   - pkg/xref: id/rid reference graph and its checks
//   - pkg/aff: affiliation extraction and presence checks
//   - pkg/similarity: text normalization and similarity ratios
//   - pkg/translation: pairing and scoring of translated records
//   - pkg/styleerror: schema and Schematron errors as diagnostics
//   - pkg/validator: runs every check over a document
//   - pkg/worker: batch validation on a bounded goroutine pool
//
// The articlecheck command in cmd/articlecheck validates files from the
// command line.
package articlecheck

// Package simulator builds an in-memory directed graph from entities and
// evidence and performs a bounded, deterministic breadth-first search from
// drug to disease, scoring paths by confidence propagation. Uses the
// adjacency-construction idiom of a directed-graph builder and a
// deterministic, stable-sorted discipline for path ranking
// (optimizeStepOrdering-style tie-breaking).
package simulator

import (
	"regexp"
	"strings"

	"github.com/biomind/repurposing/pkg/domain"
)

// relationPattern is one entry of the shared regex table used by both the
// ingestion pipeline's relation extraction and the simulator's evidence scan.
type relationPattern struct {
	relation domain.Relation
	pattern  *regexp.Regexp
	modifier float64
}

// relationTable is checked in order; the first match wins. Modifiers are a
// table of constants per relation type, ranging 0.40-1.00, used only by the
// simulator to scale the confidence of its evidence-derived edges (Build);
// the fixed canonical edges do not use them.
var relationTable = []relationPattern{
	{domain.RelInhibits, regexp.MustCompile(`(?i)\binhibit(s|ed|ing)?\b`), 0.85},
	{domain.RelActivates, regexp.MustCompile(`(?i)\bactivat(es|ed|ing|ion)?\b`), 0.85},
	{domain.RelBinds, regexp.MustCompile(`(?i)\bbind(s|ing)?\b`), 0.70},
	{domain.RelModulates, regexp.MustCompile(`(?i)\bmodulat(es|ed|ing|ion)?\b`), 0.75},
	{domain.RelUpregulates, regexp.MustCompile(`(?i)\bup-?regulat(es|ed|ing|ion)?\b`), 0.70},
	{domain.RelDownregulates, regexp.MustCompile(`(?i)\bdown-?regulat(es|ed|ing|ion)?\b`), 0.70},
	{domain.RelPhosphorylates, regexp.MustCompile(`(?i)\bphosphorylat(es|ed|ing|ion)?\b`), 0.65},
	{domain.RelCatalyzes, regexp.MustCompile(`(?i)\bcatalyz(es|ed|ing)?\b`), 0.65},
	{domain.RelTransports, regexp.MustCompile(`(?i)\btransport(s|ed|ing)?\b`), 0.60},
	{domain.RelRegulates, regexp.MustCompile(`(?i)\bregulat(es|ed|ing|ion)?\b`), 0.60},
	{domain.RelAssociatesWith, regexp.MustCompile(`(?i)\bassociat(es|ed|ing|ion)?\s+with\b`), 0.55},
	{domain.RelTreats, regexp.MustCompile(`(?i)\btreat(s|ed|ing|ment)?\b`), 1.00},
	{domain.RelCauses, regexp.MustCompile(`(?i)\bcaus(es|ed|ing)?\b`), 0.50},
	{domain.RelPrevents, regexp.MustCompile(`(?i)\bprevent(s|ed|ing|ion)?\b`), 0.45},
}

// DetectRelation returns the first relation pattern matching text and its
// confidence modifier, or (RelUnknown, 0, false) if nothing matches.
func DetectRelation(text string) (domain.Relation, float64, bool) {
	for _, p := range relationTable {
		if p.pattern.MatchString(text) {
			return p.relation, p.modifier, true
		}
	}
	return domain.RelUnknown, 0, false
}

// Sentences splits text into naive sentence units for co-occurrence
// detection in the ingestion pipeline's per-article relation extraction;
// the simulator's evidence scan matches each description whole. This is
// intentionally simple: the domain text is abstracts, not prose requiring a
// full sentence boundary model.
func Sentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	})
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package domain

import "strings"

// NormalizeEntityName applies per-kind normalization: drugs and
// diseases are title-cased, genes and proteins are upper-cased, and all
// kinds have whitespace trimmed and internal runs of spaces collapsed.
func NormalizeEntityName(raw string, kind EntityKind) string {
	collapsed := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")

	switch kind {
	case KindGene, KindProtein:
		return strings.ToUpper(collapsed)
	case KindDrug, KindDisease:
		return titleCase(collapsed)
	default:
		return collapsed
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

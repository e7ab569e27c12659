package domain

// Citation is a literature or clinical-trial reference. Identity is
// (SourceKind, SourceID).
type Citation struct {
	SourceKind string
	SourceID   string
	Title      string
	Authors    []string
	Year       *int
	URL        string
	Excerpt    string
	Relevance  float64
}

type CitationIdentity struct {
	SourceKind string
	SourceID   string
}

func (c *Citation) Identity() CitationIdentity {
	return CitationIdentity{SourceKind: c.SourceKind, SourceID: c.SourceID}
}

// NewCitation constructs and validates a Citation.
func NewCitation(sourceKind, sourceID, title string, authors []string, year *int, url, excerpt string, relevance float64) (*Citation, error) {
	if sourceKind == "" || sourceID == "" {
		return nil, schemaInvalid("source_kind/source_id", "must not be empty")
	}
	if relevance < 0 || relevance > 1 {
		return nil, schemaInvalid("relevance", "must be within [0,1]")
	}
	return &Citation{
		SourceKind: sourceKind,
		SourceID:   sourceID,
		Title:      title,
		Authors:    authors,
		Year:       year,
		URL:        url,
		Excerpt:    excerpt,
		Relevance:  relevance,
	}, nil
}

// DedupeCitationsBySourceID removes duplicate citations sharing a source_id,
// keeping the first occurrence.
func DedupeCitationsBySourceID(in []Citation) []Citation {
	seen := make(map[string]bool, len(in))
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		if seen[c.SourceID] {
			continue
		}
		seen[c.SourceID] = true
		out = append(out, c)
	}
	return out
}

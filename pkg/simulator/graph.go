package simulator

import "github.com/biomind/repurposing/pkg/domain"

type simEdge struct {
	source, target string
	relation        domain.Relation
	confidence      float64
}

// Graph is the in-memory directed graph the simulator traverses, keyed by
// each entity's normalized canonical name.
type Graph struct {
	nodes     map[string]domain.Entity
	adjacency map[string][]simEdge
}

func newGraph() *Graph {
	return &Graph{nodes: map[string]domain.Entity{}, adjacency: map[string][]simEdge{}}
}

func (g *Graph) addNode(e domain.Entity) {
	// Later duplicates merge: the first entity recorded for a name wins the
	// node's identity, since kind/extraction data rarely conflicts once
	// names are normalized.
	if _, ok := g.nodes[e.CanonicalName]; !ok {
		g.nodes[e.CanonicalName] = e
	}
}

func (g *Graph) addEdge(e simEdge) {
	if e.source == e.target {
		return
	}
	for i, existing := range g.adjacency[e.source] {
		if existing.target == e.target && existing.relation == e.relation {
			if e.confidence > existing.confidence {
				g.adjacency[e.source][i].confidence = e.confidence
			}
			return
		}
	}
	g.adjacency[e.source] = append(g.adjacency[e.source], e)
}

// roleRank orders kinds along the drug -> other -> disease axis used to
// direct evidence-derived edges.
func roleRank(kind domain.EntityKind) int {
	switch kind {
	case domain.KindDrug:
		return 0
	case domain.KindDisease:
		return 2
	default:
		return 1
	}
}

// canonicalModifiers are the fixed-reachability edges added regardless of
// evidence.
const (
	canonicalDrugGeneConfidence    = 0.6
	canonicalGeneDiseaseConfidence = 0.5
	canonicalDrugDiseaseConfidence = 0.4
)

// Build constructs the graph from the stage's extracted entities and
// literature evidence.
func Build(entities []domain.Entity, evidence []domain.Evidence) *Graph {
	g := newGraph()
	for _, e := range entities {
		g.addNode(e)
	}

	for _, ev := range evidence {
		relation, modifier, ok := DetectRelation(ev.Description)
		if !ok {
			continue
		}
		mentioned := mentionedEntities(entities, ev.EntitiesMentioned)
		for i := 0; i < len(mentioned); i++ {
			for j := 0; j < len(mentioned); j++ {
				if i == j {
					continue
				}
				a, b := mentioned[i], mentioned[j]
				if a.Kind == b.Kind {
					continue
				}
				if roleRank(a.Kind) > roleRank(b.Kind) {
					continue
				}
				g.addEdge(simEdge{
					source:     a.CanonicalName,
					target:     b.CanonicalName,
					relation:   relation,
					confidence: ev.Confidence * modifier,
				})
			}
		}
	}

	var drugs, genes, diseases []domain.Entity
	for _, e := range entities {
		switch e.Kind {
		case domain.KindDrug:
			drugs = append(drugs, e)
		case domain.KindGene, domain.KindProtein:
			genes = append(genes, e)
		case domain.KindDisease:
			diseases = append(diseases, e)
		}
	}
	for _, d := range drugs {
		for _, gn := range genes {
			g.addEdge(simEdge{d.CanonicalName, gn.CanonicalName, domain.RelModulates, canonicalDrugGeneConfidence})
		}
		for _, ds := range diseases {
			g.addEdge(simEdge{d.CanonicalName, ds.CanonicalName, domain.RelTreats, canonicalDrugDiseaseConfidence})
		}
	}
	for _, gn := range genes {
		for _, ds := range diseases {
			g.addEdge(simEdge{gn.CanonicalName, ds.CanonicalName, domain.RelAssociatesWith, canonicalGeneDiseaseConfidence})
		}
	}
	return g
}

func mentionedEntities(all []domain.Entity, names []string) []domain.Entity {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	var out []domain.Entity
	for _, e := range all {
		if set[e.CanonicalName] {
			out = append(out, e)
		}
	}
	return out
}

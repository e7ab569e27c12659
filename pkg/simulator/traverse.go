package simulator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/biomind/repurposing/pkg/domain"
)

const (
	maxPathEdges  = 5
	lengthDecay   = 0.85
	acceptThresh  = 0.15
	evidenceBoost = 0.3
	topN          = 3
)

type candidatePath struct {
	edges           []simEdge
	finalConf       float64
	evidenceSupport float64
	rationale       string
}

// Simulate builds the graph and runs bounded BFS from drugName to diseaseName,
// returning the accepted/rejected partition and aggregate plausibility.
// drugName/diseaseName are expected already normalized
// (domain.NormalizeEntityName output).
func Simulate(entities []domain.Entity, evidence []domain.Evidence, drugName, diseaseName string) *domain.SimulationResult {
	if drugName == "" {
		return &domain.SimulationResult{
			RejectedPaths: []domain.RejectedPath{{Description: "no path", FinalConf: 0, Reason: "need at least one drug entity"}},
			Plausibility:  0,
		}
	}
	if diseaseName == "" {
		return &domain.SimulationResult{
			RejectedPaths: []domain.RejectedPath{{Description: "no path", FinalConf: 0, Reason: "need at least one disease entity"}},
			Plausibility:  0,
		}
	}

	g := Build(entities, evidence)
	accepted, rejected := bfs(g, drugName, diseaseName, evidence)

	sortPaths(accepted)
	plausibility := 0.0
	if n := len(accepted); n > 0 {
		top := accepted
		if n > topN {
			top = accepted[:topN]
		}
		sum := 0.0
		for _, p := range top {
			sum += p.finalConf
		}
		plausibility = sum / float64(len(top))
	}

	result := &domain.SimulationResult{Plausibility: plausibility}
	for _, p := range accepted {
		path, err := toPathwayPath(p)
		if err == nil {
			result.AcceptedPaths = append(result.AcceptedPaths, *path)
		}
	}
	for _, p := range rejected {
		result.RejectedPaths = append(result.RejectedPaths, domain.RejectedPath{
			Description: p.rationale, FinalConf: p.finalConf, Reason: "final confidence below accept threshold",
		})
	}
	if len(result.RejectedPaths) == 0 && len(result.AcceptedPaths) == 0 {
		result.RejectedPaths = []domain.RejectedPath{{Description: "no path", FinalConf: 0, Reason: "no path from drug to disease within depth 5"}}
	}
	return result
}

type queueEntry struct {
	node    string
	path    []simEdge
	visited map[string]bool
}

func bfs(g *Graph, drugName, diseaseName string, evidence []domain.Evidence) (accepted, rejected []candidatePath) {
	queue := []queueEntry{{node: drugName, path: nil, visited: map[string]bool{drugName: true}}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if len(entry.path) > 0 && reached(entry.node, diseaseName) {
			cp := scorePath(entry.path, evidence)
			if cp.finalConf >= acceptThresh {
				accepted = append(accepted, cp)
			} else {
				rejected = append(rejected, cp)
			}
			continue
		}
		if len(entry.path) >= maxPathEdges {
			continue
		}

		for _, edge := range stableNeighbors(g, entry.node) {
			if entry.visited[edge.target] {
				continue
			}
			nextVisited := make(map[string]bool, len(entry.visited)+1)
			for k := range entry.visited {
				nextVisited[k] = true
			}
			nextVisited[edge.target] = true
			nextPath := append(append([]simEdge{}, entry.path...), edge)
			queue = append(queue, queueEntry{node: edge.target, path: nextPath, visited: nextVisited})
		}
	}
	return accepted, rejected
}

func reached(node, diseaseName string) bool {
	return node == diseaseName || strings.Contains(node, diseaseName)
}

// stableNeighbors returns g's outgoing edges from node sorted by
// (target_name, relation) for deterministic traversal order.
func stableNeighbors(g *Graph, node string) []simEdge {
	edges := append([]simEdge{}, g.adjacency[node]...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].target != edges[j].target {
			return edges[i].target < edges[j].target
		}
		return edges[i].relation < edges[j].relation
	})
	return edges
}

func scorePath(edges []simEdge, evidence []domain.Evidence) candidatePath {
	baseConf := 1.0
	for _, e := range edges {
		baseConf *= e.confidence
	}
	lengthPenalty := math.Pow(lengthDecay, float64(len(edges)-1))

	pathEntities := map[string]bool{}
	for _, e := range edges {
		pathEntities[e.source] = true
		pathEntities[e.target] = true
	}

	evidenceSupport := 0.0
	if len(evidence) > 0 {
		var sum float64
		var n int
		for _, ev := range evidence {
			overlap := 0
			for _, m := range ev.EntitiesMentioned {
				if pathEntities[m] {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			sum += ev.Confidence * (float64(overlap) / float64(len(pathEntities)))
			n++
		}
		if n > 0 {
			evidenceSupport = sum / float64(n)
		}
	}

	finalConf := math.Min(1, baseConf*lengthPenalty*(1+evidenceBoost*evidenceSupport))

	var parts []string
	for _, e := range edges {
		parts = append(parts, fmt.Sprintf("%s-%s->%s", e.source, e.relation, e.target))
	}
	rationale := strings.Join(parts, "; ")

	return candidatePath{edges: edges, finalConf: finalConf, evidenceSupport: evidenceSupport, rationale: rationale}
}

// sortPaths orders paths by higher confidence, then fewer edges, then
// lexicographically smaller rationale.
func sortPaths(paths []candidatePath) {
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].finalConf != paths[j].finalConf {
			return paths[i].finalConf > paths[j].finalConf
		}
		if len(paths[i].edges) != len(paths[j].edges) {
			return len(paths[i].edges) < len(paths[j].edges)
		}
		return paths[i].rationale < paths[j].rationale
	})
}

func toPathwayPath(cp candidatePath) (*domain.PathwayPath, error) {
	edges := make([]domain.Edge, 0, len(cp.edges))
	for _, e := range cp.edges {
		edges = append(edges, domain.Edge{
			SourceID:         e.source,
			TargetID:         e.target,
			Relation:         e.relation,
			Confidence:       e.confidence,
			ExtractionMethod: domain.MethodScorer,
		})
	}
	id := "path:" + strings.Join(pathNodeNames(cp.edges), ">")
	return domain.NewPathwayPath(id, edges, cp.finalConf, cp.evidenceSupport, cp.rationale)
}

func pathNodeNames(edges []simEdge) []string {
	names := make([]string, 0, len(edges)+1)
	for i, e := range edges {
		if i == 0 {
			names = append(names, e.source)
		}
		names = append(names, e.target)
	}
	return names
}

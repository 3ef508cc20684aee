// Package depgraph builds a directed graph over a workspace's linked
// resources ("R depends on a package produced by R'"), topologically
// levels it for parallel-safe scheduling, and flags cross-repo version
// gaps.
package depgraph

import (
	"sort"

	"github.com/LiveData-Inc/air-toolkit/internal/detect"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// Graph is a dependency graph over repo names.
type Graph struct {
	symbols *symbolTable
	edges   *intGraph
	names   []string // all repo names, in registration order
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		symbols: newSymbolTable(),
		edges:   newIntGraph(),
	}
}

// AddNode registers a repo name, even if it ends up with no edges
// (so ReposWithDependencies can still report it as zero-degree).
func (g *Graph) AddNode(name string) {
	id := g.symbols.intern(name)
	g.edges.addNode(id)
	g.names = append(g.names, name)
}

// AddEdge records "from depends on to". Self-edges are dropped per
// the graph-construction rule.
//
// Internally the edge is stored prerequisite -> dependent (to -> from):
// Kahn's algorithm drains nodes with no unmet prerequisites first, and
// "to" is from's prerequisite, so "from" must accumulate an in-degree
// contribution from "to", not the reverse.
func (g *Graph) AddEdge(from, to string) {
	if from == to {
		return
	}

	src := g.symbols.intern(from)
	dst := g.symbols.intern(to)

	g.edges.addEdge(dst, src)
}

// Levels returns the topological leveling: level k holds every node
// whose prerequisites all resolved in levels <k. When the graph
// contains a cycle, the undrained remainder is appended as the final
// level and ok is false — callers should attach a cycle warning
// finding naming FindCycle's participants for any node in that level.
func (g *Graph) Levels() (levels [][]string, ok bool) {
	idLevels, ok := g.edges.levels()

	levels = make([][]string, len(idLevels))

	for i, ids := range idLevels {
		names := make([]string, len(ids))
		for j, id := range ids {
			names[j] = g.symbols.resolve(id)
		}

		sort.Strings(names)
		levels[i] = names
	}

	return levels, ok
}

// FindCycle returns the cycle containing seed, or an empty slice if
// seed is not part of one.
func (g *Graph) FindCycle(seed string) []string {
	id, exists := g.symbols.lookup(seed)
	if !exists {
		return nil
	}

	cycleIDs := g.edges.findCycle(id)

	// Drop the closing repetition of the start node.
	if len(cycleIDs) > 1 && cycleIDs[0] == cycleIDs[len(cycleIDs)-1] {
		cycleIDs = cycleIDs[:len(cycleIDs)-1]
	}

	names := make([]string, len(cycleIDs))
	for i, id := range cycleIDs {
		names[i] = g.symbols.resolve(id)
	}

	return names
}

// Edge is one "from depends on to" relationship.
type Edge struct {
	From string
	To   string
}

// Edges returns every "from depends on to" relationship in the graph,
// sorted for deterministic output.
func (g *Graph) Edges() []Edge {
	var edges []Edge

	// Internal storage is prerequisite -> dependent (see AddEdge), so
	// the public Edge is the reverse of each stored (u, v) pair.
	for prereqID, dependents := range g.edges.nodes {
		to := g.symbols.resolve(prereqID)
		if to == "" {
			continue
		}

		for _, dependentID := range dependents {
			edges = append(edges, Edge{From: g.symbols.resolve(dependentID), To: to})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}

		return edges[i].To < edges[j].To
	})

	return edges
}

// ReposWithDependencies returns only nodes whose in-degree or
// out-degree is nonzero.
func (g *Graph) ReposWithDependencies() []string {
	var names []string

	for _, name := range g.names {
		id, _ := g.symbols.lookup(name)

		outDegree := 0
		if id < len(g.edges.nodes) {
			outDegree = len(g.edges.nodes[id])
		}

		inDegree := 0
		if id < len(g.edges.inDegree) {
			inDegree = g.edges.inDegree[id]
		}

		if outDegree > 0 || inDegree > 0 {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return dedupe(names)
}

func dedupe(names []string) []string {
	out := names[:0]

	var last string

	for i, name := range names {
		if i == 0 || name != last {
			out = append(out, name)
			last = name
		}
	}

	return out
}

// RepoInput is one resource's classification inputs for graph
// construction: its path (for detector/produced-name lookups) and
// name (the graph node identity).
type RepoInput struct {
	Name string
	Path string
}

// Build constructs a Graph from repos by running the Detector
// Registry's package/import detectors and own-identity lookup against
// each repo's path, then drawing an edge R -> R' whenever some needed
// package name matches R”s own produced name.
func Build(repos []RepoInput, registry *detect.Registry) *Graph {
	graph := New()

	producedBy := make(map[string]string, len(repos)) // normalized package name -> repo name
	needs := make(map[string]map[string]struct{}, len(repos))

	for _, repo := range repos {
		graph.AddNode(repo.Name)

		if produced, ok := detect.ProducedPackageName(repo.Path); ok {
			producedBy[produced] = repo.Name
		}

		repoNeeds := make(map[string]struct{})

		for _, result := range registry.DetectAll(repo.Path) {
			if result.DependencyType == model.DependencyPackage || result.DependencyType == model.DependencyImport {
				for _, dep := range result.Dependencies {
					repoNeeds[dep] = struct{}{}
				}
			}
		}

		needs[repo.Name] = repoNeeds
	}

	for _, repo := range repos {
		for need := range needs[repo.Name] {
			// need and producedBy's keys both passed through
			// detect.normalizeName (lowercased), so an exact match here
			// already satisfies the "case-insensitive on normalized
			// identifiers" construction rule.
			if producer, ok := producedBy[need]; ok {
				graph.AddEdge(repo.Name, producer)
			}
		}
	}

	return graph
}

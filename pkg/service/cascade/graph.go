package cascade

import (
	"errors"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// edge is a cascade with its resolved matrix and endpoints as arena indices
type edge struct {
	cascade *model.Cascade
	kind    types.CascadeKind
	matrix  model.ConditionalMatrix
	cause   int
	effect  int
}

// catalogue is the arena of one snapshot: risk files and cascades addressed by
// their position in the input, which is the stable order of the run.
type catalogue struct {
	files    []*model.RiskFile
	index    map[types.RiskFileID]int
	edges    []edge
	incoming [][]int
	outgoing [][]int
	graph    graph.Graph[types.RiskFileID, types.RiskFileID]

	// group is the strongly connected group of each risk file
	group     []int
	groupSize []int
}

func riskFileHash(id types.RiskFileID) types.RiskFileID {
	return id
}

// newCatalogue validates the snapshot and builds the arena. Cascade matrices
// are resolved here, diagnostics are returned in input order.
func newCatalogue(snapshot *model.Snapshot) (*catalogue, []Diagnostic, error) {
	cat := &catalogue{
		files:    snapshot.RiskFiles,
		index:    make(map[types.RiskFileID]int, len(snapshot.RiskFiles)),
		incoming: make([][]int, len(snapshot.RiskFiles)),
		outgoing: make([][]int, len(snapshot.RiskFiles)),
		graph:    graph.New(riskFileHash, graph.Directed()),
	}
	var diags []Diagnostic

	for i, file := range snapshot.RiskFiles {
		if file == nil {
			return nil, nil, goerr.Wrap(ErrInvalidRiskFile, "risk file is nil", goerr.V("position", i))
		}
		if err := file.ID.Validate(); err != nil {
			return nil, nil, goerr.Wrap(ErrInvalidRiskFile, err.Error(), goerr.V("position", i))
		}
		if err := cat.graph.AddVertex(file.ID); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, nil, goerr.Wrap(ErrDuplicateRiskFile, "risk file ID is used twice", goerr.V(RiskIDKey, file.ID))
			}
			return nil, nil, goerr.Wrap(err, "failed to add risk file", goerr.V(RiskIDKey, file.ID))
		}
		cat.index[file.ID] = i
	}

	seen := make(map[types.CascadeID]bool, len(snapshot.Cascades))
	for _, c := range snapshot.Cascades {
		if c == nil {
			return nil, nil, goerr.Wrap(ErrInvalidCascade, "cascade is nil")
		}
		values := []goerr.Option{
			goerr.V(CascadeIDKey, c.ID),
			goerr.V(CauseIDKey, c.CauseID),
			goerr.V(EffectIDKey, c.EffectID),
		}

		if seen[c.ID] {
			return nil, nil, goerr.Wrap(ErrInvalidCascade, "cascade ID is used twice", values...)
		}
		seen[c.ID] = true

		cause, ok := cat.index[c.CauseID]
		if !ok {
			return nil, nil, goerr.Wrap(ErrInvalidGraphReference, "cause is not in the catalogue", values...)
		}
		effect, ok := cat.index[c.EffectID]
		if !ok {
			return nil, nil, goerr.Wrap(ErrInvalidGraphReference, "effect is not in the catalogue", values...)
		}
		if cause == effect {
			return nil, nil, goerr.Wrap(ErrInvalidCascade, "risk file cannot cascade into itself", values...)
		}

		if err := cat.graph.AddEdge(c.CauseID, c.EffectID, graph.EdgeData(len(cat.edges))); err != nil {
			if errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, nil, goerr.Wrap(ErrInvalidCascade, "cascade between the same risk files is defined twice", values...)
			}
			return nil, nil, goerr.Wrap(err, "failed to add cascade", values...)
		}

		if c.Kind != "" {
			if err := c.Kind.Validate(); err != nil {
				return nil, nil, goerr.Wrap(ErrInvalidCascade, err.Error(), values...)
			}
		}

		kind, kindDiags := cascadeKind(c, cat.files[cause])
		diags = append(diags, kindDiags...)

		matrix, matrixDiags := ResolveMatrix(c)
		diags = append(diags, matrixDiags...)

		cat.incoming[effect] = append(cat.incoming[effect], len(cat.edges))
		cat.outgoing[cause] = append(cat.outgoing[cause], len(cat.edges))
		cat.edges = append(cat.edges, edge{
			cascade: c,
			kind:    kind,
			matrix:  matrix,
			cause:   cause,
			effect:  effect,
		})
	}

	return cat, diags, nil
}

// cascadeKind returns the kind of a cascade. When it is not set, cascades from
// emerging risks are catalysing and all others causal.
func cascadeKind(c *model.Cascade, cause *model.RiskFile) (types.CascadeKind, []Diagnostic) {
	emerging := cause.RiskType.IsEmerging()
	switch {
	case c.Kind == "" && emerging:
		return types.CascadeCatalysing, nil
	case c.Kind == "":
		return types.CascadeCausal, nil
	case (c.Kind == types.CascadeCatalysing) != emerging:
		return c.Kind, []Diagnostic{{
			CascadeID: c.ID,
			RiskID:    cause.ID,
			Field:     "kind",
			Raw:       string(c.Kind),
			Reason:    ReasonKindMismatch,
		}}
	}
	return c.Kind, nil
}

// components splits the catalogue into weakly connected components. Members of
// a component are in input order and components are ordered by their first member.
func (cat *catalogue) components() [][]int {
	parent := make([]int, len(cat.files))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range cat.edges {
		a, b := find(e.cause), find(e.effect)
		if a == b {
			continue
		}
		// Keep the smallest index as root so roots follow input order
		if a < b {
			parent[b] = a
		} else {
			parent[a] = b
		}
	}

	byRoot := make(map[int]int)
	var result [][]int
	for i := range cat.files {
		root := find(i)
		pos, ok := byRoot[root]
		if !ok {
			pos = len(result)
			byRoot[root] = pos
			result = append(result, nil)
		}
		result[pos] = append(result[pos], i)
	}
	return result
}

// groupCycles assigns every risk file to its strongly connected group. Groups
// with more than one member are the cycles of the catalogue.
func (cat *catalogue) groupCycles() error {
	sccs, err := graph.StronglyConnectedComponents(cat.graph)
	if err != nil {
		return goerr.Wrap(err, "failed to compute strongly connected components")
	}
	cat.group = make([]int, len(cat.files))
	cat.groupSize = make([]int, len(sccs))
	for g, scc := range sccs {
		cat.groupSize[g] = len(scc)
		for _, id := range scc {
			cat.group[cat.index[id]] = g
		}
	}
	return nil
}

// Cycles returns the groups of risk files that depend on each other through
// cascades. Each group is in input order, groups are ordered by their first member.
func Cycles(snapshot *model.Snapshot) ([][]types.RiskFileID, error) {
	cat, _, err := newCatalogue(snapshot)
	if err != nil {
		return nil, err
	}

	sccs, err := graph.StronglyConnectedComponents(cat.graph)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute strongly connected components")
	}

	var groups [][]int
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		group := make([]int, 0, len(scc))
		for _, id := range scc {
			group = append(group, cat.index[id])
		}
		sort.Ints(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	result := make([][]types.RiskFileID, len(groups))
	for i, group := range groups {
		for _, idx := range group {
			result[i] = append(result[i], cat.files[idx].ID)
		}
	}
	return result, nil
}

package cascade

import (
	"container/heap"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// CycleBreak records a risk file that was aggregated before all of its causes
// because they depend on it. The direct estimate of the unresolved causes was
// used instead of their aggregate.
type CycleBreak struct {
	RiskID           types.RiskFileID
	UnresolvedCauses []types.RiskFileID
}

// Result is the output of one aggregation run
type Result struct {
	// Calculations maps every risk file of the snapshot to its calculation
	Calculations map[types.RiskFileID]*model.RiskCalculation
	// Order is the order in which risk files were aggregated
	Order       []types.RiskFileID
	CycleBreaks []CycleBreak
	Diagnostics []Diagnostic

	catalogueOrder []types.RiskFileID
}

// List returns the calculations in catalogue order
func (r *Result) List() []*model.RiskCalculation {
	list := make([]*model.RiskCalculation, 0, len(r.catalogueOrder))
	for _, id := range r.catalogueOrder {
		list = append(list, r.Calculations[id])
	}
	return list
}

type options struct {
	workers int
}

// Option configures Aggregate
type Option func(*options)

// WithWorkers sets how many independent parts of the catalogue are aggregated
// concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// Aggregate computes the calculation of every risk file of the snapshot.
//
// Risk files are aggregated in topological order of the cause → effect
// relation, so the aggregate of every cause is available before its effects.
// When a cycle leaves no risk file ready, the cycle is broken at one of its
// members: among the strongly connected groups whose causes outside the group
// are all aggregated, the member that comes first in snapshot order is
// aggregated using the direct estimate of its unresolved causes. Risk files
// that only wait downstream of a cycle are never relaxed. This is a single
// pass: each risk file is aggregated exactly once.
//
// Weakly connected parts of the catalogue do not share any dependency and are
// aggregated concurrently when WithWorkers is given. The result does not depend
// on the number of workers.
func Aggregate(snapshot *model.Snapshot, opts ...Option) (*Result, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	cat, diags, err := newCatalogue(snapshot)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalogue")
	}

	// Direct estimates are loaded once, in catalogue order
	direct := make([]DirectEstimate, len(cat.files))
	var fileDiags []Diagnostic
	for i, file := range cat.files {
		est, d := LoadDirectEstimate(file)
		direct[i] = est
		fileDiags = append(fileDiags, d...)
	}

	if err := cat.groupCycles(); err != nil {
		return nil, err
	}

	components := cat.components()
	results := make([]componentResult, len(components))

	var eg errgroup.Group
	eg.SetLimit(o.workers)
	for i, members := range components {
		eg.Go(func() error {
			r, err := cat.evaluate(members, direct)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate catalogue")
	}

	calcs := make([]*model.RiskCalculation, len(cat.files))
	out := &Result{
		Calculations:   make(map[types.RiskFileID]*model.RiskCalculation, len(cat.files)),
		Diagnostics:    append(fileDiags, diags...),
		catalogueOrder: make([]types.RiskFileID, len(cat.files)),
	}
	for _, r := range results {
		for _, idx := range r.order {
			out.Order = append(out.Order, cat.files[idx].ID)
		}
		for idx, calc := range r.calcs {
			calcs[idx] = calc
		}
		out.CycleBreaks = append(out.CycleBreaks, r.breaks...)
	}

	cat.attachEffects(calcs)

	for i, calc := range calcs {
		out.Calculations[calc.RiskID] = calc
		out.catalogueOrder[i] = calc.RiskID
	}

	return out, nil
}

type componentResult struct {
	order  []int
	calcs  map[int]*model.RiskCalculation
	breaks []CycleBreak
}

// evaluate aggregates the members of one weakly connected component
func (cat *catalogue) evaluate(members []int, direct []DirectEstimate) (componentResult, error) {
	res := componentResult{
		order: make([]int, 0, len(members)),
		calcs: make(map[int]*model.RiskCalculation, len(members)),
	}

	pending := make(map[int]int, len(members))
	// outside counts the cascades into a group whose cause belongs to another
	// group and is not aggregated yet
	outside := make(map[int]int)
	cycleMembers := make(map[int][]int)
	ready := &indexHeap{}
	for _, m := range members {
		g := cat.group[m]
		pending[m] = len(cat.incoming[m])
		for _, ei := range cat.incoming[m] {
			if cat.group[cat.edges[ei].cause] != g {
				outside[g]++
			}
		}
		if cat.groupSize[g] > 1 {
			cycleMembers[g] = append(cycleMembers[g], m)
		}
		if pending[m] == 0 {
			heap.Push(ready, m)
		}
	}

	// breakable holds members of cycles that only wait on each other
	breakable := &indexHeap{}
	for g, ms := range cycleMembers {
		if outside[g] == 0 {
			for _, m := range ms {
				heap.Push(breakable, m)
			}
		}
	}

	for len(res.order) < len(members) {
		current := -1
		if ready.Len() > 0 {
			current = heap.Pop(ready).(int)
			if _, done := res.calcs[current]; done {
				continue
			}
		} else {
			for breakable.Len() > 0 {
				m := heap.Pop(breakable).(int)
				if _, done := res.calcs[m]; !done {
					current = m
					break
				}
			}
			if current < 0 {
				return res, goerr.New("no risk file can be aggregated",
					goerr.V("remaining", len(members)-len(res.order)))
			}
		}

		inputs := make([]causeInput, 0, len(cat.incoming[current]))
		var unresolved []types.RiskFileID
		for _, ei := range cat.incoming[current] {
			e := &cat.edges[ei]
			cause, done := res.calcs[e.cause]
			relaxed := !done
			if relaxed {
				cause = directCalculation(cat.files[e.cause], direct[e.cause])
				unresolved = append(unresolved, cat.files[e.cause].ID)
			}
			inputs = append(inputs, causeInput{edge: e, cause: cause, relaxed: relaxed})
		}
		if len(unresolved) > 0 {
			res.breaks = append(res.breaks, CycleBreak{
				RiskID:           cat.files[current].ID,
				UnresolvedCauses: unresolved,
			})
		}

		res.calcs[current] = aggregateRisk(cat.files[current], direct[current], inputs)
		res.order = append(res.order, current)

		for _, ei := range cat.outgoing[current] {
			effect := cat.edges[ei].effect
			if g := cat.group[effect]; g != cat.group[current] {
				outside[g]--
				if outside[g] == 0 {
					for _, m := range cycleMembers[g] {
						heap.Push(breakable, m)
					}
				}
			}
			if _, done := res.calcs[effect]; done {
				continue
			}
			pending[effect]--
			if pending[effect] == 0 {
				heap.Push(ready, effect)
			}
		}
	}

	return res, nil
}

// attachEffects copies every cascade contribution to the cause side so that
// each calculation also lists what it contributed to other risk files
func (cat *catalogue) attachEffects(calcs []*model.RiskCalculation) {
	// Position of each cascade in the causes of its effect
	positions := make([]int, len(cat.edges))
	for _, incoming := range cat.incoming {
		for pos, ei := range incoming {
			positions[ei] = pos
		}
	}

	for ei, e := range cat.edges {
		x := calcs[e.effect].Causes[positions[ei]]
		x.Title = calcs[e.effect].Title
		calcs[e.cause].Effects = append(calcs[e.cause].Effects, x)
	}
}

// indexHeap is a min-heap of catalogue positions, so the ready risk file that
// comes first in the snapshot is always aggregated first
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *indexHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

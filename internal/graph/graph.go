// Package graph holds the task dependency graph the scheduler runs over.
// Nodes are keyed by task code; edges carry a link kind and a signed lag.
package graph

import (
	"fmt"
	"sort"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// Node is a schedulable task: a code and an effective duration in days.
type Node struct {
	Code     string
	Duration int
}

// Edge is a directed dependency from Predecessor to Successor.
type Edge struct {
	Predecessor string
	Successor   string
	Kind        domain.LinkKind
	Lag         domain.Lag
	AddedBy     string
	Reason      string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s (%s, lag %s)", e.Predecessor, e.Successor, e.Kind, e.Lag)
}

// WouldCycleError reports a dependency insert that was refused because it
// would close a directed cycle. Path is the cycle itself: the chain from the
// proposed successor to the predecessor, followed by the successor again.
type WouldCycleError struct {
	Path []string
}

func (e *WouldCycleError) Error() string {
	se := &domain.SchedulingError{Reason: "dependency would create a cycle", Path: e.Path}
	return se.Error()
}

// CycleDetectedError reports a cyclic graph found during topological sort.
// Unreachable when all edges went through AddDependency.
type CycleDetectedError struct {
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	se := &domain.SchedulingError{Reason: "cycle detected in dependency graph", Path: e.Remaining}
	return se.Error()
}

// Graph is the adjacency structure. It is not safe for concurrent mutation;
// the scheduler takes it read-only.
type Graph struct {
	nodes map[string]Node
	preds map[string][]Edge // edges arriving at key
	succs map[string][]Edge // edges leaving key
}

func New() *Graph {
	return &Graph{
		nodes: map[string]Node{},
		preds: map[string][]Edge{},
		succs: map[string][]Edge{},
	}
}

// AddTask inserts a node. Idempotent on identical content; rejected when a
// different node already holds the code.
func (g *Graph) AddTask(n Node) error {
	if n.Code == "" {
		return &domain.ValidationError{Entity: "graph", Field: "code", Reason: "must not be empty"}
	}
	if n.Duration < 1 {
		return &domain.ValidationError{Entity: "graph", Field: "duration", Reason: fmt.Sprintf("task %s: duration must be at least 1 day", n.Code)}
	}
	if existing, ok := g.nodes[n.Code]; ok {
		if existing == n {
			return nil
		}
		return &domain.AlreadyExistsError{Kind: "task node", Code: n.Code}
	}
	g.nodes[n.Code] = n
	return nil
}

// RemoveTask deletes a node and every edge touching it. Idempotent.
func (g *Graph) RemoveTask(code string) {
	delete(g.nodes, code)
	for _, e := range g.preds[code] {
		g.succs[e.Predecessor] = dropEdge(g.succs[e.Predecessor], e)
	}
	for _, e := range g.succs[code] {
		g.preds[e.Successor] = dropEdge(g.preds[e.Successor], e)
	}
	delete(g.preds, code)
	delete(g.succs, code)
}

func dropEdge(edges []Edge, target Edge) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if e.Predecessor == target.Predecessor && e.Successor == target.Successor && e.Kind == target.Kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AddDependency inserts an edge. Rejected when either endpoint is missing,
// when an equivalent edge exists, or when the edge would close a cycle.
func (g *Graph) AddDependency(e Edge) error {
	if _, ok := g.nodes[e.Predecessor]; !ok {
		return &domain.NotFoundError{Kind: "task node", Key: e.Predecessor}
	}
	if _, ok := g.nodes[e.Successor]; !ok {
		return &domain.NotFoundError{Kind: "task node", Key: e.Successor}
	}
	if e.Predecessor == e.Successor {
		return &WouldCycleError{Path: []string{e.Predecessor, e.Successor}}
	}
	for _, existing := range g.preds[e.Successor] {
		if existing.Predecessor == e.Predecessor && existing.Kind == e.Kind {
			return &domain.AlreadyExistsError{Kind: "dependency", Code: existing.String()}
		}
	}
	if path := g.pathBetween(e.Successor, e.Predecessor); path != nil {
		return &WouldCycleError{Path: append(path, e.Successor)}
	}
	g.preds[e.Successor] = append(g.preds[e.Successor], e)
	g.succs[e.Predecessor] = append(g.succs[e.Predecessor], e)
	return nil
}

// RemoveDependency drops an edge. Idempotent on missing edges.
func (g *Graph) RemoveDependency(e Edge) {
	g.preds[e.Successor] = dropEdge(g.preds[e.Successor], e)
	g.succs[e.Predecessor] = dropEdge(g.succs[e.Predecessor], e)
}

// pathBetween runs a DFS from one node and returns the node chain to the
// target, or nil when the target is unreachable.
func (g *Graph) pathBetween(from, to string) []string {
	visited := map[string]bool{}
	var walk func(code string, trail []string) []string
	walk = func(code string, trail []string) []string {
		trail = append(trail, code)
		if code == to {
			out := make([]string, len(trail))
			copy(out, trail)
			return out
		}
		visited[code] = true
		for _, e := range g.succs[code] {
			if visited[e.Successor] {
				continue
			}
			if found := walk(e.Successor, trail); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(from, nil)
}

// SetDuration updates a node's duration in place, keeping its edges.
func (g *Graph) SetDuration(code string, duration int) error {
	n, ok := g.nodes[code]
	if !ok {
		return &domain.NotFoundError{Kind: "task node", Key: code}
	}
	if duration < 1 {
		return &domain.ValidationError{Entity: "graph", Field: "duration", Reason: fmt.Sprintf("task %s: duration must be at least 1 day", code)}
	}
	n.Duration = duration
	g.nodes[code] = n
	return nil
}

// HasTask reports whether a node exists under the code.
func (g *Graph) HasTask(code string) bool {
	_, ok := g.nodes[code]
	return ok
}

// Task returns the node for a code.
func (g *Graph) Task(code string) (Node, bool) {
	n, ok := g.nodes[code]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Codes returns every task code, sorted.
func (g *Graph) Codes() []string {
	codes := make([]string, 0, len(g.nodes))
	for code := range g.nodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Predecessors returns the edges arriving at a task, in canonical order.
func (g *Graph) Predecessors(code string) []Edge {
	return canonicalEdges(g.preds[code])
}

// Successors returns the edges leaving a task, in canonical order.
func (g *Graph) Successors(code string) []Edge {
	return canonicalEdges(g.succs[code])
}

func canonicalEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Predecessor != out[j].Predecessor {
			return out[i].Predecessor < out[j].Predecessor
		}
		if out[i].Successor != out[j].Successor {
			return out[i].Successor < out[j].Successor
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Lag.Days < out[j].Lag.Days
	})
	return out
}

// TopologicalOrder returns every code with predecessors before successors.
// Kahn's algorithm; ready nodes are consumed FIFO after a sort by code, so
// the order is deterministic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for code := range g.nodes {
		indegree[code] = len(g.preds[code])
	}

	var queue []string
	for code, deg := range indegree {
		if deg == 0 {
			queue = append(queue, code)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]
		order = append(order, code)

		released := make([]string, 0, len(g.succs[code]))
		for _, e := range g.succs[code] {
			indegree[e.Successor]--
			if indegree[e.Successor] == 0 {
				released = append(released, e.Successor)
			}
		}
		sort.Strings(released)
		queue = append(queue, released...)
	}

	if len(order) != len(g.nodes) {
		var remaining []string
		for code, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, code)
			}
		}
		sort.Strings(remaining)
		return nil, &CycleDetectedError{Remaining: remaining}
	}
	return order, nil
}

// Reachable returns the forward-reachable successor set from origin,
// including origin itself. This is the affected set for propagation.
func (g *Graph) Reachable(origin string) map[string]bool {
	out := map[string]bool{}
	if _, ok := g.nodes[origin]; !ok {
		return out
	}
	stack := []string{origin}
	for len(stack) > 0 {
		code := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[code] {
			continue
		}
		out[code] = true
		for _, e := range g.succs[code] {
			if !out[e.Successor] {
				stack = append(stack, e.Successor)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for code, n := range g.nodes {
		c.nodes[code] = n
	}
	for code, edges := range g.preds {
		c.preds[code] = append([]Edge(nil), edges...)
	}
	for code, edges := range g.succs {
		c.succs[code] = append([]Edge(nil), edges...)
	}
	return c
}

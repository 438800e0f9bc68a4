package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Edge is an asserted direct causal relationship: Cause → Effect.
type Edge struct {
	Cause  string `json:"cause"`
	Effect string `json:"effect"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Cause, e.Effect)
}

// GraphError reports a structurally invalid edge assertion. The graph is
// left unchanged when a GraphError is returned.
type GraphError struct {
	Edge   Edge
	Reason string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph error on edge %s: %s", e.Edge, e.Reason)
}

// DAG is a directed acyclic graph of causal assumptions.
//
// Nodes are variable names; they are derived from the edge list rather
// than stored. Include latent variables (unobserved confounders) as
// nodes and just leave their column out of the dataset. Estimators detect
// that they are unobserved at fit time.
//
// The zero value is an empty graph ready for use:
//
//	var g graph.DAG
//	g.Causes("ability", "education")
//	g.Causes("ability", "income")
//	g.Causes("education", "income")
type DAG struct {
	edges []Edge
}

// New creates an empty causal graph.
func New() *DAG {
	return &DAG{}
}

// Causes asserts that cause → effect. The edge is rejected with a
// *GraphError if it is a self-loop, duplicates an existing edge, or
// would introduce a cycle. On rejection the graph is unchanged.
func (g *DAG) Causes(cause, effect string) error {
	if cause == effect {
		return &GraphError{Edge: Edge{cause, effect}, Reason: "self-loops are not allowed"}
	}
	for _, e := range g.edges {
		if e.Cause == cause && e.Effect == effect {
			return &GraphError{Edge: Edge{cause, effect}, Reason: "edge already asserted"}
		}
	}
	g.edges = append(g.edges, Edge{Cause: cause, Effect: effect})
	if g.hasCycle() {
		// Roll back so the acyclicity invariant holds at every observable point.
		g.edges = g.edges[:len(g.edges)-1]
		return &GraphError{
			Edge:   Edge{cause, effect},
			Reason: "edge would create a cycle; causal graphs must be acyclic",
		}
	}
	return nil
}

// Handle is a lightweight builder bound to a subject node. It must not
// outlive the call chain that produced it.
type Handle struct {
	g       *DAG
	subject string
}

// Assume starts a chained assertion: g.Assume("ability").Causes("education", "income").
func (g *DAG) Assume(node string) *Handle {
	return &Handle{g: g, subject: node}
}

// Causes asserts subject → effect for every listed effect. Assertion
// stops at the first rejected edge; earlier edges in the call remain.
func (h *Handle) Causes(effects ...string) error {
	for _, effect := range effects {
		if err := h.g.Causes(h.subject, effect); err != nil {
			return err
		}
	}
	return nil
}

// HasNode reports whether name appears in any edge.
func (g *DAG) HasNode(name string) bool {
	for _, e := range g.edges {
		if e.Cause == name || e.Effect == name {
			return true
		}
	}
	return false
}

// Nodes returns the set of all names appearing in any edge.
func (g *DAG) Nodes() map[string]bool {
	nodes := make(map[string]bool, len(g.edges))
	for _, e := range g.edges {
		nodes[e.Cause] = true
		nodes[e.Effect] = true
	}
	return nodes
}

// Edges returns a copy of the edge sequence in insertion order.
func (g *DAG) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Parents returns the direct causes of node.
func (g *DAG) Parents(node string) map[string]bool {
	parents := make(map[string]bool)
	for _, e := range g.edges {
		if e.Effect == node {
			parents[e.Cause] = true
		}
	}
	return parents
}

// Children returns the direct effects of node.
func (g *DAG) Children(node string) map[string]bool {
	children := make(map[string]bool)
	for _, e := range g.edges {
		if e.Cause == node {
			children[e.Effect] = true
		}
	}
	return children
}

// Ancestors returns all nodes with a directed path leading to node,
// excluding node itself.
func (g *DAG) Ancestors(node string) map[string]bool {
	return g.reach(node, g.Parents)
}

// Descendants returns all nodes reachable from node via directed paths,
// excluding node itself.
func (g *DAG) Descendants(node string) map[string]bool {
	return g.reach(node, g.Children)
}

// DescendantsExcluding returns the directed descendants of start
// reachable without ever entering excluded. Paths are cut the moment
// they would visit the excluded node, so excluded appears neither as an
// intermediate nor as a terminal hop.
func (g *DAG) DescendantsExcluding(start, excluded string) map[string]bool {
	visited := make(map[string]bool)
	var queue []string
	for c := range g.Children(start) {
		if c != excluded {
			queue = append(queue, c)
		}
	}
	for len(queue) > 0 {
		current := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for c := range g.Children(current) {
			if c != excluded {
				queue = append(queue, c)
			}
		}
	}
	return visited
}

// reach is an iterative traversal with a visited set. The visited set is
// not strictly needed for termination in a DAG, but it prevents
// quadratic blowup on dense graphs with many shared paths.
func (g *DAG) reach(node string, step func(string) map[string]bool) map[string]bool {
	visited := make(map[string]bool)
	var queue []string
	for n := range step(node) {
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		current := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for n := range step(current) {
			queue = append(queue, n)
		}
	}
	return visited
}

// hasCycle runs Kahn's algorithm over the current edge list: repeatedly
// remove in-degree-zero nodes; any node left unprocessed sits on a cycle.
func (g *DAG) hasCycle() bool {
	inDegree := make(map[string]int)
	for _, e := range g.edges {
		if _, ok := inDegree[e.Cause]; !ok {
			inDegree[e.Cause] = 0
		}
		inDegree[e.Effect]++
	}

	var queue []string
	for n, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, n)
		}
	}

	processed := 0
	for len(queue) > 0 {
		node := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		processed++
		for child := range g.Children(node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return processed != len(inDegree)
}

// Sorted converts a node set to a sorted slice for deterministic output.
func Sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (g *DAG) String() string {
	if len(g.edges) == 0 {
		return "DAG (empty)"
	}
	var b strings.Builder
	b.WriteString("DAG:")
	for _, e := range g.edges {
		b.WriteString("\n  ")
		b.WriteString(e.String())
	}
	return b.String()
}

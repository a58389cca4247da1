package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// NodeOption configures a node at declaration time.
type NodeOption func(*Node)

// InterruptBefore halts execution just before the node runs, awaiting input.
func InterruptBefore() NodeOption {
	return func(n *Node) {
		n.InterruptBefore = true
	}
}

// Builder accumulates declarations. Errors are collected and reported by Build.
type Builder struct {
	nodes []Node
	edges []Edge
	entry string
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

// AddNode declares a node.
func (b *Builder) AddNode(name string, h Handler, opts ...NodeOption) *Builder {
	n := Node{Name: name, Handler: h}
	for _, opt := range opts {
		opt(&n)
	}
	b.nodes = append(b.nodes, n)
	return b
}

// AddEdge declares an unconditional transition.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges = append(b.edges, Edge{From: from, To: to})
	return b
}

// AddConditionalEdge declares a router-determined transition.
func (b *Builder) AddConditionalEdge(from string, r Router, routes map[string]string) *Builder {
	b.edges = append(b.edges, Edge{From: from, Router: &r, Routes: maps.Clone(routes)})
	return b
}

// SetEntry declares the entry node.
func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// Build validates the declarations and returns an immutable Definition.
// All problems are reported at once in a *domain.GraphValidationError.
func (b *Builder) Build() (*Definition, error) {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	def := &Definition{
		entry: b.entry,
		nodes: make(map[string]Node, len(b.nodes)),
		edges: make(map[string]Edge, len(b.edges)),
	}

	for _, n := range b.nodes {
		switch {
		case n.Name == "":
			report("node with empty name")
			continue
		case n.Name == End:
			report("node name %q is reserved", End)
			continue
		}
		if _, dup := def.nodes[n.Name]; dup {
			report("duplicate node %q", n.Name)
			continue
		}
		if n.Handler == nil {
			report("node %q has no handler", n.Name)
		}
		def.nodes[n.Name] = n
		def.order = append(def.order, n.Name)
	}

	if b.entry == "" {
		report("no entry node declared")
	} else if !def.Has(b.entry) || b.entry == End {
		report("entry node %q is not declared", b.entry)
	}

	for _, e := range b.edges {
		if _, ok := def.nodes[e.From]; !ok {
			report("edge from unknown node %q", e.From)
			continue
		}
		if _, dup := def.edges[e.From]; dup {
			report("node %q has more than one outgoing edge", e.From)
			continue
		}
		if e.Conditional() {
			problems = append(problems, validateRoutes(def, e)...)
		} else if !def.Has(e.To) {
			report("edge %q -> %q targets unknown node", e.From, e.To)
		}
		def.edges[e.From] = e
	}

	for _, name := range def.order {
		if _, ok := def.edges[name]; !ok {
			report("node %q has no outgoing edge", name)
		}
	}

	if len(problems) == 0 {
		problems = append(problems, validateReachability(def)...)
	}

	if len(problems) > 0 {
		return nil, &domain.GraphValidationError{Problems: problems}
	}
	return def, nil
}

// MustBuild is like Build but panics on an invalid graph.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func validateRoutes(def *Definition, e Edge) []string {
	var problems []string
	outcomes := e.Router.outcomes
	if len(outcomes) == 0 {
		problems = append(problems, fmt.Sprintf("router %q on node %q declares no outcomes", e.Router.name, e.From))
	}
	for _, o := range outcomes {
		to, ok := e.Routes[o]
		if !ok {
			problems = append(problems, fmt.Sprintf("router %q on node %q: outcome %q is not mapped", e.Router.name, e.From, o))
			continue
		}
		if !def.Has(to) {
			problems = append(problems, fmt.Sprintf("router %q on node %q: outcome %q targets unknown node %q", e.Router.name, e.From, o, to))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(e.Routes)) {
		if !slices.Contains(outcomes, k) {
			problems = append(problems, fmt.Sprintf("router %q on node %q: mapped outcome %q is never produced", e.Router.name, e.From, k))
		}
	}
	return problems
}

// validateReachability walks from the entry node and requires that End is reachable
// and that every declared node can be visited.
func validateReachability(def *Definition) []string {
	visited := map[string]bool{def.entry: true}
	queue := []string{def.entry}
	reachedEnd := false

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, to := range def.edges[current].Targets() {
			if to == End {
				reachedEnd = true
				continue
			}
			if !visited[to] {
				visited[to] = true
				queue = append(queue, to)
			}
		}
	}

	var problems []string
	if !reachedEnd {
		problems = append(problems, fmt.Sprintf("no path from entry %q to the terminal marker", def.entry))
	}
	for _, name := range def.order {
		if !visited[name] {
			problems = append(problems, fmt.Sprintf("node %q is unreachable from entry %q", name, def.entry))
		}
	}
	return problems
}

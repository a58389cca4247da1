package graph

import (
	"context"
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// End is the reserved terminal marker. Routing to it completes the session.
const End = "__end__"

// Handler executes the logic of a node and returns a partial state update.
// Handlers must not mutate the state they receive.
type Handler func(ctx context.Context, state *domain.State) (domain.Update, error)

// Router maps a state to one outcome of a closed, declared set.
type Router struct {
	name     string
	outcomes []string
	route    func(*domain.State) string
}

// NewRouter builds a Router from a typed outcome enumeration.
// The outcomes slice must list every value fn can return; graph validation
// relies on it to prove the edge's outcome map is complete.
func NewRouter[O ~string](name string, outcomes []O, fn func(*domain.State) O) Router {
	declared := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		declared = append(declared, string(o))
	}
	return Router{
		name:     name,
		outcomes: declared,
		route: func(s *domain.State) string {
			return string(fn(s))
		},
	}
}

// Name identifies the router in logs and errors.
func (r Router) Name() string { return r.name }

// Outcomes returns the declared outcome set.
func (r Router) Outcomes() []string { return slices.Clone(r.outcomes) }

// Route evaluates the router.
func (r Router) Route(s *domain.State) string { return r.route(s) }

// Routes converts a typed outcome map for AddConditionalEdge.
func Routes[O ~string](m map[O]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// Node is a declared unit of conversation logic.
type Node struct {
	Name            string
	InterruptBefore bool
	Handler         Handler
}

// Edge is the single outgoing transition rule of a node.
// It is either fixed (To) or conditional (Router plus Routes).
type Edge struct {
	From   string
	To     string
	Router *Router
	Routes map[string]string
}

// Conditional reports whether the edge is router-determined.
func (e Edge) Conditional() bool {
	return e.Router != nil
}

// Targets lists every node the edge can lead to, in a stable order.
func (e Edge) Targets() []string {
	if !e.Conditional() {
		return []string{e.To}
	}
	var targets []string
	for _, outcome := range e.Router.outcomes {
		if to, ok := e.Routes[outcome]; ok && !slices.Contains(targets, to) {
			targets = append(targets, to)
		}
	}
	return targets
}

// Definition is a validated, immutable graph.
type Definition struct {
	entry string
	order []string
	nodes map[string]Node
	edges map[string]Edge
}

// Entry returns the entry node name.
func (d *Definition) Entry() string { return d.entry }

// Node returns a declared node.
func (d *Definition) Node(name string) (Node, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// Edge returns the outgoing edge of a node.
func (d *Definition) Edge(from string) (Edge, bool) {
	e, ok := d.edges[from]
	return e, ok
}

// Has reports whether name is declared. The End marker is always declared.
func (d *Definition) Has(name string) bool {
	if name == End {
		return true
	}
	_, ok := d.nodes[name]
	return ok
}

// Nodes returns the declared nodes in declaration order.
func (d *Definition) Nodes() []Node {
	out := make([]Node, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.nodes[name])
	}
	return out
}

// Interrupts returns the names of interrupt-before nodes in declaration order.
func (d *Definition) Interrupts() []string {
	var out []string
	for _, name := range d.order {
		if d.nodes[name].InterruptBefore {
			out = append(out, name)
		}
	}
	return out
}

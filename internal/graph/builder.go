package graph

import (
	"context"
	"fmt"
	"slices"
)

// Reserved node names marking the entry and exit of every graph.
const (
	Start = "__start__"
	End   = "__end__"
)

// NodeFunc is a unit of work. It reads a snapshot of the state and returns a patch.
type NodeFunc func(ctx context.Context, state State) (Result, error)

// RouteFunc selects the next nodes from the current state.
type RouteFunc func(state State) ([]string, error)

type node struct {
	name    string
	fn      NodeFunc
	barrier bool
	gotos   []string
}

type route struct {
	fn           RouteFunc
	destinations []string
}

// NodeOption configures a node at registration.
type NodeOption func(*node)

// WithDestinations declares the nodes a Goto result of this node may name.
func WithDestinations(names ...string) NodeOption {
	return func(n *node) {
		n.gotos = append(n.gotos, names...)
	}
}

// Builder assembles a graph definition. Problems are collected and reported by Compile.
type Builder struct {
	name   string
	nodes  map[string]*node
	order  []string
	edges  map[string][]string
	routes map[string]*route
	errs   []string
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		nodes:  map[string]*node{},
		edges:  map[string][]string{},
		routes: map[string]*route{},
	}
}

// AddNode registers a named node.
func (b *Builder) AddNode(name string, fn NodeFunc, opts ...NodeOption) *Builder {
	if fn == nil {
		b.errs = append(b.errs, fmt.Sprintf("node %q has no function", name))
		return b
	}
	n := &node{name: name, fn: fn}
	for _, opt := range opts {
		opt(n)
	}
	b.add(n)
	return b
}

// AddBarrier registers a passthrough node that always waits for every live predecessor.
func (b *Builder) AddBarrier(name string) *Builder {
	b.add(&node{name: name, fn: passthrough, barrier: true})
	return b
}

func passthrough(context.Context, State) (Result, error) {
	return Update(nil), nil
}

func (b *Builder) add(n *node) {
	switch {
	case n.name == "":
		b.errs = append(b.errs, "node name is empty")
	case n.name == Start || n.name == End:
		b.errs = append(b.errs, fmt.Sprintf("node name %q is reserved", n.name))
	case b.nodes[n.name] != nil:
		b.errs = append(b.errs, fmt.Sprintf("node %q registered twice", n.name))
	default:
		b.nodes[n.name] = n
		b.order = append(b.order, n.name)
	}
}

// AddEdge adds a static edge. Duplicates are ignored.
func (b *Builder) AddEdge(from, to string) *Builder {
	if !slices.Contains(b.edges[from], to) {
		b.edges[from] = append(b.edges[from], to)
	}
	return b
}

// AddConditionalEdges attaches a routing function to from. The function may only
// choose among destinations.
func (b *Builder) AddConditionalEdges(from string, fn RouteFunc, destinations ...string) *Builder {
	switch {
	case fn == nil:
		b.errs = append(b.errs, fmt.Sprintf("route from %q has no function", from))
	case b.routes[from] != nil:
		b.errs = append(b.errs, fmt.Sprintf("node %q already has a route", from))
	default:
		b.routes[from] = &route{fn: fn, destinations: destinations}
	}
	return b
}

// SetConditionalEntry makes the entry of the graph depend on the initial state.
func (b *Builder) SetConditionalEntry(fn RouteFunc, destinations ...string) *Builder {
	return b.AddConditionalEdges(Start, fn, destinations...)
}

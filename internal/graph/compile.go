package graph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is an immutable compiled graph. It can be run any number of times.
type Graph struct {
	name   string
	nodes  map[string]*node
	order  []string
	edges  map[string][]string
	routes map[string]*route
	preds  map[string][]string
	joins  map[string]bool
	reach  map[string]map[string]bool
}

// Name returns the graph name used in logs, traces and metrics.
func (g *Graph) Name() string { return g.name }

// Nodes returns node names in registration order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// IsJoin reports whether name waits for its live predecessors before running.
func (g *Graph) IsJoin(name string) bool { return g.joins[name] }

// Compile validates the definition and freezes it.
func (b *Builder) Compile() (*Graph, error) {
	problems := slices.Clone(b.errs)

	known := func(n string) bool {
		return n == Start || n == End || b.nodes[n] != nil
	}
	checkTarget := func(kind, from, to string) {
		switch {
		case to == Start:
			problems = append(problems, fmt.Sprintf("%s from %q points at %s", kind, from, Start))
		case !known(to):
			problems = append(problems, fmt.Sprintf("%s from %q points at unknown node %q", kind, from, to))
		}
	}

	for _, from := range sortedKeys(b.edges) {
		switch {
		case from == End:
			problems = append(problems, fmt.Sprintf("edge leaves %s", End))
		case !known(from):
			problems = append(problems, fmt.Sprintf("edge from unknown node %q", from))
		}
		for _, to := range b.edges[from] {
			checkTarget("edge", from, to)
		}
	}
	for _, from := range sortedKeys(b.routes) {
		r := b.routes[from]
		if from == End || !known(from) {
			problems = append(problems, fmt.Sprintf("route from unknown node %q", from))
		}
		if len(r.destinations) == 0 {
			problems = append(problems, fmt.Sprintf("route from %q declares no destinations", from))
		}
		for _, to := range r.destinations {
			checkTarget("route", from, to)
		}
	}
	for _, name := range b.order {
		for _, to := range b.nodes[name].gotos {
			checkTarget("goto", name, to)
		}
	}

	_, staticEntry := b.edges[Start]
	_, routedEntry := b.routes[Start]
	switch {
	case !staticEntry && !routedEntry:
		problems = append(problems, "graph has no entry point")
	case staticEntry && routedEntry:
		problems = append(problems, "graph has both static and conditional entry")
	}

	if len(problems) > 0 {
		return nil, &ExecutionError{Graph: b.name, Problems: problems}
	}

	succ := b.successors()
	forward := walk(Start, succ)
	for _, name := range b.order {
		if !forward[name] {
			problems = append(problems, fmt.Sprintf("node %q is unreachable from %s", name, Start))
		}
	}
	backward := walk(End, invert(succ))
	for _, name := range b.order {
		if forward[name] && !backward[name] {
			problems = append(problems, fmt.Sprintf("node %q has no path to %s", name, End))
		}
	}
	if len(problems) > 0 {
		return nil, &ExecutionError{Graph: b.name, Problems: problems}
	}

	g := &Graph{
		name:   b.name,
		nodes:  b.nodes,
		order:  slices.Clone(b.order),
		edges:  b.edges,
		routes: b.routes,
		preds:  map[string][]string{},
		joins:  map[string]bool{},
		reach:  map[string]map[string]bool{},
	}
	for _, from := range sortedKeys(b.edges) {
		if from == Start {
			continue
		}
		for _, to := range b.edges[from] {
			if to != End {
				g.preds[to] = append(g.preds[to], from)
			}
		}
	}
	for _, name := range g.order {
		g.joins[name] = b.nodes[name].barrier || len(g.preds[name]) > 1
		seen := map[string]bool{}
		for _, next := range succ[name] {
			for n := range walk(next, succ) {
				seen[n] = true
			}
		}
		delete(seen, End)
		g.reach[name] = seen
	}
	return g, nil
}

// successors merges static edges, route destinations and goto targets.
func (b *Builder) successors() map[string][]string {
	succ := map[string][]string{}
	add := func(from string, to ...string) {
		for _, t := range to {
			if !slices.Contains(succ[from], t) {
				succ[from] = append(succ[from], t)
			}
		}
	}
	for from, to := range b.edges {
		add(from, to...)
	}
	for from, r := range b.routes {
		add(from, r.destinations...)
	}
	for name, n := range b.nodes {
		add(name, n.gotos...)
	}
	return succ
}

func walk(from string, succ map[string][]string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range succ[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

func invert(succ map[string][]string) map[string][]string {
	out := map[string][]string{}
	for from, tos := range succ {
		for _, to := range tos {
			out[to] = append(out[to], from)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

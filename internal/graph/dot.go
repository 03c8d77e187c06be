package graph

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

var dotIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DOT renders the graph in Graphviz format. Conditional edges are dashed and
// goto edges dotted.
func (g *Graph) DOT() (string, error) {
	out := gographviz.NewGraph()
	name := dotID(g.name)
	if err := out.SetName(name); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}

	addNode := func(n, shape string) error {
		return out.AddNode(name, dotID(n), map[string]string{"shape": shape})
	}
	if err := addNode(Start, "circle"); err != nil {
		return "", err
	}
	for _, n := range g.order {
		shape := "box"
		if g.joins[n] {
			shape = "diamond"
		}
		if err := addNode(n, shape); err != nil {
			return "", err
		}
	}
	if err := addNode(End, "doublecircle"); err != nil {
		return "", err
	}

	addEdge := func(from, to string, attrs map[string]string) error {
		if err := out.AddEdge(dotID(from), dotID(to), true, attrs); err != nil {
			return fmt.Errorf("edge %s -> %s: %w", from, to, err)
		}
		return nil
	}
	sources := append([]string{Start}, g.order...)
	for _, from := range sources {
		for _, to := range g.edges[from] {
			if err := addEdge(from, to, nil); err != nil {
				return "", err
			}
		}
		if rt := g.routes[from]; rt != nil {
			for _, to := range rt.destinations {
				if err := addEdge(from, to, map[string]string{"style": "dashed"}); err != nil {
					return "", err
				}
			}
		}
		if n := g.nodes[from]; n != nil {
			for _, to := range n.gotos {
				if err := addEdge(from, to, map[string]string{"style": "dotted"}); err != nil {
					return "", err
				}
			}
		}
	}

	return out.String(), nil
}

func dotID(s string) string {
	if dotIdent.MatchString(s) {
		return s
	}
	return strconv.Quote(s)
}

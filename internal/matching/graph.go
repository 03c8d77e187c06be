package matching

import (
	"fmt"

	"github.com/spigell/jd-matcher/internal/graph"
)

const (
	GraphName   = "matching"
	WaitingNode = "waitingNode"
	ScoringNode = "scoringNode"
)

// NodeName is the graph node that evaluates a dimension.
func NodeName(dimension string) string {
	return dimension + "Node"
}

// buildGraph fans out to every dimension node, joins at the waiting node and
// scores. When the skip condition holds the run starts at scoring.
func buildGraph(n *nodes) (*graph.Graph, error) {
	fns := map[string]graph.NodeFunc{
		JobTitle:                  n.jobTitle,
		WorkExperience:            n.workExperience,
		CoreSkills:                n.coreSkills,
		MandatorySkills:           n.mandatorySkills,
		GoodToHaveSkills:          n.goodToHaveSkills,
		PrimaryResponsibilities:   n.primaryResponsibilities,
		EducationalQualifications: n.educationalQualifications,
		RedFlags:                  n.redFlags,
		StrongGreenFlags:          n.strongGreenFlags,
	}

	b := graph.NewBuilder(GraphName)
	var analysis []string
	for _, dim := range n.cfg.dimensions() {
		name := NodeName(dim)
		analysis = append(analysis, name)
		b.AddNode(name, fns[dim]).AddEdge(name, WaitingNode)
	}
	b.AddBarrier(WaitingNode).
		AddNode(ScoringNode, n.scoring).
		AddEdge(WaitingNode, ScoringNode).
		AddEdge(ScoringNode, graph.End)

	entry, err := graph.ExprRoute(n.cfg.SkipAnalysisWhen, []string{ScoringNode}, analysis)
	if err != nil {
		return nil, fmt.Errorf("matching entry: %w", err)
	}
	b.SetConditionalEntry(entry, append([]string{ScoringNode}, analysis...)...)

	return b.Compile()
}

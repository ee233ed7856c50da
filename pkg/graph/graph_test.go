package graph_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/dsl"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(t *testing.T, n int) *graph.Graph {
	t.Helper()
	b := dsl.New()
	for i := 1; i <= n; i++ {
		nb := b.Add(fmt.Sprintf("N%d", i)).Action(fmt.Sprintf("Step %d", i))
		if i < n {
			nb.Go(fmt.Sprintf("N%d", i+1))
		}
	}
	return b.MustBuild()
}

func TestLinearGraph_Legality(t *testing.T) {
	g := linear(t, 7)

	assert.Equal(t, "N1", g.Entry(), "first node without incoming edges is the entry")
	assert.True(t, g.Legal("N2", "N3"))
	assert.False(t, g.Legal("N2", "N5"))
	assert.Equal(t, []string{"N3"}, g.LegalNext("N2"))
	assert.True(t, g.Legal("N6", "N1"), "entry is always reachable")
	assert.Empty(t, g.DecisionNodes())
}

func TestLegalNext_Unstarted(t *testing.T) {
	g := linear(t, 3)
	assert.Equal(t, []string{"N1"}, g.LegalNext(""))
	assert.True(t, g.Legal("", "N1"))
	assert.False(t, g.Legal("", "N2"))
}

func TestDecisionBranches(t *testing.T) {
	b := dsl.New()
	b.Add("START").Terminal("Start").Go("D")
	b.Add("D").Decision("Eligible?").Branch("yes", "X").Branch("no", "Y")
	b.Add("X").Terminal("Approved")
	b.Add("Y").Terminal("Denied")
	b.Add("Z").Action("Unrelated")
	g := b.MustBuild()

	assert.True(t, g.Legal("D", "X"))
	assert.True(t, g.Legal("D", "Y"))
	assert.False(t, g.Legal("D", "Z"))
	assert.False(t, g.Legal("D", "NOPE"))
	assert.Equal(t, []string{"D"}, g.DecisionNodes())
	assert.Equal(t, []string{"X", "Y"}, g.TerminalNodes())
}

func TestReentryIsAlwaysLegal(t *testing.T) {
	b := dsl.New().Reentry("ROUTE")
	b.Add("START").Terminal("Start").Go("ROUTE")
	b.Add("ROUTE").Decision("Intent?").Branch("a", "A").Branch("b", "B")
	b.Add("A").Terminal("Done A")
	b.Add("B").Terminal("Done B")
	g := b.MustBuild()

	assert.Equal(t, "ROUTE", g.Reentry())
	assert.True(t, g.Legal("A", "ROUTE"))
	assert.False(t, g.Legal("A", "B"))
}

func TestNew_Validation(t *testing.T) {
	node := func(id string, shape domain.Shape) domain.Node {
		return domain.Node{ID: id, Label: id, Shape: shape}
	}

	tests := []struct {
		name    string
		nodes   []domain.Node
		edges   []domain.Edge
		opts    []graph.Option
		wantErr string
	}{
		{
			name:    "decision with a single branch",
			nodes:   []domain.Node{node("START", domain.ShapeStadium), node("D", domain.ShapeRhombus), node("E", domain.ShapeStadium)},
			edges:   []domain.Edge{{From: "START", To: "D"}, {From: "D", To: "E", Label: "yes"}},
			wantErr: "at least 2 outgoing edges",
		},
		{
			name:    "unknown edge endpoint",
			nodes:   []domain.Node{node("START", domain.ShapeStadium)},
			edges:   []domain.Edge{{From: "START", To: "GHOST", Line: 4}},
			wantErr: `line 4: edge references undeclared node "GHOST"`,
		},
		{
			name:    "duplicate labeled edge",
			nodes:   []domain.Node{node("START", domain.ShapeStadium), node("A", domain.ShapeRectangle)},
			edges:   []domain.Edge{{From: "START", To: "A", Label: "x"}, {From: "START", To: "A", Label: "x"}},
			wantErr: "duplicate edge",
		},
		{
			name:    "declared entry missing",
			nodes:   []domain.Node{node("A", domain.ShapeRectangle)},
			opts:    []graph.Option{graph.WithEntry("BEGIN")},
			wantErr: `entry node "BEGIN" is not declared`,
		},
		{
			name:    "declared re-entry missing",
			nodes:   []domain.Node{node("A", domain.ShapeRectangle)},
			opts:    []graph.Option{graph.WithReentry("HUB")},
			wantErr: `re-entry node "HUB" is not declared`,
		},
		{
			name:    "annotation entry",
			nodes:   []domain.Node{node("NOTE", domain.ShapeParallelogram)},
			opts:    []graph.Option{graph.WithEntry("NOTE")},
			wantErr: "cannot be an annotation",
		},
		{
			name:    "no entry candidate",
			nodes:   []domain.Node{node("A", domain.ShapeRectangle), node("B", domain.ShapeRectangle)},
			edges:   []domain.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}},
			wantErr: "no entry node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.New(tt.nodes, tt.edges, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParse)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_SameTargetDistinctLabels(t *testing.T) {
	nodes := []domain.Node{
		{ID: "START", Shape: domain.ShapeStadium},
		{ID: "D", Shape: domain.ShapeRhombus},
		{ID: "E", Shape: domain.ShapeStadium},
	}
	edges := []domain.Edge{
		{From: "START", To: "D"},
		{From: "D", To: "E", Label: "yes"},
		{From: "D", To: "E", Label: "maybe"},
	}
	g, err := graph.New(nodes, edges)
	require.NoError(t, err)
	assert.Len(t, g.Outgoing("D"), 2)
	assert.Equal(t, []string{"E"}, g.Neighbors("D"))
}

func TestGraph_IsImmutable(t *testing.T) {
	b := dsl.New()
	b.Add("START").Terminal("Start").Go("A")
	b.Add("A").Action("Work").Capabilities("tool_a")
	g := b.MustBuild()

	nodes := g.Nodes()
	nodes[1].Label = "changed"
	a, _ := g.Node("A")
	assert.Equal(t, "Work", a.Label)

	a.Instruction.Capabilities[0] = "mutated"
	again, _ := g.Node("A")
	assert.Equal(t, "tool_a", again.Instruction.Capabilities[0])
}

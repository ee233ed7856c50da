package notation_test

import (
	"errors"
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/notation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlowchart_Shapes(t *testing.T) {
	src := `flowchart LR
    START([Start]) --> A["Collect the order id"]
    A --> D{Eligible?}
    D -->|yes| OK([Refunded])
    D -->|no| N[/Explain the policy/]
    N --> END([Closed])
`
	fc, err := notation.ParseFlowchart(src)
	require.NoError(t, err)

	assert.Equal(t, "LR", fc.Direction)
	ids := make([]string, len(fc.Nodes))
	for i, n := range fc.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"START", "A", "D", "OK", "N", "END"}, ids)

	assert.Equal(t, domain.ShapeStadium, fc.Nodes[0].Shape)
	assert.Equal(t, domain.ShapeRectangle, fc.Nodes[1].Shape)
	assert.Equal(t, "Collect the order id", fc.Nodes[1].Label)
	assert.Equal(t, domain.KindDecision, fc.Nodes[2].Kind)
	assert.Equal(t, domain.KindAnnotation, fc.Nodes[4].Kind)
	assert.Equal(t, 3, fc.Nodes[2].Line)

	require.Len(t, fc.Edges, 5)
	assert.Equal(t, domain.Edge{From: "D", To: "OK", Label: "yes", Style: domain.EdgeSolid, Line: 4}, fc.Edges[2])
}

func TestParseFlowchart_Arrows(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		label string
		style domain.EdgeStyle
	}{
		{"plain", "A --> B", "", domain.EdgeSolid},
		{"long", "A ---> B", "", domain.EdgeSolid},
		{"pipe label", "A -->|yes| B", "yes", domain.EdgeSolid},
		{"spaced pipe label", "A --> | maybe later | B", "maybe later", domain.EdgeSolid},
		{"quoted pipe label", `A -->|"a|b"| B`, "a|b", domain.EdgeSolid},
		{"inline text", "A -- no stock --> B", "no stock", domain.EdgeSolid},
		{"dotted", "A -.-> B", "", domain.EdgeDotted},
		{"dotted label", "A -.->|escalate| B", "escalate", domain.EdgeDotted},
		{"dotted inline", "A -. escalate .-> B", "escalate", domain.EdgeDotted},
		{"no spaces", "A-->|ok|B", "ok", domain.EdgeSolid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := notation.ParseFlowchart("flowchart TD\nA[a]\nB[b]\n" + tt.line + "\n")
			require.NoError(t, err)
			require.Len(t, fc.Edges, 1)
			assert.Equal(t, "A", fc.Edges[0].From)
			assert.Equal(t, "B", fc.Edges[0].To)
			assert.Equal(t, tt.label, fc.Edges[0].Label)
			assert.Equal(t, tt.style, fc.Edges[0].Style)
		})
	}
}

func TestParseFlowchart_ChainsAndStatements(t *testing.T) {
	src := `graph TD
A[a] --> B[b] --> C[c]; C --> D([d])
classDef hot fill:#f00
class A hot
style B fill:#0f0
subgraph group [Group]
E[e]:::hot
end
D --> E
`
	fc, err := notation.ParseFlowchart(src)
	require.NoError(t, err)
	assert.Len(t, fc.Nodes, 5)
	require.Len(t, fc.Edges, 4)
	assert.Equal(t, "B", fc.Edges[1].From)
	assert.Equal(t, "C", fc.Edges[1].To)
	assert.Equal(t, "C", fc.Edges[2].From)
	assert.Equal(t, "D", fc.Edges[2].To)
}

func TestParseFlowchart_ForwardReference(t *testing.T) {
	fc, err := notation.ParseFlowchart("flowchart TD\nA --> B\nA[a]\nB[b]\n")
	require.NoError(t, err)
	assert.Equal(t, "A", fc.Nodes[0].ID)
	assert.Equal(t, 3, fc.Nodes[0].Line, "line points at the declaration")
}

func TestParseFlowchart_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		column int
		msg    string
	}{
		{"undeclared target", "flowchart TD\nA[a]\nA --> GHOST\n", 3, 7, `undeclared node "GHOST"`},
		{"undeclared source", "flowchart TD\nB[b]\n  X --> B\n", 3, 3, `undeclared node "X"`},
		{"round shape", "flowchart TD\nA(round)\n", 2, 2, "unsupported node shape"},
		{"undirected", "flowchart TD\nA[a] --- B[b]\n", 2, 6, "undirected"},
		{"thick", "flowchart TD\nA[a] ==> B[b]\n", 2, 6, "thick"},
		{"unterminated label", "flowchart TD\nA[oops\n", 2, 2, "unterminated label"},
		{"redeclared", "flowchart TD\nA[a]\nA{a}\n", 3, 1, "redeclared"},
		{"bad direction", "flowchart SIDEWAYS\nA[a]\n", 1, 11, "unknown direction"},
		{"second header", "flowchart TD\nA[a]\ngraph LR\n", 3, 1, "header"},
		{"dangling arrow", "flowchart TD\nA[a] -->\n", 2, 9, "expected node id"},
		{"garbage", "flowchart TD\nA[a] B[b]\n", 2, 6, "expected arrow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := notation.ParseFlowchart(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrParse))

			var pe *domain.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.column, pe.Column)
			assert.Contains(t, pe.Msg, tt.msg)
		})
	}
}

func TestParseFlowchart_Empty(t *testing.T) {
	_, err := notation.ParseFlowchart("flowchart TD\n%% nothing here\n")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParseFlowchart_Deterministic(t *testing.T) {
	src := "flowchart TD\nZ[z] --> Y[y]\nY --> X{x}\nX -->|a| Z\nX -->|b| W([w])\n"
	first, err := notation.ParseFlowchart(src)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := notation.ParseFlowchart(src)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

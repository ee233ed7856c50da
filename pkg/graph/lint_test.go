package graph_test

import (
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/dsl"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	b := dsl.New()
	b.Add("START").Terminal("Start").Go("D")
	b.Add("D").Decision("Which?").Branch("yes", "A").Branch("yes", "B")
	b.Add("A").Terminal("A")
	b.Add("B").Terminal("B")
	b.Add("ISLAND").Action("Never visited")
	g := b.MustBuild()

	warnings := graph.Lint(g)
	require.Len(t, warnings, 2)

	assert.Equal(t, domain.WarnAmbiguousBranch, warnings[0].Kind)
	assert.Equal(t, "D", warnings[0].Node)
	assert.Equal(t, domain.WarnUnreachableNode, warnings[1].Kind)
	assert.Equal(t, "ISLAND", warnings[1].Node)
}

func TestLint_ReentryCountsAsReachable(t *testing.T) {
	b := dsl.New().Entry("START").Reentry("HUB")
	b.Add("START").Terminal("Start").Go("END")
	b.Add("END").Terminal("End")
	b.Add("HUB").Action("Hub").Go("END")
	g := b.MustBuild()

	assert.Empty(t, graph.Lint(g))
}

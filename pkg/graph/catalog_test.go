package graph_test

import (
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_IsStable(t *testing.T) {
	a := graph.Digest("flowchart TD\n  START([Start])")
	b := graph.Digest("flowchart TD\n  START([Start])")
	c := graph.Digest("flowchart LR\n  START([Start])")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestCatalog_EvictsOldest(t *testing.T) {
	cat, err := graph.NewCatalog(2)
	require.NoError(t, err)

	build := func(src string) *graph.Graph {
		g, err := graph.New(
			[]domain.Node{{ID: "START", Shape: domain.ShapeStadium}},
			nil,
			graph.WithDigest(graph.Digest(src)),
		)
		require.NoError(t, err)
		return g
	}

	g1, g2, g3 := build("one"), build("two"), build("three")
	cat.Put(g1)
	cat.Put(g2)
	cat.Put(g3)

	assert.Equal(t, 2, cat.Len())
	_, ok := cat.Get(g1.Digest())
	assert.False(t, ok)

	got, ok := cat.Get(g3.Digest())
	require.True(t, ok)
	assert.Same(t, g3, got)
}

func TestCatalog_IgnoresGraphsWithoutDigest(t *testing.T) {
	cat, err := graph.NewCatalog(0)
	require.NoError(t, err)

	g, err := graph.New([]domain.Node{{ID: "START", Shape: domain.ShapeStadium}}, nil)
	require.NoError(t, err)
	cat.Put(g)
	assert.Equal(t, 0, cat.Len())
}

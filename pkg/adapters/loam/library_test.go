package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	loamAdapter "github.com/aretw0/sopnav/pkg/adapters/loam"
	"github.com/aretw0/sopnav/pkg/notation"
	contract "github.com/aretw0/sopnav/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const retailAgent = `---
agent: retail
version: "1.0"
entry_node: START
tools: [find_user]
model:
  provider: anthropic
  temperature: 0.2
---
You are a retail support agent.

## SOP Flowchart

` + "```mermaid" + `
flowchart TD
    START([Start]) --> AUTH[Authenticate]
    AUTH --> DONE([Done])
` + "```" + `
`

func setupLibrary(t *testing.T) *loamAdapter.Library {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		filepath.Join("retail", "AGENTS.md"): retailAgent,
		"plain.md":                           "flowchart TD\n    A[Only] --> B([End])\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	repo, err := loam.Init(dir, loam.WithVersioning(false), loam.WithReadOnly(true))
	require.NoError(t, err)
	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.AgentMetadata](repo))
}

func TestLibrary_Contract(t *testing.T) {
	contract.SourceResolverContractTest(t, setupLibrary(t), map[string]string{
		"retail":   "AUTH[Authenticate]",
		"plain.md": "A[Only]",
	})
}

func TestLibrary_ReassembledDocumentParses(t *testing.T) {
	lib := setupLibrary(t)
	src, err := lib.Resolve(context.Background(), "retail")
	require.NoError(t, err)
	assert.Equal(t, "retail", src.Name)

	doc, g, warnings, err := notation.Parse(src.Text)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "retail", doc.Header.Agent)
	assert.Equal(t, "1.0", doc.Header.Version)
	assert.Equal(t, []string{"find_user"}, doc.Header.Tools)
	require.NotNil(t, doc.Header.Model)
	assert.Equal(t, "anthropic", doc.Header.Model.Provider)
	assert.InDelta(t, 0.2, doc.Header.Model.Temperature, 1e-9)
	assert.Contains(t, doc.Preamble, "retail support agent")
	assert.Equal(t, "START", g.Entry())
}

func TestLibrary_RejectsTraversal(t *testing.T) {
	_, err := setupLibrary(t).Resolve(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the library")
}

func TestLibrary_Agents(t *testing.T) {
	agents, err := setupLibrary(t).Agents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"retail"}, agents)
}

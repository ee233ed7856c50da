package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/sopnav/pkg/adapters/file"
	"github.com/aretw0/sopnav/pkg/domain"
	contract "github.com/aretw0/sopnav/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func agentsDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "retail", file.AgentFile), "---\nagent: retail\n---\nflowchart TD\n    START([Start])\n")
	writeFile(t, filepath.Join(root, "billing", "flows", "refund.md"), "flowchart TD\n    REFUND([Refund])\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	return root
}

func TestSource_Contract(t *testing.T) {
	root := agentsDir(t)
	known := map[string]string{
		"retail":                  "agent: retail",
		"retail/AGENTS.md":        "START",
		"billing/flows/refund.md": "REFUND",
	}
	known[filepath.Join(root, "retail")] = "START"
	contract.SourceResolverContractTest(t, file.NewSource(root), known)
}

func TestSource_Names(t *testing.T) {
	root := agentsDir(t)
	src := file.NewSource(root)
	ctx := context.Background()

	agent, err := src.Resolve(ctx, "retail")
	require.NoError(t, err)
	assert.Equal(t, "retail", agent.Name)
	assert.Equal(t, filepath.Join(root, "retail", file.AgentFile), agent.Origin)

	doc, err := src.Resolve(ctx, "billing/flows/refund.md")
	require.NoError(t, err)
	assert.Equal(t, "refund", doc.Name)
}

func TestSource_RejectsTraversal(t *testing.T) {
	root := agentsDir(t)
	outside := filepath.Join(filepath.Dir(root), "secret.md")
	writeFile(t, outside, "flowchart TD\n    X[x]\n")
	t.Cleanup(func() { _ = os.Remove(outside) })

	_, err := file.NewSource(root).Resolve(context.Background(), "../secret.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the agents directory")
}

func TestSource_NoRoot(t *testing.T) {
	_, err := file.NewSource("").Resolve(context.Background(), "retail")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestSource_Agents(t *testing.T) {
	agents, err := file.NewSource(agentsDir(t)).Agents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"retail"}, agents)

	none, err := file.NewSource(filepath.Join(t.TempDir(), "absent")).Agents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, none)
}

package chain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/sopnav/pkg/adapters/chain"
	"github.com/aretw0/sopnav/pkg/adapters/file"
	"github.com/aretw0/sopnav/pkg/adapters/memory"
	"github.com/aretw0/sopnav/pkg/ports"
	contract "github.com/aretw0/sopnav/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ err error }

func (f failing) Resolve(context.Context, string) (ports.Source, error) {
	return ports.Source{}, f.err
}

func TestChain_Contract(t *testing.T) {
	first := memory.NewSources(map[string]string{"a": "flowchart TD\n    A[first]\n"})
	second := memory.NewSources(map[string]string{
		"a": "flowchart TD\n    A[shadowed]\n",
		"b": "flowchart TD\n    B[second]\n",
	})
	r := chain.New(first, nil, second)

	contract.SourceResolverContractTest(t, r, map[string]string{
		"a": "first",
		"b": "second",
	})
}

func TestChain_StopsOnHardError(t *testing.T) {
	boom := errors.New("permission denied")
	later := memory.NewSources(map[string]string{"a": "flowchart TD\n    A[x]\n"})

	_, err := chain.New(failing{boom}, later).Resolve(context.Background(), "a")
	require.ErrorIs(t, err, boom)

	_, err = chain.New().Resolve(context.Background(), "")
	assert.Error(t, err)
}

func TestChain_Agents(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	for dir, names := range map[string][]string{dirA: {"retail", "billing"}, dirB: {"retail", "hr"}} {
		for _, n := range names {
			require.NoError(t, os.MkdirAll(filepath.Join(dir, n), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, n, file.AgentFile), []byte("flowchart TD\n"), 0o644))
		}
	}

	r := chain.New(file.NewSource(dirA), memory.NewSources(nil), file.NewSource(dirB))
	agents, err := r.Agents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "hr", "retail"}, agents)
}

package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supportEngine(t *testing.T) *sopnav.Engine {
	t.Helper()
	data, err := os.ReadFile("../../testdata/support.md")
	require.NoError(t, err)
	eng, err := sopnav.New(sopnav.WithResolver(memory.NewSources(map[string]string{"support": string(data)})))
	require.NoError(t, err)
	return eng
}

func runWalk(t *testing.T, eng *sopnav.Engine, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	w := NewWalker(eng, WalkOptions{
		Ref: "support",
		In:  strings.NewReader(strings.Join(script, "\n") + "\n"),
		Out: &out,
	})
	require.NoError(t, w.Run(context.Background()))
	return out.String()
}

func TestWalker_Walkthrough(t *testing.T) {
	eng := supportEngine(t)
	out := runWalk(t, eng,
		`tasks [{"desc":"Return the blender","status":"in_progress","task_completion_node":"RETURN_DONE"}]`,
		"START",
		"goto ROUTE",
		"AUTH",
		"RETURN_DONE",
		"path",
		"quit",
	)

	assert.Contains(t, out, "# support v2.1")
	assert.Contains(t, out, ">>> Loaded from memory:support. Start at 'START'")
	assert.Contains(t, out, "✓ Tasks updated: 0 pending, 1 in progress, 0 completed")
	assert.Contains(t, out, "## AUTH: Authenticate")
	assert.Contains(t, out, "Ask for the email on the order.")
	assert.Contains(t, out, "**Tools:** find_user")
	assert.Contains(t, out, "- `RETURN_DONE` when always")
	assert.Contains(t, out, "Reached completion node RETURN_DONE")
	assert.Contains(t, out, "#0 Return the blender [in_progress]")
	assert.Contains(t, out, "START -> ROUTE -> AUTH -> RETURN_DONE\n")
	assert.Contains(t, out, ">>> Finished at 'RETURN_DONE' node.")

	s, err := eng.Session(context.Background(), "walk")
	require.NoError(t, err)
	assert.Equal(t, "RETURN_DONE", s.Current)
}

func TestWalker_RejectedMoveKeepsPosition(t *testing.T) {
	eng := supportEngine(t)
	out := runWalk(t, eng, "START", "ROUTE", "GHOST", "RETURN_DONE", "next")

	assert.Contains(t, out, `✗ node "GHOST" not found`)
	assert.Contains(t, out, "valid next nodes: AUTH, CANCEL_DONE, ASK")
	assert.Contains(t, out, `✗ cannot reach "RETURN_DONE" from "ROUTE"`)
	assert.Contains(t, out, "[ROUTE] > ")
	assert.Contains(t, out, "AUTH, CANCEL_DONE, ASK\n")
}

func TestWalker_Commands(t *testing.T) {
	eng := supportEngine(t)
	out := runWalk(t, eng, "next", "path", "help", "goto", "tasks nope", "graph")

	assert.Contains(t, out, "[not started] > ")
	assert.Contains(t, out, "START\n")
	assert.Contains(t, out, "(no moves yet)")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "goto needs a node id")
	assert.Contains(t, out, "✗ tasks expects a JSON array")
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "HINT[/Keep it short/]")
}

func TestWalker_LoadFailure(t *testing.T) {
	eng := supportEngine(t)
	w := NewWalker(eng, WalkOptions{Ref: "missing", In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.Error(t, w.Run(context.Background()))
}

func TestWalker_StopsOnCancel(t *testing.T) {
	eng := supportEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	w := NewWalker(eng, WalkOptions{Ref: "support", In: pr, Out: &out})
	require.NoError(t, w.Run(ctx))
	assert.Contains(t, out.String(), "Interrupted at '' node.")
}

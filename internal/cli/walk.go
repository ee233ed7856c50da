package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/presentation/tui"
	"github.com/aretw0/sopnav/pkg/domain"
)

const walkHelp = `Commands:
  <node>            move to a node (same as goto <node>)
  goto <node>       move to a node
  next              list the legal next nodes
  tasks <json>      replace the task list, e.g. tasks [{"desc":"Refund","task_completion_node":"DONE"}]
  path              print the path walked so far
  graph             print the workflow topology
  help              show this help
  quit              leave`

// WalkOptions configures an interactive walk through a workflow.
type WalkOptions struct {
	Ref       string
	SessionID string
	In        io.Reader
	Out       io.Writer
	Render    tui.Renderer
	Styled    bool
}

// Walker lets a person play the client's part: it loads a workflow and
// applies the moves and task updates typed on the input.
type Walker struct {
	engine *sopnav.Engine
	opts   WalkOptions
}

// NewWalker creates a walker over eng.
func NewWalker(eng *sopnav.Engine, opts WalkOptions) *Walker {
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.SessionID == "" {
		opts.SessionID = "walk"
	}
	return &Walker{engine: eng, opts: opts}
}

// Run loads the workflow and processes commands until quit, end of input or
// cancellation of ctx.
func (w *Walker) Run(ctx context.Context) error {
	loaded, err := w.engine.Load(ctx, w.opts.SessionID, sopnav.LoadRequest{Ref: w.opts.Ref})
	if err != nil {
		return err
	}
	w.printLoad(loaded)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	current := ""
	for {
		w.prompt(current)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(w.opts.Out)
			printSystemMessage(w.opts.Out, "Interrupted at '%s' node.", current)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(w.opts.Out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(cmd) {
		case "":
		case "q", "quit", "exit":
			printSystemMessage(w.opts.Out, "Finished at '%s' node.", current)
			return nil
		case "help", "?":
			fmt.Fprintln(w.opts.Out, walkHelp)
		case "path":
			w.printPath(ctx)
		case "graph":
			w.printGraph(ctx)
		case "next":
			w.printNext(ctx)
		case "tasks":
			w.setTasks(ctx, arg)
		case "goto":
			if arg == "" {
				fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "goto needs a node id"))
				continue
			}
			current = w.move(ctx, arg, current)
		default:
			current = w.move(ctx, line, current)
		}
	}
}

func (w *Walker) prompt(current string) {
	label := current
	if label == "" {
		label = "not started"
	}
	fmt.Fprintf(w.opts.Out, "%s > ", w.style(tui.StyleNode, "["+label+"]"))
}

func (w *Walker) move(ctx context.Context, target, current string) string {
	res, err := w.engine.Goto(ctx, w.opts.SessionID, target)
	if err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ "+err.Error()))
		if res != nil && len(res.LegalNext) > 0 {
			fmt.Fprintln(w.opts.Out, w.style(tui.StyleSubtle, "  valid next nodes: "+strings.Join(res.LegalNext, ", ")))
		}
		return current
	}

	w.renderMarkdown(nodeMarkdown(res))
	if res.Node.Reminder != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleReminder, reminderText(res.Node.Reminder)))
	}
	return res.Current
}

func (w *Walker) setTasks(ctx context.Context, arg string) {
	var tasks []domain.Task
	if err := json.Unmarshal([]byte(arg), &tasks); err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ tasks expects a JSON array: "+err.Error()))
		return
	}
	res, err := w.engine.SetTasks(ctx, w.opts.SessionID, tasks)
	if err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ "+err.Error()))
		return
	}
	fmt.Fprintln(w.opts.Out, w.style(tui.StyleSuccess, "✓ "+res.Summary))
	for _, warn := range res.Warnings {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleWarning, "! "+warn.Detail))
	}
}

func (w *Walker) printLoad(res *sopnav.LoadResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s v%s\n\n", res.Agent, res.Version)
	if res.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", res.Description)
	}
	fmt.Fprintf(&b, "%s\n", res.SystemPrompt)
	w.renderMarkdown(b.String())

	for _, warn := range res.Warnings {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleWarning, fmt.Sprintf("! %s: %s", warn.Kind, warn.Detail)))
	}
	printSystemMessage(w.opts.Out, "Loaded from %s. Start at '%s'; type help for commands.", res.Origin, res.EntryNode)
}

func (w *Walker) printPath(ctx context.Context) {
	s, err := w.engine.Session(ctx, w.opts.SessionID)
	if err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ "+err.Error()))
		return
	}
	if len(s.Path) == 0 {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleSubtle, "(no moves yet)"))
		return
	}
	fmt.Fprintln(w.opts.Out, strings.Join(s.Path, " -> "))
}

func (w *Walker) printGraph(ctx context.Context) {
	topology, err := w.engine.Topology(ctx, w.opts.SessionID)
	if err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ "+err.Error()))
		return
	}
	fmt.Fprint(w.opts.Out, topology)
}

func (w *Walker) printNext(ctx context.Context) {
	next, err := w.engine.LegalNext(ctx, w.opts.SessionID)
	if err != nil {
		fmt.Fprintln(w.opts.Out, w.style(tui.StyleError, "✗ "+err.Error()))
		return
	}
	fmt.Fprintln(w.opts.Out, strings.Join(next, ", "))
}

func (w *Walker) renderMarkdown(md string) {
	out, err := w.opts.Render(md)
	if err != nil {
		out = md + "\n"
	}
	fmt.Fprint(w.opts.Out, out)
}

type styler interface {
	Render(...string) string
}

func (w *Walker) style(s styler, text string) string {
	if !w.opts.Styled {
		return text
	}
	return s.Render(text)
}

// nodeMarkdown formats a delivery for a human reader.
func nodeMarkdown(res *sopnav.MoveResult) string {
	n := res.Node
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n\n", n.ID, n.Label)
	if n.Text != n.Label {
		fmt.Fprintf(&b, "%s\n\n", n.Text)
	}
	if n.Instruction != nil {
		if len(n.Instruction.Capabilities) > 0 {
			fmt.Fprintf(&b, "**Tools:** %s\n\n", strings.Join(n.Instruction.Capabilities, ", "))
		}
		for _, ex := range n.Instruction.Examples {
			fmt.Fprintf(&b, "> **User:** %s\n>\n> **Agent:** %s\n\n", ex.Input, ex.Output)
		}
	}
	for _, a := range n.Annotations {
		fmt.Fprintf(&b, "- _%s_\n", a.Text)
	}
	if len(n.Annotations) > 0 {
		b.WriteString("\n")
	}
	if len(n.Edges) == 0 {
		b.WriteString("_No outgoing edges._\n")
	}
	for _, e := range n.Edges {
		fmt.Fprintf(&b, "- `%s` when %s\n", e.To, e.Condition)
	}
	return b.String()
}

func reminderText(r *sopnav.Reminder) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, t := range r.Tasks {
		fmt.Fprintf(&b, "\n  #%d %s [%s]", t.Index, t.Description, t.Status)
	}
	return b.String()
}

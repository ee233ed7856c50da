package sopnav

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/sopnav/internal/runtime"
	"github.com/aretw0/sopnav/internal/sanitize"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/aretw0/sopnav/pkg/notation"
	"github.com/aretw0/sopnav/pkg/ports"
)

// Load parses and installs a workflow for the session, creating the session
// if needed. The traversal restarts; the task list is kept. A parse error
// installs nothing.
func (e *Engine) Load(ctx context.Context, sessionID string, req LoadRequest) (*LoadResult, error) {
	src, err := e.source(ctx, req)
	if err != nil {
		return nil, err
	}

	doc, g, warnings, err := notation.Parse(src.Text, notation.WithCapabilities(e.capabilities...))
	if err != nil {
		e.logger.DebugContext(ctx, "workflow rejected", "session_id", sessionID, "origin", src.Origin, "err", err)
		return nil, err
	}
	if cached, ok := e.catalog.Get(g.Digest()); ok {
		g = cached
	} else {
		e.catalog.Put(g)
	}

	ref := domain.WorkflowRef{
		Name:    g.Name(),
		Version: doc.Header.Version,
		Digest:  g.Digest(),
		Origin:  src.Origin,
		Source:  src.Text,
	}
	var events runtime.Outbox
	s, err := e.sessions.Update(runtime.WithOutbox(ctx, &events), sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		return e.runtime.Load(ctx, current, g, ref, len(warnings)), nil
	})
	if err != nil {
		return nil, err
	}
	events.Flush(ctx)

	return e.loadResult(doc, g, src, warnings, len(s.Tasks)), nil
}

func (e *Engine) loadResult(doc *notation.Document, g *graph.Graph, src ports.Source, warnings []domain.Warning, kept int) *LoadResult {
	version := doc.Header.Version
	if version == "" {
		version = DefaultVersion
	}
	servers := doc.Header.MCPServers
	if servers == nil {
		servers = []notation.Server{}
	}
	if warnings == nil {
		warnings = []domain.Warning{}
	}

	res := &LoadResult{
		Agent:        g.Name(),
		Version:      version,
		Description:  doc.Header.Description,
		Origin:       src.Origin,
		EntryNode:    g.Entry(),
		ReentryNode:  g.Reentry(),
		Model:        doc.Header.Model,
		MCPServers:   servers,
		Capabilities: nonNil(doc.Header.AllCapabilities()),
		Graph: GraphSummary{
			NodeCount:        g.NodeCount(),
			DecisionNodes:    nonNil(g.DecisionNodes()),
			TerminalNodes:    nonNil(g.TerminalNodes()),
			NodesWithPrompts: nonNil(g.InstructedNodes()),
		},
		Warnings:             warnings,
		Disclosure:           e.disclosure,
		SystemPromptSections: nonNil(doc.Sections),
		TasksKept:            kept,
	}

	if e.disclosure == DisclosureSkeleton {
		res.Skeleton = notation.Skeleton(g)
		res.SystemPrompt = doc.SystemPrompt(res.Skeleton)
	} else {
		res.Flowchart = doc.FlowchartSource
		res.SystemPrompt = doc.SystemPrompt(doc.FlowchartSource)
	}
	return res
}

// Goto moves the session to nodeID. A rejected move returns both a result
// describing how to recover and the typed error; the session is unchanged.
func (e *Engine) Goto(ctx context.Context, sessionID, nodeID string) (*MoveResult, error) {
	target, err := sanitize.Identifier(nodeID)
	if err != nil {
		return &MoveResult{Error: err.Error(), LegalNext: []string{}}, err
	}

	var (
		g      *graph.Graph
		before *domain.Session
		view   *NodeView
		events runtime.Outbox
	)
	next, err := e.sessions.Update(runtime.WithOutbox(ctx, &events), sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		before = current
		var err error
		if g, err = e.graphFor(current); err != nil {
			return nil, err
		}
		var moved *domain.Session
		moved, view, err = e.runtime.Goto(ctx, current, g, target)
		return moved, err
	})
	if err != nil {
		return e.rejected(err, before, g), err
	}
	events.Flush(ctx)

	return &MoveResult{
		Valid:     true,
		Current:   next.Current,
		LegalNext: nonNil(e.runtime.LegalNext(g, next.Current)),
		Entry:     g.Entry(),
		Reentry:   g.Reentry(),
		Node:      view,
	}, nil
}

func (e *Engine) rejected(err error, s *domain.Session, g *graph.Graph) *MoveResult {
	res := &MoveResult{Error: err.Error(), LegalNext: []string{}}
	if s != nil {
		res.Current = s.Current
	}
	if g == nil {
		return res
	}
	res.Entry = g.Entry()
	res.Reentry = g.Reentry()

	var unknown *domain.UnknownNodeError
	var illegal *domain.IllegalTransitionError
	switch {
	case errors.As(err, &unknown):
		res.LegalNext = nonNil(unknown.LegalNext)
	case errors.As(err, &illegal):
		res.LegalNext = nonNil(illegal.LegalNext)
	case s != nil:
		res.LegalNext = nonNil(e.runtime.LegalNext(g, s.Current))
	}
	return res
}

// SetTasks replaces the session's task list. Tasks may be set before any
// workflow is loaded; completion nodes are then left unchecked.
func (e *Engine) SetTasks(ctx context.Context, sessionID string, tasks []domain.Task) (*TaskResult, error) {
	clean := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		var err error
		if clean[i], err = sanitizeTask(t); err != nil {
			return nil, fmt.Errorf("%w: task %d: %w", domain.ErrInvalidTask, i, err)
		}
	}

	var (
		plan   runtime.Plan
		events runtime.Outbox
	)
	_, err := e.sessions.Update(runtime.WithOutbox(ctx, &events), sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		g, err := e.graphFor(current)
		if err != nil {
			return nil, err
		}
		next, p, err := e.runtime.SetTasks(ctx, current, g, clean)
		plan = p
		return next, err
	})
	if err != nil {
		return nil, err
	}
	events.Flush(ctx)

	warnings := plan.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return &TaskResult{
		Tasks:    nonNilTasks(plan.Tasks),
		Tally:    plan.Tally,
		Summary:  plan.Summary,
		Warnings: warnings,
	}, nil
}

func sanitizeTask(t domain.Task) (domain.Task, error) {
	var err error
	if t.Description, err = sanitize.Input(t.Description); err != nil {
		return t, fmt.Errorf("desc: %w", err)
	}
	if t.Note, err = sanitize.Input(t.Note); err != nil {
		return t, fmt.Errorf("note: %w", err)
	}
	if t.CompletionNode, err = sanitize.Identifier(t.CompletionNode); err != nil {
		return t, fmt.Errorf("task_completion_node: %w", err)
	}
	t.Status = domain.TaskStatus(strings.TrimSpace(string(t.Status)))
	return t, nil
}

// Session returns the stored snapshot.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Fetch(ctx, sessionID)
}

// Sessions lists stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Clear forgets a session.
func (e *Engine) Clear(ctx context.Context, sessionID string) error {
	return e.sessions.Clear(ctx, sessionID)
}

// Graph returns the workflow graph installed in the session.
func (e *Engine) Graph(ctx context.Context, sessionID string) (*graph.Graph, error) {
	s, err := e.sessions.Fetch(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrGraphNotLoaded
		}
		return nil, err
	}
	g, err := e.graphFor(s)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrGraphNotLoaded
	}
	return g, nil
}

// LegalNext lists the moves available from the session's current node.
func (e *Engine) LegalNext(ctx context.Context, sessionID string) ([]string, error) {
	s, err := e.sessions.Fetch(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrGraphNotLoaded
		}
		return nil, err
	}
	g, err := e.graphFor(s)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrGraphNotLoaded
	}
	return nonNil(e.runtime.LegalNext(g, s.Current)), nil
}

// Topology renders the session's graph as the disclosure policy allows.
func (e *Engine) Topology(ctx context.Context, sessionID string) (string, error) {
	g, err := e.Graph(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if e.disclosure == DisclosureSkeleton {
		return notation.Skeleton(g), nil
	}
	return notation.Render(g, "TD"), nil
}

// Agents lists the agents the resolver can serve, when it can enumerate them.
func (e *Engine) Agents(ctx context.Context) ([]string, error) {
	lister, ok := e.resolver.(ports.AgentLister)
	if !ok {
		return []string{}, nil
	}
	return lister.Agents(ctx)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilTasks(t []domain.Task) []domain.Task {
	if t == nil {
		return []domain.Task{}
	}
	return t
}

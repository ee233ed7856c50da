package ports

import "context"

// Source is workflow document text together with where it came from.
type Source struct {
	// Name is a short identifier, usually the agent or file name.
	Name string
	// Origin is the resolved location (path, URL or library id).
	Origin string
	Text   string
}

// SourceResolver turns a workflow reference (a path, an agent name, a URL)
// into document text.
type SourceResolver interface {
	// Resolve returns domain.ErrSourceNotFound when ref names nothing this
	// resolver can serve.
	Resolve(ctx context.Context, ref string) (Source, error)
}

// AgentLister is implemented by resolvers that can enumerate the agents they serve.
type AgentLister interface {
	Agents(ctx context.Context) ([]string, error)
}

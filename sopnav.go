package sopnav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sopnav/internal/logging"
	"github.com/aretw0/sopnav/internal/runtime"
	"github.com/aretw0/sopnav/internal/sanitize"
	"github.com/aretw0/sopnav/pkg/adapters/file"
	"github.com/aretw0/sopnav/pkg/adapters/memory"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/aretw0/sopnav/pkg/notation"
	"github.com/aretw0/sopnav/pkg/ports"
	"github.com/aretw0/sopnav/pkg/session"
)

// Disclosure controls how much of a workflow is revealed up front.
type Disclosure string

const (
	// DisclosureFull returns the whole flowchart on load and one node per move.
	DisclosureFull Disclosure = "full"
	// DisclosureSkeleton returns only the topology on load and bundles
	// annotation nodes into the move that reaches them.
	DisclosureSkeleton Disclosure = "skeleton"
)

// ParseDisclosure maps a configuration string to a Disclosure.
func ParseDisclosure(s string) (Disclosure, error) {
	switch Disclosure(s) {
	case "", DisclosureFull:
		return DisclosureFull, nil
	case DisclosureSkeleton:
		return DisclosureSkeleton, nil
	}
	return "", fmt.Errorf("unknown disclosure %q (want full or skeleton)", s)
}

// ErrNoWorkflow is returned by Load when the request names no workflow.
var ErrNoWorkflow = errors.New("load requires a workflow reference or inline source")

// Delivery types produced by moves and task updates.
type (
	NodeView   = runtime.NodeView
	EdgeView   = runtime.EdgeView
	Annotation = runtime.Annotation
	Reminder   = runtime.Reminder
	TaskRef    = runtime.TaskRef
)

// Engine is the entry point of the library: it owns sessions and serves the
// load, move and task operations for each conversation.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	resolver ports.SourceResolver
	catalog  *graph.Catalog

	store        ports.SessionStore
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	disclosure   Disclosure
	capabilities []string
	catalogSize  int
	lockTTL      time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking across replicas sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithResolver sets how workflow references are turned into documents.
// Defaults to the filesystem, absolute paths only.
func WithResolver(resolver ports.SourceResolver) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls compose.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithDisclosure selects the disclosure policy.
func WithDisclosure(d Disclosure) Option {
	return func(e *Engine) {
		e.disclosure = d
	}
}

// WithCapabilities extends the capability whitelist used to check node hints.
func WithCapabilities(names ...string) Option {
	return func(e *Engine) {
		e.capabilities = append(e.capabilities, names...)
	}
}

// WithLockTTL sets the lease of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithCatalogSize bounds how many compiled graphs are kept in memory.
func WithCatalogSize(n int) Option {
	return func(e *Engine) {
		e.catalogSize = n
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		disclosure:  DisclosureFull,
		catalogSize: graph.DefaultCatalogSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.resolver == nil {
		e.resolver = file.NewSource("")
	}
	if _, err := ParseDisclosure(string(e.disclosure)); err != nil {
		return nil, err
	}

	catalog, err := graph.NewCatalog(e.catalogSize)
	if err != nil {
		return nil, err
	}
	e.catalog = catalog

	e.runtime = runtime.NewEngine(
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithBundling(e.disclosure == DisclosureSkeleton),
	)

	sessOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker))
	}
	if e.lockTTL > 0 {
		sessOpts = append(sessOpts, session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(e.store, sessOpts...)

	return e, nil
}

// Disclosure returns the active disclosure policy.
func (e *Engine) Disclosure() Disclosure {
	return e.disclosure
}

// graphFor returns the compiled graph of the session's workflow, rebuilding
// it from the stored source when the catalog no longer holds it.
func (e *Engine) graphFor(s *domain.Session) (*graph.Graph, error) {
	if s == nil || s.Workflow == nil {
		return nil, nil
	}
	if g, ok := e.catalog.Get(s.Workflow.Digest); ok {
		return g, nil
	}
	_, g, _, err := notation.Parse(s.Workflow.Source, notation.WithCapabilities(e.capabilities...))
	if err != nil {
		return nil, fmt.Errorf("stored workflow %s no longer compiles: %w", s.Workflow.Name, err)
	}
	e.catalog.Put(g)
	return g, nil
}

func (e *Engine) source(ctx context.Context, req LoadRequest) (ports.Source, error) {
	if req.Source != "" {
		text, err := sanitize.Document(req.Source)
		if err != nil {
			return ports.Source{}, err
		}
		return ports.Source{Name: "inline", Origin: "inline", Text: text}, nil
	}
	if req.Ref == "" {
		return ports.Source{}, ErrNoWorkflow
	}
	src, err := e.resolver.Resolve(ctx, req.Ref)
	if err != nil {
		return ports.Source{}, err
	}
	text, err := sanitize.Document(src.Text)
	if err != nil {
		return ports.Source{}, fmt.Errorf("%s: %w", src.Origin, err)
	}
	src.Text = text
	return src, nil
}

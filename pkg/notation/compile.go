package notation

import (
	"fmt"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

// DefaultAgent names workflows whose header does not.
const DefaultAgent = "default"

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

type compileConfig struct {
	capabilities []string
}

// WithCapabilities adds names to the capability whitelist. The header's
// capabilities are always part of it; an empty whitelist disables the check.
func WithCapabilities(names ...string) CompileOption {
	return func(c *compileConfig) {
		c.capabilities = append(c.capabilities, names...)
	}
}

// Compile builds the graph described by doc, attaching node instructions.
// Consistency findings are returned as warnings; only structural problems fail.
func Compile(doc *Document, opts ...CompileOption) (*graph.Graph, []domain.Warning, error) {
	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if doc == nil || doc.Flowchart == nil {
		return nil, nil, &domain.ParseError{Msg: "document has no flowchart"}
	}

	var warnings []domain.Warning

	declared := make(map[string]bool, len(doc.Flowchart.Nodes))
	nodes := make([]domain.Node, len(doc.Flowchart.Nodes))
	for i, n := range doc.Flowchart.Nodes {
		declared[n.ID] = true
		if ins, ok := doc.Instructions[n.ID]; ok {
			n.Instruction = ins.Clone()
		}
		nodes[i] = n
	}

	for _, id := range doc.InstructionOrder {
		if !declared[id] {
			warnings = append(warnings, domain.Warning{
				Kind:   domain.WarnOrphanInstruction,
				Node:   id,
				Detail: fmt.Sprintf("prompt on line %d does not match any node", doc.instructionLines[id]),
			})
		}
	}

	whitelist := dedupe(append(doc.Header.AllCapabilities(), cfg.capabilities...))
	if len(whitelist) > 0 {
		known := make(map[string]bool, len(whitelist))
		for _, c := range whitelist {
			known[c] = true
		}
		for _, n := range nodes {
			for _, c := range n.Instruction.Capabilities {
				if !known[c] {
					warnings = append(warnings, domain.Warning{
						Kind:   domain.WarnUnknownCapability,
						Node:   n.ID,
						Detail: fmt.Sprintf("capability %q is not declared", c),
					})
				}
			}
		}
	}

	name := doc.Header.Agent
	if name == "" {
		name = DefaultAgent
	}
	g, err := graph.New(nodes, doc.Flowchart.Edges,
		graph.WithName(name),
		graph.WithEntry(doc.Header.EntryNode),
		graph.WithReentry(doc.Header.ReentryNode),
		graph.WithDigest(graph.Digest(doc.Raw)),
	)
	if err != nil {
		return nil, nil, err
	}

	warnings = append(warnings, graph.Lint(g)...)
	return g, warnings, nil
}

// Parse parses and compiles text in one step.
func Parse(text string, opts ...CompileOption) (*Document, *graph.Graph, []domain.Warning, error) {
	doc, err := ParseDocument(text)
	if err != nil {
		return nil, nil, nil, err
	}
	g, warnings, err := Compile(doc, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return doc, g, warnings, nil
}

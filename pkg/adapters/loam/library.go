package loam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/notation"
	"github.com/aretw0/sopnav/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const agentDoc = "AGENTS"

// Library serves agent documents from a Loam repository. An agent named
// "retail" lives in retail/AGENTS.md; any other document is addressed by
// its repository id.
type Library struct {
	Repo *loam.TypedRepository[AgentMetadata]
}

// New creates a Library over a typed repository.
func New(repo *loam.TypedRepository[AgentMetadata]) *Library {
	return &Library{Repo: repo}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across serializers.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[AgentMetadata](repo)), nil
}

// Resolve fetches the document for ref and reassembles its front matter and body.
func (l *Library) Resolve(ctx context.Context, ref string) (ports.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ports.Source{}, errors.New("empty workflow reference")
	}
	if strings.Contains(ref, "..") {
		return ports.Source{}, fmt.Errorf("workflow reference %q escapes the library", ref)
	}

	var lastErr error
	for _, id := range candidates(ref) {
		doc, err := l.Repo.Get(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		text, err := assemble(doc.Data, doc.Content)
		if err != nil {
			return ports.Source{}, fmt.Errorf("failed to assemble %s: %w", doc.ID, err)
		}
		return ports.Source{
			Name:   agentName(doc.ID),
			Origin: "loam:" + filepath.ToSlash(doc.ID),
			Text:   text,
		}, nil
	}
	return ports.Source{}, fmt.Errorf("%w: %s (%w)", domain.ErrSourceNotFound, ref, lastErr)
}

// Agents lists the agents in the library, detecting id collisions.
func (l *Library) Agents(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	agents := []string{}
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if filepath.Base(filepath.FromSlash(id)) != agentDoc {
			continue
		}
		name := agentName(doc.ID)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: agent '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		agents = append(agents, name)
	}
	sort.Strings(agents)
	return agents, nil
}

func candidates(ref string) []string {
	ref = filepath.ToSlash(ref)
	if filepath.Ext(ref) != "" {
		return []string{ref}
	}
	return []string{ref + "/" + agentDoc + ".md", ref + "/" + agentDoc, ref}
}

// assemble rebuilds a single-file document from decoded front matter and body.
func assemble(meta AgentMetadata, body string) (string, error) {
	header := notation.Header{
		Agent:        meta.Agent,
		Version:      meta.Version,
		Description:  meta.Description,
		EntryNode:    meta.EntryNode,
		ReentryNode:  meta.ReentryNode,
		Capabilities: meta.Capabilities,
		Tools:        meta.Tools,
	}
	if len(meta.Model) > 0 {
		header.Model = &notation.Model{}
		if err := weakDecode(meta.Model, header.Model); err != nil {
			return "", fmt.Errorf("invalid model: %w", err)
		}
	}
	if len(meta.MCPServers) > 0 {
		if err := weakDecode(meta.MCPServers, &header.MCPServers); err != nil {
			return "", fmt.Errorf("invalid mcp_servers: %w", err)
		}
	}

	if header.Agent == "" && header.Version == "" && header.EntryNode == "" && len(header.AllCapabilities()) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(header); err != nil {
		return "", err
	}
	_ = enc.Close()
	buf.WriteString("---\n")
	buf.WriteString(strings.TrimLeft(body, "\n"))
	return buf.String(), nil
}

func weakDecode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// agentName is the directory of an AGENTS document, or the id without extension.
func agentName(id string) string {
	trimmed := trimExtension(id)
	if dir, base := filepath.Split(filepath.FromSlash(trimmed)); base == agentDoc && dir != "" {
		return filepath.Base(filepath.Clean(dir))
	}
	return trimmed
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/ports"
)

// AgentFile is the document an agent directory is expected to contain.
const AgentFile = "AGENTS.md"

// Source resolves workflow references against the filesystem. A reference is
// tried, in order, as an absolute file, an absolute directory holding
// AGENTS.md, a path under Root, and an agent name under Root.
type Source struct {
	Root string
}

// NewSource creates a resolver rooted at an agents directory. An empty root
// only serves absolute paths.
func NewSource(root string) *Source {
	return &Source{Root: root}
}

// Resolve reads the document ref points to.
func (s *Source) Resolve(ctx context.Context, ref string) (ports.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ports.Source{}, errors.New("empty workflow reference")
	}

	path, err := s.locate(ref)
	if err != nil {
		return ports.Source{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ports.Source{}, fmt.Errorf("failed to read workflow %s: %w", path, err)
	}
	return ports.Source{Name: nameOf(path), Origin: path, Text: string(data)}, nil
}

func (s *Source) locate(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		if p, ok := fileOrAgent(ref); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
	}
	if s.Root == "" {
		return "", fmt.Errorf("%w: %s (no agents directory configured)", domain.ErrSourceNotFound, ref)
	}

	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("workflow reference %q escapes the agents directory", ref)
	}
	if p, ok := fileOrAgent(filepath.Join(s.Root, clean)); ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
}

// Agents lists the subdirectories of Root that contain an AGENTS.md.
func (s *Source) Agents(ctx context.Context) ([]string, error) {
	if s.Root == "" {
		return []string{}, nil
	}
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if isFile(filepath.Join(s.Root, entry.Name(), AgentFile)) {
			agents = append(agents, entry.Name())
		}
	}
	sort.Strings(agents)
	return agents, nil
}

func fileOrAgent(p string) (string, bool) {
	if isFile(p) {
		return p, true
	}
	if agent := filepath.Join(p, AgentFile); isFile(agent) {
		return agent, true
	}
	return "", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// nameOf names a workflow after its agent directory, or its file stem.
func nameOf(path string) string {
	if filepath.Base(path) == AgentFile {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/ports"
)

// Sources implements ports.SourceResolver over documents registered in memory.
type Sources struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewSources creates a resolver serving the given name to document map.
func NewSources(docs map[string]string) *Sources {
	s := &Sources{docs: make(map[string]string, len(docs))}
	for k, v := range docs {
		s.docs[k] = v
	}
	return s
}

// Register adds or replaces a document.
func (s *Sources) Register(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = text
}

// Resolve returns the document registered under ref.
func (s *Sources) Resolve(ctx context.Context, ref string) (ports.Source, error) {
	if ref == "" {
		return ports.Source{}, errors.New("empty workflow reference")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.docs[ref]
	if !ok {
		return ports.Source{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
	}
	return ports.Source{Name: ref, Origin: "memory:" + ref, Text: text}, nil
}

// Names returns the registered names in lexical order.
func (s *Sources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Agents implements ports.AgentLister.
func (s *Sources) Agents(ctx context.Context) ([]string, error) {
	return s.Names(), nil
}

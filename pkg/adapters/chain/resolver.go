// Package chain composes workflow source resolvers.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/ports"
)

// Resolver asks each resolver in turn. A resolver that reports
// domain.ErrSourceNotFound passes the reference on; any other error stops
// the chain.
type Resolver []ports.SourceResolver

// New builds a chain, skipping nil resolvers.
func New(resolvers ...ports.SourceResolver) Resolver {
	r := make(Resolver, 0, len(resolvers))
	for _, res := range resolvers {
		if res != nil {
			r = append(r, res)
		}
	}
	return r
}

// Resolve returns the first match.
func (r Resolver) Resolve(ctx context.Context, ref string) (ports.Source, error) {
	if strings.TrimSpace(ref) == "" {
		return ports.Source{}, errors.New("empty workflow reference")
	}
	for _, res := range r {
		src, err := res.Resolve(ctx, ref)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, domain.ErrSourceNotFound) {
			return ports.Source{}, err
		}
	}
	return ports.Source{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
}

// Agents merges the agent lists of the resolvers that can enumerate them.
func (r Resolver) Agents(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	agents := []string{}
	for _, res := range r {
		lister, ok := res.(ports.AgentLister)
		if !ok {
			continue
		}
		names, err := lister.Agents(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				agents = append(agents, n)
			}
		}
	}
	sort.Strings(agents)
	return agents, nil
}

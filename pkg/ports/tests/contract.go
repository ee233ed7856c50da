package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/ports"
)

// SourceResolverContractTest is a reusable test suite that verifies if an
// adapter complies with ports.SourceResolver. known maps references the
// resolver must serve to a substring their text must contain.
func SourceResolverContractTest(t *testing.T, resolver ports.SourceResolver, known map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Resolve_Success", func(t *testing.T) {
		for ref, want := range known {
			src, err := resolver.Resolve(ctx, ref)
			if err != nil {
				t.Fatalf("unexpected error resolving %s: %v", ref, err)
			}
			if !strings.Contains(src.Text, want) {
				t.Errorf("text of %s does not contain %q", ref, want)
			}
			if src.Name == "" {
				t.Errorf("source %s has no name", ref)
			}
			if src.Origin == "" {
				t.Errorf("source %s has no origin", ref)
			}
		}
	})

	t.Run("Resolve_NotFound", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "non-existent-workflow")
		if !errors.Is(err, domain.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("Resolve_Empty", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "")
		if err == nil {
			t.Error("expected error for empty reference, got nil")
		}
	})
}

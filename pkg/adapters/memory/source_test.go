package memory_test

import (
	"testing"

	"github.com/aretw0/sopnav/pkg/adapters/memory"
	contract "github.com/aretw0/sopnav/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestSources_Contract(t *testing.T) {
	sources := memory.NewSources(map[string]string{
		"greeter": "flowchart TD\n    A[Hello] --> B([Bye])\n",
	})
	sources.Register("retail", "flowchart TD\n    START([Start])\n")

	contract.SourceResolverContractTest(t, sources, map[string]string{
		"greeter": "Hello",
		"retail":  "START",
	})
	assert.Equal(t, []string{"greeter", "retail"}, sources.Names())
}

package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/sopnav/pkg/adapters/remote"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/agents/retail/AGENTS.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("flowchart TD\n    START([Start])\n"))
	})
	mux.HandleFunc("/big.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/broken.md", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/slow.md", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSource_Resolve(t *testing.T) {
	srv := newServer(t)
	src, err := remote.New().Resolve(context.Background(), srv.URL+"/agents/retail/AGENTS.md")
	require.NoError(t, err)
	assert.Equal(t, "retail", src.Name)
	assert.Contains(t, src.Text, "START([Start])")
	assert.Equal(t, srv.URL+"/agents/retail/AGENTS.md", src.Origin)
}

func TestSource_Errors(t *testing.T) {
	srv := newServer(t)
	s := remote.New(remote.WithMaxBytes(1024), remote.WithTimeout(100*time.Millisecond))
	ctx := context.Background()

	_, err := s.Resolve(ctx, srv.URL+"/missing.md")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	_, err = s.Resolve(ctx, srv.URL+"/big.md")
	assert.ErrorIs(t, err, remote.ErrTooLarge)

	_, err = s.Resolve(ctx, srv.URL+"/broken.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = s.Resolve(ctx, srv.URL+"/slow.md")
	require.Error(t, err)

	_, err = s.Resolve(ctx, "retail")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	_, err = s.Resolve(ctx, "")
	assert.Error(t, err)
}

func TestHandles(t *testing.T) {
	assert.True(t, remote.Handles("https://example.com/a.md"))
	assert.True(t, remote.Handles("http://localhost:8080/x"))
	assert.False(t, remote.Handles("retail"))
	assert.False(t, remote.Handles("/abs/path.md"))
	assert.False(t, remote.Handles("file:///etc/passwd"))
}

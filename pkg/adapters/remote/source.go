package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/ports"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBytes caps the accepted document size.
	DefaultMaxBytes = 1 << 20
)

// ErrTooLarge is returned when a document exceeds the size limit.
var ErrTooLarge = errors.New("workflow document too large")

// Source fetches workflow documents over http(s).
type Source struct {
	client   *http.Client
	maxBytes int64
}

// Option configures the Source.
type Option func(*Source)

// WithClient replaces the HTTP client. Its timeout is kept as is.
func WithClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.client.Timeout = d
	}
}

// WithMaxBytes sets the size limit.
func WithMaxBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New creates a remote Source.
func New(opts ...Option) *Source {
	s := &Source{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handles reports whether ref is an http(s) URL.
func Handles(ref string) bool {
	u, err := url.Parse(strings.TrimSpace(ref))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve downloads the document at ref.
func (s *Source) Resolve(ctx context.Context, ref string) (ports.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ports.Source{}, errors.New("empty workflow reference")
	}
	if !Handles(ref) {
		return ports.Source{}, fmt.Errorf("%w: %s is not an http(s) URL", domain.ErrSourceNotFound, ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return ports.Source{}, fmt.Errorf("invalid workflow URL: %w", err)
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.Source{}, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ports.Source{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return ports.Source{}, fmt.Errorf("failed to fetch %s: unexpected status %s", ref, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return ports.Source{}, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	if int64(len(data)) > s.maxBytes {
		return ports.Source{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, ref, s.maxBytes)
	}
	return ports.Source{Name: nameOf(resp.Request.URL), Origin: resp.Request.URL.String(), Text: string(data)}, nil
}

func nameOf(u *url.URL) string {
	base := path.Base(u.Path)
	if strings.EqualFold(base, "AGENTS.md") {
		if dir := path.Base(path.Dir(u.Path)); dir != "/" && dir != "." {
			return dir
		}
	}
	if base == "/" || base == "." {
		return u.Host
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

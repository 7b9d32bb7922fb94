package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/tree"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// HTTP talks to a Duckling HTTP server.
type HTTP struct {
	baseURL  string
	client   *http.Client
	location *time.Location
	loaded   atomic.Bool
}

// HTTPOption configures an HTTP engine.
type HTTPOption func(*HTTP)

// WithClient replaces the default client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithTimezone sets the zone sent with every request.
func WithTimezone(loc *time.Location) HTTPOption {
	return func(h *HTTP) { h.location = loc }
}

// NewHTTP creates a client for the server at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load checks that the server answers. The server loads its own corpora, so
// langs is not sent.
func (h *HTTP) Load(ctx context.Context, _ []language.Language) error {
	if h.loaded.Load() {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine unreachable at %s: %w", h.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	h.loaded.Store(true)
	return nil
}

func (h *HTTP) RawParse(ctx context.Context, r Request) (tree.Tree, error) {
	form := url.Values{}
	form.Set("text", r.Text)
	form.Set("lang", strings.ToUpper(r.Language.ISO()))
	form.Set("tz", h.location.String())
	form.Set("latent", "true")
	// An unfiltered request still names every registered dimension: the
	// server otherwise also runs dimensions the decoder has no schema for.
	names := r.Names()
	if len(names) == 0 {
		names = dimension.Names()
	}
	dims, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	form.Set("dims", string(dims))
	if r.ReferenceTime != nil {
		form.Set("reftime", strconv.FormatInt(r.ReferenceTime.UnixMilli(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/parse", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}
	return tree.FromJSON(body)
}

func statusError(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("engine returned status %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
}

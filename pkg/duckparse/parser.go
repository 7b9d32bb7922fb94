// Package duckparse is the public entry point: it asks an extraction engine
// for the annotation tree of a text, decodes it into typed entries and,
// for the simplified API, projects those entries into per-dimension shapes.
package duckparse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/araddon/dateparse"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/japaniel/duckparse/pkg/decode"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/engine"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/project"
	"github.com/japaniel/duckparse/pkg/tree"
)

// NotLoadedError is returned by every parse call made before Load succeeded.
type NotLoadedError struct{}

func (*NotLoadedError) Error() string {
	return "duckparse: parser is not loaded, call Load first"
}

// Parser is safe for concurrent use. Engine calls are serialized; decoding
// and projection run on the caller's goroutine.
type Parser struct {
	engine   *engine.Serialized
	decoder  *decode.Decoder
	language language.Language
	logger   *slog.Logger
	cache    *lru.Cache[cacheKey, tree.Tree]
	loaded   atomic.Bool

	parseDatetime bool
	location      *time.Location
	cacheSize     int
}

// Option configures a Parser.
type Option func(*Parser)

// WithParseDatetime makes time values come back as timestamps rather than
// the engine's strings.
func WithParseDatetime(enabled bool) Option {
	return func(p *Parser) { p.parseDatetime = enabled }
}

// WithLanguage sets the default language of parse calls. English if unset.
func WithLanguage(l language.Language) Option {
	return func(p *Parser) { p.language = l }
}

// WithLocation sets the zone for parsed timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.location = loc }
}

// WithLogger sets the logger. slog.Default() if unset.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithCacheSize keeps the engine output of the last n calls that had a
// reference time. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(p *Parser) { p.cacheSize = n }
}

// New creates a Parser over e.
func New(e engine.Engine, opts ...Option) *Parser {
	p := &Parser{
		engine:   engine.Serialize(e),
		language: language.English,
		logger:   slog.Default(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.decoder = decode.New(
		decode.WithParseDatetime(p.parseDatetime),
		decode.WithLocation(p.location),
		decode.WithLogger(p.logger),
	)
	if p.cacheSize > 0 {
		p.cache, _ = lru.New[cacheKey, tree.Tree](p.cacheSize)
	}
	return p
}

// Load prepares the engine for langs, or for the default language when none
// are given. Calling it again is harmless.
func (p *Parser) Load(ctx context.Context, langs ...language.Language) error {
	if len(langs) == 0 {
		langs = []language.Language{p.language}
	}
	for _, l := range langs {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	if err := p.engine.Load(ctx, langs); err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}
	p.loaded.Store(true)
	p.logger.Info("Engine loaded", "languages", langs, "parse_datetime", p.parseDatetime)
	return nil
}

// Loaded reports whether Load has succeeded.
func (p *Parser) Loaded() bool { return p.loaded.Load() }

// Language returns the default language.
func (p *Parser) Language() language.Language { return p.language }

// ParseDatetime reports whether time values are parsed into timestamps.
func (p *Parser) ParseDatetime() bool { return p.parseDatetime }

type call struct {
	dims []dimension.Dimension
	ref  *time.Time
	lang language.Language
}

// CallOption adjusts a single parse call.
type CallOption func(*call)

// WithDimensions restricts the call to dims. A later WithDimensions replaces
// an earlier one.
func WithDimensions(dims ...dimension.Dimension) CallOption {
	return func(c *call) { c.dims = dims }
}

// WithReferenceTime anchors relative expressions such as "tomorrow".
func WithReferenceTime(t time.Time) CallOption {
	return func(c *call) { c.ref = &t }
}

// Language overrides the parser's default language for one call.
func Language(l language.Language) CallOption {
	return func(c *call) { c.lang = l }
}

// ParseRaw returns the full decoded entries for text.
func (p *Parser) ParseRaw(ctx context.Context, text string, opts ...CallOption) ([]entity.Entry, error) {
	if !p.loaded.Load() {
		return nil, &NotLoadedError{}
	}
	c := call{lang: p.language}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.lang.Validate(); err != nil {
		return nil, err
	}
	dims, err := resolveDimensions(c.dims)
	if err != nil {
		return nil, err
	}
	t, err := p.rawParse(ctx, engine.Request{
		Text:          text,
		Language:      c.lang,
		Dimensions:    dims,
		ReferenceTime: c.ref,
	})
	if err != nil {
		return nil, err
	}
	return p.decoder.Decode(t)
}

// resolveDimensions checks a filter against the registry so that a mistyped
// dimension fails instead of matching nothing. Aliases such as "money" are
// replaced by the registered dimension.
func resolveDimensions(dims []dimension.Dimension) ([]dimension.Dimension, error) {
	var out []dimension.Dimension
	for i, d := range dims {
		if d.Supported() {
			continue
		}
		resolved, err := dimension.Parse(string(d))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = append([]dimension.Dimension(nil), dims...)
		}
		out[i] = resolved
	}
	if out == nil {
		return dims, nil
	}
	return out, nil
}

// Parse returns the simplified entries for text.
func (p *Parser) Parse(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	entries, err := p.ParseRaw(ctx, text, opts...)
	if err != nil {
		return nil, err
	}
	return project.All(entries)
}

type cacheKey struct {
	lang language.Language
	text string
	dims string
	ref  int64
}

func (p *Parser) rawParse(ctx context.Context, req engine.Request) (tree.Tree, error) {
	if p.cache == nil || req.ReferenceTime == nil {
		return p.engine.RawParse(ctx, req)
	}
	key := cacheKey{
		lang: req.Language,
		text: req.Text,
		dims: strings.Join(req.Names(), ","),
		ref:  req.ReferenceTime.UnixNano(),
	}
	if t, ok := p.cache.Get(key); ok {
		p.logger.Debug("Engine output served from cache", "text", req.Text)
		return t, nil
	}
	t, err := p.engine.RawParse(ctx, req)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, t)
	return t, nil
}

// ParseReferenceTime reads a user supplied reference time in any common
// layout. Times without an offset are taken in the local zone.
func ParseReferenceTime(s string) (time.Time, error) {
	t, err := dateparse.ParseLocal(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference time %q: %w", s, err)
	}
	return t, nil
}

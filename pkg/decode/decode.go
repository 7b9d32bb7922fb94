// Package decode turns the engine's annotation tree into typed entries.
//
// Every key is resolved once against two tables: a dimension-aware override
// set, consulted first, and a generic table whose coercion does not depend on
// the enclosing dimension. Keys found in neither fail the call.
package decode

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/japaniel/duckparse/pkg/tree"
)

// Decoder converts annotation trees into entries. It holds configuration
// only, so one Decoder may be shared by concurrent callers.
type Decoder struct {
	parseDatetime bool
	location      *time.Location
	logger        *slog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithParseDatetime makes time values decode into timestamps instead of the
// engine's strings.
func WithParseDatetime(enabled bool) Option {
	return func(d *Decoder) { d.parseDatetime = enabled }
}

// WithLocation sets the zone used for timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(d *Decoder) { d.location = loc }
}

// WithLogger sets the logger for recoverable anomalies in the tree.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// New creates a Decoder. Time values stay strings unless WithParseDatetime
// is given.
func New(opts ...Option) *Decoder {
	d := &Decoder{location: time.Local, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ParseDatetime reports whether time values are parsed into timestamps.
func (d *Decoder) ParseDatetime() bool { return d.parseDatetime }

// Decode converts every match of t. The first error aborts the call.
func (d *Decoder) Decode(t tree.Tree) ([]entity.Entry, error) {
	entries := make([]entity.Entry, 0, len(t))
	for i, m := range t {
		e, err := d.DecodeMatch(m)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// match accumulates the top-level fields of one match. The value node is held
// back until every field is read, since its schema depends on dim.
type match struct {
	dim   string
	entry entity.Entry
	value *tree.Node
}

type matchDecoder func(d *Decoder, n tree.Node, m *match) error

var matchFields = map[string]matchDecoder{
	"dim": func(d *Decoder, n tree.Node, m *match) (err error) {
		m.dim, err = symbol(n)
		return err
	},
	"body": func(d *Decoder, n tree.Node, m *match) (err error) {
		m.entry.Text, err = str(n)
		return err
	},
	"start": func(d *Decoder, n tree.Node, m *match) error {
		v, err := d.integer(n)
		m.entry.Span.Start = int(v)
		return err
	},
	"end": func(d *Decoder, n tree.Node, m *match) error {
		v, err := d.integer(n)
		m.entry.Span.End = int(v)
		return err
	},
	"latent": func(d *Decoder, n tree.Node, m *match) (err error) {
		m.entry.Latent, err = boolean(n)
		return err
	},
	"value": func(d *Decoder, n tree.Node, m *match) error {
		m.value = &n
		return nil
	},
}

// DecodeMatch converts a single match map.
func (d *Decoder) DecodeMatch(n tree.Node) (entity.Entry, error) {
	if n.Kind != tree.KindMap {
		return entity.Entry{}, &entity.DecodeError{Kind: entity.Malformed, Err: fmt.Errorf("match is a %s, not a map", n.Kind)}
	}
	var m match
	for _, f := range n.Fields {
		key := f.Name()
		fn, ok := matchFields[key]
		if !ok {
			return entity.Entry{}, &entity.DecodeError{Kind: entity.UnknownField, Key: key}
		}
		if err := fn(d, f.Value, &m); err != nil {
			return entity.Entry{}, malformed(key, m.dim, err)
		}
	}

	dim := dimension.Dimension(m.dim)
	if !dim.Supported() {
		return entity.Entry{}, &entity.DecodeError{Kind: entity.UnsupportedDimension, Key: "dim", Dimension: m.dim}
	}
	m.entry.Dimension = dim
	if m.value == nil {
		return entity.Entry{}, malformed("value", m.dim, fmt.Errorf("match has no value"))
	}
	fields, err := d.dict(*m.value, dim)
	if err != nil {
		return entity.Entry{}, err
	}
	m.entry.Value = build(dim, fields, m.entry.Latent)
	return m.entry, nil
}

// fields is the decoded content of one value dict.
type fields struct {
	typ, grain string

	hasValue bool
	number   float64
	integer  int64
	text     string
	when     entity.When

	unit, product, domain *string
	latent                *bool

	year, quarter, month, week, day, hour, minute, second *int

	values     []*fields
	from, to   *fields
	normalized *fields
}

type fieldDecoder func(d *Decoder, n tree.Node, dim dimension.Dimension, f *fields) error

// override is a dimension-aware decoder for a key. A nil dims applies to every
// dimension.
type override struct {
	dims   map[dimension.Dimension]bool
	decode fieldDecoder
}

func only(dims ...dimension.Dimension) map[dimension.Dimension]bool {
	set := make(map[dimension.Dimension]bool, len(dims))
	for _, d := range dims {
		set[d] = true
	}
	return set
}

// dimensionFields is filled in init: its decoders recurse into dict, which
// reads the table.
var dimensionFields map[string][]override

func init() {
	dimensionFields = map[string][]override{
		"value":      {{decode: decodeValue}},
		"values":     {{decode: decodeValues}},
		"normalized": {{decode: nested(func(f *fields) **fields { return &f.normalized })}},
		"from":       {{decode: nested(func(f *fields) **fields { return &f.from })}},
		"to":         {{decode: nested(func(f *fields) **fields { return &f.to })}},
		"unit": {
			{dims: only(dimension.Duration), decode: func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
				s, err := symbol(n)
				f.unit = &s
				return err
			}},
			{decode: func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
				s, err := str(n)
				f.unit = &s
				return err
			}},
		},
		"latent": {{dims: only(dimension.Volume), decode: func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
			b, err := boolean(n)
			f.latent = &b
			return err
		}}},
		"domain": {{dims: only(dimension.URL), decode: func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
			s, err := str(n)
			f.domain = &s
			return err
		}}},
	}
}

var genericFields = map[string]fieldDecoder{
	"type": func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) (err error) {
		f.typ, err = symbol(n)
		return err
	},
	"grain": func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) (err error) {
		f.grain, err = symbol(n)
		return err
	},
	"product": func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
		s, err := str(n)
		f.product = &s
		return err
	},
	"second":  component(func(f *fields) **int { return &f.second }),
	"minute":  component(func(f *fields) **int { return &f.minute }),
	"hour":    component(func(f *fields) **int { return &f.hour }),
	"day":     component(func(f *fields) **int { return &f.day }),
	"week":    component(func(f *fields) **int { return &f.week }),
	"month":   component(func(f *fields) **int { return &f.month }),
	"quarter": component(func(f *fields) **int { return &f.quarter }),
	"year":    component(func(f *fields) **int { return &f.year }),
}

// lookup resolves the decoder for key within dim.
func lookup(key string, dim dimension.Dimension) (fieldDecoder, bool) {
	for _, o := range dimensionFields[key] {
		if o.dims == nil || o.dims[dim] {
			return o.decode, true
		}
	}
	fn, ok := genericFields[key]
	return fn, ok
}

func (d *Decoder) dict(n tree.Node, dim dimension.Dimension) (*fields, error) {
	f := &fields{}
	if n.Kind == tree.KindNil {
		return f, nil
	}
	if n.Kind != tree.KindMap {
		return nil, malformed("", string(dim), fmt.Errorf("expected a map, got %s", n.Kind))
	}
	for _, field := range n.Fields {
		key := field.Name()
		fn, ok := lookup(key, dim)
		if !ok {
			return nil, &entity.DecodeError{Kind: entity.UnknownField, Key: key, Dimension: string(dim)}
		}
		if err := fn(d, field.Value, dim, f); err != nil {
			return nil, malformed(key, string(dim), err)
		}
	}
	return f, nil
}

func nested(slot func(*fields) **fields) fieldDecoder {
	return func(d *Decoder, n tree.Node, dim dimension.Dimension, f *fields) error {
		sub, err := d.dict(n, dim)
		if err != nil {
			return err
		}
		*slot(f) = sub
		return nil
	}
}

func component(slot func(*fields) **int) fieldDecoder {
	return func(d *Decoder, n tree.Node, _ dimension.Dimension, f *fields) error {
		v, err := d.integer(n)
		if err != nil {
			return err
		}
		i := int(v)
		*slot(f) = &i
		return nil
	}
}

func decodeValues(d *Decoder, n tree.Node, dim dimension.Dimension, f *fields) error {
	if n.Kind != tree.KindList {
		return fmt.Errorf("expected a list, got %s", n.Kind)
	}
	f.values = make([]*fields, 0, len(n.Items))
	for _, item := range n.Items {
		sub, err := d.dict(item, dim)
		if err != nil {
			return err
		}
		f.values = append(f.values, sub)
	}
	return nil
}

// decodeValue coerces the "value" key according to the dimension's family.
// Ordinals are integers; every other numeric family is floating point even
// when the engine printed an integer.
func decodeValue(d *Decoder, n tree.Node, dim dimension.Dimension, f *fields) (err error) {
	f.hasValue = true
	switch dim.Family() {
	case dimension.FamilyOrdinal:
		f.integer, err = d.integer(n)
	case dimension.FamilyScalar, dimension.FamilyUnit, dimension.FamilyVolume,
		dimension.FamilyQuantity, dimension.FamilyDuration:
		f.number, err = d.float(n)
	case dimension.FamilyText:
		f.text, err = str(n)
	case dimension.FamilyTime:
		f.when, err = d.when(n)
	default:
		err = fmt.Errorf("no value strategy for dimension %q", dim)
	}
	return err
}

// when decodes a time string. With datetime parsing enabled, a string that is
// not a timestamp becomes a null value instead of failing the call.
func (d *Decoder) when(n tree.Node) (entity.When, error) {
	if n.Kind == tree.KindNil {
		return entity.When{}, nil
	}
	s, err := str(n)
	if err != nil {
		return entity.When{}, err
	}
	if !d.parseDatetime {
		return entity.When{Text: s}, nil
	}
	t, err := dateparse.ParseIn(s, d.location)
	if err != nil {
		d.logger.Debug("unparsable time value", "value", s, "error", err)
		return entity.When{}, nil
	}
	return entity.When{Time: &t}, nil
}

// clean keeps the part of a printed number after its last ':'; the engine
// occasionally prints numbers with a namespace prefix.
func (d *Decoder) clean(n tree.Node) string {
	s := strings.TrimSpace(n.Text)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		d.logger.Warn("engine value looks namespaced, keeping its suffix", "value", s)
		s = s[i+1:]
	}
	return s
}

func (d *Decoder) integer(n tree.Node) (int64, error) {
	if err := expectScalar(n, tree.KindInteger, tree.KindFloat, tree.KindString); err != nil {
		return 0, err
	}
	s := d.clean(n)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", n.Text)
	}
	return int64(f), nil
}

func (d *Decoder) float(n tree.Node) (float64, error) {
	if err := expectScalar(n, tree.KindInteger, tree.KindFloat, tree.KindString); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(d.clean(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", n.Text)
	}
	return v, nil
}

// symbol strips the keyword sigil. Plain strings are accepted verbatim.
func symbol(n tree.Node) (string, error) {
	switch n.Kind {
	case tree.KindKeyword:
		if n.Text == "" {
			return "", nil
		}
		return n.Text[1:], nil
	case tree.KindString:
		return n.Text, nil
	}
	return "", fmt.Errorf("expected a keyword, got %s", n.Kind)
}

func str(n tree.Node) (string, error) {
	switch n.Kind {
	case tree.KindString, tree.KindInteger, tree.KindFloat, tree.KindBoolean:
		return n.Text, nil
	case tree.KindKeyword:
		return symbol(n)
	}
	return "", fmt.Errorf("expected a string, got %s", n.Kind)
}

// boolean accepts the engine's boolean tokens and the usual textual spellings.
func boolean(n tree.Node) (bool, error) {
	if err := expectScalar(n, tree.KindBoolean, tree.KindString, tree.KindInteger, tree.KindKeyword); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(n.Text), tree.Sigil)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", n.Text)
}

func expectScalar(n tree.Node, kinds ...tree.Kind) error {
	for _, k := range kinds {
		if n.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("unexpected %s", n.Kind)
}

func malformed(key, dim string, err error) error {
	var decodeErr *entity.DecodeError
	if errors.As(err, &decodeErr) {
		return err
	}
	return &entity.DecodeError{Kind: entity.Malformed, Key: key, Dimension: dim, Err: err}
}

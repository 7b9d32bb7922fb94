// Package entity is the typed result model decoded from the engine's
// annotation tree. Values are immutable once built; nothing in the package
// holds state between parse calls.
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/japaniel/duckparse/pkg/dimension"
)

// Span is a pair of character (rune) offsets into the parsed input.
type Span struct {
	Start int
	End   int
}

// Shift moves the span by offset characters.
func (s Span) Shift(offset int) Span {
	return Span{Start: s.Start + offset, End: s.End + offset}
}

// Entry is one matched span of text together with its typed value.
type Entry struct {
	Dimension dimension.Dimension
	Text      string
	Span      Span
	Latent    bool
	Value     Value
}

// Validate checks the span against the input the entry was parsed from.
func (e Entry) Validate(input string) error {
	if e.Span.Start < 0 || e.Span.Start > e.Span.End {
		return fmt.Errorf("entry %q: invalid span [%d, %d)", e.Text, e.Span.Start, e.Span.End)
	}
	runes := []rune(input)
	if e.Span.End > len(runes) {
		return fmt.Errorf("entry %q: span end %d beyond input length %d", e.Text, e.Span.End, len(runes))
	}
	if got := string(runes[e.Span.Start:e.Span.End]); got != e.Text {
		return fmt.Errorf("entry %q: input at [%d, %d) is %q", e.Text, e.Span.Start, e.Span.End, got)
	}
	return nil
}

// MarshalJSON writes the raw API shape: dim, body, start, end, latent, value.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dim    dimension.Dimension `json:"dim"`
		Body   string              `json:"body"`
		Start  int                 `json:"start"`
		End    int                 `json:"end"`
		Latent bool                `json:"latent"`
		Value  Value               `json:"value"`
	}{e.Dimension, e.Text, e.Span.Start, e.Span.End, e.Latent, e.Value})
}

// Value is the dimension-specific payload of an Entry. The variant always
// matches the family of the entry's dimension.
type Value interface {
	Family() dimension.Family
}

// Scalar is a plain number (number dimension).
type Scalar struct {
	Value float64 `json:"value"`
}

// Ordinal is an integral rank such as "2nd".
type Ordinal struct {
	Value int64 `json:"value"`
}

// UnitScalar is a magnitude with an optional unit (temperature, distance,
// amount-of-money).
type UnitScalar struct {
	Value float64 `json:"value"`
	Unit  *string `json:"unit,omitempty"`
}

// VolumeScalar is a volume. It carries its own latent flag.
type VolumeScalar struct {
	Value  float64 `json:"value"`
	Unit   *string `json:"unit,omitempty"`
	Latent bool    `json:"latent"`
}

// Quantity is a counted product, e.g. "5 cups of sugar".
type Quantity struct {
	Value   float64 `json:"value"`
	Unit    *string `json:"unit,omitempty"`
	Product *string `json:"product,omitempty"`
}

// Normalized is a duration expressed in a single base unit.
type Normalized struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Duration is a length of time. Components the engine did not report,
// including the magnitude, are nil, never zero.
type Duration struct {
	Value      *float64    `json:"value"`
	Unit       *string     `json:"unit,omitempty"`
	Year       *int        `json:"year,omitempty"`
	Quarter    *int        `json:"quarter,omitempty"`
	Month      *int        `json:"month,omitempty"`
	Week       *int        `json:"week,omitempty"`
	Day        *int        `json:"day,omitempty"`
	Hour       *int        `json:"hour,omitempty"`
	Minute     *int        `json:"minute,omitempty"`
	Second     *int        `json:"second,omitempty"`
	Normalized *Normalized `json:"normalized,omitempty"`
}

// Text is a verbatim string value (email, url, phone-number, timezone, and
// the leven, cycle and unit dimensions).
type Text struct {
	Value string `json:"value"`
	// Domain is the host of a url value, when the engine reports it.
	Domain *string `json:"domain,omitempty"`
}

func (Scalar) Family() dimension.Family       { return dimension.FamilyScalar }
func (Ordinal) Family() dimension.Family      { return dimension.FamilyOrdinal }
func (UnitScalar) Family() dimension.Family   { return dimension.FamilyUnit }
func (VolumeScalar) Family() dimension.Family { return dimension.FamilyVolume }
func (Quantity) Family() dimension.Family     { return dimension.FamilyQuantity }
func (Duration) Family() dimension.Family     { return dimension.FamilyDuration }
func (Text) Family() dimension.Family         { return dimension.FamilyText }
func (Time) Family() dimension.Family         { return dimension.FamilyTime }

// When is the value of an instant: the engine's string, a parsed timestamp,
// or neither (null) when datetime parsing was requested and failed.
type When struct {
	Text string
	Time *time.Time
}

// Layout is the timestamp format the engine prints.
const Layout = "2006-01-02T15:04:05.000-07:00"

// IsNull reports whether w carries no value.
func (w When) IsNull() bool { return w.Time == nil && w.Text == "" }

func (w When) String() string {
	switch {
	case w.Time != nil:
		return w.Time.Format(Layout)
	case w.Text != "":
		return w.Text
	}
	return "null"
}

func (w When) MarshalJSON() ([]byte, error) {
	if w.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(w.String())
}

// Instant is a point in time at a given grain.
type Instant struct {
	Grain string `json:"grain,omitempty"`
	Value When   `json:"value"`
}

// Moment is one interpretation of a time expression: a point instant, or an
// interval bounded by From and/or To.
type Moment struct {
	Type     string
	Interval bool
	Instant  *Instant
	From     *Instant
	To       *Instant
}

func (m Moment) MarshalJSON() ([]byte, error) {
	if m.Interval {
		return json.Marshal(struct {
			Type string   `json:"type,omitempty"`
			From *Instant `json:"from,omitempty"`
			To   *Instant `json:"to,omitempty"`
		}{m.Type, m.From, m.To})
	}
	out := struct {
		Type  string `json:"type,omitempty"`
		Grain string `json:"grain,omitempty"`
		Value When   `json:"value"`
	}{Type: m.Type}
	if m.Instant != nil {
		out.Grain = m.Instant.Grain
		out.Value = m.Instant.Value
	}
	return json.Marshal(out)
}

// Time is a resolved time expression. Values keeps the engine's preference
// order; Primary is the interpretation the engine reported at the top level.
type Time struct {
	Grain   string
	Primary Moment
	Values  []Moment
}

// IsInterval reports whether the primary interpretation is an interval.
func (t Time) IsInterval() bool { return t.Primary.Interval }

func (t Time) MarshalJSON() ([]byte, error) {
	values := t.Values
	if values == nil {
		values = []Moment{}
	}
	if t.Primary.Interval {
		return json.Marshal(struct {
			Type   string   `json:"type,omitempty"`
			From   *Instant `json:"from,omitempty"`
			To     *Instant `json:"to,omitempty"`
			Values []Moment `json:"values"`
		}{t.Primary.Type, t.Primary.From, t.Primary.To, values})
	}
	out := struct {
		Type   string   `json:"type,omitempty"`
		Grain  string   `json:"grain,omitempty"`
		Value  When     `json:"value"`
		Values []Moment `json:"values"`
	}{Type: t.Primary.Type, Grain: t.Grain, Values: values}
	if t.Primary.Instant != nil {
		out.Value = t.Primary.Instant.Value
	}
	return json.Marshal(out)
}

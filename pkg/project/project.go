// Package project reduces decoded entries to the simplified per-dimension
// shapes served to clients. Every shape keeps all of its keys, writing null
// for anything the engine did not report.
package project

import (
	"fmt"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
)

// Entry is the simplified form of an entity.Entry.
type Entry struct {
	Dimension dimension.Dimension `json:"dim"`
	Text      string              `json:"text"`
	Start     int                 `json:"start"`
	End       int                 `json:"end"`
	Value     any                 `json:"value"`
}

// Scalar is the shape of number entries.
type Scalar struct {
	Value float64 `json:"value"`
}

// Ordinal is the shape of ordinal entries.
type Ordinal struct {
	Value int64 `json:"value"`
}

// Text is the shape of the string-valued dimensions.
type Text struct {
	Value string `json:"value"`
}

// Unit is the shape of temperature, distance and amount-of-money entries.
type Unit struct {
	Value float64 `json:"value"`
	Unit  *string `json:"unit"`
}

// Volume is the shape of volume entries.
type Volume struct {
	Value  float64 `json:"value"`
	Unit   *string `json:"unit"`
	Latent bool    `json:"latent"`
}

// Quantity is the shape of quantity entries.
type Quantity struct {
	Value   float64 `json:"value"`
	Unit    *string `json:"unit"`
	Product *string `json:"product"`
}

// Duration is the flattened shape of duration entries.
type Duration struct {
	Value  *float64 `json:"value"`
	Unit   *string  `json:"unit"`
	Year   *int     `json:"year"`
	Month  *int     `json:"month"`
	Day    *int     `json:"day"`
	Hour   *int     `json:"hour"`
	Minute *int     `json:"minute"`
	Second *int     `json:"second"`
}

// TimeInstant is the shape of a time entry whose primary value is a point.
type TimeInstant struct {
	Value  entity.When   `json:"value"`
	Others []entity.When `json:"others"`
}

// Bounds is one interval; a missing end is null.
type Bounds struct {
	To   entity.When `json:"to"`
	From entity.When `json:"from"`
}

// TimeInterval is the shape of a time entry whose primary value is an
// interval.
type TimeInterval struct {
	Value  Bounds   `json:"value"`
	Others []Bounds `json:"others"`
}

type strategy func(entity.Entry) any

var strategies = map[dimension.Family]strategy{
	dimension.FamilyScalar: func(e entity.Entry) any {
		return Scalar{Value: as[entity.Scalar](e).Value}
	},
	dimension.FamilyOrdinal: func(e entity.Entry) any {
		return Ordinal{Value: as[entity.Ordinal](e).Value}
	},
	dimension.FamilyText: func(e entity.Entry) any {
		return Text{Value: as[entity.Text](e).Value}
	},
	dimension.FamilyUnit: func(e entity.Entry) any {
		v := as[entity.UnitScalar](e)
		return Unit{Value: v.Value, Unit: v.Unit}
	},
	dimension.FamilyVolume: func(e entity.Entry) any {
		v := as[entity.VolumeScalar](e)
		return Volume{Value: v.Value, Unit: v.Unit, Latent: e.Latent}
	},
	dimension.FamilyQuantity: func(e entity.Entry) any {
		v := as[entity.Quantity](e)
		return Quantity{Value: v.Value, Unit: v.Unit, Product: v.Product}
	},
	dimension.FamilyDuration: func(e entity.Entry) any {
		v := as[entity.Duration](e)
		return Duration{
			Value:  v.Value,
			Unit:   v.Unit,
			Year:   v.Year,
			Month:  v.Month,
			Day:    v.Day,
			Hour:   v.Hour,
			Minute: v.Minute,
			Second: v.Second,
		}
	},
	dimension.FamilyTime: projectTime,
}

// Project reduces one entry. Entries of an unregistered dimension fail with a
// DecodeError; a value variant that does not match the dimension panics.
func Project(e entity.Entry) (Entry, error) {
	if !e.Dimension.Supported() {
		return Entry{}, &entity.DecodeError{Kind: entity.UnsupportedDimension, Dimension: string(e.Dimension)}
	}
	fn, ok := strategies[e.Dimension.Family()]
	if !ok {
		return Entry{}, &entity.DecodeError{Kind: entity.UnsupportedDimension, Dimension: string(e.Dimension)}
	}
	return Entry{
		Dimension: e.Dimension,
		Text:      e.Text,
		Start:     e.Span.Start,
		End:       e.Span.End,
		Value:     fn(e),
	}, nil
}

// All projects entries in order, stopping at the first failure.
func All(entries []entity.Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		p, err := Project(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func projectTime(e entity.Entry) any {
	t := as[entity.Time](e)
	alternates := t.Values
	if len(alternates) == 0 {
		alternates = []entity.Moment{t.Primary}
	}
	if t.IsInterval() {
		out := TimeInterval{Value: bounds(t.Primary), Others: make([]Bounds, 0, len(alternates))}
		for _, m := range alternates {
			out.Others = append(out.Others, bounds(m))
		}
		return out
	}
	out := TimeInstant{Value: point(t.Primary), Others: make([]entity.When, 0, len(alternates))}
	for _, m := range alternates {
		out.Others = append(out.Others, point(m))
	}
	return out
}

// point returns the instant value of m. An interval alternate of an instant
// entry contributes its start.
func point(m entity.Moment) entity.When {
	switch {
	case m.Instant != nil:
		return m.Instant.Value
	case m.From != nil:
		return m.From.Value
	}
	return entity.When{}
}

func bounds(m entity.Moment) Bounds {
	var b Bounds
	if m.From != nil {
		b.From = m.From.Value
	}
	if m.To != nil {
		b.To = m.To.Value
	}
	if !m.Interval && m.Instant != nil {
		b.From = m.Instant.Value
	}
	return b
}

func as[V entity.Value](e entity.Entry) V {
	v, ok := e.Value.(V)
	if !ok {
		panic(fmt.Sprintf("project: %s entry carries a %T value", e.Dimension, e.Value))
	}
	return v
}

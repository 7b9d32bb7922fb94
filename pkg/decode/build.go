package decode

import (
	"fmt"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
)

// build assembles the value variant for dim's family. The registry is closed,
// so an unhandled family is a programming error.
func build(dim dimension.Dimension, f *fields, entryLatent bool) entity.Value {
	switch dim.Family() {
	case dimension.FamilyScalar:
		return entity.Scalar{Value: f.number}
	case dimension.FamilyOrdinal:
		return entity.Ordinal{Value: f.integer}
	case dimension.FamilyUnit:
		return entity.UnitScalar{Value: f.number, Unit: f.unit}
	case dimension.FamilyVolume:
		latent := entryLatent
		if f.latent != nil {
			latent = *f.latent
		}
		return entity.VolumeScalar{Value: f.number, Unit: f.unit, Latent: latent}
	case dimension.FamilyQuantity:
		return entity.Quantity{Value: f.number, Unit: f.unit, Product: f.product}
	case dimension.FamilyDuration:
		return buildDuration(f)
	case dimension.FamilyText:
		return entity.Text{Value: f.text, Domain: f.domain}
	case dimension.FamilyTime:
		return buildTime(f)
	}
	panic(fmt.Sprintf("decode: dimension %q has no family", dim))
}

func buildDuration(f *fields) entity.Duration {
	d := entity.Duration{
		Unit:    f.unit,
		Year:    f.year,
		Quarter: f.quarter,
		Month:   f.month,
		Week:    f.week,
		Day:     f.day,
		Hour:    f.hour,
		Minute:  f.minute,
		Second:  f.second,
	}
	if f.hasValue {
		v := f.number
		d.Value = &v
	}
	if n := f.normalized; n != nil {
		d.Normalized = &entity.Normalized{Value: n.number}
		if n.unit != nil {
			d.Normalized.Unit = *n.unit
		}
	}
	return d
}

func buildTime(f *fields) entity.Time {
	t := entity.Time{Grain: f.grain, Primary: moment(f)}
	for _, v := range f.values {
		t.Values = append(t.Values, moment(v))
	}
	if !f.hasValue && f.from == nil && f.to == nil && len(t.Values) > 0 {
		t.Primary = t.Values[0]
	}
	if t.Grain == "" && t.Primary.Instant != nil {
		t.Grain = t.Primary.Instant.Grain
	}
	return t
}

// moment reads one interpretation. The presence of a from or to key makes it
// an interval, whatever those keys hold.
func moment(f *fields) entity.Moment {
	m := entity.Moment{Type: f.typ}
	if f.from != nil || f.to != nil {
		m.Interval = true
		m.From = instant(f.from)
		m.To = instant(f.to)
		return m
	}
	if f.hasValue {
		m.Instant = &entity.Instant{Grain: f.grain, Value: f.when}
	}
	return m
}

func instant(f *fields) *entity.Instant {
	if f == nil {
		return nil
	}
	return &entity.Instant{Grain: f.grain, Value: f.when}
}

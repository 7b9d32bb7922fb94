package project

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func instant(s string) *entity.Instant {
	return &entity.Instant{Grain: "hour", Value: entity.When{Text: s}}
}

func TestDurationAlwaysHasAllKeys(t *testing.T) {
	e := entity.Entry{
		Dimension: dimension.Duration,
		Text:      "42 days",
		Span:      entity.Span{Start: 0, End: 7},
		Value:     entity.Duration{Value: ptr(42.0), Unit: ptr("day"), Day: ptr(42), Week: ptr(6)},
	}
	p, err := Project(e)
	require.NoError(t, err)

	data, err := json.Marshal(p.Value)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Len(t, got, 8)
	for _, key := range []string{"year", "month", "hour", "minute", "second"} {
		v, ok := got[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	assert.Equal(t, 42.0, got["value"])
	assert.Equal(t, "day", got["unit"])
	assert.Equal(t, 42.0, got["day"])
	assert.NotContains(t, got, "week")
}

func TestDurationWithoutMagnitude(t *testing.T) {
	e := entity.Entry{
		Dimension: dimension.Duration,
		Text:      "3 days",
		Span:      entity.Span{Start: 0, End: 6},
		Value:     entity.Duration{Day: ptr(3)},
	}
	p, err := Project(e)
	require.NoError(t, err)
	assert.Equal(t, Duration{Day: ptr(3)}, p.Value)

	data, err := json.Marshal(p.Value)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Len(t, got, 8)
	for _, key := range []string{"value", "unit", "year", "month", "hour", "minute", "second"} {
		v, ok := got[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	assert.Equal(t, 3.0, got["day"])
}

func TestScalarValueIsUntouched(t *testing.T) {
	e := entity.Entry{Dimension: dimension.Number, Text: "2.5", Span: entity.Span{End: 3}, Value: entity.Scalar{Value: 2.5}}
	p, err := Project(e)
	require.NoError(t, err)
	assert.Equal(t, Scalar{Value: 2.5}, p.Value)
	assert.Equal(t, Entry{Dimension: dimension.Number, Text: "2.5", Start: 0, End: 3, Value: Scalar{Value: 2.5}}, p)
}

func TestVolumeLatentComesFromEntry(t *testing.T) {
	e := entity.Entry{Dimension: dimension.Volume, Latent: true, Value: entity.VolumeScalar{Value: 2}}
	p, err := Project(e)
	require.NoError(t, err)
	assert.Equal(t, Volume{Value: 2, Latent: true}, p.Value)

	data, err := json.Marshal(p.Value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":2,"unit":null,"latent":true}`, string(data))
}

func TestQuantityAndText(t *testing.T) {
	entries := []entity.Entry{
		{Dimension: dimension.Quantity, Value: entity.Quantity{Value: 5, Unit: ptr("cup"), Product: ptr("sugar")}},
		{Dimension: dimension.LevenUnit, Value: entity.Text{Value: "cup"}},
		{Dimension: dimension.Ordinal, Value: entity.Ordinal{Value: 3}},
		{Dimension: dimension.Temperature, Value: entity.UnitScalar{Value: 70, Unit: ptr("degree")}},
	}
	got, err := All(entries)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, Quantity{Value: 5, Unit: ptr("cup"), Product: ptr("sugar")}, got[0].Value)
	assert.Equal(t, Text{Value: "cup"}, got[1].Value)
	assert.Equal(t, Ordinal{Value: 3}, got[2].Value)
	assert.Equal(t, Unit{Value: 70, Unit: ptr("degree")}, got[3].Value)
}

func TestTimeInstant(t *testing.T) {
	primary := entity.Moment{Type: "value", Instant: instant("2024-03-01T14:00:00.000-08:00")}
	alt := entity.Moment{Type: "value", Instant: instant("2024-03-02T14:00:00.000-08:00")}
	e := entity.Entry{Dimension: dimension.Time, Value: entity.Time{Grain: "hour", Primary: primary, Values: []entity.Moment{primary, alt}}}

	p, err := Project(e)
	require.NoError(t, err)
	v, ok := p.Value.(TimeInstant)
	require.True(t, ok, "got %T", p.Value)
	assert.Equal(t, "2024-03-01T14:00:00.000-08:00", v.Value.Text)
	require.Len(t, v.Others, 2)
	assert.Equal(t, v.Value, v.Others[0])

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"2024-03-01T14:00:00.000-08:00","others":["2024-03-01T14:00:00.000-08:00","2024-03-02T14:00:00.000-08:00"]}`, string(data))
}

func TestTimeOthersNeverEmpty(t *testing.T) {
	primary := entity.Moment{Instant: instant("2024-03-01T14:00:00.000-08:00")}
	p, err := Project(entity.Entry{Dimension: dimension.Time, Value: entity.Time{Primary: primary}})
	require.NoError(t, err)
	assert.Len(t, p.Value.(TimeInstant).Others, 1)
}

func TestTimeInterval(t *testing.T) {
	night := entity.Moment{
		Type:     "interval",
		Interval: true,
		From:     instant("2024-03-01T18:00:00.000-08:00"),
		To:       instant("2024-03-02T00:00:00.000-08:00"),
	}
	e := entity.Entry{Dimension: dimension.Time, Value: entity.Time{Primary: night, Values: []entity.Moment{night}}}
	p, err := Project(e)
	require.NoError(t, err)

	data, err := json.Marshal(p.Value)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"value": {"to": "2024-03-02T00:00:00.000-08:00", "from": "2024-03-01T18:00:00.000-08:00"},
		"others": [{"to": "2024-03-02T00:00:00.000-08:00", "from": "2024-03-01T18:00:00.000-08:00"}]
	}`, string(data))
}

func TestOpenIntervalHasNullBound(t *testing.T) {
	after := entity.Moment{Interval: true, From: instant("2024-03-01T18:00:00.000-08:00")}
	p, err := Project(entity.Entry{Dimension: dimension.Time, Value: entity.Time{Primary: after}})
	require.NoError(t, err)
	v := p.Value.(TimeInterval)
	assert.True(t, v.Value.To.IsNull())
	assert.False(t, v.Value.From.IsNull())
}

func TestUnsupportedDimension(t *testing.T) {
	_, err := Project(entity.Entry{Dimension: "spaceship", Value: entity.Scalar{}})
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.UnsupportedDimension, decodeErr.Kind)
	assert.Equal(t, "spaceship", decodeErr.Dimension)

	_, err = All([]entity.Entry{{Dimension: dimension.Number, Value: entity.Scalar{}}, {Dimension: "spaceship"}})
	assert.Error(t, err)
}

func TestMismatchedVariantPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Project(entity.Entry{Dimension: dimension.Duration, Value: entity.Scalar{Value: 1}})
	})
}

func TestEveryDimensionHasAStrategy(t *testing.T) {
	for _, d := range dimension.All() {
		_, ok := strategies[d.Family()]
		assert.True(t, ok, d)
	}
}

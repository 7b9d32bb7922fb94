package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpan(t *testing.T) {
	input := "会議は明日 2pm です"
	e := Entry{Dimension: dimension.Time, Text: "2pm", Span: Span{Start: 6, End: 9}}
	assert.NoError(t, e.Validate(input))

	bad := e
	bad.Span = Span{Start: 5, End: 8}
	assert.Error(t, bad.Validate(input))

	bad.Span = Span{Start: 9, End: 6}
	assert.Error(t, bad.Validate(input))

	bad.Span = Span{Start: 6, End: 40}
	assert.Error(t, bad.Validate(input))
}

func TestSpanShift(t *testing.T) {
	assert.Equal(t, Span{Start: 12, End: 15}, Span{Start: 2, End: 5}.Shift(10))
}

func TestWhenJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 0, 0, 0, time.FixedZone("", -7*3600))

	b, err := json.Marshal(When{Time: &ts})
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01T14:00:00.000-07:00"`, string(b))

	b, err = json.Marshal(When{Text: "2024-03-01T14:00:00.000-07:00"})
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01T14:00:00.000-07:00"`, string(b))

	b, err = json.Marshal(When{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestEntryJSONRawShape(t *testing.T) {
	unit := "day"
	day := 42
	mag := 42.0
	e := Entry{
		Dimension: dimension.Duration,
		Text:      "42 days",
		Span:      Span{End: 7},
		Value:     Duration{Value: &mag, Unit: &unit, Day: &day},
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dim":"duration","body":"42 days","start":0,"end":7,"latent":false,
		"value":{"value":42,"unit":"day","day":42}}`, string(b))
}

func TestTimeJSON(t *testing.T) {
	from := &Instant{Grain: "hour", Value: When{Text: "2024-03-01T18:00:00.000-07:00"}}
	to := &Instant{Grain: "hour", Value: When{Text: "2024-03-02T00:00:00.000-07:00"}}
	interval := Moment{Type: "interval", Interval: true, From: from, To: to}
	v := Time{Grain: "hour", Primary: interval, Values: []Moment{interval}}
	assert.True(t, v.IsInterval())

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"interval",
		"from":{"grain":"hour","value":"2024-03-01T18:00:00.000-07:00"},
		"to":{"grain":"hour","value":"2024-03-02T00:00:00.000-07:00"},
		"values":[{"type":"interval",
			"from":{"grain":"hour","value":"2024-03-01T18:00:00.000-07:00"},
			"to":{"grain":"hour","value":"2024-03-02T00:00:00.000-07:00"}}]}`, string(b))

	point := Moment{Type: "value", Instant: &Instant{Grain: "hour"}}
	b, err = json.Marshal(Time{Grain: "hour", Primary: point})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"value","grain":"hour","value":null,"values":[]}`, string(b))
}

func TestValueFamilies(t *testing.T) {
	values := map[Value]dimension.Family{
		Scalar{}:       dimension.FamilyScalar,
		Ordinal{}:      dimension.FamilyOrdinal,
		UnitScalar{}:   dimension.FamilyUnit,
		VolumeScalar{}: dimension.FamilyVolume,
		Quantity{}:     dimension.FamilyQuantity,
		Duration{}:     dimension.FamilyDuration,
		Text{}:         dimension.FamilyText,
	}
	for v, want := range values {
		assert.Equal(t, want, v.Family())
	}
	assert.Equal(t, dimension.FamilyTime, Time{}.Family())
}

func TestDecodeErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := &DecodeError{Kind: UnknownField, Key: "colour", Dimension: "time", Err: cause}
	assert.Equal(t, `decode: unknown field "colour" (dimension "time"): boom`, err.Error())
	assert.ErrorIs(t, err, cause)
}

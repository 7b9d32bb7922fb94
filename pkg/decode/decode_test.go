package decode

import (
	"errors"
	"testing"
	"time"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/japaniel/duckparse/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPM = "2024-03-01T14:00:00.000-08:00"

func timeMatch(value tree.Node) tree.Node {
	return tree.Map(
		"dim", tree.Kw("time"),
		"body", tree.Str("2pm"),
		"start", tree.Int(0),
		"end", tree.Int(3),
		"latent", tree.Bool(false),
		"value", value,
	)
}

func instantValue(s string) tree.Node {
	return tree.Map("type", tree.Kw("value"), "value", tree.Str(s), "grain", tree.Kw("hour"))
}

func TestDecodeDuration(t *testing.T) {
	m := tree.Map(
		"dim", tree.Kw("duration"),
		"body", tree.Str("42 days"),
		"start", tree.Int(0),
		"end", tree.Int(7),
		"value", tree.Map(
			"value", tree.Int(42),
			"day", tree.Int(42),
			"unit", tree.Kw("day"),
			"normalized", tree.Map("value", tree.Int(3628800), "unit", tree.Kw("second")),
		),
	)
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)

	assert.Equal(t, dimension.Duration, e.Dimension)
	assert.Equal(t, entity.Span{Start: 0, End: 7}, e.Span)
	d, ok := e.Value.(entity.Duration)
	require.True(t, ok, "got %T", e.Value)
	require.NotNil(t, d.Value)
	assert.Equal(t, 42.0, *d.Value)
	require.NotNil(t, d.Unit)
	assert.Equal(t, "day", *d.Unit)
	require.NotNil(t, d.Day)
	assert.Equal(t, 42, *d.Day)
	assert.Nil(t, d.Hour)
	assert.Nil(t, d.Year)
	require.NotNil(t, d.Normalized)
	assert.Equal(t, entity.Normalized{Value: 3628800, Unit: "second"}, *d.Normalized)
}

func TestDurationCalendarFieldsOnly(t *testing.T) {
	m := tree.Map("dim", tree.Kw("duration"), "value", tree.Map("day", tree.Int(3), "type", tree.Kw("value")))
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	d := e.Value.(entity.Duration)
	assert.Nil(t, d.Value)
	assert.Nil(t, d.Unit)
	require.NotNil(t, d.Day)
	assert.Equal(t, 3, *d.Day)
}

func TestDecodeURLDomain(t *testing.T) {
	m := tree.Map(
		"dim", tree.Kw("url"),
		"body", tree.Str("example.com"),
		"value", tree.Map("value", tree.Str("example.com"), "domain", tree.Str("example.com"), "type", tree.Kw("value")),
	)
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	v := e.Value.(entity.Text)
	assert.Equal(t, "example.com", v.Value)
	require.NotNil(t, v.Domain)
	assert.Equal(t, "example.com", *v.Domain)

	// domain is only known for urls.
	m = tree.Map("dim", tree.Kw("email"), "value", tree.Map("value", tree.Str("a@b.c"), "domain", tree.Str("b.c")))
	_, err = New().DecodeMatch(m)
	var de *entity.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, entity.UnknownField, de.Kind)
	assert.Equal(t, "domain", de.Key)
}

func TestDurationUnitAsString(t *testing.T) {
	m := tree.Map("dim", tree.Kw("duration"), "value", tree.Map("value", tree.Int(2), "unit", tree.Str("hour")))
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	assert.Equal(t, "hour", *e.Value.(entity.Duration).Unit)
}

func TestNumericCoercion(t *testing.T) {
	d := New()

	e, err := d.DecodeMatch(tree.Map("dim", tree.Kw("ordinal"), "value", tree.Map("value", tree.Int(2))))
	require.NoError(t, err)
	assert.Equal(t, entity.Ordinal{Value: 2}, e.Value)

	for _, dim := range []string{"number", "temperature", "distance", "amount-of-money"} {
		e, err := d.DecodeMatch(tree.Map("dim", tree.Kw(dim), "value", tree.Map("value", tree.Int(2))))
		require.NoError(t, err, dim)
		switch v := e.Value.(type) {
		case entity.Scalar:
			assert.Equal(t, 2.0, v.Value)
		case entity.UnitScalar:
			assert.Equal(t, 2.0, v.Value)
			assert.Nil(t, v.Unit)
		default:
			t.Fatalf("%s decoded to %T", dim, e.Value)
		}
	}

	_, err = d.DecodeMatch(tree.Map("dim", tree.Kw("ordinal"), "value", tree.Map("value", tree.Float(2.5))))
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.Malformed, decodeErr.Kind)
	assert.Equal(t, "value", decodeErr.Key)
}

func TestNamespacedNumberIsCleaned(t *testing.T) {
	n := tree.Node{Kind: tree.KindString, Text: "java.lang.Long:7"}
	e, err := New().DecodeMatch(tree.Map("dim", tree.Kw("number"), "value", tree.Map("value", n)))
	require.NoError(t, err)
	assert.Equal(t, entity.Scalar{Value: 7}, e.Value)
}

func TestFieldOrderIsNotSignificant(t *testing.T) {
	m := tree.Map(
		"value", tree.Map("value", tree.Str("contact@example.com")),
		"end", tree.Int(19),
		"dim", tree.Kw("email"),
		"body", tree.Str("contact@example.com"),
		"start", tree.Int(0),
	)
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	assert.Equal(t, dimension.Email, e.Dimension)
	assert.Equal(t, entity.Text{Value: "contact@example.com"}, e.Value)
}

func TestSymbolsLoseSigil(t *testing.T) {
	e, err := New().DecodeMatch(timeMatch(tree.Map(
		"type", tree.Kw("value"),
		"value", tree.Str(twoPM),
		"grain", tree.Kw("hour"),
		"values", tree.List(instantValue(twoPM)),
	)))
	require.NoError(t, err)
	v := e.Value.(entity.Time)
	assert.Equal(t, "hour", v.Grain)
	assert.Equal(t, "value", v.Primary.Type)
	assert.Equal(t, "hour", v.Values[0].Instant.Grain)
}

func TestLatentTokens(t *testing.T) {
	for token, want := range map[string]bool{"true": true, "false": false, "yes": true, "0": false, "T": true} {
		m := tree.Map("dim", tree.Kw("number"), "latent", tree.Node{Kind: tree.KindBoolean, Text: token}, "value", tree.Map("value", tree.Int(1)))
		e, err := New().DecodeMatch(m)
		require.NoError(t, err, token)
		assert.Equal(t, want, e.Latent, token)
	}
	m := tree.Map("dim", tree.Kw("number"), "latent", tree.Str("maybe"), "value", tree.Map("value", tree.Int(1)))
	_, err := New().DecodeMatch(m)
	assert.Error(t, err)
}

func TestUnknownFieldFails(t *testing.T) {
	_, err := New().DecodeMatch(tree.Map("dim", tree.Kw("number"), "colour", tree.Str("red")))
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.UnknownField, decodeErr.Kind)
	assert.Equal(t, "colour", decodeErr.Key)

	_, err = New().DecodeMatch(tree.Map("dim", tree.Kw("number"), "value", tree.Map("value", tree.Int(1), "shade", tree.Int(2))))
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.UnknownField, decodeErr.Kind)
	assert.Equal(t, "shade", decodeErr.Key)
	assert.Equal(t, "number", decodeErr.Dimension)
}

func TestLatentInsideValueIsVolumeOnly(t *testing.T) {
	volume := tree.Map("dim", tree.Kw("volume"), "latent", tree.Bool(false),
		"value", tree.Map("value", tree.Int(3), "unit", tree.Str("gallon"), "latent", tree.Bool(true)))
	e, err := New().DecodeMatch(volume)
	require.NoError(t, err)
	v := e.Value.(entity.VolumeScalar)
	assert.True(t, v.Latent)
	assert.False(t, e.Latent)

	number := tree.Map("dim", tree.Kw("number"), "value", tree.Map("value", tree.Int(3), "latent", tree.Bool(true)))
	_, err = New().DecodeMatch(number)
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.UnknownField, decodeErr.Kind)
}

func TestVolumeLatentDefaultsToEntry(t *testing.T) {
	m := tree.Map("value", tree.Map("value", tree.Int(2)), "latent", tree.Bool(true), "dim", tree.Kw("volume"))
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	assert.Equal(t, entity.VolumeScalar{Value: 2, Latent: true}, e.Value)
}

func TestUnsupportedDimension(t *testing.T) {
	_, err := New().DecodeMatch(tree.Map("dim", tree.Kw("spaceship"), "value", tree.Map("value", tree.Int(1))))
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.UnsupportedDimension, decodeErr.Kind)
	assert.Equal(t, "spaceship", decodeErr.Dimension)
}

func TestMissingValueIsMalformed(t *testing.T) {
	_, err := New().DecodeMatch(tree.Map("dim", tree.Kw("number"), "body", tree.Str("2")))
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, entity.Malformed, decodeErr.Kind)
}

func TestTimeStringsKeptByDefault(t *testing.T) {
	e, err := New().DecodeMatch(timeMatch(tree.Map(
		"value", tree.Str(twoPM),
		"grain", tree.Kw("hour"),
		"values", tree.List(instantValue(twoPM), instantValue("2024-03-02T14:00:00.000-08:00")),
	)))
	require.NoError(t, err)
	v := e.Value.(entity.Time)
	require.NotNil(t, v.Primary.Instant)
	assert.Equal(t, entity.When{Text: twoPM}, v.Primary.Instant.Value)
	assert.Len(t, v.Values, 2)
	assert.False(t, v.IsInterval())
}

func TestTimeParsingRecoversFromBadStrings(t *testing.T) {
	d := New(WithParseDatetime(true))
	e, err := d.DecodeMatch(timeMatch(tree.Map(
		"value", tree.Str(twoPM),
		"values", tree.List(instantValue(twoPM), instantValue("xyzzy")),
	)))
	require.NoError(t, err)
	v := e.Value.(entity.Time)

	primary := v.Primary.Instant.Value
	require.NotNil(t, primary.Time)
	assert.Equal(t, 14, primary.Time.Hour())
	_, offset := primary.Time.Zone()
	assert.Equal(t, -8*3600, offset)

	assert.True(t, v.Values[1].Instant.Value.IsNull())
}

func TestTimeParsingUsesLocationWithoutOffset(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	d := New(WithParseDatetime(true), WithLocation(loc))
	e, err := d.DecodeMatch(timeMatch(tree.Map("value", tree.Str("2024-03-01 14:00:00"))))
	require.NoError(t, err)
	ts := e.Value.(entity.Time).Primary.Instant.Value.Time
	require.NotNil(t, ts)
	_, offset := ts.Zone()
	assert.Equal(t, 2*3600, offset)
}

func TestIntervalDetection(t *testing.T) {
	bound := func(s string) tree.Node { return tree.Map("value", tree.Str(s), "grain", tree.Kw("hour")) }
	value := tree.Map(
		"type", tree.Kw("interval"),
		"from", bound("2024-03-01T18:00:00.000-08:00"),
		"to", bound("2024-03-02T00:00:00.000-08:00"),
		"values", tree.List(tree.Map(
			"type", tree.Kw("interval"),
			"from", bound("2024-03-01T18:00:00.000-08:00"),
			"to", bound("2024-03-02T00:00:00.000-08:00"),
		)),
	)
	e, err := New().DecodeMatch(timeMatch(value))
	require.NoError(t, err)
	v := e.Value.(entity.Time)
	assert.True(t, v.IsInterval())
	assert.Nil(t, v.Primary.Instant)
	require.NotNil(t, v.Primary.From)
	assert.Equal(t, "2024-03-01T18:00:00.000-08:00", v.Primary.From.Value.Text)
	assert.True(t, v.Values[0].Interval)

	open := tree.Map("type", tree.Kw("interval"), "to", bound("2024-03-02T00:00:00.000-08:00"))
	e, err = New().DecodeMatch(timeMatch(open))
	require.NoError(t, err)
	v = e.Value.(entity.Time)
	assert.True(t, v.IsInterval())
	assert.Nil(t, v.Primary.From)
	assert.NotNil(t, v.Primary.To)
}

func TestPrimaryFallsBackToFirstValue(t *testing.T) {
	e, err := New().DecodeMatch(timeMatch(tree.Map("values", tree.List(instantValue(twoPM)))))
	require.NoError(t, err)
	v := e.Value.(entity.Time)
	require.NotNil(t, v.Primary.Instant)
	assert.Equal(t, twoPM, v.Primary.Instant.Value.Text)
	assert.Equal(t, "hour", v.Grain)
}

func TestQuantity(t *testing.T) {
	m := tree.Map("dim", tree.Kw("quantity"), "body", tree.Str("5 cups of sugar"),
		"value", tree.Map("value", tree.Int(5), "unit", tree.Str("cup"), "product", tree.Str("sugar")))
	e, err := New().DecodeMatch(m)
	require.NoError(t, err)
	q := e.Value.(entity.Quantity)
	assert.Equal(t, 5.0, q.Value)
	assert.Equal(t, "cup", *q.Unit)
	assert.Equal(t, "sugar", *q.Product)
}

func TestDecodeTreeReportsMatchIndex(t *testing.T) {
	tr := tree.Tree{
		tree.Map("dim", tree.Kw("number"), "value", tree.Map("value", tree.Int(1))),
		tree.List(),
	}
	_, err := New().Decode(tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match 1")

	entries, err := New().Decode(tr[:1])
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

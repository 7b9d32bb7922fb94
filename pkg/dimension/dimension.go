// Package dimension is the closed registry of entity dimensions the engine
// can report. Adding a dimension is a code change: a new constant plus a row
// in the registry table.
package dimension

import (
	"fmt"
	"strings"

	"github.com/japaniel/duckparse/internal/suggest"
)

// Dimension identifies a category of extractable entity, using the engine's
// wire name.
type Dimension string

const (
	AmountOfMoney  Dimension = "amount-of-money"
	Cycle          Dimension = "cycle"
	Distance       Dimension = "distance"
	Duration       Dimension = "duration"
	Email          Dimension = "email"
	LevenProduct   Dimension = "leven-product"
	LevenUnit      Dimension = "leven-unit"
	Number         Dimension = "number"
	Ordinal        Dimension = "ordinal"
	PhoneNumber    Dimension = "phone-number"
	Quantity       Dimension = "quantity"
	Temperature    Dimension = "temperature"
	Time           Dimension = "time"
	Timezone       Dimension = "timezone"
	Unit           Dimension = "unit"
	UnitOfDuration Dimension = "unit-of-duration"
	URL            Dimension = "url"
	Volume         Dimension = "volume"
)

// Family groups dimensions that share a value shape. Decoding and projection
// strategies are selected per family.
type Family int

const (
	FamilyScalar Family = iota + 1
	FamilyOrdinal
	FamilyUnit
	FamilyVolume
	FamilyQuantity
	FamilyDuration
	FamilyText
	FamilyTime
)

func (f Family) String() string {
	switch f {
	case FamilyScalar:
		return "scalar"
	case FamilyOrdinal:
		return "ordinal"
	case FamilyUnit:
		return "unit"
	case FamilyVolume:
		return "volume"
	case FamilyQuantity:
		return "quantity"
	case FamilyDuration:
		return "duration"
	case FamilyText:
		return "text"
	case FamilyTime:
		return "time"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// registry is ordered the way All reports dimensions.
var registry = []struct {
	dim    Dimension
	family Family
}{
	{Time, FamilyTime},
	{Timezone, FamilyText},
	{Temperature, FamilyUnit},
	{Number, FamilyScalar},
	{Ordinal, FamilyOrdinal},
	{Distance, FamilyUnit},
	{Volume, FamilyVolume},
	{AmountOfMoney, FamilyUnit},
	{Duration, FamilyDuration},
	{Email, FamilyText},
	{URL, FamilyText},
	{PhoneNumber, FamilyText},
	{LevenProduct, FamilyText},
	{LevenUnit, FamilyText},
	{Quantity, FamilyQuantity},
	{Cycle, FamilyText},
	{Unit, FamilyText},
	{UnitOfDuration, FamilyText},
}

var (
	families = make(map[Dimension]Family, len(registry))
	names    = make([]string, 0, len(registry))
)

// aliases are accepted by Parse in addition to the wire names.
var aliases = map[string]Dimension{
	"money": AmountOfMoney,
}

func init() {
	for _, r := range registry {
		families[r.dim] = r.family
		names = append(names, string(r.dim))
	}
}

// All returns every supported dimension.
func All() []Dimension {
	out := make([]Dimension, len(registry))
	for i, r := range registry {
		out[i] = r.dim
	}
	return out
}

// Names returns the wire names of all supported dimensions.
func Names() []string {
	return append([]string(nil), names...)
}

// Supported reports whether d is a registered dimension.
func (d Dimension) Supported() bool {
	_, ok := families[d]
	return ok
}

// Family returns the value family of d, or 0 when d is not registered.
func (d Dimension) Family() Family {
	return families[d]
}

func (d Dimension) String() string { return string(d) }

// Parse resolves a dimension name. Unknown names fail fast rather than
// producing an empty filter.
func Parse(name string) (Dimension, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if d := Dimension(key); d.Supported() {
		return d, nil
	}
	if d, ok := aliases[key]; ok {
		return d, nil
	}
	return "", &UnsupportedDimensionError{Name: name, Suggestion: suggest.Closest(key, names)}
}

// ParseList resolves a filter list. Each argument may itself be a comma
// separated list. Duplicates are dropped, first occurrence wins.
func ParseList(values ...string) ([]Dimension, error) {
	var out []Dimension
	seen := make(map[Dimension]bool)
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			d, err := Parse(name)
			if err != nil {
				return nil, err
			}
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// UnsupportedDimensionError is returned when a dimension name is not in the
// registry.
type UnsupportedDimensionError struct {
	Name       string
	Suggestion string
}

func (e *UnsupportedDimensionError) Error() string {
	msg := fmt.Sprintf("unsupported dimension %q", e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

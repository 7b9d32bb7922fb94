package language

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	tests := []struct {
		input string
		want  Language
	}{
		{"en", English},
		{"en$core", English},
		{"EN", English},
		{"en-US", English},
		{"pt_BR", Portuguese},
		{"zh-Hant-TW", Chinese},
		{"German", German},
		{"birman", Burmese},
		{"nb$core", Norwegian},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("klingon")
	require.Error(t, err)

	var langErr *UnsupportedLanguageError
	require.True(t, errors.As(err, &langErr))
	assert.Equal(t, "klingon", langErr.ID)
	assert.Len(t, langErr.Supported, 26)
	assert.Contains(t, err.Error(), "Supported languages: ar, da")

	_, err = Parse("Englsh")
	require.True(t, errors.As(err, &langErr))
	assert.Equal(t, "English", langErr.Suggestion)
}

func TestConversions(t *testing.T) {
	assert.Equal(t, "ja$core", Japanese.EngineID())
	assert.Equal(t, "ja", Japanese.ISO())
	assert.Equal(t, "Japanese", Japanese.Name())
	assert.NoError(t, French.Validate())
	assert.Error(t, Language("xx").Validate())
	assert.Len(t, All(), 26)
}

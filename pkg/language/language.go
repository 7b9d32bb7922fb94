// Package language is the fixed set of languages the extraction engine ships
// models for, with conversions between the engine's ids, ISO 639-1 codes and
// English names.
package language

import (
	"fmt"
	"sort"
	"strings"

	"github.com/japaniel/duckparse/internal/suggest"
	xlang "golang.org/x/text/language"
)

// Language is an ISO 639-1 code from the supported set.
type Language string

const engineSuffix = "$core"

const (
	Arabic     Language = "ar"
	Danish     Language = "da"
	German     Language = "de"
	English    Language = "en"
	Spanish    Language = "es"
	Estonian   Language = "et"
	French     Language = "fr"
	Irish      Language = "ga"
	Hebrew     Language = "he"
	Croatian   Language = "hr"
	Indonesian Language = "id"
	Italian    Language = "it"
	Japanese   Language = "ja"
	Korean     Language = "ko"
	Burmese    Language = "my"
	Norwegian  Language = "nb"
	Dutch      Language = "nl"
	Polish     Language = "pl"
	Portuguese Language = "pt"
	Romanian   Language = "ro"
	Russian    Language = "ru"
	Swedish    Language = "sv"
	Turkish    Language = "tr"
	Ukrainian  Language = "uk"
	Vietnamese Language = "vi"
	Chinese    Language = "zh"
)

var supported = map[Language]string{
	Arabic:     "Arabic",
	Danish:     "Danish",
	German:     "German",
	English:    "English",
	Spanish:    "Spanish",
	Estonian:   "Estonian",
	French:     "French",
	Irish:      "Irish",
	Hebrew:     "Hebrew",
	Croatian:   "Croatian",
	Indonesian: "Indonesian",
	Italian:    "Italian",
	Japanese:   "Japanese",
	Korean:     "Korean",
	Burmese:    "Burmese",
	Norwegian:  "Norwegian",
	Dutch:      "Dutch",
	Polish:     "Polish",
	Portuguese: "Portuguese",
	Romanian:   "Romanian",
	Russian:    "Russian",
	Swedish:    "Swedish",
	Turkish:    "Turkish",
	Ukrainian:  "Ukrainian",
	Vietnamese: "Vietnamese",
	Chinese:    "Chinese",
}

// byName maps lower-cased English names to codes. The engine's historical
// spellings are accepted too.
var byName = map[string]Language{
	"birman":    Burmese,
	"norvegian": Norwegian,
}

func init() {
	for l, name := range supported {
		byName[strings.ToLower(name)] = l
	}
}

// All returns the supported languages sorted by code.
func All() []Language {
	out := make([]Language, 0, len(supported))
	for l := range supported {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Parse accepts an engine id ("en$core"), an ISO 639-1 code ("en"), a BCP 47
// tag ("en-US", "pt_BR") or an English name ("English").
func Parse(id string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.TrimSuffix(key, engineSuffix)
	if l := Language(key); l.Supported() {
		return l, nil
	}
	if l, ok := byName[key]; ok {
		return l, nil
	}
	if tag, err := xlang.Parse(strings.ReplaceAll(key, "_", "-")); err == nil {
		base, _ := tag.Base()
		if l := Language(base.String()); l.Supported() {
			return l, nil
		}
	}
	return "", newUnsupported(id)
}

// Supported reports whether l is in the supported set.
func (l Language) Supported() bool {
	_, ok := supported[l]
	return ok
}

// Validate returns an UnsupportedLanguageError when l is not supported.
func (l Language) Validate() error {
	if !l.Supported() {
		return newUnsupported(string(l))
	}
	return nil
}

// ISO returns the ISO 639-1 code.
func (l Language) ISO() string { return string(l) }

// EngineID returns the identifier the engine uses for the language's corpus.
func (l Language) EngineID() string { return string(l) + engineSuffix }

// Name returns the English name, or "" for unsupported values.
func (l Language) Name() string { return supported[l] }

func (l Language) String() string { return string(l) }

// UnsupportedLanguageError carries the rejected identifier together with the
// supported set.
type UnsupportedLanguageError struct {
	ID         string
	Supported  []Language
	Suggestion string
}

func newUnsupported(id string) *UnsupportedLanguageError {
	candidates := make([]string, 0, len(supported))
	for _, name := range supported {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	e := &UnsupportedLanguageError{ID: id, Supported: All()}
	if name := suggest.Closest(id, candidates); name != "" {
		e.Suggestion = name
	}
	return e
}

func (e *UnsupportedLanguageError) Error() string {
	codes := make([]string, len(e.Supported))
	for i, l := range e.Supported {
		codes[i] = string(l)
	}
	msg := fmt.Sprintf("unsupported language %q", e.ID)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", e.Suggestion)
	}
	return msg + ". Supported languages: " + strings.Join(codes, ", ")
}

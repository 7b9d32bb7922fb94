package document

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/japaniel/duckparse/pkg/language"
)

// Sentence is one segment of a document.
type Sentence struct {
	Index int
	Text  string
	// Offset is the position of the first character of Text in the document,
	// counted in runes like entry spans.
	Offset int
}

// Analyzer splits documents into sentences.
type Analyzer struct {
	lang language.Language
	t    *tokenizer.Tokenizer
}

// NewAnalyzer creates an analyzer for lang. Japanese text is segmented with
// a morphological tokenizer; every other language by punctuation.
func NewAnalyzer(lang language.Language) (*Analyzer, error) {
	a := &Analyzer{lang: lang}
	if lang == language.Japanese {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err != nil {
			return nil, err
		}
		a.t = t
	}
	return a, nil
}

// Split returns the non-blank sentences of text with surrounding whitespace
// removed.
func (a *Analyzer) Split(text string) []Sentence {
	var ends []int
	if a.t != nil {
		ends = a.japaneseEnds(text)
	} else {
		ends = punctuationEnds(text)
	}

	var sentences []Sentence
	start := 0
	for _, end := range append(ends, len(text)) {
		if end <= start {
			continue
		}
		segment := text[start:end]
		trimmed := strings.TrimLeftFunc(segment, unicode.IsSpace)
		lead := len(segment) - len(trimmed)
		trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
		if trimmed != "" {
			sentences = append(sentences, Sentence{
				Index:  len(sentences),
				Text:   trimmed,
				Offset: utf8.RuneCountInString(text[:start+lead]),
			})
		}
		start = end
	}
	return sentences
}

// japaneseEnds returns the byte offsets just past each full stop the
// tokenizer finds, plus every newline.
func (a *Analyzer) japaneseEnds(text string) []int {
	var ends []int
	cursor := 0
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || token.Surface == "" {
			continue
		}
		i := strings.Index(text[cursor:], token.Surface)
		if i < 0 {
			continue
		}
		cursor += i + len(token.Surface)

		features := token.Features()
		if len(features) > 1 && features[0] == "記号" && features[1] == "句点" {
			ends = append(ends, cursor)
			continue
		}
		if r, _ := utf8.DecodeLastRuneInString(token.Surface); r == '！' || r == '？' {
			ends = append(ends, cursor)
		}
	}
	return mergeNewlines(text, ends)
}

// punctuationEnds ends a sentence at a terminator followed by whitespace, or
// at a newline.
func punctuationEnds(text string) []int {
	var ends []int
	var prev rune
	for i, r := range text {
		switch {
		case r == '\n':
			ends = append(ends, i+1)
		case isFullWidthTerminator(prev):
			ends = append(ends, i)
		case unicode.IsSpace(r) && isTerminator(prev):
			ends = append(ends, i)
		}
		prev = r
	}
	return ends
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || isFullWidthTerminator(r)
}

func isFullWidthTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

// mergeNewlines adds the offsets after each newline to ends, keeping them
// sorted.
func mergeNewlines(text string, ends []int) []int {
	out := make([]int, 0, len(ends))
	j := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		for j < len(ends) && ends[j] <= i+1 {
			out = append(out, ends[j])
			j++
		}
		if len(out) == 0 || out[len(out)-1] != i+1 {
			out = append(out, i+1)
		}
	}
	return append(out, ends[j:]...)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/tree"
	"github.com/tidwall/gjson"
)

// ErrNoRecording is returned by Replay for text it has no recording of.
var ErrNoRecording = errors.New("no recorded engine output")

type recordingKey struct {
	lang language.Language
	text string
}

// Replay serves engine output recorded as JSON files. Each file holds one
// object {"text", "language", "result"}, where result is the server's
// response to an unfiltered parse.
type Replay struct {
	recordings map[recordingKey]tree.Tree
}

// NewReplay reads every *.json file in dir.
func NewReplay(dir string) (*Replay, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	r := &Replay{recordings: make(map[recordingKey]tree.Tree, len(paths))}
	for _, path := range paths {
		if err := r.add(path); err != nil {
			return nil, fmt.Errorf("recording %s: %w", filepath.Base(path), err)
		}
	}
	return r, nil
}

func (r *Replay) add(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(data) {
		return errors.New("invalid json")
	}
	doc := gjson.ParseBytes(data)
	lang, err := language.Parse(doc.Get("language").String())
	if err != nil {
		return err
	}
	result := doc.Get("result")
	if !result.IsArray() {
		return errors.New("result is not an array")
	}
	t, err := tree.FromJSON([]byte(result.Raw))
	if err != nil {
		return err
	}
	r.recordings[recordingKey{lang, strings.TrimSpace(doc.Get("text").String())}] = t
	return nil
}

// Len returns the number of recordings.
func (r *Replay) Len() int { return len(r.recordings) }

func (r *Replay) Load(context.Context, []language.Language) error { return nil }

// RawParse returns the recording for the request's text, filtered to the
// requested dimensions. The reference time is ignored.
func (r *Replay) RawParse(_ context.Context, req Request) (tree.Tree, error) {
	t, ok := r.recordings[recordingKey{req.Language, strings.TrimSpace(req.Text)}]
	if !ok {
		return nil, fmt.Errorf("%w for %q (%s)", ErrNoRecording, req.Text, req.Language)
	}
	return tree.Filter(t, req.Names()), nil
}

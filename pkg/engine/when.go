package engine

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/tree"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// When is an offline engine that recognizes English time expressions only.
// It needs no server and is meant for quick local runs.
type When struct {
	parser *when.Parser
}

// NewWhen creates the offline engine.
func NewWhen() *When {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &When{parser: w}
}

func (w *When) Load(context.Context, []language.Language) error { return nil }

// RawParse emits at most one time match. Requests for other languages, or
// whose filter excludes time, get an empty tree.
func (w *When) RawParse(_ context.Context, req Request) (tree.Tree, error) {
	if req.Language != language.English {
		return tree.Tree{}, nil
	}
	if len(req.Dimensions) > 0 && !slices.Contains(req.Dimensions, dimension.Time) {
		return tree.Tree{}, nil
	}
	base := time.Now()
	if req.ReferenceTime != nil {
		base = *req.ReferenceTime
	}
	r, err := w.parser.Parse(req.Text, base)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return tree.Tree{}, nil
	}

	start := r.Index
	end := min(start+len(r.Text), len(req.Text))
	body := req.Text[start:end]
	trimmed := strings.TrimLeft(body, " \t\n")
	start += len(body) - len(trimmed)
	body = strings.TrimSpace(trimmed)

	runeStart := utf8.RuneCountInString(req.Text[:start])
	value := func() tree.Node {
		return tree.Map(
			"type", tree.Kw("value"),
			"value", tree.Str(r.Time.Format(entity.Layout)),
			"grain", tree.Kw("second"),
		)
	}
	v := value()
	v.Fields = append(v.Fields, tree.Field{Key: tree.Kw("values"), Value: tree.List(value())})
	return tree.Tree{tree.Map(
		"dim", tree.Kw("time"),
		"body", tree.Str(body),
		"start", tree.Int(int64(runeStart)),
		"end", tree.Int(int64(runeStart+utf8.RuneCountInString(body))),
		"latent", tree.Bool(false),
		"value", v,
	)}, nil
}

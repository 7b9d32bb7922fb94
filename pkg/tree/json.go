package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// keywordFields hold keyword values in the engine's native output. JSON
// servers print them as plain strings, so FromJSON restores the sigil.
var keywordFields = map[string]bool{
	"dim":   true,
	"grain": true,
	"type":  true,
}

// FromJSON converts the JSON array returned by an engine HTTP server into a
// Tree. Key order follows the document.
func FromJSON(data []byte) (Tree, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("tree: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("tree: expected a JSON array of matches, got %s", root.Type)
	}
	var t Tree
	var err error
	root.ForEach(func(_, match gjson.Result) bool {
		if !match.IsObject() {
			err = fmt.Errorf("tree: match %d is not an object", len(t))
			return false
		}
		dim := match.Get("dim").String()
		t = append(t, fromResult(match, "", dim))
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func fromResult(r gjson.Result, key, dim string) Node {
	switch {
	case r.IsObject():
		n := Node{Kind: KindMap}
		r.ForEach(func(k, v gjson.Result) bool {
			n.Fields = append(n.Fields, Field{Key: Kw(k.String()), Value: fromResult(v, k.String(), dim)})
			return true
		})
		return n
	case r.IsArray():
		n := Node{Kind: KindList}
		r.ForEach(func(_, v gjson.Result) bool {
			n.Items = append(n.Items, fromResult(v, "", dim))
			return true
		})
		return n
	}

	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.True, gjson.False:
		return Node{Kind: KindBoolean, Text: r.Raw}
	case gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE") {
			return Node{Kind: KindFloat, Text: r.Raw}
		}
		return Node{Kind: KindInteger, Text: r.Raw}
	}
	if keywordFields[key] || (key == "unit" && dim == "duration") {
		return Kw(r.Str)
	}
	return Str(r.Str)
}

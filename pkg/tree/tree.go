// Package tree models the annotation tree returned by the extraction engine:
// an ordered, self-describing structure of keyword-keyed maps, lists and
// printed scalars.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type tag of a Node.
type Kind int

const (
	KindNil Kind = iota
	KindMap
	KindList
	KindKeyword
	KindString
	KindInteger
	KindFloat
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindKeyword:
		return "keyword"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sigil prefixes every keyword the engine prints.
const Sigil = ":"

// Node is one element of the tree. Scalars keep the token exactly as the
// engine printed it in Text; keywords include their sigil.
type Node struct {
	Kind   Kind
	Text   string
	Fields []Field
	Items  []Node
}

// Field is one key/value pair of a map node.
type Field struct {
	Key   Node
	Value Node
}

// Tree is the top-level sequence of matches.
type Tree []Node

// Name returns the key text of a field without its keyword sigil.
func (f Field) Name() string {
	if f.Key.Kind == KindKeyword {
		return strings.TrimPrefix(f.Key.Text, Sigil)
	}
	return f.Key.Text
}

// Get returns the value stored under the keyword name in a map node.
func (n Node) Get(name string) (Node, bool) {
	for _, f := range n.Fields {
		if f.Name() == name {
			return f.Value, true
		}
	}
	return Node{}, false
}

// Has reports whether a map node contains the keyword name.
func (n Node) Has(name string) bool {
	_, ok := n.Get(name)
	return ok
}

func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// write prints n in the engine's notation; used for logs and error messages.
func (n Node) write(b *strings.Builder) {
	switch n.Kind {
	case KindNil:
		b.WriteString("nil")
	case KindMap:
		b.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			f.Key.write(b)
			b.WriteByte(' ')
			f.Value.write(b)
		}
		b.WriteByte('}')
	case KindList:
		b.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			item.write(b)
		}
		b.WriteByte(']')
	case KindString:
		b.WriteString(strconv.Quote(n.Text))
	default:
		b.WriteString(n.Text)
	}
}

// Kw builds a keyword node. The sigil is added when missing.
func Kw(name string) Node {
	if !strings.HasPrefix(name, Sigil) {
		name = Sigil + name
	}
	return Node{Kind: KindKeyword, Text: name}
}

// Str builds a string node.
func Str(s string) Node { return Node{Kind: KindString, Text: s} }

// Int builds an integer node.
func Int(v int64) Node { return Node{Kind: KindInteger, Text: strconv.FormatInt(v, 10)} }

// Float builds a float node.
func Float(v float64) Node {
	return Node{Kind: KindFloat, Text: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Bool builds a boolean node.
func Bool(v bool) Node { return Node{Kind: KindBoolean, Text: strconv.FormatBool(v)} }

// Null builds a nil node.
func Null() Node { return Node{Kind: KindNil} }

// List builds a list node.
func List(items ...Node) Node { return Node{Kind: KindList, Items: items} }

// Map builds a map node from alternating keyword names and values.
// It panics on an odd number of arguments or a non-string key.
func Map(kv ...any) Node {
	if len(kv)%2 != 0 {
		panic("tree.Map: odd number of arguments")
	}
	n := Node{Kind: KindMap}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("tree.Map: key %v is not a string", kv[i]))
		}
		n.Fields = append(n.Fields, Field{Key: Kw(key), Value: kv[i+1].(Node)})
	}
	return n
}

// Dim returns the dimension keyword name of a match, without sigil.
func Dim(match Node) string {
	d, ok := match.Get("dim")
	if !ok {
		return ""
	}
	return strings.TrimPrefix(d.Text, Sigil)
}

// Filter keeps the matches whose dimension is in dims. An empty dims keeps
// everything.
func Filter(t Tree, dims []string) Tree {
	if len(dims) == 0 {
		return t
	}
	want := make(map[string]bool, len(dims))
	for _, d := range dims {
		want[d] = true
	}
	out := make(Tree, 0, len(t))
	for _, m := range t {
		if want[Dim(m)] {
			out = append(out, m)
		}
	}
	return out
}

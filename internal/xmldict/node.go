package xmldict

import (
	"strconv"
	"time"
)

// Kind tags the variant a Node holds. Every transform dispatches on the
// tag; nothing probes the payload fields directly.
type Kind int

const (
	KindNil Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindTime
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Node is one tree node: a mapping, a list, or a scalar. Exactly one
// payload field is meaningful, selected by Kind. Nodes are mutated in
// place by the transforms; a tree must not be shared across goroutines
// while it is being transformed.
type Node struct {
	Kind  Kind
	Str   string
	Bool  bool
	Int   int64
	Float float64
	Time  time.Time
	Map   map[string]*Node
	List  []*Node
}

func NewNull() *Node              { return &Node{Kind: KindNil} }
func NewString(s string) *Node    { return &Node{Kind: KindString, Str: s} }
func NewBool(v bool) *Node        { return &Node{Kind: KindBool, Bool: v} }
func NewInt(v int64) *Node        { return &Node{Kind: KindInt, Int: v} }
func NewFloat(v float64) *Node    { return &Node{Kind: KindFloat, Float: v} }
func NewTime(t time.Time) *Node   { return &Node{Kind: KindTime, Time: t} }
func NewList(items ...*Node) *Node {
	return &Node{Kind: KindList, List: items}
}

func NewMap() *Node {
	return &Node{Kind: KindMap, Map: make(map[string]*Node)}
}

// Get returns the child under key, or nil when the node is not a mapping
// or the key is absent. Safe on a nil receiver.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMap {
		return nil
	}
	return n.Map[key]
}

// Text returns the string payload, or "" when the node is not a string
// scalar. Safe on a nil receiver.
func (n *Node) Text() string {
	if n == nil || n.Kind != KindString {
		return ""
	}
	return n.Str
}

// ScalarText renders any scalar for display or matching: strings as-is,
// numbers and booleans in their canonical form, timestamps in the wire
// format. Mappings, lists and the null marker render as "".
func (n *Node) ScalarText() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindString:
		return n.Str
	case KindBool:
		return strconv.FormatBool(n.Bool)
	case KindInt:
		return strconv.FormatInt(n.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	case KindTime:
		return FormatTime(n.Time)
	}
	return ""
}

// IsNull reports whether the node is absent or the null marker.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == KindNil
}

// Len returns the number of entries in a mapping or list, 0 otherwise.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindMap:
		return len(n.Map)
	case KindList:
		return len(n.List)
	}
	return 0
}

package xmldict

import (
	"fmt"
	"strconv"
	"strings"
)

// UnwrapAttrs renames every "@name" mapping key to "name", recursing
// through mapping values and list elements. When both "@name" and "name"
// exist the element value wins and the attribute value is dropped.
// Idempotent; non-mapping nodes are left untouched.
func UnwrapAttrs(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindMap:
		var attrKeys []string
		for k := range n.Map {
			if len(k) > 1 && k[0] == '@' {
				attrKeys = append(attrKeys, k)
			}
		}
		for _, k := range attrKeys {
			bare := k[1:]
			if _, taken := n.Map[bare]; !taken {
				n.Map[bare] = n.Map[k]
			}
			delete(n.Map, k)
		}
		for _, v := range n.Map {
			UnwrapAttrs(v)
		}
	case KindList:
		for _, v := range n.List {
			UnwrapAttrs(v)
		}
	}
}

// RenameText renames the "#text" key of one mapping to newKey,
// overwriting anything already stored there. Not recursive. No-op when
// the node is not a mapping or carries no text entry.
func RenameText(n *Node, newKey string) {
	if n == nil || n.Kind != KindMap {
		return
	}
	if v, ok := n.Map["#text"]; ok {
		n.Map[newKey] = v
		delete(n.Map, "#text")
	}
}

// EnsureList guarantees m[key] is a list: an absent, null or empty-string
// entry becomes an empty list, and any other non-list value is wrapped in
// a one-element list. This repairs the single-occurrence collapse of
// repeatable XML elements. Idempotent.
func EnsureList(n *Node, key string) {
	if n == nil || n.Kind != KindMap {
		return
	}
	v, ok := n.Map[key]
	if !ok || v.IsNull() || (v.Kind == KindString && v.Str == "") {
		n.Map[key] = NewList()
		return
	}
	if v.Kind != KindList {
		n.Map[key] = NewList(v)
	}
}

// EnsureMap guarantees m[key] exists: an absent, null or empty-string
// entry becomes an empty mapping. Present values of any other kind are
// left untouched. Idempotent.
func EnsureMap(n *Node, key string) {
	if n == nil || n.Kind != KindMap {
		return
	}
	v, ok := n.Map[key]
	if !ok || v.IsNull() || (v.Kind == KindString && v.Str == "") {
		n.Map[key] = NewMap()
	}
}

// Coerce converts string scalars in the tree to booleans, integers or
// floats where that is provably lossless. Mapping entries under a key in
// skipKeys are not touched or descended into; list elements are always
// eligible. Strings that fail to parse simply stay strings. A value that
// parses but does not reproduce the original string when formatted back
// is a hard error:
// the heuristic is unsound for that input and silently keeping either
// form would hide corruption.
//
// The numeric ladder is deliberately conservative: only strings
// containing a "." are tried as floats, so exponent forms like "1e3" and
// the words "inf"/"nan" survive as strings.
func Coerce(n *Node, skipKeys ...string) error {
	skip := make(map[string]bool, len(skipKeys))
	for _, k := range skipKeys {
		skip[k] = true
	}
	return coerce(n, skip)
}

func coerce(n *Node, skip map[string]bool) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindString:
		return coerceScalar(n)
	case KindMap:
		for k, v := range n.Map {
			if v == nil || skip[k] {
				continue
			}
			if v.Kind == KindString {
				if err := coerceScalar(v); err != nil {
					return fmt.Errorf("key %q: %w", k, err)
				}
				continue
			}
			if err := coerce(v, skip); err != nil {
				return err
			}
		}
	case KindList:
		for _, v := range n.List {
			if err := coerce(v, skip); err != nil {
				return err
			}
		}
	}
	return nil
}

func coerceScalar(n *Node) error {
	s := n.Str
	if strings.EqualFold(s, "true") {
		n.Kind, n.Str, n.Bool = KindBool, "", true
		return nil
	}
	if strings.EqualFold(s, "false") {
		n.Kind, n.Str, n.Bool = KindBool, "", false
		return nil
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		if got := strconv.FormatFloat(f, 'g', -1, 64); got != s {
			return &CoerceError{Value: s, RoundTrip: got}
		}
		n.Kind, n.Str, n.Float = KindFloat, "", f
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	if got := strconv.FormatInt(i, 10); got != s {
		return &CoerceError{Value: s, RoundTrip: got}
	}
	n.Kind, n.Str, n.Int = KindInt, "", i
	return nil
}

package xmldict

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the tree as plain JSON: mappings as objects, lists
// as arrays (never null, even when empty), the null marker as null, and
// timestamp scalars in the controller wire format. This is the one place
// timestamps are converted for serialization.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	switch n.Kind {
	case KindNil:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(n.Str)
	case KindBool:
		return json.Marshal(n.Bool)
	case KindInt:
		return json.Marshal(n.Int)
	case KindFloat:
		return json.Marshal(n.Float)
	case KindTime:
		return json.Marshal(FormatTime(n.Time))
	case KindMap:
		return json.Marshal(n.Map)
	case KindList:
		if n.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(n.List)
	}
	return nil, fmt.Errorf("xmldict: cannot marshal kind %s", n.Kind)
}

// String renders the tree as compact JSON with sorted keys, for logs and
// error messages.
func (n *Node) String() string {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Sprintf("<unencodable node: %v>", err)
	}
	return string(b)
}

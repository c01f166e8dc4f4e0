package isy

import (
	"isyhub/internal/xmldict"
)

// Inventory is one fresh fetch of the controller's node tree, split into
// device nodes and groups (scenes). Records are canonical trees; nothing
// is cached or merged between fetches.
type Inventory struct {
	Nodes  []*xmldict.Node `json:"nodes"`
	Groups []*xmldict.Node `json:"groups"`
}

// matchesRef reports whether a normalized record answers to ref by its
// name or by its address/id field.
func matchesRef(rec *xmldict.Node, ref string, idFields ...string) bool {
	if rec.Get("name").ScalarText() == ref {
		return true
	}
	for _, f := range idFields {
		if rec.Get(f).ScalarText() == ref {
			return true
		}
	}
	return false
}

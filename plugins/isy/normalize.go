package isy

import (
	"fmt"
	"strings"

	"isyhub/internal/xmldict"
)

// The normalizer rule-sets rewrite one fetched record tree into its
// canonical shape. They are idempotent and tolerate unexpected shapes by
// leaving them alone; only an unsound scalar coercion or an unparseable
// timestamp is an error.

// programTimeFields are parsed into timestamp scalars; absent or empty
// values become the null marker.
var programTimeFields = []string{"lastRunTime", "lastFinishTime", "nextScheduledRunTime"}

// NormalizeNode rewrites one node record: attributes unwrapped, the
// property list guaranteed (a lone property element is wrapped, an
// absent one becomes the empty list) and renamed to "properties", each
// property given its canonical id/name/rawvalue/value fields, and
// scalars coerced. The device address and the preserved raw payload are
// never coerced.
func NormalizeNode(n *xmldict.Node) error {
	xmldict.UnwrapAttrs(n)
	if n == nil || n.Kind != xmldict.KindMap {
		return nil
	}

	if _, done := n.Map["properties"]; !done {
		xmldict.EnsureList(n, "property")
		props := n.Map["property"]
		delete(n.Map, "property")
		n.Map["properties"] = props

		for _, prop := range props.List {
			if prop == nil || prop.Kind != xmldict.KindMap {
				continue
			}
			normalizeProperty(prop)
		}
	}

	if err := xmldict.Coerce(n, "address", "rawvalue"); err != nil {
		return fmt.Errorf("normalize node %q: %w", n.Get("address").Text(), err)
	}
	return nil
}

func normalizeProperty(prop *xmldict.Node) {
	// The controller's "value" field is the raw payload and "formatted"
	// the human-readable one; canonical records call them rawvalue and
	// value.
	if raw, ok := prop.Map["value"]; ok {
		prop.Map["rawvalue"] = raw
		delete(prop.Map, "value")
	} else {
		prop.Map["rawvalue"] = xmldict.NewNull()
	}

	formatted, ok := prop.Map["formatted"]
	delete(prop.Map, "formatted")
	if !ok || formatted.IsNull() {
		formatted = xmldict.NewNull()
	} else if formatted.Kind == xmldict.KindString {
		formatted.Str = strings.TrimSpace(formatted.Str)
		if formatted.Str == "" {
			formatted = xmldict.NewNull()
		}
	}
	prop.Map["value"] = formatted

	if id := prop.Get("id"); id != nil && id.Kind == xmldict.KindString {
		name := strings.TrimSpace(id.Str)
		if name == "ST" {
			name = "State"
		}
		prop.Map["name"] = xmldict.NewString(name)
	}
}

// NormalizeGroup rewrites one group (scene) record: attributes
// unwrapped, the intermediate members/link nesting flattened into a
// plain list of link records, each link carrying an address, and scalars
// coerced with addresses protected.
func NormalizeGroup(g *xmldict.Node) error {
	xmldict.UnwrapAttrs(g)
	if g == nil || g.Kind != xmldict.KindMap {
		return nil
	}

	xmldict.EnsureMap(g, "members")
	if members := g.Map["members"]; members.Kind == xmldict.KindMap {
		xmldict.EnsureList(members, "link")
		g.Map["members"] = members.Map["link"]
	}

	if links := g.Map["members"]; links != nil && links.Kind == xmldict.KindList {
		for i, link := range links.List {
			switch {
			case link == nil:
			case link.Kind == xmldict.KindMap:
				xmldict.RenameText(link, "address")
			case link.Kind == xmldict.KindString:
				// A link with no attributes decodes to its bare text
				// payload; promote it to a proper link record.
				wrapped := xmldict.NewMap()
				wrapped.Map["address"] = link
				links.List[i] = wrapped
			}
		}
	}

	if err := xmldict.Coerce(g, "address"); err != nil {
		return fmt.Errorf("normalize group %q: %w", g.Get("address").Text(), err)
	}
	return nil
}

// NormalizeProgram rewrites one program record: attributes unwrapped,
// scalars coerced with the zero-padded id/parentId identifiers
// protected, and the run timestamps parsed. An unparseable non-empty
// timestamp fails the record.
func NormalizeProgram(p *xmldict.Node) error {
	xmldict.UnwrapAttrs(p)
	if p == nil || p.Kind != xmldict.KindMap {
		return nil
	}

	if err := xmldict.Coerce(p, "id", "parentId"); err != nil {
		return fmt.Errorf("normalize program %q: %w", p.Get("id").Text(), err)
	}

	for _, field := range programTimeFields {
		v, ok := p.Map[field]
		if !ok {
			continue
		}
		switch {
		case v.IsNull():
		case v.Kind == xmldict.KindString:
			if strings.TrimSpace(v.Str) == "" {
				p.Map[field] = xmldict.NewNull()
				continue
			}
			t, err := xmldict.ParseTime(v.Str)
			if err != nil {
				return fmt.Errorf("normalize program %q: %s: %w", p.Get("id").Text(), field, err)
			}
			p.Map[field] = xmldict.NewTime(t)
		}
	}
	return nil
}

// normalizeInventory rewrites the whole nodes document: the folder
// metadata under "root" is dropped, the node and group lists are
// guaranteed even when the controller collapsed them to a single
// element, and every record is normalized.
func normalizeInventory(doc *xmldict.Node) (*Inventory, error) {
	res := doc.Get("nodes")
	if res == nil || res.Kind != xmldict.KindMap {
		return nil, fmt.Errorf("inventory: unexpected document shape %s", doc)
	}
	delete(res.Map, "root")

	xmldict.EnsureList(res, "node")
	xmldict.EnsureList(res, "group")

	inv := &Inventory{
		Nodes:  res.Map["node"].List,
		Groups: res.Map["group"].List,
	}
	if inv.Nodes == nil {
		inv.Nodes = []*xmldict.Node{}
	}
	if inv.Groups == nil {
		inv.Groups = []*xmldict.Node{}
	}

	for _, n := range inv.Nodes {
		if err := NormalizeNode(n); err != nil {
			return nil, err
		}
	}
	for _, g := range inv.Groups {
		if err := NormalizeGroup(g); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// normalizePrograms rewrites the programs document into a normalized
// program list.
func normalizePrograms(doc *xmldict.Node) ([]*xmldict.Node, error) {
	res := doc.Get("programs")
	if res == nil || res.Kind != xmldict.KindMap {
		return nil, fmt.Errorf("programs: unexpected document shape %s", doc)
	}

	xmldict.EnsureList(res, "program")
	programs := res.Map["program"].List
	if programs == nil {
		programs = []*xmldict.Node{}
	}

	for _, p := range programs {
		if err := NormalizeProgram(p); err != nil {
			return nil, err
		}
	}
	return programs, nil
}

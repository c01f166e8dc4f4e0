package xmldict

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decode reads one XML document and returns its tree. The result is a
// mapping with a single key, the root element's name, exactly like the
// dict-style mappers this package follows:
//
//	<nodes><node id="1"/></nodes>  =>  {nodes: {node: {@id: "1"}}}
//
// Repeated sibling elements collapse into a list; a lone occurrence stays
// a bare child (callers repair that with EnsureList). Text-only elements
// become string scalars, empty elements the null marker.
func Decode(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("xmldict: document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("xmldict: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		root, err := decodeElement(dec, start)
		if err != nil {
			return nil, fmt.Errorf("xmldict: %w", err)
		}
		doc := NewMap()
		doc.Map[start.Name.Local] = root
		return doc, nil
	}
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) (*Node, error) {
	return Decode(bytes.NewReader(b))
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	children := make(map[string]*Node)
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			addChild(children, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return finishElement(start, children, text.String()), nil
		}
	}
}

// addChild stores a child under its element name; a second occurrence of
// the same name converts the entry to a list. decodeElement never yields
// a list itself, so an existing list entry is always our own making.
func addChild(children map[string]*Node, name string, child *Node) {
	existing, ok := children[name]
	if !ok {
		children[name] = child
		return
	}
	if existing.Kind == KindList {
		existing.List = append(existing.List, child)
		return
	}
	children[name] = NewList(existing, child)
}

func finishElement(start xml.StartElement, children map[string]*Node, text string) *Node {
	text = strings.TrimSpace(text)
	if len(start.Attr) == 0 && len(children) == 0 {
		if text == "" {
			return NewNull()
		}
		return NewString(text)
	}
	m := NewMap()
	for _, attr := range start.Attr {
		m.Map["@"+attr.Name.Local] = NewString(attr.Value)
	}
	for name, child := range children {
		m.Map[name] = child
	}
	if text != "" {
		m.Map["#text"] = NewString(text)
	}
	return m
}

// Package xmldict parses XML documents into a generic tagged tree and
// provides the shape-normalizing transforms the ISY controller payloads
// need before they are usable: attribute unwrapping, text-node renaming,
// collection repair for the single-element collapse, and conservative
// scalar coercion with a round-trip safety check.
//
// The tree mirrors the conventions of dict-style XML mappers: attributes
// become "@name" keys, text content alongside attributes or children
// becomes "#text", repeated sibling elements become a list, and an empty
// element becomes the null marker.
package xmldict

package schema

import (
	"bytes"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/dtoapi/meta"
)

// NamedSchema is one entry of a Document's ordered property list.
type NamedSchema struct {
	Name   string
	Schema *Schema
}

// Document is the schema of one payload type: an object whose properties
// keep their declared order when marshaled.
type Document struct {
	// Ref is the payload type the document was derived from.
	Ref         meta.TypeRef
	Title       string
	Description string
	Properties  []NamedSchema
	Required    []string
	// Dependencies are the payload types referenced by array items, in
	// property order and without duplicates. They are not marshaled.
	Dependencies []meta.TypeRef
}

// Property returns the fragment of the named property, or nil.
func (d *Document) Property(name string) *Schema {
	for _, p := range d.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// PropertyNames returns the wire names in declared order.
func (d *Document) PropertyNames() []string {
	names := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		names[i] = p.Name
	}
	return names
}

// IsRequired reports whether name is in the required list.
func (d *Document) IsRequired(name string) bool {
	return slices.Contains(d.Required, name)
}

// MarshalJSON writes the document as a JSON object with properties in
// declared order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object"`)
	if d.Title != "" {
		buf.WriteString(`,"title":`)
		if err := writeJSON(&buf, d.Title); err != nil {
			return nil, err
		}
	}
	if d.Description != "" {
		buf.WriteString(`,"description":`)
		if err := writeJSON(&buf, d.Description); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`,"properties":{`)
	for i, p := range d.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(p.Name))
		buf.WriteByte(':')
		if err := writeJSON(&buf, p.Schema); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	if len(d.Required) > 0 {
		buf.WriteString(`,"required":`)
		if err := writeJSON(&buf, d.Required); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds a mapping node with properties in declared order.
func (d *Document) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content, scalarNode("!!str", "type"), scalarNode("!!str", meta.TypeObject))
	if d.Title != "" {
		node.Content = append(node.Content, scalarNode("!!str", "title"), scalarNode("!!str", d.Title))
	}
	if d.Description != "" {
		node.Content = append(node.Content, scalarNode("!!str", "description"), scalarNode("!!str", d.Description))
	}

	props := &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0, 2*len(d.Properties))}
	for _, p := range d.Properties {
		child := &yaml.Node{}
		if err := child.Encode(p.Schema); err != nil {
			return nil, err
		}
		props.Content = append(props.Content, scalarNode("!!str", p.Name), child)
	}
	node.Content = append(node.Content, scalarNode("!!str", "properties"), props)

	if len(d.Required) > 0 {
		req := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(d.Required))}
		for _, name := range d.Required {
			req.Content = append(req.Content, scalarNode("!!str", name))
		}
		node.Content = append(node.Content, scalarNode("!!str", "required"), req)
	}
	return node, nil
}

// writeJSON marshals a value to JSON and writes it to the buffer.
func writeJSON(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// scalarNode creates a yaml.Node for a scalar value.
func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

package estimate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON renders the estimate as the result mapping: one key per section
// in document order, followed by the reserved "total_cost" and "_stats" keys.
// An empty estimate renders as {}.
func (e *Estimate) MarshalJSON() ([]byte, error) {
	if e.IsEmpty() {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range e.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, s.Name, nonNilItems(s.Items)); err != nil {
			return nil, err
		}
	}
	if len(e.Sections) > 0 {
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, KeyTotalCost, e.TotalCost); err != nil {
		return nil, err
	}
	if e.Stats != nil {
		buf.WriteByte(',')
		if err := writeMember(&buf, KeyStats, e.Stats); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", key, err)
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func nonNilItems(items []*WorkItem) []*WorkItem {
	if items == nil {
		return []*WorkItem{}
	}
	for _, w := range items {
		if w.Materials == nil {
			w.Materials = []*Material{}
		}
	}
	return items
}

// UnmarshalJSON reads a result mapping produced by MarshalJSON, preserving the
// section order of the document.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	*e = *New()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read estimate: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("read estimate: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read estimate key: %w", err)
		}
		key, _ := tok.(string)

		switch key {
		case KeyTotalCost:
			if err := dec.Decode(&e.TotalCost); err != nil {
				return fmt.Errorf("decode %s: %w", KeyTotalCost, err)
			}
		case KeyStats:
			var st Stats
			if err := dec.Decode(&st); err != nil {
				return fmt.Errorf("decode %s: %w", KeyStats, err)
			}
			e.Stats = &st
		default:
			var items []*WorkItem
			if err := dec.Decode(&items); err != nil {
				return fmt.Errorf("decode section %q: %w", key, err)
			}
			s := e.EnsureSection(key)
			s.Items = append(s.Items, items...)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read estimate: %w", err)
	}
	return nil
}

// MarshalYAML renders the same ordered mapping as MarshalJSON.
func (e *Estimate) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if e.IsEmpty() {
		return node, nil
	}

	add := func(key string, value any) error {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&v,
		)
		return nil
	}

	for _, s := range e.Sections {
		if err := add(s.Name, nonNilItems(s.Items)); err != nil {
			return nil, err
		}
	}
	if err := add(KeyTotalCost, e.TotalCost); err != nil {
		return nil, err
	}
	if e.Stats != nil {
		if err := add(KeyStats, e.Stats); err != nil {
			return nil, err
		}
	}
	return node, nil
}

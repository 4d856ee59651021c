package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes a Branch as an object with digit keys for children
// and "_"-prefixed keys for channels. Keys come out sorted, so equal trees
// encode to identical bytes.
func (b *Branch) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	obj := make(map[string]any, len(b.Channels)+10)
	for k, v := range b.Channels {
		obj[k] = v
	}
	for d, c := range b.Children {
		if c != nil {
			obj[string(rune('0'+d))] = c
		}
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes the object form written by MarshalJSON. Keys that
// are neither a single digit nor "_"-prefixed are rejected. Empty child
// objects are dropped rather than kept as empty branches.
func (b *Branch) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("tree: decode branch: %w", err)
	}
	*b = Branch{}
	for k, raw := range obj {
		switch {
		case len(k) == 1 && k[0] >= '0' && k[0] <= '9':
			n, err := decodeNode(raw)
			if err != nil {
				return fmt.Errorf("tree: key %q: %w", k, err)
			}
			b.Children[k[0]-'0'] = n
		case len(k) > 0 && k[0] == '_':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("tree: channel %q: %w", k, err)
			}
			b.setChannel(k, s)
		default:
			return fmt.Errorf("tree: unexpected key %q", k)
		}
	}
	return nil
}

func decodeNode(raw json.RawMessage) (Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Leaf(s), nil
	case '{':
		b := &Branch{}
		if err := b.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		if b.Empty() {
			return nil, nil
		}
		return b, nil
	}
	return nil, fmt.Errorf("node must be a string or an object")
}

// DecodeNode parses a JSON node: a string becomes a Leaf, an object a
// Branch. Empty objects decode to nil.
func DecodeNode(data []byte) (Node, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}
	return n, nil
}

// UnmarshalJSON decodes a persisted tree record. A missing tree decodes to
// an empty root.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var rec struct {
		Place int     `json:"place"`
		Root  *Branch `json:"tree"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	t.Place = rec.Place
	t.Root = rec.Root
	if t.Root == nil {
		t.Root = &Branch{}
	}
	return nil
}

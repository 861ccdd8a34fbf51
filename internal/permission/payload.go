package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// Kind tags the shape a permission payload was stored in.
type Kind uint8

const (
	KindUnrecognized Kind = iota
	KindWildcard
	KindLegacyList
	KindMatrix
)

func (k Kind) String() string {
	switch k {
	case KindWildcard:
		return "wildcard"
	case KindLegacyList:
		return "legacy_list"
	case KindMatrix:
		return "matrix"
	}
	return "unrecognized"
}

// Payload is a stored role permission value as found in the database or a
// request body. The shape is decided once when the payload is built;
// Matrix resolves it to the canonical form.
type Payload struct {
	kind    Kind
	tokens  []any
	entries map[string]any
	raw     []byte
}

// Wildcard returns the "*" payload.
func Wildcard() Payload {
	return Payload{kind: KindWildcard}
}

// LegacyList returns a flat permission list payload.
func LegacyList(tokens ...string) Payload {
	items := make([]any, len(tokens))
	for i, t := range tokens {
		items[i] = t
	}
	return Payload{kind: KindLegacyList, tokens: items}
}

// MatrixPayload wraps an already normalized matrix.
func MatrixPayload(m Matrix) Payload {
	entries := make(map[string]any, toolCount)
	for i, t := range Tools {
		entries[string(t)] = m.cells[i]
	}
	return Payload{kind: KindMatrix, entries: entries}
}

// Parse decodes a JSON payload. Invalid JSON is unrecognized.
func Parse(data []byte) Payload {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Payload{}
	}
	p := FromValue(v)
	p.raw = copyBytes(data)
	return p
}

// FromValue classifies a Go value as a payload.
func FromValue(v any) Payload {
	switch val := v.(type) {
	case nil:
		return Payload{}
	case Payload:
		return val
	case *Payload:
		if val == nil {
			return Payload{}
		}
		return *val
	case Matrix:
		return MatrixPayload(val)
	case string:
		if val == "*" {
			return Wildcard()
		}
		return Payload{}
	case []string:
		return LegacyList(val...)
	case []any:
		return Payload{kind: KindLegacyList, tokens: val}
	case map[string]any:
		return Payload{kind: KindMatrix, entries: val}
	case map[string]bool:
		entries := make(map[string]any, len(val))
		for k, b := range val {
			entries[k] = b
		}
		return Payload{kind: KindMatrix, entries: entries}
	case map[string]Entry:
		entries := make(map[string]any, len(val))
		for k, e := range val {
			entries[k] = e
		}
		return Payload{kind: KindMatrix, entries: entries}
	case map[Tool]Entry:
		entries := make(map[string]any, len(val))
		for k, e := range val {
			entries[string(k)] = e
		}
		return Payload{kind: KindMatrix, entries: entries}
	case json.RawMessage:
		return Parse(val)
	case []byte:
		return Parse(val)
	}
	return Payload{}
}

// Kind reports the payload shape.
func (p Payload) Kind() Kind {
	return p.kind
}

// Matrix resolves the payload to its canonical matrix.
func (p Payload) Matrix() Matrix {
	switch p.kind {
	case KindWildcard:
		return Full()
	case KindLegacyList:
		return legacyMatrix(p.tokens)
	case KindMatrix:
		return shapeMatrix(p.entries)
	}
	return Empty()
}

func shapeMatrix(entries map[string]any) Matrix {
	var m Matrix
	for i, t := range Tools {
		v, ok := entries[string(t)]
		if !ok {
			continue
		}
		m.cells[i] = normalizeEntry(v)
	}
	return m
}

func normalizeEntry(v any) Entry {
	switch e := v.(type) {
	case bool:
		return Entry{View: e, Edit: e}
	case Entry:
		return Entry{View: e.View || e.Edit, Edit: e.Edit}
	case map[string]any:
		view := truthy(e["view"])
		edit := truthy(e["edit"])
		return Entry{View: view || edit, Edit: edit}
	}
	return Entry{}
}

// truthy follows JSON value truthiness: false, null, 0, NaN and "" are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	switch p.kind {
	case KindWildcard:
		return json.Marshal("*")
	case KindLegacyList:
		if p.tokens == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.tokens)
	case KindMatrix:
		return json.Marshal(p.entries)
	}
	return []byte("[]"), nil
}

// UnmarshalJSON classifies the raw value. Unknown shapes become
// Unrecognized, never an error.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Parse(data)
	return nil
}

// Scan reads a JSON column value.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Payload{}
	case []byte:
		*p = Parse(v)
	case string:
		*p = Parse([]byte(v))
	default:
		return fmt.Errorf("permission: cannot scan %T into Payload", src)
	}
	return nil
}

// Value stores the payload as JSON text.
func (p Payload) Value() (driver.Value, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package permission

import (
	"encoding/json"
)

// Tool identifies a capability area of the admin console.
type Tool string

const (
	ToolMappingZoning          Tool = "mapping_zoning"
	ToolLegislation            Tool = "legislation"
	ToolOrganizationManagement Tool = "organization_management"
	ToolDataManagement         Tool = "data_management"
	ToolAccounting             Tool = "accounting"
	ToolApprovals              Tool = "approvals"
)

const toolCount = 6

// Tools lists every tool in matrix order.
var Tools = [toolCount]Tool{
	ToolMappingZoning,
	ToolLegislation,
	ToolOrganizationManagement,
	ToolDataManagement,
	ToolAccounting,
	ToolApprovals,
}

// Action is the capability level requested on a tool.
type Action string

const (
	ActionView Action = "view"
	ActionEdit Action = "edit"
)

func toolIndex(t Tool) int {
	switch t {
	case ToolMappingZoning:
		return 0
	case ToolLegislation:
		return 1
	case ToolOrganizationManagement:
		return 2
	case ToolDataManagement:
		return 3
	case ToolAccounting:
		return 4
	case ToolApprovals:
		return 5
	}
	return -1
}

// ParseTool returns the tool named by s, or false when s is not a known tool.
func ParseTool(s string) (Tool, bool) {
	t := Tool(s)
	return t, toolIndex(t) >= 0
}

// ParseAction returns the action named by s, or false when s is not view or edit.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionView, ActionEdit:
		return a, true
	}
	return "", false
}

// Entry holds the two capability bits for one tool.
type Entry struct {
	View bool `json:"view"`
	Edit bool `json:"edit"`
}

// Matrix is a total mapping from every tool to an Entry. The zero value
// denies everything. Matrix is a value type; copies never share state.
type Matrix struct {
	cells [toolCount]Entry
}

// Empty returns the all-false matrix.
func Empty() Matrix {
	return Matrix{}
}

// Full returns the all-true matrix.
func Full() Matrix {
	var m Matrix
	for i := range m.cells {
		m.cells[i] = Entry{View: true, Edit: true}
	}
	return m
}

// Entry returns the cell for t. Unknown tools report an all-false entry.
func (m Matrix) Entry(t Tool) Entry {
	i := toolIndex(t)
	if i < 0 {
		return Entry{}
	}
	return m.cells[i]
}

// With returns a copy of m with the cell for t replaced.
func (m Matrix) With(t Tool, e Entry) Matrix {
	if i := toolIndex(t); i >= 0 {
		m.cells[i] = e
	}
	return m
}

// Allows reports whether m grants action on tool.
func (m Matrix) Allows(tool Tool, action Action) bool {
	return HasPermission(m, tool, action)
}

// IsEmpty reports whether m grants nothing at all.
func (m Matrix) IsEmpty() bool {
	return m == Matrix{}
}

// Map returns the matrix keyed by tool.
func (m Matrix) Map() map[Tool]Entry {
	out := make(map[Tool]Entry, toolCount)
	for i, t := range Tools {
		out[t] = m.cells[i]
	}
	return out
}

func (m Matrix) union(o Matrix) Matrix {
	for i := range m.cells {
		m.cells[i].View = m.cells[i].View || o.cells[i].View
		m.cells[i].Edit = m.cells[i].Edit || o.cells[i].Edit
	}
	return m
}

// MarshalJSON writes every tool as {view, edit}.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// UnmarshalJSON accepts any payload shape and normalizes it. Malformed
// input yields the empty matrix rather than an error.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	*m = Parse(data).Matrix()
	return nil
}

// Normalize converts any permission payload into a matrix. It never fails:
// unrecognized input denies everything.
func Normalize(input any) Matrix {
	if m, ok := input.(Matrix); ok {
		return m
	}
	return FromValue(input).Matrix()
}

// Merge normalizes each input and ORs the results cell by cell. With no
// inputs it returns the empty matrix.
func Merge(inputs ...any) Matrix {
	var out Matrix
	for _, in := range inputs {
		out = out.union(Normalize(in))
	}
	return out
}

// HasPermission fails closed on unknown tools and actions. Edit implies view.
func HasPermission(m Matrix, tool Tool, action Action) bool {
	i := toolIndex(tool)
	if i < 0 {
		return false
	}
	e := m.cells[i]
	switch action {
	case ActionView:
		return e.View || e.Edit
	case ActionEdit:
		return e.Edit
	}
	return false
}

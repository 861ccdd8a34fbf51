package permission

import "strings"

type legacyGrant struct {
	tool Tool
	edit bool
}

// legacyTokens maps the flat permission strings carried by system roles
// onto matrix cells. A token always grants view; edit tokens also grant edit.
var legacyTokens = map[string]legacyGrant{
	"mapping.read": {ToolMappingZoning, false},
	"mapping.edit": {ToolMappingZoning, true},

	"legislation.read":    {ToolLegislation, false},
	"legislation.create":  {ToolLegislation, true},
	"legislation.update":  {ToolLegislation, true},
	"legislation.delete":  {ToolLegislation, true},
	"legislation.approve": {ToolLegislation, true},

	"workflow.read":   {ToolLegislation, false},
	"workflow.create": {ToolLegislation, true},
	"workflow.update": {ToolLegislation, true},
	"workflow.delete": {ToolLegislation, true},

	"org.manage":      {ToolOrganizationManagement, true},
	"members.read":    {ToolOrganizationManagement, false},
	"members.manage":  {ToolOrganizationManagement, true},
	"settings.manage": {ToolOrganizationManagement, true},

	"approvals.read":  {ToolApprovals, false},
	"approvals.edit":  {ToolApprovals, true},
	"accounting.read": {ToolAccounting, false},
	"accounting.edit": {ToolAccounting, true},
	"data.read":       {ToolDataManagement, false},
	"data.edit":       {ToolDataManagement, true},
}

// sentinels grant the full matrix when present verbatim in a legacy list.
var sentinels = map[string]struct{}{
	"*":            {},
	"system.admin": {},
	"admin":        {},
}

// LegacyTokens returns the recognized legacy permission strings.
func LegacyTokens() []string {
	out := make([]string, 0, len(legacyTokens))
	for token := range legacyTokens {
		out = append(out, token)
	}
	return out
}

func legacyMatrix(tokens []any) Matrix {
	for _, tok := range tokens {
		if s, ok := tok.(string); ok {
			if _, hit := sentinels[s]; hit {
				return Full()
			}
		}
	}

	var m Matrix
	for _, tok := range tokens {
		s, ok := tok.(string)
		if !ok {
			continue
		}
		grant, known := legacyTokens[strings.TrimSpace(s)]
		if !known {
			continue
		}
		i := toolIndex(grant.tool)
		m.cells[i].View = true
		if grant.edit {
			m.cells[i].Edit = true
		}
	}
	return m
}

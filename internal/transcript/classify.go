package transcript

import "strings"

// Category says how a record is presented: primary turns stand alone, every
// other category is folded with its neighbours.
type Category string

const (
	CategoryPrimary  Category = "primary"
	CategoryTool     Category = "tool"
	CategoryMCP      Category = "mcp"
	CategorySkill    Category = "skill"
	CategorySubagent Category = "subagent"
	CategorySystem   Category = "system"
	CategoryOther    Category = "other"
)

func (c Category) Secondary() bool { return c != CategoryPrimary }

// GroupKey identifies the run of secondary records r may be folded into.
// Consecutive records fold together only when their keys are equal.
func (r Record) GroupKey() string {
	switch r.Category {
	case CategoryPrimary:
		return ""
	case CategorySubagent:
		if r.AgentID != "" {
			return "subagent:agent:" + strings.ToLower(r.AgentID)
		}
		return "subagent:" + strings.ToLower(r.CallName)
	case CategoryTool, CategoryMCP, CategorySkill:
		return string(r.Category) + ":" + strings.ToLower(r.CallName)
	}
	return string(r.Category)
}

var toolPayloadKeys = []string{
	"toolUseResult", "sourceToolAssistantUUID", "parentToolUseID",
	"toolUseID", "tool_name", "tool",
}

func classify(fields object, rec *Record) {
	rec.AgentID = fields.firstString("agentId")
	rec.CallName = callName(fields, rec.Content)

	subagent := rec.AgentID != "" || fields.flag("isSidechain")
	tool := hasToolPayload(fields, rec.Content)
	text := strings.ToLower(recordText(rec.Content))
	command := strings.Contains(text, "<command-name>/skill") ||
		strings.Contains(text, "<command-message>skill")
	turn := rec.Role == RoleUser || rec.Role == RoleAssistant

	if turn && !subagent && !tool && !command {
		rec.Category = CategoryPrimary
		return
	}

	name := strings.ToLower(rec.CallName)
	raw := strings.ToLower(rec.Raw)
	switch {
	case subagent:
		rec.Category = CategorySubagent
	case rec.Role == RoleSystem:
		rec.Category = CategorySystem
	case strings.Contains(name, "skill") || strings.Contains(text, "/skill"):
		rec.Category = CategorySkill
	case strings.Contains(name, "mcp") || strings.Contains(raw, "mcp"):
		rec.Category = CategoryMCP
	case tool:
		rec.Category = CategoryTool
	case strings.Contains(raw, "subagent"):
		rec.Category = CategorySubagent
	default:
		rec.Category = CategoryOther
	}
}

func hasToolPayload(fields object, content []Block) bool {
	for _, k := range toolPayloadKeys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	for _, b := range content {
		if k := b.Kind(); k == KindToolCall || k == KindToolResult {
			return true
		}
	}
	return false
}

// callName prefers an explicit tool field, then the first call in content.
// Results carry their call id here; the pairer swaps in the call's name.
func callName(fields object, content []Block) string {
	if s := strings.TrimSpace(fields.firstString("tool_name", "tool", "name")); s != "" {
		return s
	}
	for _, b := range content {
		switch blk := b.(type) {
		case ToolCall:
			if blk.Name != "" {
				return blk.Name
			}
		case ToolResult:
			if blk.CallID != "" {
				return blk.CallID
			}
		}
	}
	return ""
}

func recordText(content []Block) string {
	var sb strings.Builder
	for _, b := range content {
		if t, ok := b.(Text); ok {
			sb.WriteString(t.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

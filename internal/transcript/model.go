package transcript

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type BlockKind string

const (
	KindText       BlockKind = "text"
	KindToolCall   BlockKind = "tool_call"
	KindToolResult BlockKind = "tool_result"
	KindUnknown    BlockKind = "unknown"
)

// Block is one unit of a record's payload. The set of implementations is
// closed: Text, ToolCall, ToolResult and Unknown.
type Block interface {
	Kind() BlockKind
}

// Ref addresses a block inside a Transcript.
type Ref struct {
	Record int
	Block  int
}

type Text struct {
	Text     string
	Thinking bool // model reasoning rather than visible output
}

type ToolCall struct {
	ID     string
	Name   string
	Input  json.RawMessage
	Result *Ref // matched result, nil if none arrived
}

type ToolResult struct {
	CallID  string
	Output  json.RawMessage
	IsError bool
	Call    *Ref // matched call, nil when detached
}

// Detached reports whether no earlier call carried this result's id.
func (r ToolResult) Detached() bool { return r.Call == nil }

// Unknown keeps a content entry whose shape is not understood, byte for byte.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (Text) Kind() BlockKind       { return KindText }
func (ToolCall) Kind() BlockKind   { return KindToolCall }
func (ToolResult) Kind() BlockKind { return KindToolResult }
func (Unknown) Kind() BlockKind    { return KindUnknown }

type Record struct {
	Line      int    // 1-based line in the source file
	Role      Role
	Kind      string // declared type, e.g. "user", "summary", "progress"
	Category  Category
	CallName  string // tool or skill that produced the record, if any
	AgentID   string // subagent the record belongs to
	Timestamp *time.Time
	Content   []Block
	Raw       string
}

// ParseWarning describes one source line that could not be decoded.
type ParseWarning struct {
	Line   int
	Raw    string
	Reason string
}

func (w ParseWarning) Error() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

type Transcript struct {
	SourcePath  string
	Records     []Record
	ParseErrors []ParseWarning
}

// Block returns the block at ref, or nil if ref is out of range.
func (t *Transcript) Block(ref Ref) Block {
	if ref.Record < 0 || ref.Record >= len(t.Records) {
		return nil
	}
	content := t.Records[ref.Record].Content
	if ref.Block < 0 || ref.Block >= len(content) {
		return nil
	}
	return content[ref.Block]
}

// FirstTimestamp returns the earliest record timestamp in file order.
func (t *Transcript) FirstTimestamp() (time.Time, bool) {
	for _, r := range t.Records {
		if r.Timestamp != nil {
			return *r.Timestamp, true
		}
	}
	return time.Time{}, false
}

// ToolCallCount counts ToolCall blocks across all records.
func (t *Transcript) ToolCallCount() int {
	n := 0
	for _, r := range t.Records {
		for _, b := range r.Content {
			if b.Kind() == KindToolCall {
				n++
			}
		}
	}
	return n
}

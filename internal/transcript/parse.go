package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Parse decodes the raw contents of one session file. It never fails: lines
// that cannot be decoded are collected in ParseErrors and the remaining lines
// still produce records.
func Parse(sourcePath string, raw []byte) *Transcript {
	t := &Transcript{SourcePath: sourcePath}
	p := pairer{pending: make(map[string][]Ref)}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), max(len(raw)+1, maxLineSize))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := decodeRecord(lineNum, line)
		if err != nil {
			t.ParseErrors = append(t.ParseErrors, ParseWarning{
				Line:   lineNum,
				Raw:    line,
				Reason: err.Error(),
			})
			continue
		}

		t.Records = append(t.Records, rec)
		p.link(t, len(t.Records)-1)
	}

	return t
}

type object map[string]json.RawMessage

func decodeRecord(lineNum int, line string) (Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed[0] != '{' {
		return Record{}, errors.New("not a JSON object")
	}

	var fields object
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Record{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var msg object
	message := fields["message"]
	if firstByte(message) == '{' {
		if err := json.Unmarshal(message, &msg); err != nil {
			msg = nil
		}
	}

	declared := fields.firstString("role", "type", "event")
	msgRole := msg.firstString("role")

	rec := Record{
		Line:    lineNum,
		Kind:    declared,
		Content: recordContent(fields, msg, message),
		Raw:     line,
	}
	if rec.Kind == "" {
		rec.Kind = msgRole
	}

	if role, ok := mapRole(declared); ok {
		rec.Role = role
	} else if role, ok := mapRole(msgRole); ok {
		rec.Role = role
	} else {
		// summary, progress, snapshots and other bookkeeping events
		rec.Role = RoleSystem
	}

	if ts, ok := recordTimestamp(fields, msg); ok {
		rec.Timestamp = &ts
	}
	classify(fields, &rec)

	return rec, nil
}

func mapRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, true
	case "assistant", "model":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	case "tool", "tool_use", "tool_result", "function":
		return RoleTool, true
	}
	return "", false
}

func recordContent(fields, msg object, message json.RawMessage) []Block {
	var candidates []json.RawMessage
	if msg != nil {
		candidates = append(candidates, msg["content"], msg["text"])
	} else if firstByte(message) == '"' {
		candidates = append(candidates, message)
	}
	candidates = append(candidates, fields["content"], fields["text"], fields["summary"])

	for _, c := range candidates {
		if len(c) == 0 || isNull(c) {
			continue
		}
		return decodeContent(c)
	}
	return nil
}

func decodeContent(raw json.RawMessage) []Block {
	switch firstByte(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		return []Block{Text{Text: s}}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []Block{Unknown{Raw: raw}}
		}
		blocks := make([]Block, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, decodeBlock(item))
		}
		return blocks
	case '{':
		return []Block{decodeBlock(raw)}
	default:
		return []Block{Unknown{Raw: raw}}
	}
}

// decodeBlock never drops an entry: anything it cannot read becomes Unknown.
func decodeBlock(raw json.RawMessage) Block {
	switch firstByte(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Unknown{Raw: raw}
		}
		return Text{Text: s}
	case '{':
	case 'n':
		return Unknown{Type: "null", Raw: raw}
	default:
		return Unknown{Raw: raw}
	}

	var f object
	if err := json.Unmarshal(raw, &f); err != nil {
		return Unknown{Raw: raw}
	}
	typ := f.firstString("type")

	switch strings.ToLower(typ) {
	case "text", "input_text", "output_text":
		if s, ok := f.str("text"); ok {
			return Text{Text: s}
		}
	case "thinking":
		if s, ok := f.str("thinking"); ok {
			return Text{Text: s, Thinking: true}
		}
		if s, ok := f.str("text"); ok {
			return Text{Text: s, Thinking: true}
		}
	case "tool_use", "server_tool_use", "function_call":
		return ToolCall{
			ID:    f.firstString("id", "call_id"),
			Name:  f.firstString("name"),
			Input: f.first("input", "arguments"),
		}
	case "tool_result", "function_call_output":
		return ToolResult{
			CallID:  f.firstString("tool_use_id", "call_id"),
			Output:  f.first("content", "output"),
			IsError: f.flag("is_error"),
		}
	}

	return Unknown{Type: typ, Raw: raw}
}

// pairer links tool results to calls in one forward pass. Calls sharing an id
// are queued and consumed oldest first.
type pairer struct {
	pending map[string][]Ref
}

func (p *pairer) link(t *Transcript, ri int) {
	content := t.Records[ri].Content
	for bi, b := range content {
		ref := Ref{Record: ri, Block: bi}
		switch blk := b.(type) {
		case ToolCall:
			if blk.ID != "" {
				p.pending[blk.ID] = append(p.pending[blk.ID], ref)
			}
		case ToolResult:
			queue := p.pending[blk.CallID]
			if blk.CallID == "" || len(queue) == 0 {
				continue
			}
			callRef := queue[0]
			p.pending[blk.CallID] = queue[1:]

			blk.Call = &callRef
			content[bi] = blk

			target := t.Records[callRef.Record].Content
			call := target[callRef.Block].(ToolCall)
			call.Result = &ref
			target[callRef.Block] = call

			if rec := &t.Records[ri]; rec.CallName == blk.CallID && call.Name != "" {
				rec.CallName = call.Name
			}
		}
	}
}

func recordTimestamp(fields, msg object) (time.Time, bool) {
	for _, key := range []string{"timestamp", "created_at", "createdAt", "time"} {
		if ts, ok := timestampValue(fields[key]); ok {
			return ts, true
		}
	}
	return timestampValue(msg["timestamp"])
}

func timestampValue(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	if firstByte(raw) == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return ParseTimestamp(s)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}

// ParseTimestamp accepts RFC3339 with or without fractional seconds and
// naive ISO 8601 date-times.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (o object) str(key string) (string, bool) {
	raw, ok := o[key]
	if !ok || firstByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o object) firstString(keys ...string) string {
	for _, k := range keys {
		if s, ok := o.str(k); ok && s != "" {
			return s
		}
	}
	return ""
}

func (o object) first(keys ...string) json.RawMessage {
	for _, k := range keys {
		if raw, ok := o[k]; ok && !isNull(raw) {
			return raw
		}
	}
	return nil
}

func (o object) flag(key string) bool {
	var b bool
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

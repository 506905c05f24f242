package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zuo-Peng/ai-session-export/internal/transcript"
)

// Text longer than either limit is clamped behind an expander.
const (
	clampChars = 900
	clampLines = 20
)

const DefaultTitle = "Claude Code Conversations"

//go:embed assets/page.html.tmpl
var assets embed.FS

var pageTmpl = template.Must(template.ParseFS(assets, "assets/page.html.tmpl"))

type Options struct {
	Title     string
	Source    string    // shown in the page header
	BaseDir   string    // section labels are made relative to it when possible
	Generated time.Time // omitted when zero
}

// RenderError wraps a template execution failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render html: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// Render produces one self-contained HTML document with a section per
// transcript, in the order given. It does no I/O.
func Render(transcripts []*transcript.Transcript, opts Options) (string, error) {
	p := page{
		Title:  opts.Title,
		Source: opts.Source,
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if !opts.Generated.IsZero() {
		p.Generated = formatTime(opts.Generated)
	}

	for i, t := range transcripts {
		p.Sessions = append(p.Sessions, buildSession(i+1, t, opts.BaseDir))
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		return "", &RenderError{Err: err}
	}
	return buf.String(), nil
}

type page struct {
	Title     string
	Source    string
	Generated string
	Sessions  []session
}

type session struct {
	ID          string
	Label       string
	Started     string
	Messages    int
	ToolCalls   int
	Rows        []row
	Diagnostics []transcript.ParseWarning
}

// row holds either a standalone turn or a folded run of secondary records.
type row struct {
	Item  *item
	Group *group
}

type group struct {
	Category string
	Label    string // category in capitals, e.g. "TOOL"
	Calls    string // distinct call names, at most maxGroupCalls of them
	Items    []item

	key   string
	names []string
}

const maxGroupCalls = 3

type item struct {
	Role      string
	RoleLabel string
	Kind      string // shown when it differs from the role
	Time      string
	Line      int
	Blocks    []block
	Raw       string // set when the record has nothing to show
}

type block struct {
	Kind string // text, thinking, call, result, unknown

	Text text

	// call
	Name   string
	Input  text
	Result *result

	// detached result
	Output   text
	IsError  bool
	CallID   string
	Detached bool

	// unknown
	Type string
	Raw  string
}

type result struct {
	Output  text
	IsError bool
}

type text struct {
	Body string
	Long bool
}

func buildSession(n int, t *transcript.Transcript, baseDir string) session {
	s := session{
		ID:          fmt.Sprintf("session-%d", n),
		Label:       label(t.SourcePath, baseDir),
		Messages:    len(t.Records),
		ToolCalls:   t.ToolCallCount(),
		Diagnostics: t.ParseErrors,
	}
	if ts, ok := t.FirstTimestamp(); ok {
		s.Started = formatTime(ts)
	}

	var open *group
	for _, rec := range t.Records {
		it, ok := buildItem(t, rec)
		if !ok {
			continue
		}
		if !rec.Category.Secondary() {
			open = nil
			s.Rows = append(s.Rows, row{Item: &it})
			continue
		}
		if key := rec.GroupKey(); open == nil || open.key != key {
			open = &group{
				Category: string(rec.Category),
				Label:    strings.ToUpper(string(rec.Category)),
				key:      key,
			}
			s.Rows = append(s.Rows, row{Group: open})
		}
		open.add(it, rec.CallName)
	}
	return s
}

// buildItem reports false for a record holding only results that are
// already shown under their calls.
func buildItem(t *transcript.Transcript, rec transcript.Record) (item, bool) {
	it := item{
		Role:      string(rec.Role),
		RoleLabel: roleLabel(rec.Role),
		Line:      rec.Line,
	}
	if rec.Kind != "" && !strings.EqualFold(rec.Kind, string(rec.Role)) {
		it.Kind = rec.Kind
	}
	if rec.Timestamp != nil {
		it.Time = formatTime(*rec.Timestamp)
	}

	if len(rec.Content) == 0 {
		it.Raw = rec.Raw
		return it, true
	}
	for _, b := range rec.Content {
		if v, ok := buildBlock(t, b); ok {
			it.Blocks = append(it.Blocks, v)
		}
	}
	return it, len(it.Blocks) > 0
}

func (g *group) add(it item, callName string) {
	g.Items = append(g.Items, it)
	if callName == "" || slices.Contains(g.names, callName) {
		return
	}
	g.names = append(g.names, callName)
	g.Calls = strings.Join(g.names[:min(len(g.names), maxGroupCalls)], ", ")
	if len(g.names) > maxGroupCalls {
		g.Calls += ", ..."
	}
}

func buildBlock(t *transcript.Transcript, b transcript.Block) (block, bool) {
	switch v := b.(type) {
	case transcript.Text:
		kind := "text"
		if v.Thinking {
			kind = "thinking"
		}
		return block{Kind: kind, Text: clamp(v.Text)}, true

	case transcript.ToolCall:
		out := block{Kind: "call", Name: v.Name, Input: clamp(prettyJSON(v.Input))}
		if out.Name == "" {
			out.Name = "(unnamed tool)"
		}
		if v.Result != nil {
			if res, ok := t.Block(*v.Result).(transcript.ToolResult); ok {
				out.Result = &result{Output: clamp(outputText(res.Output)), IsError: res.IsError}
			}
		}
		return out, true

	case transcript.ToolResult:
		if !v.Detached() {
			return block{}, false
		}
		return block{
			Kind:     "result",
			Output:   clamp(outputText(v.Output)),
			IsError:  v.IsError,
			CallID:   v.CallID,
			Detached: true,
		}, true

	case transcript.Unknown:
		typ := v.Type
		if typ == "" {
			typ = "unrecognized"
		}
		return block{Kind: "unknown", Type: typ, Raw: prettyJSON(v.Raw)}, true
	}
	return block{}, false
}

func clamp(s string) text {
	return text{
		Body: s,
		Long: utf8.RuneCountInString(s) > clampChars || strings.Count(s, "\n")+1 > clampLines,
	}
}

// outputText flattens tool output: a string is used as is, a list of text
// parts is joined, anything else is shown as indented JSON.
func outputText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var texts []string
		for _, p := range parts {
			if p.Type != "text" {
				return prettyJSON(raw)
			}
			texts = append(texts, p.Text)
		}
		return strings.Join(texts, "\n")
	}
	return prettyJSON(raw)
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func roleLabel(r transcript.Role) string {
	s := string(r)
	if s == "" {
		return "System"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func label(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

package catalog

import (
	"bufio"
	"bytes"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Zuo-Peng/ai-session-export/internal/transcript"
)

const maxSummaryRunes = 80

const noUserMessage = "(no user message)"

// Meta is the lightweight description of a session file gathered without a
// full transcript parse.
type Meta struct {
	Summary   string
	TurnCount int
	Lines     int
	FirstAt   time.Time
	LastAt    time.Time
}

// Peek scans raw session contents field by field. Lines that are not valid
// JSON objects still count towards Lines.
func Peek(raw []byte) Meta {
	var m Meta
	var summaryRecord string

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), max(len(raw)+1, 64*1024))

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		m.Lines++

		if !gjson.ValidBytes(line) {
			continue
		}
		rec := gjson.ParseBytes(line)
		if !rec.IsObject() {
			continue
		}

		if ts, ok := transcript.ParseTimestamp(rec.Get("timestamp").String()); ok {
			if m.FirstAt.IsZero() {
				m.FirstAt = ts
			}
			m.LastAt = ts
		}

		role := firstNonEmpty(rec.Get("role").String(), rec.Get("type").String(), rec.Get("message.role").String())
		switch strings.ToLower(role) {
		case "summary":
			if summaryRecord == "" {
				summaryRecord = rec.Get("summary").String()
			}
		case "user", "human":
			m.TurnCount++
			if m.Summary == "" && !rec.Get("isMeta").Bool() {
				m.Summary = shorten(userText(rec))
			}
		case "assistant":
			m.TurnCount++
		}
	}

	// prefer first user message, fallback to summary record
	if m.Summary == "" {
		m.Summary = shorten(summaryRecord)
	}
	if m.Summary == "" {
		m.Summary = noUserMessage
	}
	return m
}

func userText(rec gjson.Result) string {
	content := rec.Get("message.content")
	if !content.Exists() {
		content = rec.Get("content")
	}
	if content.Type == gjson.String {
		return content.Str
	}
	var text string
	if content.IsArray() {
		content.ForEach(func(_, item gjson.Result) bool {
			if item.Get("type").String() == "text" {
				text = item.Get("text").String()
				return false
			}
			return true
		})
	}
	return text
}

func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxSummaryRunes {
		return s
	}
	return string(runes[:maxSummaryRunes-3]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

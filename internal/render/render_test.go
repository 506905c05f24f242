package render

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-export/internal/transcript"
)

func parse(path, raw string) *transcript.Transcript {
	return transcript.Parse(path, []byte(raw))
}

const toolSession = `{"type":"user","timestamp":"2025-01-17T10:00:00Z","message":{"role":"user","content":"List the files"}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"c1","name":"Bash","input":{"command":"ls"}}]}}
{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"c1","content":"alpha.go\nbeta.go"}]}}
{"type":"assistant","message":{"role":"assistant","content":"Found alpha.go"}}
`

func TestRender_SectionsInOrder(t *testing.T) {
	trs := []*transcript.Transcript{
		parse("/data/b.jsonl", `{"type":"user","message":{"content":"second file"}}`),
		parse("/data/a.jsonl", `{"type":"user","message":{"content":"first file"}}`),
		parse("/data/c.jsonl", `{"type":"user","message":{"content":"third file"}}`),
	}
	out, err := Render(trs, Options{Title: "Export", BaseDir: "/data"})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, `<section class="conversation"`))
	b := strings.Index(out, `id="session-1"`)
	a := strings.Index(out, `id="session-2"`)
	c := strings.Index(out, `id="session-3"`)
	assert.True(t, b < a && a < c)
	assert.True(t, strings.Index(out, "second file") < strings.Index(out, "first file"))
	assert.Contains(t, out, `<h2>b.jsonl</h2>`)
	assert.Contains(t, out, `href="#session-3"`)
	assert.Contains(t, out, "<title>Export</title>")
}

func TestRender_DefaultTitle(t *testing.T) {
	out, err := Render(nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Claude Code Conversations</title>")
	assert.NotContains(t, out, "<section")
}

func TestRender_EscapesText(t *testing.T) {
	raw := `{"type":"user","message":{"content":"<script>alert(1)</script> & \"quoted\""}}`
	out, err := Render([]*transcript.Transcript{parse("<b>.jsonl", raw)}, Options{Title: "<i>t</i>"})
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt; &amp;")
	assert.NotContains(t, out, "<b>.jsonl")
	assert.NotContains(t, out, "<i>t</i>")
	// only the page's own inline script
	assert.Equal(t, 1, strings.Count(out, "<script>"))
}

func TestRender_ResultFollowsCall(t *testing.T) {
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", toolSession)}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "beta.go"), "result shown once")
	call := strings.Index(out, `<span class="call-name">Bash</span>`)
	res := strings.Index(out, "beta.go")
	next := strings.Index(out, "Found alpha.go")
	require.True(t, call > 0)
	assert.True(t, call < res && res < next)
	assert.NotContains(t, out, "no matching call")
	assert.Contains(t, out, "1 tool calls")
}

func TestRender_DetachedResult(t *testing.T) {
	raw := `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"ghost","content":"orphan output"}]}}`
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "no matching call")
	assert.Contains(t, out, "orphan output")
	assert.Contains(t, out, "call id ghost")
}

func TestRender_Diagnostics(t *testing.T) {
	raw := `{"type":"user","message":{"content":"ok"}}` + "\n{oops\n"
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	diag := strings.Index(out, "Parse warnings (1)")
	require.True(t, diag > 0)
	assert.True(t, strings.Index(out, "<pre>ok</pre>") < diag)
	assert.Contains(t, out, "line 2: invalid JSON")
	assert.Contains(t, out, "<pre>{oops</pre>")
}

func TestRender_UnknownAndRawRecords(t *testing.T) {
	raw := `{"type":"assistant","message":{"content":[{"type":"image","source":{"data":"xx"}}]}}` + "\n" +
		`{"type":"progress","data":{"step":1}}`
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "Unrecognized block: image")
	assert.Contains(t, out, "Raw record")
	assert.Contains(t, out, `<span class="kind">progress</span>`)
}

func TestRender_ClampsLongText(t *testing.T) {
	long := strings.Repeat("line\\n", 30)
	raw := `{"type":"assistant","message":{"content":"` + long + `"}}`
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="clamped">`)
	assert.Contains(t, out, "Show full text")

	out, err = Render([]*transcript.Transcript{parse("s.jsonl", `{"type":"user","message":{"content":"short"}}`)}, Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, `<div class="clamped">`)
}

func TestRender_SelfContained(t *testing.T) {
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", toolSession)}, Options{
		Source:    "/home/u/.claude/projects",
		Generated: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "src=")
	assert.NotContains(t, out, "http://")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, "url(")
	for _, m := range regexp.MustCompile(`href="([^"]*)"`).FindAllStringSubmatch(out, -1) {
		assert.True(t, strings.HasPrefix(m[1], "#"), "href %q", m[1])
	}
	assert.Contains(t, out, "Generated: 2025-03-01 12:00:00 UTC")
}

func TestRender_Deterministic(t *testing.T) {
	trs := []*transcript.Transcript{parse("s.jsonl", toolSession)}
	a, err := Render(trs, Options{})
	require.NoError(t, err)
	b, err := Render(trs, Options{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClamp(t *testing.T) {
	assert.False(t, clamp(strings.Repeat("x", clampChars)).Long)
	assert.True(t, clamp(strings.Repeat("x", clampChars+1)).Long)
	assert.False(t, clamp(strings.Repeat("a\n", clampLines-1)+"a").Long)
	assert.True(t, clamp(strings.Repeat("a\n", clampLines)+"a").Long)
}

func TestOutputText(t *testing.T) {
	assert.Equal(t, "plain", outputText([]byte(`"plain"`)))
	assert.Equal(t, "a\nb", outputText([]byte(`[{"type":"text","text":"a"},{"type":"text","text":"b"}]`)))
	assert.Equal(t, "{\n  \"k\": 1\n}", outputText([]byte(`{"k":1}`)))
	assert.Equal(t, "", outputText(nil))
}

func TestRender_GroupsSecondaryRecords(t *testing.T) {
	raw := strings.Join([]string{
		`{"type":"user","message":{"content":"Check the repo"}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"c1","name":"Bash","input":{"command":"ls"}}]}}`,
		`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"c1","content":"one.go"}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"c2","name":"Bash","input":{"command":"git status"}}]}}`,
		`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"c2","content":"clean"}]}}`,
		`{"type":"assistant","message":{"content":"Repo is clean"}}`,
		`{"type":"system","content":"Conversation compacted"}`,
		`{"type":"progress","data":{"step":1}}`,
	}, "\n")
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, `<details class="msg secondary-group`))
	tools := strings.Index(out, `<details class="msg secondary-group tool">`)
	require.True(t, tools > 0)
	assert.Contains(t, out, `<span class="badge tool">TOOL</span> 2 records <span class="group-calls">Bash</span>`)
	assert.Contains(t, out, `<span class="badge system">SYSTEM</span> 2 records`)

	ask := strings.Index(out, "Check the repo")
	clean := strings.Index(out, "Repo is clean")
	system := strings.Index(out, `<details class="msg secondary-group system">`)
	assert.True(t, ask < tools && tools < strings.Index(out, "git status"))
	assert.True(t, strings.Index(out, "git status") < clean && clean < system)
}

func TestRender_PrimaryTurnSplitsGroups(t *testing.T) {
	raw := strings.Join([]string{
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"c1","name":"Read","input":{}}]}}`,
		`{"type":"assistant","message":{"content":"halfway"}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"c2","name":"Read","input":{}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"c3","name":"Grep","input":{}}]}}`,
	}, "\n")
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, `<details class="msg secondary-group tool">`))
	assert.Equal(t, 2, strings.Count(out, `<span class="group-calls">Read</span>`))
	assert.Equal(t, 1, strings.Count(out, `<span class="group-calls">Grep</span>`))
}

func TestRender_SubagentGroup(t *testing.T) {
	raw := strings.Join([]string{
		`{"type":"user","agentId":"a1","message":{"content":"find the bug"}}`,
		`{"type":"assistant","agentId":"a1","message":{"content":[{"type":"tool_use","id":"c1","name":"Grep","input":{}}]}}`,
		`{"type":"assistant","agentId":"a2","message":{"content":"other agent"}}`,
	}, "\n")
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", raw)}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, `<details class="msg secondary-group subagent">`))
	assert.Contains(t, out, `<span class="badge subagent">SUBAGENT</span> 2 records <span class="group-calls">Grep</span>`)
	assert.Contains(t, out, `<span class="badge subagent">SUBAGENT</span> 1 records`)
}

func TestGroup_CallsHint(t *testing.T) {
	var g group
	for _, name := range []string{"Read", "", "Read", "Grep", "Bash"} {
		g.add(item{}, name)
	}
	assert.Equal(t, "Read, Grep, Bash", g.Calls)
	assert.Len(t, g.Items, 5)

	g.add(item{}, "Edit")
	assert.Equal(t, "Read, Grep, Bash, ...", g.Calls)
}

func TestRender_ToggleTargetsGroups(t *testing.T) {
	out, err := Render([]*transcript.Transcript{parse("s.jsonl", toolSession)}, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "querySelectorAll('details.secondary-group, details.step')")
}

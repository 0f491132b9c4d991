package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainText(t *testing.T) {
	blocks := Parse("just some prose, no tags at all")
	require.Len(t, blocks, 1)
	assert.Equal(t, KindText, blocks[0].Kind)
	assert.True(t, blocks[0].Complete)
	assert.Equal(t, "just some prose, no tags at all", blocks[0].Text)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
}

func TestParseReadThenWrite(t *testing.T) {
	input := "<read_file><path>x.md</path></read_file>" +
		"<write_to_file><path>y.md</path><content>hi</content></write_to_file>"

	blocks := Parse(input)
	require.Len(t, blocks, 2)

	assert.Equal(t, KindReadFile, blocks[0].Kind)
	assert.True(t, blocks[0].Complete)
	assert.Equal(t, "x.md", blocks[0].Path)

	assert.Equal(t, KindWriteFile, blocks[1].Kind)
	assert.True(t, blocks[1].Complete)
	assert.Equal(t, "y.md", blocks[1].Path)
	assert.Equal(t, "hi", blocks[1].Content)
}

func TestParseTextGapsAroundBlocks(t *testing.T) {
	input := "Let me check that.\n<read_file><path>a.md</path></read_file>\nDone."

	blocks := Parse(input)
	require.Len(t, blocks, 3)
	assert.Equal(t, KindText, blocks[0].Kind)
	assert.Equal(t, "Let me check that.\n", blocks[0].Text)
	assert.Equal(t, KindReadFile, blocks[1].Kind)
	assert.Equal(t, KindText, blocks[2].Kind)
	assert.Equal(t, "\nDone.", blocks[2].Text)
}

func TestParseUnfinishedTrailingTag(t *testing.T) {
	input := "<assistant_memory><content>note"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, KindAssistantMemory, b.Kind)
	assert.False(t, b.Complete)
	assert.Equal(t, "note", b.Content)
	assert.Equal(t, Span{Start: 0, End: len(input)}, b.Span)

	// Once the closing tags arrive the block completes.
	done := Parse(input + "</content></assistant_memory>")
	require.Len(t, done, 1)
	assert.True(t, done[0].Complete)
	assert.Equal(t, "note", done[0].Content)
}

func TestParseReconstructionInvariant(t *testing.T) {
	inputs := []string{
		"",
		"plain prose",
		"a < b and c > d",
		"<unknown_tag>stays text</unknown_tag>",
		"<read_file><path>x.md</path></read_file>",
		"before <read_file><path>x.md</path></read_file> after",
		"<write_to_file><path>y.md</path><content>he said <hi> there</content></write_to_file>",
		"<think>half finished reasoning",
		"text then <list_files><path>notes/",
		"<search_and_replace><path>a.md</path><operations>[{search: 'x', replace: 'y'},]</operations></search_and_replace>",
		"<read_file><path>a.md</path></read_file><read_file><path>a.md</path></read_file>",
		"<<<>>><read_file><path></path></read_file><",
	}

	for _, input := range inputs {
		blocks := Parse(input)
		var sb strings.Builder
		prevEnd := 0
		for _, b := range blocks {
			require.Equal(t, prevEnd, b.Span.Start, "gap or overlap in %q", input)
			sb.WriteString(b.SourceText(input))
			prevEnd = b.Span.End
		}
		require.Equal(t, len(input), prevEnd, "spans must cover %q", input)
		require.Equal(t, input, sb.String())
	}
}

func TestParseCompletedBlocksStableUnderGrowth(t *testing.T) {
	full := "intro <read_file><path>a.md</path></read_file> middle " +
		"<write_to_file><path>b.md</path><content>body</content></write_to_file> outro"

	final := Parse(full)
	byStart := map[int]Block{}
	for _, b := range final {
		if b.Kind != KindText {
			byStart[b.Span.Start] = b
		}
	}

	for cut := 0; cut <= len(full); cut++ {
		for _, b := range Parse(full[:cut]) {
			if b.Kind == KindText || !b.Complete {
				continue
			}
			want, ok := byStart[b.Span.Start]
			require.True(t, ok, "completed block at %d vanished at cut %d", b.Span.Start, cut)
			require.Equal(t, want, b, "completed block changed between cut %d and full parse", cut)
		}
	}
}

func TestParseThinkingBlocks(t *testing.T) {
	blocks := Parse("<thinking>first</thinking><think>second")
	require.Len(t, blocks, 2)
	assert.Equal(t, KindThinking, blocks[0].Kind)
	assert.True(t, blocks[0].Complete)
	assert.Equal(t, "first", blocks[0].Text)
	assert.Equal(t, KindThink, blocks[1].Kind)
	assert.False(t, blocks[1].Complete)
	assert.Equal(t, "second", blocks[1].Text)
}

func TestParseEmptyChildYieldsEmptyString(t *testing.T) {
	blocks := Parse("<read_file><path></path></read_file>")
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].Complete)
	assert.Equal(t, "", blocks[0].Path)
}

func TestParseNoRecognizedChildren(t *testing.T) {
	blocks := Parse("<read_file></read_file>")
	require.Len(t, blocks, 1)
	assert.Equal(t, KindReadFile, blocks[0].Kind)
	assert.True(t, blocks[0].Complete)
	assert.Equal(t, "", blocks[0].Path)
}

func TestParseOperationsJSON5(t *testing.T) {
	input := "<search_and_replace><path>a.md</path><operations>[\n" +
		"  {search: 'foo', replace: 'bar', use_regex: true, regex_flags: 'i'},\n" +
		"  {search: \"x\", replace: \"y\", start_line: 2, end_line: 5},\n" +
		"]</operations></search_and_replace>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	require.Len(t, b.Operations, 2)
	assert.Equal(t, Operation{Search: "foo", Replace: "bar", UseRegex: true, RegexFlags: "i"}, b.Operations[0])
	assert.Equal(t, Operation{Search: "x", Replace: "y", StartLine: 2, EndLine: 5}, b.Operations[1])
}

func TestParseMalformedOperationsDegrade(t *testing.T) {
	input := "<search_and_replace><path>a.md</path><operations>[{search: </operations></search_and_replace>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.True(t, b.Complete, "bad payload degrades the field, not the block")
	assert.Nil(t, b.Operations)
	assert.Equal(t, "[{search: ", b.RawOperations)
	assert.Equal(t, "a.md", b.Path)
}

func TestParseFetchURLs(t *testing.T) {
	blocks := Parse("<fetch_urls><urls>['https://a.example', \"https://b.example\"]</urls></fetch_urls>")
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, blocks[0].URLs)
}

func TestParseUseMCPTool(t *testing.T) {
	input := "<use_mcp_tool><server_name>tasks</server_name><tool_name>list</tool_name>" +
		"<parameters>{status: 'open', limit: 3}</parameters></use_mcp_tool>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "tasks", b.ServerName)
	assert.Equal(t, "list", b.ToolName)
	assert.Equal(t, map[string]any{"status": "open", "limit": float64(3)}, b.Parameters)
}

func TestParseUseMCPToolArgumentsAlias(t *testing.T) {
	input := "<use_mcp_tool><server_name>tasks</server_name><tool_name>list</tool_name>" +
		"<arguments>{status: 'open'}</arguments></use_mcp_tool>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	require.True(t, b.Complete)
	assert.Equal(t, "tasks", b.ServerName)
	assert.Equal(t, map[string]any{"status": "open"}, b.Parameters)
}

func TestParseToolResultMCPWrapper(t *testing.T) {
	input := "<tool_result>[use_mcp_tool for 'kanban']\ncard moved\nall done</tool_result>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, KindToolResult, b.Kind)
	assert.Equal(t, "kanban", b.ServerName)
	assert.Equal(t, "card moved\nall done", b.Text)
}

func TestParseToolResultPlain(t *testing.T) {
	blocks := Parse("<tool_result>nothing fancy here</tool_result>")
	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].ServerName)
	assert.Equal(t, "nothing fancy here", blocks[0].Text)
}

func TestParseFetchTasksFilters(t *testing.T) {
	input := "<fetch_tasks><source>daily.md</source><status>Completed</status><due>2026-01-01</due></fetch_tasks>"

	blocks := Parse(input)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "daily.md", b.Source)
	assert.Equal(t, "Completed", b.Status)
	assert.Equal(t, "2026-01-01", b.Due)
	assert.Equal(t, "", b.Scheduled)
}

func TestParseSimilarTagNamesDisambiguate(t *testing.T) {
	blocks := Parse("<search><query>q</query></search><search_and_replace><path>p</path></search_and_replace>")
	require.Len(t, blocks, 2)
	assert.Equal(t, KindSearch, blocks[0].Kind)
	assert.Equal(t, KindSearchAndReplace, blocks[1].Kind)
}

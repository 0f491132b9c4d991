// Package parser turns a growing buffer of model output into an ordered
// sequence of typed blocks.
//
// The model emits tool calls as lowercase pseudo-XML tags mixed with plain
// prose. The buffer grows with every stream delta, so Parse is called
// repeatedly on prefix-extensions of the same text and must stay pure:
// all "seen before" bookkeeping lives in the dispatch layer.
package parser

// Kind discriminates the type of a parsed Block.
type Kind string

const (
	// KindText is an untagged run of plain prose.
	KindText Kind = "text"

	// KindThink and KindThinking are free-text reasoning tags. Both carry
	// raw inner text with no further structure.
	KindThink    Kind = "think"
	KindThinking Kind = "thinking"

	KindWriteFile        Kind = "write_to_file"
	KindInsertContent    Kind = "insert_content"
	KindReadFile         Kind = "read_file"
	KindListFiles        Kind = "list_files"
	KindSearch           Kind = "search"
	KindRegexSearch      Kind = "regex_search"
	KindSemanticSearch   Kind = "semantic_search"
	KindSearchAndReplace Kind = "search_and_replace"
	KindApplyDiff        Kind = "apply_diff"

	KindAttemptCompletion Kind = "attempt_completion"
	KindAskFollowup       Kind = "ask_followup_question"
	KindSwitchMode        Kind = "switch_mode"

	KindSearchWeb Kind = "search_web"
	KindFetchURLs Kind = "fetch_urls"

	KindUseMCPTool      Kind = "use_mcp_tool"
	KindAssistantMemory Kind = "assistant_memory"
	KindFetchTasks      Kind = "fetch_tasks"

	// KindToolResult wraps content echoed back from a prior tool
	// execution. Its first line may name the MCP server it came from.
	KindToolResult Kind = "tool_result"
)

// taggedKinds lists every recognized top-level tag, in match order.
// KindText is absent: plain text is whatever the scanner does not claim.
var taggedKinds = []Kind{
	KindThink,
	KindThinking,
	KindWriteFile,
	KindInsertContent,
	KindReadFile,
	KindListFiles,
	KindSearch,
	KindRegexSearch,
	KindSemanticSearch,
	KindSearchAndReplace,
	KindApplyDiff,
	KindAttemptCompletion,
	KindAskFollowup,
	KindSwitchMode,
	KindSearchWeb,
	KindFetchURLs,
	KindUseMCPTool,
	KindAssistantMemory,
	KindFetchTasks,
	KindToolResult,
}

// Span is a half-open [Start, End) byte range into the parsed buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Operation is one search/replace step, decoded from the JSON5 payload of
// a search_and_replace block. Field names mirror the wire format.
type Operation struct {
	Search     string `json:"search"`
	Replace    string `json:"replace"`
	StartLine  int    `json:"start_line,omitempty"`
	EndLine    int    `json:"end_line,omitempty"`
	UseRegex   bool   `json:"use_regex,omitempty"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
	RegexFlags string `json:"regex_flags,omitempty"`
}

// Block is the atomic parsed unit. All kind-specific fields are optional:
// a streaming block can be observed before its children have arrived.
//
// Field declaration order is load-bearing for the dispatch fingerprint,
// which serializes Blocks canonically. Append new fields, don't reorder.
type Block struct {
	Kind     Kind `json:"kind"`
	Complete bool `json:"complete"`
	Span     Span `json:"span"`

	// Text holds the raw inner text of reasoning blocks, the display
	// content of tool_result blocks, and the content of text runs.
	Text string `json:"text,omitempty"`

	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
	Line    string `json:"line,omitempty"`

	Query       string `json:"query,omitempty"`
	Regex       string `json:"regex,omitempty"`
	FilePattern string `json:"file_pattern,omitempty"`
	Recursive   string `json:"recursive,omitempty"`

	Diff     string `json:"diff,omitempty"`
	Result   string `json:"result,omitempty"`
	Question string `json:"question,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Reason   string `json:"reason,omitempty"`

	ServerName    string         `json:"server_name,omitempty"`
	ToolName      string         `json:"tool_name,omitempty"`
	RawParameters string         `json:"raw_parameters,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`

	RawOperations string      `json:"raw_operations,omitempty"`
	Operations    []Operation `json:"operations,omitempty"`

	RawURLs string   `json:"raw_urls,omitempty"`
	URLs    []string `json:"urls,omitempty"`

	// fetch_tasks filters
	Source     string `json:"source,omitempty"`
	Status     string `json:"status,omitempty"`
	Completion string `json:"completion,omitempty"`
	Due        string `json:"due,omitempty"`
	Created    string `json:"created,omitempty"`
	Start      string `json:"start,omitempty"`
	Scheduled  string `json:"scheduled,omitempty"`
}

// SourceText slices this block's span out of the buffer it was parsed from.
func (b Block) SourceText(buffer string) string {
	return buffer[b.Span.Start:b.Span.End]
}

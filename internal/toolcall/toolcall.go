// Package toolcall defines the dispatch-ready form of a parsed block and
// the mapping from blocks into it.
package toolcall

// ToolCall is the normalized, executor-ready representation of one
// completed block. It is a closed union: every variant lives in this
// package and dispatch switches over the concrete types exhaustively.
type ToolCall interface {
	// Tool returns the wire-format tool name, for logging and notices.
	Tool() string
}

// WriteFile overwrites a note with new content, creating it if needed.
type WriteFile struct {
	Path    string
	Content string
}

func (WriteFile) Tool() string { return "write_to_file" }

// InsertContent inserts content at a point in a note. An insert is a
// zero-width edit: EndLine always equals StartLine.
type InsertContent struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

func (InsertContent) Tool() string { return "insert_content" }

// ReadFile reads a note's content.
type ReadFile struct {
	Path string
}

func (ReadFile) Tool() string { return "read_file" }

// ListFiles lists a folder. Recursive defaults to false when the block
// left it unspecified.
type ListFiles struct {
	Path      string
	Recursive bool
}

func (ListFiles) Tool() string { return "list_files" }

// MatchSearch is a plain substring search over note content.
type MatchSearch struct {
	Query string
	Path  string
}

func (MatchSearch) Tool() string { return "search" }

// RegexSearch searches note content with a regular expression.
type RegexSearch struct {
	Regex       string
	Path        string
	FilePattern string
}

func (RegexSearch) Tool() string { return "regex_search" }

// SemanticSearch ranks notes by relevance to a natural-language query.
type SemanticSearch struct {
	Query string
}

func (SemanticSearch) Tool() string { return "semantic_search" }

// Operation is one normalized search/replace step. A missing use_regex on
// the wire means a literal search.
type Operation struct {
	Search     string
	Replace    string
	StartLine  int
	EndLine    int
	UseRegex   bool
	IgnoreCase bool
	RegexFlags string
}

// SearchAndReplace applies an ordered list of operations to one note.
type SearchAndReplace struct {
	Path       string
	Operations []Operation
}

func (SearchAndReplace) Tool() string { return "search_and_replace" }

// ApplyDiff applies a unified diff to a note.
type ApplyDiff struct {
	Path string
	Diff string
}

func (ApplyDiff) Tool() string { return "apply_diff" }

// SearchWeb runs a web search.
type SearchWeb struct {
	Query string
}

func (SearchWeb) Tool() string { return "search_web" }

// FetchURLs fetches one or more URLs and returns their content.
type FetchURLs struct {
	URLs []string
}

func (FetchURLs) Tool() string { return "fetch_urls" }

// SwitchMode switches the assistant's operating mode. An empty Reason is
// permitted; the switch applies regardless.
type SwitchMode struct {
	Mode   string
	Reason string
}

func (SwitchMode) Tool() string { return "switch_mode" }

// UseMCPTool invokes a tool on a connected MCP server.
type UseMCPTool struct {
	Server    string
	ToolName  string
	Arguments map[string]any
}

func (UseMCPTool) Tool() string { return "use_mcp_tool" }

// WriteMemory overwrites the assistant memory document. Auto-dispatched;
// never part of a sequential batch.
type WriteMemory struct {
	Content string
}

func (WriteMemory) Tool() string { return "assistant_memory" }

// TaskStatus is the coerced status filter of a fetch_tasks call.
type TaskStatus string

const (
	// TaskStatusAny means no status constraint.
	TaskStatusAny TaskStatus = ""

	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusIncomplete TaskStatus = "incomplete"
	TaskStatusAll        TaskStatus = "all"
)

// FetchTasks queries the task index. Auto-dispatched; never part of a
// sequential batch.
type FetchTasks struct {
	Source     string
	Status     TaskStatus
	Completion string
	Due        string
	Created    string
	Start      string
	Scheduled  string
}

func (FetchTasks) Tool() string { return "fetch_tasks" }

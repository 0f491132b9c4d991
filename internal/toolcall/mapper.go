package toolcall

import (
	"strconv"
	"strings"

	"github.com/scribe-ai/scribe/internal/parser"
)

// FromBlock maps a parsed block to its dispatch-ready form.
//
// It returns nil for incomplete blocks (callers re-map after the next
// parse pass), for text and reasoning blocks, for tool_result echoes, and
// for the conversation-control blocks (attempt_completion,
// ask_followup_question) which terminate or redirect the turn rather than
// invoke an executor. It never fails: a syntactically complete block of
// any tool kind always yields a call, with defaults filled in.
func FromBlock(b parser.Block) ToolCall {
	if !b.Complete {
		return nil
	}

	switch b.Kind {
	case parser.KindText, parser.KindThink, parser.KindThinking,
		parser.KindToolResult, parser.KindAttemptCompletion, parser.KindAskFollowup:
		return nil

	case parser.KindWriteFile:
		return WriteFile{Path: b.Path, Content: b.Content}

	case parser.KindInsertContent:
		line := parseLine(b.Line)
		return InsertContent{Path: b.Path, StartLine: line, EndLine: line, Content: b.Content}

	case parser.KindReadFile:
		return ReadFile{Path: b.Path}

	case parser.KindListFiles:
		return ListFiles{Path: b.Path, Recursive: parseFlag(b.Recursive)}

	case parser.KindSearch:
		return MatchSearch{Query: b.Query, Path: b.Path}

	case parser.KindRegexSearch:
		return RegexSearch{Regex: b.Regex, Path: b.Path, FilePattern: b.FilePattern}

	case parser.KindSemanticSearch:
		return SemanticSearch{Query: b.Query}

	case parser.KindSearchAndReplace:
		ops := make([]Operation, 0, len(b.Operations))
		for _, op := range b.Operations {
			ops = append(ops, Operation{
				Search:     op.Search,
				Replace:    op.Replace,
				StartLine:  op.StartLine,
				EndLine:    op.EndLine,
				UseRegex:   op.UseRegex,
				IgnoreCase: op.IgnoreCase,
				RegexFlags: op.RegexFlags,
			})
		}
		return SearchAndReplace{Path: b.Path, Operations: ops}

	case parser.KindApplyDiff:
		return ApplyDiff{Path: b.Path, Diff: b.Diff}

	case parser.KindSwitchMode:
		return SwitchMode{Mode: b.Mode, Reason: b.Reason}

	case parser.KindSearchWeb:
		return SearchWeb{Query: b.Query}

	case parser.KindFetchURLs:
		return FetchURLs{URLs: b.URLs}

	case parser.KindUseMCPTool:
		return UseMCPTool{Server: b.ServerName, ToolName: b.ToolName, Arguments: b.Parameters}

	case parser.KindAssistantMemory:
		return WriteMemory{Content: b.Content}

	case parser.KindFetchTasks:
		return FetchTasks{
			Source:     b.Source,
			Status:     CoerceStatus(b.Status),
			Completion: b.Completion,
			Due:        b.Due,
			Created:    b.Created,
			Start:      b.Start,
			Scheduled:  b.Scheduled,
		}
	}

	return nil
}

// CoerceStatus normalizes the free-text status of a fetch_tasks block.
// Anything unrecognized, including empty, means "no status constraint":
// this tool runs without user confirmation and must degrade, not reject.
func CoerceStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed":
		return TaskStatusCompleted
	case "incomplete":
		return TaskStatusIncomplete
	case "all":
		return TaskStatusAll
	default:
		return TaskStatusAny
	}
}

// parseLine reads a 1-based line number. Anything unparseable, including
// empty, maps to 0, which executors treat as end-of-note.
func parseLine(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseFlag reads a boolean child. Absent or unrecognized means false.
func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

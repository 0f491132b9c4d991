package parser

import (
	"regexp"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// mcpResultRe matches the sub-line a tool_result block uses to name the
// MCP server its content came from.
var mcpResultRe = regexp.MustCompile(`^\[use_mcp_tool for '([^']*)'\]`)

// Parse scans buffer into an ordered sequence of Blocks.
//
// It is safe to call repeatedly as the buffer grows: each call is pure and
// sees the whole buffer from scratch. Recognized tags become typed blocks;
// everything between them becomes text blocks, so concatenating every
// block's span reconstructs the buffer exactly. A trailing tag whose
// closing delimiter has not arrived yet yields a partial block with
// Complete=false and best-effort fields.
//
// Parse never fails: if the scanner panics on pathological input the whole
// buffer degrades to a single text block. A malformed stream renders as
// raw text rather than crashing the caller.
func Parse(buffer string) (blocks []Block) {
	defer func() {
		if r := recover(); r != nil {
			blocks = []Block{textBlock(buffer, 0, len(buffer))}
		}
	}()

	i := 0
	last := 0
	for i < len(buffer) {
		lt := strings.IndexByte(buffer[i:], '<')
		if lt < 0 {
			break
		}
		pos := i + lt

		kind, ok := matchOpenTag(buffer[pos:])
		if !ok {
			// Not one of ours. The '<' stays in the surrounding text run.
			i = pos + 1
			continue
		}

		if pos > last {
			blocks = append(blocks, textBlock(buffer, last, pos))
		}

		innerStart := pos + len(kind) + 2 // past "<kind>"
		closeTag := "</" + string(kind) + ">"

		var b Block
		if ci := strings.Index(buffer[innerStart:], closeTag); ci >= 0 {
			end := innerStart + ci + len(closeTag)
			b = buildBlock(kind, buffer[innerStart:innerStart+ci], true)
			b.Span = Span{Start: pos, End: end}
			i, last = end, end
		} else {
			// Still streaming: no closing tag yet. Claim the rest of the
			// buffer and report whatever children have arrived so far.
			b = buildBlock(kind, buffer[innerStart:], false)
			b.Span = Span{Start: pos, End: len(buffer)}
			i, last = len(buffer), len(buffer)
		}
		blocks = append(blocks, b)
	}

	if last < len(buffer) {
		blocks = append(blocks, textBlock(buffer, last, len(buffer)))
	}
	return blocks
}

func textBlock(buffer string, start, end int) Block {
	return Block{
		Kind:     KindText,
		Complete: true,
		Span:     Span{Start: start, End: end},
		Text:     buffer[start:end],
	}
}

// matchOpenTag reports which recognized tag opens at s, which must begin
// with '<'. Only the exact form "<name>" counts; anything else is text.
func matchOpenTag(s string) (Kind, bool) {
	for _, k := range taggedKinds {
		name := string(k)
		if len(s) >= len(name)+2 && s[1:len(name)+1] == name && s[len(name)+1] == '>' {
			return k, true
		}
	}
	return "", false
}

// buildBlock extracts the per-kind fields out of a block's inner text.
// inner excludes the block's own open/close tags. Missing children leave
// their fields zero; a present child with no text yields an empty string.
func buildBlock(kind Kind, inner string, complete bool) Block {
	b := Block{Kind: kind, Complete: complete}

	switch kind {
	case KindThink, KindThinking:
		b.Text = inner

	case KindToolResult:
		b.Text = inner
		firstLine := inner
		rest := ""
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			firstLine = inner[:nl]
			rest = inner[nl+1:]
		}
		if m := mcpResultRe.FindStringSubmatch(strings.TrimSpace(firstLine)); m != nil {
			b.ServerName = m[1]
			b.Text = rest
		}

	case KindWriteFile:
		b.Path = child(inner, "path")
		b.Content = child(inner, "content")

	case KindInsertContent:
		b.Path = child(inner, "path")
		b.Line = strings.TrimSpace(child(inner, "line"))
		b.Content = child(inner, "content")

	case KindReadFile:
		b.Path = child(inner, "path")

	case KindListFiles:
		b.Path = child(inner, "path")
		b.Recursive = strings.TrimSpace(child(inner, "recursive"))

	case KindSearch:
		b.Query = child(inner, "query")
		b.Path = child(inner, "path")

	case KindRegexSearch:
		b.Regex = child(inner, "regex")
		b.Path = child(inner, "path")
		b.FilePattern = strings.TrimSpace(child(inner, "file_pattern"))

	case KindSemanticSearch:
		b.Query = child(inner, "query")

	case KindSearchAndReplace:
		b.Path = child(inner, "path")
		b.RawOperations = child(inner, "operations")
		b.Operations = decodeOperations(b.RawOperations)

	case KindApplyDiff:
		b.Path = child(inner, "path")
		b.Diff = child(inner, "diff")

	case KindAttemptCompletion:
		b.Result = child(inner, "result")

	case KindAskFollowup:
		b.Question = child(inner, "question")

	case KindSwitchMode:
		b.Mode = strings.TrimSpace(child(inner, "mode"))
		b.Reason = child(inner, "reason")

	case KindSearchWeb:
		b.Query = child(inner, "query")

	case KindFetchURLs:
		b.RawURLs = child(inner, "urls")
		b.URLs = decodeURLs(b.RawURLs)

	case KindUseMCPTool:
		b.ServerName = strings.TrimSpace(child(inner, "server_name"))
		b.ToolName = strings.TrimSpace(child(inner, "tool_name"))
		b.RawParameters = child(inner, "parameters")
		if b.RawParameters == "" {
			// Models sometimes emit <arguments> here; accept it as an
			// alias for <parameters>.
			b.RawParameters = child(inner, "arguments")
		}
		b.Parameters = decodeParameters(b.RawParameters)

	case KindAssistantMemory:
		b.Content = child(inner, "content")

	case KindFetchTasks:
		b.Source = strings.TrimSpace(child(inner, "source"))
		b.Status = strings.TrimSpace(child(inner, "status"))
		b.Completion = strings.TrimSpace(child(inner, "completion"))
		b.Due = strings.TrimSpace(child(inner, "due"))
		b.Created = strings.TrimSpace(child(inner, "created"))
		b.Start = strings.TrimSpace(child(inner, "start"))
		b.Scheduled = strings.TrimSpace(child(inner, "scheduled"))
	}

	return b
}

// child returns the inner text of the first <name>...</name> element in
// inner. An unclosed child (the streaming tail) yields everything after
// its open tag. A missing child yields "".
func child(inner, name string) string {
	open := "<" + name + ">"
	s := strings.Index(inner, open)
	if s < 0 {
		return ""
	}
	rest := inner[s+len(open):]
	if e := strings.Index(rest, "</"+name+">"); e >= 0 {
		return rest[:e]
	}
	return rest
}

// The payload decoders are a nested parsing stage with their own failure
// mode: a malformed JSON5 payload degrades that one field to its zero
// value while the raw text stays available on the block.

func decodeOperations(raw string) []Operation {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ops []Operation
	if err := json5.NewDecoder(strings.NewReader(raw)).Decode(&ops); err != nil {
		return nil
	}
	return ops
}

func decodeURLs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var urls []string
	if err := json5.NewDecoder(strings.NewReader(raw)).Decode(&urls); err != nil {
		return nil
	}
	return urls
}

func decodeParameters(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var params map[string]any
	if err := json5.NewDecoder(strings.NewReader(raw)).Decode(&params); err != nil {
		return nil
	}
	return params
}

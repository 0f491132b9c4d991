// Package prompt builds the system prompt that teaches the model the
// tool tag vocabulary.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	// ModeFull includes the memory policy and per-tool guidance.
	ModeFull Mode = "full"

	// ModeMinimal lists only the tag vocabulary, for constrained context
	// windows.
	ModeMinimal Mode = "minimal"
)

type Builder struct {
	Mode      Mode
	VaultRoot string
	Timezone  string
}

func NewBuilder(mode Mode) *Builder {
	return &Builder{Mode: mode}
}

// toolDoc is one entry in the vocabulary section. Usage shows the exact
// child tags the parser recognizes.
type toolDoc struct {
	name  string
	usage string
	note  string
}

var toolDocs = []toolDoc{
	{"think", "<think>...</think>", "private reasoning, never shown to the user"},
	{"read_file", "<read_file><path>note.md</path></read_file>", ""},
	{"write_to_file", "<write_to_file><path>note.md</path><content>...</content></write_to_file>", "overwrites the whole note"},
	{"insert_content", "<insert_content><path>note.md</path><line>3</line><content>...</content></insert_content>", "line 0 appends at the end"},
	{"list_files", "<list_files><path>folder</path><recursive>true</recursive></list_files>", ""},
	{"search", "<search><query>text</query></search>", "case-insensitive substring search"},
	{"regex_search", "<regex_search><regex>pattern</regex><file_pattern>*.md</file_pattern></regex_search>", ""},
	{"semantic_search", "<semantic_search><query>topic</query></semantic_search>", ""},
	{"search_and_replace", "<search_and_replace><path>note.md</path><operations>[{search, replace, start_line, end_line, use_regex}]</operations></search_and_replace>", "operations is a JSON array"},
	{"apply_diff", "<apply_diff><path>note.md</path><diff>unified diff</diff></apply_diff>", ""},
	{"search_web", "<search_web><query>text</query></search_web>", ""},
	{"fetch_urls", "<fetch_urls><urls>[\"https://...\"]</urls></fetch_urls>", "urls is a JSON array"},
	{"use_mcp_tool", "<use_mcp_tool><server_name>s</server_name><tool_name>t</tool_name><parameters>{...}</parameters></use_mcp_tool>", ""},
	{"switch_mode", "<switch_mode><mode>name</mode><reason>why</reason></switch_mode>", ""},
	{"assistant_memory", "<assistant_memory><content>full document</content></assistant_memory>", "replaces your memory document entirely"},
	{"fetch_tasks", "<fetch_tasks><status>incomplete</status><due>2026-09-01</due></fetch_tasks>", "all filter children optional"},
	{"ask_followup_question", "<ask_followup_question><question>...</question></ask_followup_question>", ""},
	{"attempt_completion", "<attempt_completion><result>...</result></attempt_completion>", ""},
}

// BuildSystemPrompt assembles the system prompt sections.
func (b *Builder) BuildSystemPrompt() string {
	var sections []string
	sections = append(sections, "Identity:\nYou are Scribe, a note-taking assistant living inside the user's vault. Be concise and act through tools.")
	sections = append(sections, "Tools:\n"+b.toolSection())

	if b.Mode == ModeFull {
		sections = append(sections, "Tool Rules:\n"+strings.Join([]string{
			"- Emit tool calls as the tags above, directly in your response.",
			"- Tool results arrive as the next user message.",
			"- Paths are vault-relative; you cannot reach outside the vault.",
			"- assistant_memory and fetch_tasks run the moment their closing tag streams; everything else runs after your turn.",
		}, "\n"))
		sections = append(sections, "Memory Policy:\nStore only durable user facts. The memory document is replaced whole; carry forward what still matters.")
		if b.VaultRoot != "" {
			sections = append(sections, "Vault:\n"+b.VaultRoot)
		}
		sections = append(sections, "Current Date & Time:\n"+b.timeLine())
	}

	return strings.Join(sections, "\n\n")
}

func (b *Builder) toolSection() string {
	var sb strings.Builder
	for _, d := range toolDocs {
		sb.WriteString("- " + d.name + ": " + d.usage)
		if b.Mode == ModeFull && d.note != "" {
			sb.WriteString(" (" + d.note + ")")
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (b *Builder) timeLine() string {
	tz := b.Timezone
	if tz == "" {
		tz = time.Now().Location().String()
	}
	return fmt.Sprintf("Timezone: %s", tz)
}

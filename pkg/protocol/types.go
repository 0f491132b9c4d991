// Package protocol provides shared data structures used across Scribe components.
// These types can be imported by external tools and host integrations.
package protocol

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents one exchange unit in a conversation.
type Turn struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Synthesized is true for turns generated from tool results rather
	// than typed by the user.
	Synthesized bool `json:"synthesized,omitempty"`
}

// ToolResult represents the outcome of a single tool execution as it is
// reported back to the host.
type ToolResult struct {
	Tool       string `json:"tool"`
	Success    bool   `json:"success"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Notice is a user-visible message surfaced outside the conversation,
// such as a tool failure during auto-dispatch.
type Notice struct {
	Message string `json:"message"`
}

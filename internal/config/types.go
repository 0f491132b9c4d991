package config

// Config represents the main Scribe configuration.
type Config struct {
	Vault    VaultConfig                `toml:"vault"`
	Memory   MemoryConfig               `toml:"memory"`
	Web      WebConfig                  `toml:"web"`
	Dispatch DispatchConfig             `toml:"dispatch"`
	MCP      map[string]MCPServerConfig `toml:"mcp"`
}

// VaultConfig locates the note store.
type VaultConfig struct {
	Root string `toml:"root"`
}

// MemoryConfig configures the assistant memory and task database.
type MemoryConfig struct {
	DBPath string `toml:"db_path"`
}

// WebConfig bounds the web tools.
type WebConfig struct {
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxFetchBytes    int64  `toml:"max_fetch_bytes"`
	MaxSearchResults int    `toml:"max_search_results"`
	UserAgent        string `toml:"user_agent"`
}

// DispatchConfig holds tool dispatch toggles.
type DispatchConfig struct {
	// AutoApproveSingle runs a lone tool call without consulting the
	// host's approval hook. Batches of two or more always ask.
	AutoApproveSingle bool `toml:"auto_approve_single"`
}

// MCPServerConfig describes one MCP server, keyed by name under [mcp].
// Command and Args launch a stdio server; URL points at a remote one.
// The host establishes the connection and registers the session with
// the executor.
type MCPServerConfig struct {
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`
	URL     string   `toml:"url,omitempty"`
}

// Package scribe assembles the streaming tool-call protocol core for a
// note assistant: a parser for the model's pseudo-XML tool grammar, a
// deduplicating sequential dispatcher, and a concrete executor over a
// note vault.
//
// The host supplies the model transport, the chat UI, and MCP session
// lifecycle; scribe supplies everything between a stream delta arriving
// and a synthesized tool-result turn going back out.
package scribe

import (
	"net/http"
	"time"

	"github.com/scribe-ai/scribe/internal/config"
	"github.com/scribe-ai/scribe/internal/dispatch"
	"github.com/scribe-ai/scribe/internal/executor"
	"github.com/scribe-ai/scribe/internal/memory"
	"github.com/scribe-ai/scribe/internal/prompt"
	"github.com/scribe-ai/scribe/internal/ranker"
	"github.com/scribe-ai/scribe/internal/turn"
	"github.com/scribe-ai/scribe/internal/vault"
)

// Submitter resumes the model conversation with synthesized follow-up
// turns. See dispatch.Submitter.
type Submitter = dispatch.Submitter

// Notifier surfaces user-visible notices. See dispatch.Notifier.
type Notifier = dispatch.Notifier

// Assistant is an assembled conversation core.
type Assistant struct {
	Controller *turn.Controller
	Dispatcher *dispatch.Dispatcher
	Executor   *executor.Executor
	Memory     *memory.Store
	Vault      *vault.Vault

	// MCPServers holds the configured MCP server definitions. The host
	// connects each one and registers the session via
	// Executor.AddMCPSession under the same name.
	MCPServers map[string]config.MCPServerConfig
}

// New assembles an assistant from configuration and the two host
// collaborators. The memory store is opened at cfg.Memory.DBPath;
// callers own Close.
func New(cfg *config.Config, submit Submitter, notify Notifier) (*Assistant, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	v, err := vault.Open(cfg.Vault.Root)
	if err != nil {
		return nil, err
	}

	store, err := memory.Open(cfg.Memory.DBPath)
	if err != nil {
		return nil, err
	}

	exec := executor.New(executor.Config{
		Vault:  v,
		Memory: store,
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.Web.TimeoutSeconds) * time.Second,
		},
		UserAgent:        cfg.Web.UserAgent,
		MaxFetchBytes:    cfg.Web.MaxFetchBytes,
		MaxSearchResults: cfg.Web.MaxSearchResults,
	})
	exec.SetRanker(ranker.New(v))

	d := dispatch.New(exec, submit, notify)
	d.AutoApproveSingle = cfg.Dispatch.AutoApproveSingle

	return &Assistant{
		Controller: turn.NewController(d),
		Dispatcher: d,
		Executor:   exec,
		Memory:     store,
		Vault:      v,
		MCPServers: cfg.MCP,
	}, nil
}

// SystemPrompt renders the system prompt teaching the model the tool
// tag vocabulary.
func (a *Assistant) SystemPrompt() string {
	b := prompt.NewBuilder(prompt.ModeFull)
	b.VaultRoot = a.Vault.Root()
	return b.BuildSystemPrompt()
}

// Close releases the assistant's resources.
func (a *Assistant) Close() error {
	if a.Memory != nil {
		return a.Memory.Close()
	}
	return nil
}

// Package executor performs the side effects behind dispatched tool
// calls: vault edits, searches, web access, MCP invocations, memory and
// task operations.
//
// Execute returns the human-readable result text that flows back into
// the conversation as a synthesized user turn.
package executor

import (
	"context"
	"net/http"
	"time"

	errs "github.com/scribe-ai/scribe/internal/errors"
	"github.com/scribe-ai/scribe/internal/memory"
	"github.com/scribe-ai/scribe/internal/toolcall"
	"github.com/scribe-ai/scribe/internal/vault"
)

// Ranker ranks notes by relevance to a natural-language query. The
// ranking implementation (embeddings, index) is the host's concern.
type Ranker interface {
	Rank(ctx context.Context, query string, limit int) ([]RankedNote, error)
}

// RankedNote is one semantic search hit.
type RankedNote struct {
	Path    string
	Score   float64
	Excerpt string
}

// SearchProvider runs web searches. The default implementation scrapes
// DuckDuckGo's HTML endpoint.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]WebResult, error)
}

// WebResult is one web search hit.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}

// Config carries the executor's collaborators. Vault is required; the
// rest are optional and the matching tools degrade gracefully without
// them.
type Config struct {
	Vault  *vault.Vault
	Memory *memory.Store
	Ranker Ranker

	// Search overrides the default web search provider.
	Search SearchProvider

	// HTTPClient overrides the client used for web fetches.
	HTTPClient *http.Client

	// UserAgent is sent on outbound web requests.
	UserAgent string

	// MaxFetchBytes caps how much of a fetched page is read.
	MaxFetchBytes int64

	// MaxSearchResults caps formatted web search hits.
	MaxSearchResults int

	// MCPSessions maps server name to a connected session. Connection
	// lifecycle is the host's concern.
	MCPSessions map[string]MCPSession
}

// Executor executes normalized tool calls against the vault and the
// other configured backends.
type Executor struct {
	vault      *vault.Vault
	memory     *memory.Store
	ranker     Ranker
	search     SearchProvider
	http       *http.Client
	ua         string
	maxFetch   int64
	maxResults int
	mcp        map[string]MCPSession

	// SwitchMode is invoked for switch_mode calls; the mode machinery
	// itself lives in the host. Nil means modes are unsupported.
	SwitchMode func(ctx context.Context, mode, reason string) error
}

// New creates an executor from cfg.
func New(cfg Config) *Executor {
	e := &Executor{
		vault:      cfg.Vault,
		memory:     cfg.Memory,
		ranker:     cfg.Ranker,
		search:     cfg.Search,
		http:       cfg.HTTPClient,
		ua:         cfg.UserAgent,
		maxFetch:   cfg.MaxFetchBytes,
		maxResults: cfg.MaxSearchResults,
		mcp:        cfg.MCPSessions,
	}
	if e.http == nil {
		e.http = &http.Client{Timeout: 30 * time.Second}
	}
	if e.ua == "" {
		e.ua = "scribe/1.0"
	}
	if e.maxFetch <= 0 {
		e.maxFetch = 2 << 20
	}
	if e.maxResults <= 0 {
		e.maxResults = 8
	}
	if e.search == nil {
		e.search = &DuckDuckGo{Client: e.http, UserAgent: e.ua}
	}
	return e
}

// AddMCPSession registers a connected MCP session under a server name.
// The host calls this as servers come and go.
func (e *Executor) AddMCPSession(name string, s MCPSession) {
	if e.mcp == nil {
		e.mcp = make(map[string]MCPSession)
	}
	e.mcp[name] = s
}

// SetRanker installs the semantic search backend.
func (e *Executor) SetRanker(r Ranker) {
	e.ranker = r
}

// Execute runs one tool call to completion and returns its result text.
// The switch covers every ToolCall variant.
func (e *Executor) Execute(ctx context.Context, call toolcall.ToolCall) (string, error) {
	switch c := call.(type) {
	case toolcall.WriteFile:
		return e.writeFile(c)
	case toolcall.InsertContent:
		return e.insertContent(c)
	case toolcall.ReadFile:
		return e.readFile(c)
	case toolcall.ListFiles:
		return e.listFiles(c)
	case toolcall.MatchSearch:
		return e.matchSearch(c)
	case toolcall.RegexSearch:
		return e.regexSearch(c)
	case toolcall.SemanticSearch:
		return e.semanticSearch(ctx, c)
	case toolcall.SearchAndReplace:
		return e.searchAndReplace(c)
	case toolcall.ApplyDiff:
		return e.applyDiff(c)
	case toolcall.SearchWeb:
		return e.searchWeb(ctx, c)
	case toolcall.FetchURLs:
		return e.fetchURLs(ctx, c)
	case toolcall.SwitchMode:
		return e.switchMode(ctx, c)
	case toolcall.UseMCPTool:
		return e.useMCPTool(ctx, c)
	case toolcall.WriteMemory:
		return e.writeMemory(ctx, c)
	case toolcall.FetchTasks:
		return e.fetchTasks(ctx, c)
	default:
		return "", errs.Permanent(errs.CodeToolNotFound, "unsupported tool call: "+call.Tool())
	}
}

func (e *Executor) switchMode(ctx context.Context, c toolcall.SwitchMode) (string, error) {
	if c.Mode == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "switch_mode requires a mode")
	}
	if e.SwitchMode == nil {
		return "", errs.Permanent(errs.CodeToolNotFound, "mode switching is not available")
	}
	if err := e.SwitchMode(ctx, c.Mode, c.Reason); err != nil {
		return "", errs.Wrap(err, errs.CodeToolExecutionFailed, "failed to switch mode", errs.CategoryPermanent)
	}
	if c.Reason != "" {
		return "Switched to " + c.Mode + " mode: " + c.Reason, nil
	}
	return "Switched to " + c.Mode + " mode.", nil
}

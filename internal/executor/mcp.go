package executor

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	errs "github.com/scribe-ai/scribe/internal/errors"
	"github.com/scribe-ai/scribe/internal/toolcall"
)

// MCPSession is the slice of an MCP client session this executor needs.
// *mcp.ClientSession satisfies it; transport and connection lifecycle
// belong to the host.
type MCPSession interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

func (e *Executor) useMCPTool(ctx context.Context, c toolcall.UseMCPTool) (string, error) {
	if c.Server == "" || c.ToolName == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "use_mcp_tool requires server_name and tool_name")
	}

	session, ok := e.mcp[c.Server]
	if !ok {
		return "", errs.Permanent(errs.CodeMCPServerUnknown, "no connected MCP server named "+c.Server)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      c.ToolName,
		Arguments: c.Arguments,
	})
	if err != nil {
		return "", errs.Wrap(err, errs.CodeMCPCallFailed, "MCP tool "+c.ToolName+" failed", errs.CategoryTemporary)
	}

	text := flattenMCPContent(res)
	if res.IsError {
		return "", errs.Permanent(errs.CodeMCPCallFailed, "MCP tool "+c.ToolName+" reported an error: "+text)
	}

	// The wrapped form lets a later parse of the conversation attribute
	// this result back to its server.
	return "[use_mcp_tool for '" + c.Server + "']\n" + text, nil
}

func flattenMCPContent(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

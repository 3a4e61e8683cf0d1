package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/kutbudev/gtm-mcp/internal/apperrors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const ServerName = "gtm-mcp"

// Version is overridden at build time with -ldflags.
var Version = "1.0.0"

const instructions = `Google Tag Manager tools.

Resources are nested: account → container → workspace → tag, trigger,
variable, folder, built-in variable. Every tool takes an 'action' and the
IDs of all ancestors of the resource it addresses.

## Typical flow
1. gtm_account action=list to find accountId
2. gtm_container action=list accountId=... to find containerId
3. gtm_workspace action=list to find workspaceId
4. gtm_tag / gtm_trigger / gtm_variable with the three IDs above

## Notes
- create and update take a 'config' object shaped like the GTM API resource.
  Path IDs go in the arguments, not in config.
- list returns the API response as-is; there is no paging.
- If a call reports missing authorization, ask the user to run 'gtm-mcp auth'.`

// NewServer registers every tool of the dispatcher's registry.
func NewServer(d *Dispatcher) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: Version,
		},
		&mcp.ServerOptions{
			CompletionHandler: completionHandler,
			Instructions:      instructions,
		},
	)

	handler := toolHandler(d)
	for _, tool := range d.Registry().Tools() {
		server.AddTool(tool, handler)
	}
	registerResources(server)
	return server
}

// ServeStdio runs the server over stdin/stdout until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, d *Dispatcher) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	log.Info().Str("version", Version).Int("tools", len(d.Registry().Tools())).Msg("starting MCP server on stdio")
	return NewServer(d).Run(ctx, &mcp.StdioTransport{})
}

func toolHandler(d *Dispatcher) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := d.Dispatch(ctx, req.Params.Name, req.Params.Arguments)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(out), nil
	}
}

// textResult returns the remote JSON as indented text content.
func textResult(raw json.RawMessage) *mcp.CallToolResult {
	text := "{}"
	if len(bytes.TrimSpace(raw)) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			text = buf.String()
		} else {
			text = string(raw)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "❌ " + apperrors.Message(err)},
		},
		IsError: true,
	}
}

package mcp

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/euonia/pkg/model"
	goaltool "github.com/m-mizutani/euonia/pkg/tool/goal"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "euonia-goals"

// NewServer exposes the goal tools of uid as an MCP server. Every call runs
// with uid injected, the same way the conversation loop dispatches them.
func NewServer(goals *goaltool.Tool, uid model.UserID, version string) (*mcp.Server, error) {
	return newServer(goals, uid, version, nil)
}

func newServer(goals *goaltool.Tool, uid model.UserID, version string, opts *mcp.ServerOptions) (*mcp.Server, error) {
	if uid == "" {
		return nil, goerr.New("user ID is required")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, opts)

	schemas := goaltool.Schemas()
	for _, name := range goaltool.Names {
		server.AddTool(&mcp.Tool{
			Name:        name,
			Description: goaltool.Description(name),
			InputSchema: schemas[name],
		}, toolHandler(goals, uid, name))
	}

	return server, nil
}

func toolHandler(goals *goaltool.Tool, uid model.UserID, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("arguments must be a JSON object"), nil
			}
		}

		out, err := goals.Execute(ctx, uid, name, args)
		if err != nil {
			logging.From(ctx).Error("goal tool failed", "error", err, "name", name)
			return errorResult("Failed to run " + name + "."), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out}},
		}, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// ServeStdio runs server over stdin/stdout until the client disconnects or ctx is done
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP stdio server failed")
	}
	return nil
}

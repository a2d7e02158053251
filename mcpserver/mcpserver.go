// Package mcpserver offers the workspace and the gateway as MCP tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nuln/workbox/gateway"
	"github.com/nuln/workbox/workspace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with both tools registered.
func New(store *workspace.Store, g *gateway.Gateway) *server.MCPServer {
	s := server.NewMCPServer(
		"workbox",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions(store)),
	)

	fsTool := NewFileSystemTool(store)
	s.AddTool(fsTool.Definition(), fsTool.Handle)

	visitTool := NewVisitTool(g)
	s.AddTool(visitTool.Definition(), visitTool.Handle)

	return s
}

// ServeStdio runs the server over stdin and stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func instructions(store *workspace.Store) string {
	return fmt.Sprintf("Use %s to work with files inside the sandbox rooted at %s. "+
		"Use %s to read web pages as markdown; binary documents are refused.",
		workspace.ToolName, store.Root(), gateway.ToolName)
}

// FileSystemTool dispatches MCP calls to a workspace store.
type FileSystemTool struct {
	store *workspace.Store
}

// NewFileSystemTool wraps store.
func NewFileSystemTool(store *workspace.Store) *FileSystemTool {
	return &FileSystemTool{store: store}
}

// Definition returns the tool schema.
func (t *FileSystemTool) Definition() mcp.Tool {
	return mcp.NewTool(workspace.ToolName,
		mcp.WithDescription(t.store.Description()),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("The operation to perform. list and fetch-to-file are aliases of listdir and download."),
			mcp.Enum(workspace.Names()...),
		),
		mcp.WithArray("args",
			mcp.Description("Positional arguments for the operation."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle runs one operation. Operation failures are returned as tool text,
// never as protocol errors.
func (t *FileSystemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := req.GetArguments()
	op, _ := params["type"].(string)
	if op == "" {
		return mcp.NewToolResultError("Error: 'type' is required"), nil
	}
	args, err := stringList(params["args"])
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	return mcp.NewToolResultText(t.store.Invoke(ctx, op, args)), nil
}

// VisitTool dispatches MCP calls to the content gateway.
type VisitTool struct {
	gateway *gateway.Gateway
}

// NewVisitTool wraps g.
func NewVisitTool(g *gateway.Gateway) *VisitTool {
	return &VisitTool{gateway: g}
}

// Definition returns the tool schema.
func (t *VisitTool) Definition() mcp.Tool {
	return mcp.NewTool(gateway.ToolName,
		mcp.WithDescription(gateway.Description),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the webpage to visit."),
		),
	)
}

// Handle visits the requested URL.
func (t *VisitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, _ := req.GetArguments()["url"].(string)
	if url == "" {
		return mcp.NewToolResultError("Error: 'url' is required"), nil
	}
	return mcp.NewToolResultText(t.gateway.Invoke(ctx, url)), nil
}

// stringList accepts a JSON array of scalars. Non-string scalars are
// rendered with their default format.
func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			switch x := item.(type) {
			case string:
				out[i] = x
			case float64, bool, int, int64:
				out[i] = fmt.Sprint(x)
			default:
				return nil, fmt.Errorf("args[%d] must be a string", i)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'args' must be an array of strings")
	}
}

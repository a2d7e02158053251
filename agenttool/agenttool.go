// Package agenttool exposes the workspace and the gateway as eino tools for
// an agent loop.
package agenttool

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/nuln/workbox/gateway"
	"github.com/nuln/workbox/workspace"
)

// FileSystemInput is the argument object of the file_system tool.
type FileSystemInput struct {
	Type string   `json:"type"`
	Args []string `json:"args"`
}

// VisitInput is the argument object of the visit_webpage tool.
type VisitInput struct {
	URL string `json:"url"`
}

// NewFileSystemTool offers store as the file_system tool. Failures are
// returned as result text so the agent can read them.
func NewFileSystemTool(store *workspace.Store) tool.InvokableTool {
	return utils.NewTool(&schema.ToolInfo{
		Name: workspace.ToolName,
		Desc: store.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"type": {
				Type:     schema.String,
				Required: true,
				Desc:     "The operation to perform. One of: " + strings.Join(workspace.Names(), ", "),
				Enum:     workspace.Names(),
			},
			"args": {
				Type:     schema.Array,
				Required: true,
				Desc:     "List of string arguments for the operation. The meaning of each element depends on the operation type, see the tool description.",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
		}),
	}, func(ctx context.Context, input *FileSystemInput) (string, error) {
		return store.Invoke(ctx, input.Type, input.Args), nil
	})
}

// NewVisitTool offers g as the visit_webpage tool.
func NewVisitTool(g *gateway.Gateway) tool.InvokableTool {
	return utils.NewTool(&schema.ToolInfo{
		Name: gateway.ToolName,
		Desc: gateway.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"url": {Type: schema.String, Required: true, Desc: "The url of the webpage to visit."},
		}),
	}, func(ctx context.Context, input *VisitInput) (string, error) {
		return g.Invoke(ctx, input.URL), nil
	})
}

// Tools returns both tools, ready to bind to a chat model.
func Tools(store *workspace.Store, g *gateway.Gateway) []tool.BaseTool {
	return []tool.BaseTool{NewFileSystemTool(store), NewVisitTool(g)}
}

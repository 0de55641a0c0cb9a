package kit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPArgs are the arguments of one tool call.
type MCPArgs map[string]any

// String returns key as a trimmed string, or "" when absent or not a string.
func (a MCPArgs) String(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

// Int returns key as an int. JSON numbers arrive as float64; numeric strings
// are accepted too.
func (a MCPArgs) Int(key string) (int, error) {
	switch v := a[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s: not an integer: %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: not an integer", key)
	}
}

// List returns key as a string list. Clients send either a JSON array or a
// comma-separated string; blanks are dropped and an absent key gives nil.
func (a MCPArgs) List(key string) []string {
	var parts []string
	switch v := a[key].(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MCPDecoder builds an endpoint request from tool arguments.
type MCPDecoder func(MCPArgs) (any, error)

// RegisterMCPTool exposes ep as an MCP tool. Decode and endpoint errors come
// back as tool results with isError set, never as protocol errors; a
// successful response is returned as JSON text.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, ep Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(MCPArgs(req.GetArguments()))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if _, ok := ctx.Value(TransportKey).(string); !ok {
			ctx = WithTransport(ctx, "mcp")
		}

		resp, err := ep(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

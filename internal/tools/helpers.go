// Package tools implements the MCP tool handlers for Azure DevOps.
//
// Each tool is a struct holding a ClientFactory:
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// The factory builds a fresh client for every call, so no connection state
// outlives a request. Results are indented JSON text; any failure, local or
// from the backend, becomes a tool error carrying the error message.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

// ClientFactory builds a client for one tool call.
type ClientFactory func() (*azdo.Client, error)

// run builds a client, invokes fn and renders its value as a tool result.
func run[T any](newClient ClientFactory, fn func(c *azdo.Client) (T, error)) (*mcp.CallToolResult, error) {
	c, err := newClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := fn(c)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// optBoolArg returns nil when the argument is absent.
func optBoolArg(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// optStringArg returns nil when the argument is absent, so an explicit
// empty string can still be sent.
func optStringArg(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// stringSliceArg accepts a JSON array of strings or a comma-separated string.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return strings.Split(v, ",")
	}
	return nil
}

// objectArg extracts a JSON object argument.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

// scopeArg reads the optional project and repository arguments.
func scopeArg(req mcp.CallToolRequest) azdo.Scope {
	return azdo.Scope{
		Project:    req.GetString("project", ""),
		Repository: req.GetString("repository", ""),
	}
}

// requiredInt returns a tool error message when a positive id is missing.
func requiredInt(req mcp.CallToolRequest, key string) (int, *mcp.CallToolResult) {
	v := intArg(req, key, 0)
	if v <= 0 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("'%s' is required", key))
	}
	return v, nil
}

// requiredString returns a tool error when a string argument is blank.
func requiredString(req mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", key))
	}
	return v, nil
}

// Common parameter options shared by many tools.

func withProject() mcp.ToolOption {
	return mcp.WithString("project",
		mcp.Description("Project name (default: AZDO_PROJECT)"),
	)
}

func withRepository() mcp.ToolOption {
	return mcp.WithString("repository",
		mcp.Description("Repository name or id (default: AZDO_REPOSITORY)"),
	)
}

func withPRID() mcp.ToolOption {
	return mcp.WithNumber("pr_id",
		mcp.Required(),
		mcp.Description("Pull request id"),
	)
}

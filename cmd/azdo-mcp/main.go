// azdo-mcp: Azure DevOps MCP Server
//
// Exposes work items, pull requests, wikis, test plans and attachments of an
// Azure DevOps Server (on-premises) or Azure DevOps Services deployment as
// MCP tools over stdio.
//
// Usage:
//
//	azdo-mcp serve    # Start MCP server (stdio transport)
//	azdo-mcp check    # Validate the configuration and list projects
//	azdo-mcp version  # Print the version
package main

import (
	"fmt"
	"os"

	"github.com/HendryAvila/azdo-mcp/internal/server"
)

func main() {
	if err := newRootCmd(server.Version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

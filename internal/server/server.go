// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it turns a config loader into a client
// factory and injects it into the tools, prompts and resources.
// No business logic lives here, only wiring.
package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
	"github.com/HendryAvila/azdo-mcp/internal/config"
	"github.com/HendryAvila/azdo-mcp/internal/prompts"
	"github.com/HendryAvila/azdo-mcp/internal/resources"
	"github.com/HendryAvila/azdo-mcp/internal/telemetry"
	"github.com/HendryAvila/azdo-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the server name announced to hosts.
const Name = "azdo-mcp"

// UserAgent is sent on every backend request.
func UserAgent() string {
	return Name + "/" + Version
}

// NewClientFactory returns a factory that reloads the connection on every
// call, so settings changed between tool calls take effect without a restart.
func NewClientFactory(loader *config.Loader, logger *slog.Logger) tools.ClientFactory {
	return func() (*azdo.Client, error) {
		conn, err := loader.Connection()
		if err != nil {
			return nil, err
		}
		return azdo.NewClient(conn,
			azdo.WithLogger(logger),
			azdo.WithUserAgent(UserAgent()),
			azdo.WithTracerProvider(telemetry.TracerProvider()),
		)
	}
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
func New(loader *config.Loader, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	for _, t := range tools.All(NewClientFactory(loader, logger)) {
		s.AddTool(t.Definition(), t.Handle)
	}

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPRPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	triagePrompt := prompts.NewTriagePrompt()
	s.AddPrompt(triagePrompt.Definition(), triagePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(loader.Connection)
	s.AddResource(resourceHandler.ConnectionResource(), resourceHandler.HandleConnection)

	logger.Debug("server configured", "name", Name, "version", Version)
	return s
}

// serverInstructions tells the host how the tools fit together.
func serverInstructions() string {
	return `You have access to an Azure DevOps Server / Azure DevOps Services deployment.

## Scoping
Most tools accept optional "project" and "repository" arguments. When omitted
the connection defaults (AZDO_PROJECT, AZDO_REPOSITORY) are used. If neither is
set the tool fails and tells you which one to pass. Read the azdo://connection
resource to see the effective defaults.

## Work items
- search_work_items takes a WIQL query selecting [System.Id] and returns the
  full work items, not just ids.
- update_work_item applies field changes, tag changes and a history comment in
  one atomic update. Tag removal is case-insensitive.
- Use get_work_item with expand Relations (or All) before
  list_work_item_attachments.

## Pull requests
- get_pr_diffs returns file-level changes; pass include_content to attach file
  text. get_pr_file_content returns exact bytes (base64) at either side.
- Reviewer votes: 10 approved, 5 approved with suggestions, 0 no vote,
  -5 waiting for author, -10 rejected.
- complete_pull_request merges immediately; update_pull_request with
  auto_complete_set=true merges once policies pass.

## Wiki
- upsert_wiki_page writes unconditionally and may create the page.
- update_wiki_page only edits an existing page and fails if the page changed
  since its version was read. Prefer it when editing.

## Test plans
- Test Case steps are exchanged as ordered {action, expected} pairs.
- add_test_case_to_suite links an existing Test Case work item; create it first
  with create_test_case.

Every result is JSON. Errors carry the backend status and message verbatim.`
}

package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTriageQuery selects new, unassigned work in the project.
const defaultTriageQuery = "SELECT [System.Id] FROM WorkItems " +
	"WHERE [System.TeamProject] = @project AND [System.State] = 'New' " +
	"AND [System.AssignedTo] = '' ORDER BY [System.CreatedDate] DESC"

// TriagePrompt handles the azdo-triage MCP prompt.
type TriagePrompt struct{}

// NewTriagePrompt creates a TriagePrompt.
func NewTriagePrompt() *TriagePrompt {
	return &TriagePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TriagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("azdo-triage",
		mcp.WithPromptDescription(
			"Triage incoming work items: find new unassigned items and propose "+
				"an owner, state and tags for each.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project name (default: AZDO_PROJECT)"),
		),
		mcp.WithArgument("query",
			mcp.ArgumentDescription("WIQL query selecting [System.Id]. Default: new unassigned items"),
		),
	)
}

// Handle processes the azdo-triage prompt request.
func (p *TriagePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := defaultTriageQuery
	project := ""
	if args := req.Params.Arguments; args != nil {
		if q := strings.TrimSpace(args["query"]); q != "" {
			query = q
		}
		project = strings.TrimSpace(args["project"])
	}

	scope := "the default project"
	projectArg := ""
	if project != "" {
		scope = fmt.Sprintf("project '%s'", project)
		projectArg = fmt.Sprintf(" and project='%s'", project)
	}

	return &mcp.GetPromptResult{
		Description: "Triage work items in " + scope,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Help me triage work items in %s.\n\n"+
						"1. Run `search_work_items` with wiql=%q%s\n"+
						"2. For each item, summarize it in one line and propose an assignee, a state and tags\n"+
						"3. Show the proposals as a table and wait for my confirmation\n"+
						"4. Apply the confirmed ones with `update_work_item` (fields, add_tags and a comment "+
						"explaining the triage decision)",
					scope, query, projectArg,
				)),
			},
		},
	}, nil
}

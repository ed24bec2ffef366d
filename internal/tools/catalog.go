package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is the shape every handler in this package shares.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// All returns every tool in registration order.
func All(f ClientFactory) []Tool {
	return []Tool{
		// --- Work items ---
		NewListProjectsTool(f),
		NewSearchWorkItemsTool(f),
		NewGetWorkItemTool(f),
		NewCreateTaskTool(f),
		NewUpdateWorkItemTool(f),
		NewAddCommentTool(f),
		NewAssignWorkItemTool(f),
		NewTransitionStateTool(f),
		NewLinkWorkItemsTool(f),

		// --- Repositories and pull requests ---
		NewListRepositoriesTool(f),
		NewListPullRequestsTool(f),
		NewGetPullRequestTool(f),
		NewGetPRDiffsTool(f),
		NewGetPRFileContentTool(f),
		NewListPRCommitsTool(f),
		NewListPRThreadsTool(f),
		NewCreatePRCommentTool(f),
		NewListPRReviewersTool(f),
		NewAddPRReviewerTool(f),
		NewSetReviewerVoteTool(f),
		NewUpdatePullRequestTool(f),
		NewCompletePullRequestTool(f),
		NewAbandonPullRequestTool(f),

		// --- Wiki ---
		NewListWikisTool(f),
		NewListWikiPagesTool(f),
		NewGetWikiPageTool(f),
		NewUpsertWikiPageTool(f),
		NewUpdateWikiPageTool(f),
		NewDeleteWikiPageTool(f),

		// --- Test plans ---
		NewListTestPlansTool(f),
		NewCreateTestPlanTool(f),
		NewListTestSuitesTool(f),
		NewCreateTestSuiteTool(f),
		NewListTestCasesTool(f),
		NewCreateTestCaseTool(f),
		NewAddTestCaseToSuiteTool(f),
		NewRemoveTestCaseFromSuiteTool(f),
		NewSuiteTestCaseWorkItemsTool(f),
		NewGetTestCaseWorkItemTool(f),
		NewGetTestCaseStepsTool(f),
		NewStepsFromWorkItemTool(),

		// --- Attachments ---
		NewListAttachmentsTool(),
		NewDownloadAttachmentTool(f),
	}
}

// Package prompts implements MCP prompt handlers for common Azure DevOps
// workflows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPRPrompt handles the azdo-review-pr MCP prompt.
// It walks the AI through reviewing a pull request and leaving feedback.
type ReviewPRPrompt struct{}

// NewReviewPRPrompt creates a ReviewPRPrompt.
func NewReviewPRPrompt() *ReviewPRPrompt {
	return &ReviewPRPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPRPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("azdo-review-pr",
		mcp.WithPromptDescription(
			"Review a pull request: read its description, changes and existing "+
				"discussion, then propose inline comments and a vote.",
		),
		mcp.WithArgument("pr_id",
			mcp.ArgumentDescription("Pull request id"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("repository",
			mcp.ArgumentDescription("Repository name (default: AZDO_REPOSITORY)"),
		),
	)
}

// Handle processes the azdo-review-pr prompt request.
func (p *ReviewPRPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	prID := strings.TrimSpace(args["pr_id"])
	if prID == "" {
		return nil, fmt.Errorf("pr_id is required")
	}

	repoArg := ""
	if repo := strings.TrimSpace(args["repository"]); repo != "" {
		repoArg = fmt.Sprintf(", repository='%s'", repo)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review pull request %s", prID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review pull request %[1]s.\n\n"+
						"1. Run `get_pull_request` with pr_id=%[1]s%[2]s and summarize its intent\n"+
						"2. Run `list_pr_threads` to see what has already been discussed\n"+
						"3. Run `get_pr_diffs` with include_content=true and read every changed file\n"+
						"4. Use `get_pr_file_content` with side='target' when you need the previous version\n"+
						"5. Present your findings grouped by file, with line numbers\n"+
						"6. Ask me before posting anything. On approval, post each finding with "+
						"`create_pr_comment` (file_path, start_line, end_line) and set my vote with `set_reviewer_vote`",
					prID, repoArg,
				)),
			},
		},
	}, nil
}

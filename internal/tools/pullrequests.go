package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

// ListRepositoriesTool handles the list_repositories MCP tool.
type ListRepositoriesTool struct {
	newClient ClientFactory
}

// NewListRepositoriesTool creates a ListRepositoriesTool.
func NewListRepositoriesTool(f ClientFactory) *ListRepositoriesTool {
	return &ListRepositoriesTool{newClient: f}
}

// Definition returns the MCP tool definition for list_repositories.
func (t *ListRepositoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_repositories",
		mcp.WithDescription("List Git repositories of a project."),
		withProject(),
	)
}

// Handle processes the list_repositories tool call.
func (t *ListRepositoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListRepositories(ctx, project)
	})
}

// ListPullRequestsTool handles the list_pull_requests MCP tool.
type ListPullRequestsTool struct {
	newClient ClientFactory
}

// NewListPullRequestsTool creates a ListPullRequestsTool.
func NewListPullRequestsTool(f ClientFactory) *ListPullRequestsTool {
	return &ListPullRequestsTool{newClient: f}
}

// Definition returns the MCP tool definition for list_pull_requests.
func (t *ListPullRequestsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_pull_requests",
		mcp.WithDescription("List pull requests in a repository with optional filters."),
		withRepository(),
		withProject(),
		mcp.WithString("status",
			mcp.Description("Status filter (default: active)"),
			mcp.Enum(azdo.StatusActive, azdo.StatusCompleted, azdo.StatusAbandoned, azdo.StatusAll),
		),
		mcp.WithString("creator_id", mcp.Description("Creator identity id")),
		mcp.WithString("reviewer_id", mcp.Description("Reviewer identity id")),
		mcp.WithString("target_ref_name", mcp.Description("Target branch, e.g. refs/heads/main")),
		mcp.WithString("source_ref_name", mcp.Description("Source branch, e.g. refs/heads/feature/x")),
		mcp.WithNumber("top", mcp.Description("Max results (default: 25)")),
	)
}

// Handle processes the list_pull_requests tool call.
func (t *ListPullRequestsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := azdo.PullRequestQuery{
		Scope:         scopeArg(req),
		Status:        req.GetString("status", azdo.StatusActive),
		CreatorID:     req.GetString("creator_id", ""),
		ReviewerID:    req.GetString("reviewer_id", ""),
		TargetRefName: req.GetString("target_ref_name", ""),
		SourceRefName: req.GetString("source_ref_name", ""),
		Top:           intArg(req, "top", 25),
	}
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListPullRequests(ctx, q)
	})
}

// prTool backs the read-only tools that take only a pull request id.
type prTool struct {
	newClient ClientFactory
	name      string
	desc      string
	call      func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error)
}

// Definition returns the MCP tool definition.
func (t *prTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name,
		mcp.WithDescription(t.desc),
		withPRID(),
		withRepository(),
		withProject(),
	)
}

// Handle processes the tool call.
func (t *prTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (any, error) {
		return t.call(ctx, c, s, id)
	})
}

// GetPullRequestTool handles the get_pull_request MCP tool.
type GetPullRequestTool struct{ prTool }

// NewGetPullRequestTool creates a GetPullRequestTool.
func NewGetPullRequestTool(f ClientFactory) *GetPullRequestTool {
	return &GetPullRequestTool{prTool{
		newClient: f,
		name:      "get_pull_request",
		desc:      "Get a single pull request.",
		call: func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error) {
			return c.GetPullRequest(ctx, s, id)
		},
	}}
}

// ListPRCommitsTool handles the list_pr_commits MCP tool.
type ListPRCommitsTool struct{ prTool }

// NewListPRCommitsTool creates a ListPRCommitsTool.
func NewListPRCommitsTool(f ClientFactory) *ListPRCommitsTool {
	return &ListPRCommitsTool{prTool{
		newClient: f,
		name:      "list_pr_commits",
		desc:      "List commits included in a pull request.",
		call: func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error) {
			return c.ListPullRequestCommits(ctx, s, id)
		},
	}}
}

// ListPRThreadsTool handles the list_pr_threads MCP tool.
type ListPRThreadsTool struct{ prTool }

// NewListPRThreadsTool creates a ListPRThreadsTool.
func NewListPRThreadsTool(f ClientFactory) *ListPRThreadsTool {
	return &ListPRThreadsTool{prTool{
		newClient: f,
		name:      "list_pr_threads",
		desc:      "List discussion threads of a pull request.",
		call: func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error) {
			return c.ListPullRequestThreads(ctx, s, id)
		},
	}}
}

// ListPRReviewersTool handles the list_pr_reviewers MCP tool.
type ListPRReviewersTool struct{ prTool }

// NewListPRReviewersTool creates a ListPRReviewersTool.
func NewListPRReviewersTool(f ClientFactory) *ListPRReviewersTool {
	return &ListPRReviewersTool{prTool{
		newClient: f,
		name:      "list_pr_reviewers",
		desc:      "List reviewers of a pull request and their votes.",
		call: func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error) {
			return c.ListReviewers(ctx, s, id)
		},
	}}
}

// AbandonPullRequestTool handles the abandon_pull_request MCP tool.
type AbandonPullRequestTool struct{ prTool }

// NewAbandonPullRequestTool creates an AbandonPullRequestTool.
func NewAbandonPullRequestTool(f ClientFactory) *AbandonPullRequestTool {
	return &AbandonPullRequestTool{prTool{
		newClient: f,
		name:      "abandon_pull_request",
		desc:      "Abandon (close without merging) a pull request.",
		call: func(ctx context.Context, c *azdo.Client, s azdo.Scope, id int) (any, error) {
			return c.AbandonPullRequest(ctx, s, id)
		},
	}}
}

// GetPRDiffsTool handles the get_pr_diffs MCP tool.
type GetPRDiffsTool struct {
	newClient ClientFactory
}

// NewGetPRDiffsTool creates a GetPRDiffsTool.
func NewGetPRDiffsTool(f ClientFactory) *GetPRDiffsTool {
	return &GetPRDiffsTool{newClient: f}
}

// Definition returns the MCP tool definition for get_pr_diffs.
func (t *GetPRDiffsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_pr_diffs",
		mcp.WithDescription(
			"Get the file-level changes of a pull request. "+
				"If the server cannot resolve the branch refs (TF401175) the comparison is retried with commit ids.",
		),
		withPRID(),
		withRepository(),
		withProject(),
		mcp.WithBoolean("include_content",
			mcp.Description("Attach the source-side text of each changed file (default: false)"),
		),
		mcp.WithNumber("top", mcp.Description("Max changes to return")),
		mcp.WithNumber("skip", mcp.Description("Changes to skip")),
	)
}

// Handle processes the get_pr_diffs tool call.
func (t *GetPRDiffsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	s := scopeArg(req)
	opts := azdo.DiffOptions{
		IncludeContent: boolArg(req, "include_content", false),
		Top:            intArg(req, "top", 0),
		Skip:           intArg(req, "skip", 0),
	}
	return run(t.newClient, func(c *azdo.Client) (*azdo.PullRequestDiff, error) {
		return c.GetPullRequestDiffs(ctx, s, id, opts)
	})
}

// GetPRFileContentTool handles the get_pr_file_content MCP tool.
type GetPRFileContentTool struct {
	newClient ClientFactory
}

// NewGetPRFileContentTool creates a GetPRFileContentTool.
func NewGetPRFileContentTool(f ClientFactory) *GetPRFileContentTool {
	return &GetPRFileContentTool{newClient: f}
}

// Definition returns the MCP tool definition for get_pr_file_content.
func (t *GetPRFileContentTool) Definition() mcp.Tool {
	return mcp.NewTool("get_pr_file_content",
		mcp.WithDescription(
			"Download a file at a pull request's source and/or target commit. "+
				"Returns base64 content plus commit and ref metadata.",
		),
		withPRID(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Repository path, e.g. /src/main.go")),
		withRepository(),
		withProject(),
		mcp.WithString("side",
			mcp.Description("Which side to read (default: source)"),
			mcp.Enum(azdo.SideSource, azdo.SideTarget, azdo.SideBoth),
		),
	)
}

// Handle processes the get_pr_file_content tool call.
func (t *GetPRFileContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	path, errResult := requiredString(req, "path")
	if errResult != nil {
		return errResult, nil
	}
	side := req.GetString("side", azdo.SideSource)
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (*azdo.PullRequestFileContent, error) {
		return c.GetPullRequestFileContent(ctx, s, id, path, side)
	})
}

// CreatePRCommentTool handles the create_pr_comment MCP tool.
type CreatePRCommentTool struct {
	newClient ClientFactory
}

// NewCreatePRCommentTool creates a CreatePRCommentTool.
func NewCreatePRCommentTool(f ClientFactory) *CreatePRCommentTool {
	return &CreatePRCommentTool{newClient: f}
}

// Definition returns the MCP tool definition for create_pr_comment.
func (t *CreatePRCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("create_pr_comment",
		mcp.WithDescription("Create a pull request comment, optionally anchored to a file and line range."),
		withPRID(),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text (markdown)")),
		withRepository(),
		withProject(),
		mcp.WithString("file_path", mcp.Description("File the comment refers to")),
		mcp.WithNumber("start_line", mcp.Description("First line (1-based, source side)")),
		mcp.WithNumber("end_line", mcp.Description("Last line (1-based, source side)")),
	)
}

// Handle processes the create_pr_comment tool call.
func (t *CreatePRCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	text, errResult := requiredString(req, "text")
	if errResult != nil {
		return errResult, nil
	}
	in := azdo.CommentInput{
		Text:      text,
		FilePath:  req.GetString("file_path", ""),
		StartLine: intArg(req, "start_line", 0),
		EndLine:   intArg(req, "end_line", 0),
	}
	if in.EndLine > 0 && in.StartLine > in.EndLine {
		return mcp.NewToolResultError("'start_line' must not be after 'end_line'"), nil
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CreatePullRequestComment(ctx, s, id, in)
	})
}

// AddPRReviewerTool handles the add_pr_reviewer MCP tool.
type AddPRReviewerTool struct {
	newClient ClientFactory
}

// NewAddPRReviewerTool creates an AddPRReviewerTool.
func NewAddPRReviewerTool(f ClientFactory) *AddPRReviewerTool {
	return &AddPRReviewerTool{newClient: f}
}

// Definition returns the MCP tool definition for add_pr_reviewer.
func (t *AddPRReviewerTool) Definition() mcp.Tool {
	return mcp.NewTool("add_pr_reviewer",
		mcp.WithDescription("Add a reviewer to a pull request by identity id."),
		withPRID(),
		mcp.WithString("reviewer_id", mcp.Required(), mcp.Description("Reviewer identity id (GUID)")),
		withRepository(),
		withProject(),
	)
}

// Handle processes the add_pr_reviewer tool call.
func (t *AddPRReviewerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	reviewer, errResult := requiredString(req, "reviewer_id")
	if errResult != nil {
		return errResult, nil
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.AddReviewer(ctx, s, id, reviewer)
	})
}

// SetReviewerVoteTool handles the set_reviewer_vote MCP tool.
type SetReviewerVoteTool struct {
	newClient ClientFactory
}

// NewSetReviewerVoteTool creates a SetReviewerVoteTool.
func NewSetReviewerVoteTool(f ClientFactory) *SetReviewerVoteTool {
	return &SetReviewerVoteTool{newClient: f}
}

// Definition returns the MCP tool definition for set_reviewer_vote.
func (t *SetReviewerVoteTool) Definition() mcp.Tool {
	return mcp.NewTool("set_reviewer_vote",
		mcp.WithDescription(
			"Set a reviewer's vote on a pull request. "+
				"Votes: 10 approved, 5 approved with suggestions, 0 no vote, -5 waiting for author, -10 rejected.",
		),
		withPRID(),
		mcp.WithString("reviewer_id", mcp.Required(), mcp.Description("Reviewer identity id (GUID)")),
		mcp.WithNumber("vote", mcp.Required(), mcp.Description("One of -10, -5, 0, 5, 10")),
		withRepository(),
		withProject(),
	)
}

// Handle processes the set_reviewer_vote tool call.
func (t *SetReviewerVoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	reviewer, errResult := requiredString(req, "reviewer_id")
	if errResult != nil {
		return errResult, nil
	}
	if _, ok := req.GetArguments()["vote"].(float64); !ok {
		return mcp.NewToolResultError("'vote' is required"), nil
	}
	vote := intArg(req, "vote", 0)
	if !slices.Contains(azdo.ValidVotes, vote) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid vote %d: must be one of -10, -5, 0, 5, 10", vote)), nil
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.SetReviewerVote(ctx, s, id, reviewer, vote)
	})
}

// UpdatePullRequestTool handles the update_pull_request MCP tool.
type UpdatePullRequestTool struct {
	newClient ClientFactory
}

// NewUpdatePullRequestTool creates an UpdatePullRequestTool.
func NewUpdatePullRequestTool(f ClientFactory) *UpdatePullRequestTool {
	return &UpdatePullRequestTool{newClient: f}
}

// Definition returns the MCP tool definition for update_pull_request.
func (t *UpdatePullRequestTool) Definition() mcp.Tool {
	return mcp.NewTool("update_pull_request",
		mcp.WithDescription("Update a pull request's title, description, auto-complete, completion options or status."),
		withPRID(),
		withRepository(),
		withProject(),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithBoolean("auto_complete_set",
			mcp.Description("true marks the pull request to complete automatically once policies pass"),
		),
		mcp.WithObject("completion_options",
			mcp.Description("Raw completionOptions object, e.g. {\"deleteSourceBranch\": true, \"mergeStrategy\": \"squash\"}"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(azdo.StatusActive, azdo.StatusCompleted, azdo.StatusAbandoned),
		),
	)
}

// Handle processes the update_pull_request tool call.
func (t *UpdatePullRequestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	u := azdo.PullRequestUpdate{
		Title:             optStringArg(req, "title"),
		Description:       optStringArg(req, "description"),
		AutoComplete:      optBoolArg(req, "auto_complete_set"),
		CompletionOptions: objectArg(req, "completion_options"),
		Status:            req.GetString("status", ""),
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.UpdatePullRequest(ctx, s, id, u)
	})
}

// CompletePullRequestTool handles the complete_pull_request MCP tool.
type CompletePullRequestTool struct {
	newClient ClientFactory
}

// NewCompletePullRequestTool creates a CompletePullRequestTool.
func NewCompletePullRequestTool(f ClientFactory) *CompletePullRequestTool {
	return &CompletePullRequestTool{newClient: f}
}

// Definition returns the MCP tool definition for complete_pull_request.
func (t *CompletePullRequestTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_pull_request",
		mcp.WithDescription("Complete (merge) a pull request with optional completion options."),
		withPRID(),
		withRepository(),
		withProject(),
		mcp.WithBoolean("delete_source_branch", mcp.Description("Delete the source branch after merging")),
		mcp.WithString("merge_commit_message", mcp.Description("Merge commit message")),
		mcp.WithString("merge_strategy",
			mcp.Description("Merge strategy"),
			mcp.Enum("noFastForward", "squash", "rebase", "rebaseMerge"),
		),
		mcp.WithBoolean("transition_work_items", mcp.Description("Resolve linked work items")),
		mcp.WithBoolean("squash_merge", mcp.Description("Squash commits (legacy option)")),
	)
}

// Handle processes the complete_pull_request tool call.
func (t *CompletePullRequestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "pr_id")
	if errResult != nil {
		return errResult, nil
	}
	opts := azdo.CompletionOptions{
		DeleteSourceBranch:  optBoolArg(req, "delete_source_branch"),
		MergeCommitMessage:  optStringArg(req, "merge_commit_message"),
		MergeStrategy:       req.GetString("merge_strategy", ""),
		TransitionWorkItems: optBoolArg(req, "transition_work_items"),
		SquashMerge:         optBoolArg(req, "squash_merge"),
	}
	s := scopeArg(req)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CompletePullRequest(ctx, s, id, opts)
	})
}

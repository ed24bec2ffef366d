package azdo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Pull request statuses accepted by searchCriteria.status and updates.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
	StatusAll       = "all"
)

// ValidVotes are the reviewer votes the backend accepts:
// rejected, waiting for author, no vote, approved with suggestions, approved.
var ValidVotes = []int{-10, -5, 0, 5, 10}

// ListRepositories returns the Git repositories of a project.
func (c *Client) ListRepositories(ctx context.Context, project string) ([]Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.apiURL("/_apis/git/repositories", proj), nil)
}

// prURL builds /_apis/git/repositories/{repo}/pullRequests[/{id}]{suffix}.
func (c *Client) prURL(project, repo string, id int, suffix string) string {
	p := "/_apis/git/repositories/" + seg(repo) + "/pullRequests"
	if id > 0 {
		p += "/" + strconv.Itoa(id)
	}
	return c.apiURL(p+suffix, project)
}

// PullRequestQuery filters ListPullRequests. Empty fields are not sent.
type PullRequestQuery struct {
	Scope
	Status        string
	CreatorID     string
	ReviewerID    string
	TargetRefName string
	SourceRefName string
	Top           int
}

// ListPullRequests searches pull requests in a repository. Status defaults
// to active.
func (c *Client) ListPullRequests(ctx context.Context, q PullRequestQuery) ([]Document, error) {
	proj, repo, err := c.resolveRepo(q.Scope)
	if err != nil {
		return nil, err
	}

	status := q.Status
	if status == "" {
		status = StatusActive
	}
	params := url.Values{}
	params.Set("searchCriteria.status", status)
	setIf := func(k, v string) {
		if v != "" {
			params.Set(k, v)
		}
	}
	setIf("searchCriteria.creatorId", q.CreatorID)
	setIf("searchCriteria.reviewerId", q.ReviewerID)
	setIf("searchCriteria.targetRefName", q.TargetRefName)
	setIf("searchCriteria.sourceRefName", q.SourceRefName)
	if q.Top > 0 {
		params.Set("$top", strconv.Itoa(q.Top))
	}

	return c.values(ctx, c.prURL(proj, repo, 0, ""), params)
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, s Scope, id int) (Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, c.prURL(proj, repo, id, ""), nil)
}

// ListPullRequestCommits lists the commits included in a pull request.
func (c *Client) ListPullRequestCommits(ctx context.Context, s Scope, id int) ([]Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.prURL(proj, repo, id, "/commits"), nil)
}

// ListPullRequestThreads lists discussion threads of a pull request.
func (c *Client) ListPullRequestThreads(ctx context.Context, s Scope, id int) ([]Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.prURL(proj, repo, id, "/threads"), nil)
}

// CommentInput is a new pull request comment. FilePath anchors it to a file;
// StartLine/EndLine (1-based, 0 = unset) narrow it to a range on the source side.
type CommentInput struct {
	Text      string
	FilePath  string
	StartLine int
	EndLine   int
}

// CreatePullRequestComment starts a new active thread with one text comment.
func (c *Client) CreatePullRequestComment(ctx context.Context, s Scope, id int, in CommentInput) (Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"comments": []map[string]any{{
			"parentCommentId": 0,
			"content":         in.Text,
			"commentType":     1, // text
		}},
		"status": 1, // active
	}
	if in.FilePath != "" {
		thread := map[string]any{"filePath": in.FilePath}
		if in.StartLine > 0 {
			thread["rightFileStart"] = map[string]any{"line": in.StartLine, "offset": 1}
		}
		if in.EndLine > 0 {
			thread["rightFileEnd"] = map[string]any{"line": in.EndLine, "offset": 1}
		}
		body["threadContext"] = thread
	}
	return c.postJSON(ctx, c.prURL(proj, repo, id, "/threads"), nil, body)
}

// ListReviewers lists reviewers and their votes.
func (c *Client) ListReviewers(ctx context.Context, s Scope, id int) ([]Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.prURL(proj, repo, id, "/reviewers"), nil)
}

// AddReviewer adds an identity as reviewer. The PUT is idempotent.
func (c *Client) AddReviewer(ctx context.Context, s Scope, id int, reviewerID string) (Document, error) {
	return c.putReviewer(ctx, s, id, reviewerID, map[string]any{"id": reviewerID})
}

// SetReviewerVote records a reviewer's vote; see ValidVotes.
func (c *Client) SetReviewerVote(ctx context.Context, s Scope, id int, reviewerID string, vote int) (Document, error) {
	return c.putReviewer(ctx, s, id, reviewerID, map[string]any{"vote": vote})
}

func (c *Client) putReviewer(ctx context.Context, s Scope, id int, reviewerID string, body map[string]any) (Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.putJSON(ctx, c.prURL(proj, repo, id, "/reviewers/"+seg(reviewerID)), nil, body, nil)
}

// PullRequestUpdate is a sparse update: nil/empty fields are not sent.
type PullRequestUpdate struct {
	Title       *string
	Description *string
	// AutoComplete set to true marks the PR for auto-complete. False and nil
	// both leave autoCompleteSetBy out of the request.
	AutoComplete      *bool
	CompletionOptions map[string]any
	Status            string
	// LastMergeSourceCommit pins the source commit being completed.
	LastMergeSourceCommit string
}

// body builds the partial-update payload.
func (u PullRequestUpdate) body() map[string]any {
	body := map[string]any{}
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.AutoComplete != nil && *u.AutoComplete {
		body["autoCompleteSetBy"] = map[string]any{"id": uuid.Nil.String()}
	}
	if u.CompletionOptions != nil {
		body["completionOptions"] = u.CompletionOptions
	}
	if u.Status != "" {
		body["status"] = u.Status
	}
	if u.LastMergeSourceCommit != "" {
		body["lastMergeSourceCommit"] = map[string]any{"commitId": u.LastMergeSourceCommit}
	}
	return body
}

// UpdatePullRequest sends a partial update to a pull request.
func (c *Client) UpdatePullRequest(ctx context.Context, s Scope, id int, u PullRequestUpdate) (Document, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	return c.sendJSON(ctx, request{
		method: http.MethodPatch,
		url:    c.prURL(proj, repo, id, ""),
		body:   u.body(),
	})
}

// CompletionOptions controls how a pull request is merged. Nil/empty
// fields are left to the server defaults.
type CompletionOptions struct {
	DeleteSourceBranch  *bool
	MergeCommitMessage  *string
	MergeStrategy       string
	TransitionWorkItems *bool
	SquashMerge         *bool
}

func (o CompletionOptions) asMap() map[string]any {
	m := map[string]any{}
	if o.DeleteSourceBranch != nil {
		m["deleteSourceBranch"] = *o.DeleteSourceBranch
	}
	if o.MergeCommitMessage != nil {
		m["mergeCommitMessage"] = *o.MergeCommitMessage
	}
	if o.MergeStrategy != "" {
		m["mergeStrategy"] = o.MergeStrategy
	}
	if o.TransitionWorkItems != nil {
		m["transitionWorkItems"] = *o.TransitionWorkItems
	}
	if o.SquashMerge != nil {
		m["squashMerge"] = *o.SquashMerge
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// CompletePullRequest requests the transition to completed (merge). The
// backend only completes the source commit it was told about, so the pull
// request is read first to pin its last merge source commit.
func (c *Client) CompletePullRequest(ctx context.Context, s Scope, id int, opts CompletionOptions) (Document, error) {
	pr, err := c.GetPullRequest(ctx, s, id)
	if err != nil {
		return nil, err
	}
	return c.UpdatePullRequest(ctx, s, id, PullRequestUpdate{
		Status:                StatusCompleted,
		CompletionOptions:     opts.asMap(),
		LastMergeSourceCommit: stringField(pr, "lastMergeSourceCommit", "commitId"),
	})
}

// AbandonPullRequest closes a pull request without merging.
func (c *Client) AbandonPullRequest(ctx context.Context, s Scope, id int) (Document, error) {
	return c.UpdatePullRequest(ctx, s, id, PullRequestUpdate{Status: StatusAbandoned})
}

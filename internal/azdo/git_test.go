package azdo

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestListPullRequests_SearchCriteria(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"value": []any{map[string]any{"pullRequestId": 1}}}))
	c := newTestClient(t, fb)

	prs, err := c.ListPullRequests(context.Background(), PullRequestQuery{
		CreatorID:     "abc",
		TargetRefName: "refs/heads/main",
		Top:           25,
	})
	require.NoError(t, err)
	assert.Len(t, prs, 1)

	req := fb.last(t)
	assert.Equal(t, "/DefaultCollection/Proj/_apis/git/repositories/repo/pullRequests", req.Path)
	assert.Equal(t, "active", req.Query.Get("searchCriteria.status"))
	assert.Equal(t, "abc", req.Query.Get("searchCriteria.creatorId"))
	assert.Equal(t, "refs/heads/main", req.Query.Get("searchCriteria.targetRefName"))
	assert.Equal(t, "25", req.Query.Get("$top"))
	assert.NotContains(t, req.Query, "searchCriteria.reviewerId")
}

func TestCreatePullRequestComment_ThreadContext(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"id": 1}))
	c := newTestClient(t, fb)

	_, err := c.CreatePullRequestComment(context.Background(), Scope{}, 7, CommentInput{
		Text:      "nit",
		FilePath:  "/src/main.go",
		StartLine: 10,
	})
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, "/DefaultCollection/Proj/_apis/git/repositories/repo/pullRequests/7/threads", req.Path)
	var body map[string]any
	req.jsonBody(t, &body)
	assert.Equal(t, float64(1), body["status"])
	thread := body["threadContext"].(map[string]any)
	assert.Equal(t, "/src/main.go", thread["filePath"])
	assert.Equal(t, map[string]any{"line": float64(10), "offset": float64(1)}, thread["rightFileStart"])
	assert.NotContains(t, thread, "rightFileEnd")
}

func TestCreatePullRequestComment_General(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"id": 1}))
	c := newTestClient(t, fb)

	_, err := c.CreatePullRequestComment(context.Background(), Scope{}, 7, CommentInput{Text: "LGTM"})
	require.NoError(t, err)

	var body map[string]any
	fb.last(t).jsonBody(t, &body)
	assert.NotContains(t, body, "threadContext")
}

func TestReviewerBodies(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{}))
	c := newTestClient(t, fb)
	ctx := context.Background()

	_, err := c.AddReviewer(ctx, Scope{}, 3, "user-1")
	require.NoError(t, err)
	add := fb.last(t)
	assert.Equal(t, http.MethodPut, add.Method)
	assert.Equal(t, "/DefaultCollection/Proj/_apis/git/repositories/repo/pullRequests/3/reviewers/user-1", add.Path)
	var addBody map[string]any
	add.jsonBody(t, &addBody)
	assert.Equal(t, map[string]any{"id": "user-1"}, addBody)

	_, err = c.SetReviewerVote(ctx, Scope{}, 3, "user-1", 10)
	require.NoError(t, err)
	var voteBody map[string]any
	fb.last(t).jsonBody(t, &voteBody)
	assert.Equal(t, map[string]any{"vote": float64(10)}, voteBody)
}

func TestPullRequestUpdate_Sparse(t *testing.T) {
	assert.Empty(t, PullRequestUpdate{}.body())
	assert.Equal(t, map[string]any{"title": "T"}, PullRequestUpdate{Title: strPtr("T")}.body())
}

func TestPullRequestUpdate_AutoCompleteOnlyWhenTrue(t *testing.T) {
	on := PullRequestUpdate{AutoComplete: boolPtr(true)}.body()
	assert.Equal(t, map[string]any{"id": uuid.Nil.String()}, on["autoCompleteSetBy"])

	off := PullRequestUpdate{AutoComplete: boolPtr(false)}.body()
	assert.NotContains(t, off, "autoCompleteSetBy")
}

func TestUpdatePullRequest_Patch(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"pullRequestId": 4}))
	c := newTestClient(t, fb)

	_, err := c.UpdatePullRequest(context.Background(), Scope{Repository: "other"}, 4, PullRequestUpdate{
		Description: strPtr("new"),
	})
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/DefaultCollection/Proj/_apis/git/repositories/other/pullRequests/4", req.Path)
	var body map[string]any
	req.jsonBody(t, &body)
	assert.Equal(t, map[string]any{"description": "new"}, body)
}

func TestCompletePullRequest_PinsSourceCommit(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r recordedRequest) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{
				"pullRequestId":         4,
				"lastMergeSourceCommit": map[string]any{"commitId": "abc123"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pullRequestId": 4, "status": "completed"})
	})
	c := newTestClient(t, fb)

	_, err := c.CompletePullRequest(context.Background(), Scope{}, 4, CompletionOptions{
		DeleteSourceBranch: boolPtr(true),
		MergeStrategy:      "squash",
	})
	require.NoError(t, err)

	reqs := fb.all()
	require.Len(t, reqs, 2)
	var body map[string]any
	reqs[1].jsonBody(t, &body)
	assert.Equal(t, map[string]any{
		"status":                "completed",
		"lastMergeSourceCommit": map[string]any{"commitId": "abc123"},
		"completionOptions": map[string]any{
			"deleteSourceBranch": true,
			"mergeStrategy":      "squash",
		},
	}, body)
}

func TestAbandonPullRequest(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"status": "abandoned"}))
	c := newTestClient(t, fb)

	_, err := c.AbandonPullRequest(context.Background(), Scope{}, 4)
	require.NoError(t, err)

	var body map[string]any
	fb.last(t).jsonBody(t, &body)
	assert.Equal(t, map[string]any{"status": "abandoned"}, body)
}

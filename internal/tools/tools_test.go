package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
	"github.com/HendryAvila/azdo-mcp/internal/config"
)

// --- Test helpers ---

// backend is an httptest server answering by method and path.
type backend struct {
	srv    *httptest.Server
	routes map[string]func(w http.ResponseWriter, r *http.Request, body []byte)

	mu   sync.Mutex
	seen []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{routes: map[string]func(http.ResponseWriter, *http.Request, []byte){}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.EscapedPath()
		b.mu.Lock()
		b.seen = append(b.seen, key)
		b.mu.Unlock()
		h, ok := b.routes[key]
		if !ok {
			http.Error(w, `{"message":"no route `+key+`"}`, http.StatusNotFound)
			return
		}
		h(w, r, body)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(method, path string, h func(w http.ResponseWriter, r *http.Request, body []byte)) {
	b.routes[method+" "+path] = h
}

func (b *backend) json(method, path string, v any) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (b *backend) requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seen...)
}

// factory builds clients against the backend.
func (b *backend) factory() ClientFactory {
	return func() (*azdo.Client, error) {
		return azdo.NewClient(config.Connection{
			BaseURL:           b.srv.URL,
			Collection:        "DefaultCollection",
			DefaultProject:    "Proj",
			DefaultRepository: "repo",
			APIVersion:        "7.0",
			Auth:              config.AuthToken,
			Credentials:       config.Credentials{Token: "secret"},
			VerifyTLS:         true,
			Timeout:           5 * time.Second,
		})
	}
}

// unusedFactory fails the test if a client is ever built.
func unusedFactory(t *testing.T) ClientFactory {
	return func() (*azdo.Client, error) {
		t.Error("client should not be built")
		return nil, errors.New("unexpected")
	}
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, tool Tool, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := tool.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if err := json.Unmarshal([]byte(getResultText(result)), v); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, getResultText(result))
	}
}

// --- Catalog ---

func TestAll_NamesUniqueAndComplete(t *testing.T) {
	all := All(unusedFactory(t))
	if len(all) != 43 {
		t.Errorf("expected 43 tools, got %d", len(all))
	}
	seen := map[string]bool{}
	for _, tool := range all {
		name := tool.Definition().Name
		if name == "" {
			t.Error("tool with empty name")
		}
		if seen[name] {
			t.Errorf("duplicate tool name %q", name)
		}
		seen[name] = true
	}
	for _, want := range []string{"get_pr_diffs", "update_wiki_page", "get_test_case_steps_from_work_item", "download_attachment"} {
		if !seen[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestAll_DefinitionsHaveDescriptions(t *testing.T) {
	for _, tool := range All(unusedFactory(t)) {
		def := tool.Definition()
		if strings.TrimSpace(def.Description) == "" {
			t.Errorf("%s has no description", def.Name)
		}
	}
}

// --- Argument validation ---

func TestRequiredArguments_NoClientBuilt(t *testing.T) {
	f := unusedFactory(t)
	cases := []struct {
		name string
		tool Tool
		args map[string]interface{}
	}{
		{"get_work_item without id", NewGetWorkItemTool(f), map[string]interface{}{}},
		{"get_work_item zero id", NewGetWorkItemTool(f), map[string]interface{}{"id": float64(0)}},
		{"search without wiql", NewSearchWorkItemsTool(f), map[string]interface{}{"wiql": "  "}},
		{"add_comment without text", NewAddCommentTool(f), map[string]interface{}{"id": float64(1)}},
		{"get_pull_request without pr_id", NewGetPullRequestTool(f), map[string]interface{}{}},
		{"file content without path", NewGetPRFileContentTool(f), map[string]interface{}{"pr_id": float64(3)}},
		{"vote missing", NewSetReviewerVoteTool(f), map[string]interface{}{"pr_id": float64(3), "reviewer_id": "abc"}},
		{"vote out of range", NewSetReviewerVoteTool(f), map[string]interface{}{"pr_id": float64(3), "reviewer_id": "abc", "vote": float64(7)}},
		{"comment lines reversed", NewCreatePRCommentTool(f), map[string]interface{}{"pr_id": float64(3), "text": "x", "start_line": float64(9), "end_line": float64(2)}},
		{"wiki page without wiki", NewGetWikiPageTool(f), map[string]interface{}{"path": "/Home"}},
		{"upsert without content", NewUpsertWikiPageTool(f), map[string]interface{}{"wiki": "W", "path": "/Home"}},
		{"suites without plan", NewListTestSuitesTool(f), map[string]interface{}{}},
		{"add case without case id", NewAddTestCaseToSuiteTool(f), map[string]interface{}{"plan_id": float64(1), "suite_id": float64(2)}},
		{"steps not an array", NewCreateTestCaseTool(f), map[string]interface{}{"steps": "open app"}},
		{"step not an object", NewCreateTestCaseTool(f), map[string]interface{}{"steps": []interface{}{"open app"}}},
		{"download without url", NewDownloadAttachmentTool(f), map[string]interface{}{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := call(t, tc.tool, tc.args)
			if !isErrorResult(result) {
				t.Errorf("expected error result, got: %s", getResultText(result))
			}
		})
	}
}

func TestUpdateWorkItem_EmptyUpdateRejected(t *testing.T) {
	result := call(t, NewUpdateWorkItemTool(unusedFactory(t)), map[string]interface{}{"id": float64(5)})
	if !isErrorResult(result) {
		t.Fatal("an update with nothing to change should be rejected")
	}
}

func TestUpdateWorkItem_NullFieldClears(t *testing.T) {
	b := newBackend(t)
	var body []byte
	b.handle(http.MethodPatch, "/DefaultCollection/_apis/wit/workitems/5", func(w http.ResponseWriter, _ *http.Request, got []byte) {
		body = got
		_, _ = w.Write([]byte(`{"id": 5}`))
	})

	result := call(t, NewUpdateWorkItemTool(b.factory()), map[string]interface{}{
		"id":     float64(5),
		"fields": map[string]interface{}{"Custom.Owner": nil},
	})
	if isErrorResult(result) {
		t.Fatalf("unexpected error: %s", getResultText(result))
	}
	if want := `[{"op":"remove","path":"/fields/Custom.Owner"}]`; string(body) != want {
		t.Errorf("patch body = %s, want %s", body, want)
	}
}

func TestUpdateWorkItem_TagsFieldWithTagEditsRejected(t *testing.T) {
	b := newBackend(t)
	result := call(t, NewUpdateWorkItemTool(b.factory()), map[string]interface{}{
		"id":       float64(5),
		"fields":   map[string]interface{}{"System.Tags": "a; b"},
		"add_tags": []interface{}{"c"},
	})
	if !isErrorResult(result) {
		t.Fatal("expected a conflict error")
	}
	if !strings.Contains(getResultText(result), "System.Tags") {
		t.Errorf("error should name System.Tags, got: %s", getResultText(result))
	}
	if reqs := b.requests(); len(reqs) != 0 {
		t.Errorf("no request expected, got %v", reqs)
	}
}

func TestFactoryError_BecomesToolError(t *testing.T) {
	f := func() (*azdo.Client, error) {
		return nil, &config.ConfigurationError{Field: "base_url", Message: "is required"}
	}
	result := call(t, NewListProjectsTool(f), nil)
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	if !strings.Contains(getResultText(result), "base_url") {
		t.Errorf("error should name the setting, got: %s", getResultText(result))
	}
}

// --- Work items ---

func TestGetWorkItem_DefaultsToExpandAll(t *testing.T) {
	b := newBackend(t)
	var expand string
	b.handle(http.MethodGet, "/DefaultCollection/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request, _ []byte) {
		expand = r.URL.Query().Get("$expand")
		_, _ = w.Write([]byte(`{"id": 7, "fields": {"System.Title": "Fix login"}}`))
	})

	result := call(t, NewGetWorkItemTool(b.factory()), map[string]interface{}{"id": float64(7)})

	var doc map[string]any
	decodeResult(t, result, &doc)
	if expand != "All" {
		t.Errorf("$expand = %q, want All", expand)
	}
	if doc["id"] != float64(7) {
		t.Errorf("id = %v, want 7", doc["id"])
	}
}

func TestSearchWorkItems_QueriesThenBatches(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/DefaultCollection/Proj/_apis/wit/wiql", func(w http.ResponseWriter, r *http.Request, _ []byte) {
		if got := r.URL.Query().Get("$top"); got != "50" {
			t.Errorf("$top = %q, want 50", got)
		}
		_, _ = w.Write([]byte(`{"workItems": [{"id": 3}, {"id": 1}]}`))
	})
	var batch struct {
		IDs    []int  `json:"ids"`
		Expand string `json:"$expand"`
	}
	b.handle(http.MethodPost, "/DefaultCollection/_apis/wit/workitemsbatch", func(w http.ResponseWriter, _ *http.Request, body []byte) {
		_ = json.Unmarshal(body, &batch)
		_, _ = w.Write([]byte(`{"count": 2, "value": [{"id": 3}, {"id": 1}]}`))
	})

	result := call(t, NewSearchWorkItemsTool(b.factory()), map[string]interface{}{
		"wiql": "SELECT [System.Id] FROM WorkItems",
	})

	var docs []map[string]any
	decodeResult(t, result, &docs)
	if len(docs) != 2 {
		t.Fatalf("expected 2 work items, got %d", len(docs))
	}
	if len(batch.IDs) != 2 || batch.IDs[0] != 3 || batch.IDs[1] != 1 {
		t.Errorf("batch ids = %v, want [3 1]", batch.IDs)
	}
	if batch.Expand != "Relations" {
		t.Errorf("batch $expand = %q, want Relations", batch.Expand)
	}
}

func TestSearchWorkItems_NoMatchesSkipsBatch(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodPost, "/DefaultCollection/Proj/_apis/wit/wiql", map[string]any{"workItems": []any{}})

	result := call(t, NewSearchWorkItemsTool(b.factory()), map[string]interface{}{"wiql": "SELECT [System.Id] FROM WorkItems"})

	var docs []map[string]any
	decodeResult(t, result, &docs)
	if len(docs) != 0 {
		t.Errorf("expected no work items, got %d", len(docs))
	}
	if got := len(b.requests()); got != 1 {
		t.Errorf("expected only the WIQL request, got %v", b.requests())
	}
}

func TestCreateTask_DefaultTitleAndType(t *testing.T) {
	b := newBackend(t)
	var ops []azdo.PatchOperation
	var contentType string
	b.handle(http.MethodPatch, "/DefaultCollection/Proj/_apis/wit/workitems/$Task", func(w http.ResponseWriter, r *http.Request, body []byte) {
		contentType = r.Header.Get("Content-Type")
		_ = json.Unmarshal(body, &ops)
		_, _ = w.Write([]byte(`{"id": 42}`))
	})

	result := call(t, NewCreateTaskTool(b.factory()), map[string]interface{}{
		"tags": []interface{}{"backend", "urgent"},
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if contentType != "application/json-patch+json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %+v", ops)
	}
	if ops[0].Path != "/fields/System.Title" || ops[0].Value != "Untitled" {
		t.Errorf("first op = %+v, want Untitled title", ops[0])
	}
	if ops[1].Path != "/fields/System.Tags" || ops[1].Value != "backend; urgent" {
		t.Errorf("second op = %+v, want joined tags", ops[1])
	}
}

// --- Pull requests ---

func TestListPRReviewers_UsesDefaultScope(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/DefaultCollection/Proj/_apis/git/repositories/repo/pullRequests/12/reviewers",
		map[string]any{"count": 1, "value": []any{map[string]any{"displayName": "Ana", "vote": 10}}})

	result := call(t, NewListPRReviewersTool(b.factory()), map[string]interface{}{"pr_id": float64(12)})

	var reviewers []map[string]any
	decodeResult(t, result, &reviewers)
	if len(reviewers) != 1 || reviewers[0]["displayName"] != "Ana" {
		t.Errorf("unexpected reviewers: %v", reviewers)
	}
}

func TestGetPullRequest_BackendErrorSurfaces(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodGet, "/DefaultCollection/Proj/_apis/git/repositories/other/pullRequests/9",
		func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			http.Error(w, `{"message":"TF401180: The requested pull request was not found."}`, http.StatusNotFound)
		})

	result := call(t, NewGetPullRequestTool(b.factory()), map[string]interface{}{
		"pr_id":      float64(9),
		"repository": "other",
	})
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	text := getResultText(result)
	if !strings.Contains(text, "404") || !strings.Contains(text, "TF401180") {
		t.Errorf("error should carry status and body, got: %s", text)
	}
}

func TestSetReviewerVote_SendsVote(t *testing.T) {
	b := newBackend(t)
	var sent map[string]any
	b.handle(http.MethodPut, "/DefaultCollection/Proj/_apis/git/repositories/repo/pullRequests/4/reviewers/abc",
		func(w http.ResponseWriter, _ *http.Request, body []byte) {
			_ = json.Unmarshal(body, &sent)
			_, _ = w.Write(body)
		})

	result := call(t, NewSetReviewerVoteTool(b.factory()), map[string]interface{}{
		"pr_id":       float64(4),
		"reviewer_id": "abc",
		"vote":        float64(-5),
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if sent["vote"] != float64(-5) {
		t.Errorf("vote = %v, want -5", sent["vote"])
	}
}

// --- Wiki ---

func TestUpdateWikiPage_ReadsVersionThenWritesConditionally(t *testing.T) {
	b := newBackend(t)
	const pages = "/DefaultCollection/Proj/_apis/wiki/wikis/Proj.wiki/pages"
	b.handle(http.MethodGet, pages, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("ETag", `"v7"`)
		_, _ = w.Write([]byte(`{"path": "/Home"}`))
	})
	var ifMatch string
	b.handle(http.MethodPut, pages, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		ifMatch = r.Header.Get("If-Match")
		_, _ = w.Write([]byte(`{"path": "/Home", "content": "new"}`))
	})

	result := call(t, NewUpdateWikiPageTool(b.factory()), map[string]interface{}{
		"wiki":    "Proj.wiki",
		"path":    "/Home",
		"content": "new",
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if ifMatch != `"v7"` {
		t.Errorf("If-Match = %q, want the page ETag", ifMatch)
	}
}

func TestUpdateWikiPage_MissingPageFails(t *testing.T) {
	b := newBackend(t)

	result := call(t, NewUpdateWikiPageTool(b.factory()), map[string]interface{}{
		"wiki":    "Proj.wiki",
		"path":    "/Nope",
		"content": "x",
	})
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	for _, r := range b.requests() {
		if strings.HasPrefix(r, http.MethodPut) {
			t.Errorf("no write should be sent, saw %s", r)
		}
	}
}

// --- Test plans ---

const stepsMarkup = `<steps id="0" last="3">` +
	`<step id="2" type="ActionStep">` +
	`<parameterizedString isformatted="true">&lt;P&gt;Open the app&lt;/P&gt;</parameterizedString>` +
	`<parameterizedString isformatted="true">&lt;P&gt;&lt;/P&gt;</parameterizedString>` +
	`<description/></step>` +
	`<step id="3" type="ValidateStep">` +
	`<parameterizedString isformatted="true">Sign in</parameterizedString>` +
	`<parameterizedString isformatted="true">Dashboard shows</parameterizedString>` +
	`<description/></step></steps>`

func TestGetTestCaseSteps(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/DefaultCollection/_apis/wit/workitems/88", map[string]any{
		"id":     88,
		"fields": map[string]any{azdo.FieldTestSteps: stepsMarkup},
	})

	result := call(t, NewGetTestCaseStepsTool(b.factory()), map[string]interface{}{"id": float64(88)})

	var steps []azdo.TestStep
	decodeResult(t, result, &steps)
	want := []azdo.TestStep{
		{Action: "Open the app", Expected: ""},
		{Action: "Sign in", Expected: "Dashboard shows"},
	}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %+v", len(want), steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, steps[i], want[i])
		}
	}
}

func TestStepsFromWorkItem_NoRequest(t *testing.T) {
	tool := NewStepsFromWorkItemTool()

	result := call(t, tool, map[string]interface{}{
		"work_item": map[string]interface{}{
			"fields": map[string]interface{}{azdo.FieldTestSteps: stepsMarkup},
		},
	})
	var steps []azdo.TestStep
	decodeResult(t, result, &steps)
	if len(steps) != 2 {
		t.Errorf("expected 2 steps, got %+v", steps)
	}

	result = call(t, tool, map[string]interface{}{
		"work_item": map[string]interface{}{"fields": map[string]interface{}{}},
	})
	decodeResult(t, result, &steps)
	if len(steps) != 0 {
		t.Errorf("missing steps field should give an empty list, got %+v", steps)
	}
	if getResultText(result) != "[]" {
		t.Errorf("empty result should render as [], got %q", getResultText(result))
	}
}

func TestCreateTestCase_SendsStepsField(t *testing.T) {
	b := newBackend(t)
	var ops []azdo.PatchOperation
	b.handle(http.MethodPatch, "/DefaultCollection/Proj/_apis/wit/workitems/$Test%20Case", func(w http.ResponseWriter, _ *http.Request, body []byte) {
		_ = json.Unmarshal(body, &ops)
		_, _ = w.Write([]byte(`{"id": 501}`))
	})

	result := call(t, NewCreateTestCaseTool(b.factory()), map[string]interface{}{
		"title": "Login works",
		"steps": []interface{}{
			map[string]interface{}{"action": "Open app", "expected": "Login form"},
		},
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	var markup string
	for _, op := range ops {
		if op.Path == "/fields/"+azdo.FieldTestSteps {
			markup, _ = op.Value.(string)
		}
	}
	steps := azdo.ParseTestStepXML(markup)
	if len(steps) != 1 || steps[0].Action != "Open app" || steps[0].Expected != "Login form" {
		t.Errorf("steps did not survive the round trip: %+v from %q", steps, markup)
	}
}

func TestRemoveTestCaseFromSuite_EmptyResponse(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodDelete, "/DefaultCollection/Proj/_apis/test/Plans/1/suites/2/testcases/3",
		func(w http.ResponseWriter, _ *http.Request, _ []byte) {
			w.WriteHeader(http.StatusNoContent)
		})

	result := call(t, NewRemoveTestCaseFromSuiteTool(b.factory()), map[string]interface{}{
		"plan_id":      float64(1),
		"suite_id":     float64(2),
		"test_case_id": float64(3),
	})
	var doc map[string]any
	decodeResult(t, result, &doc)
	if doc["status"] != float64(http.StatusNoContent) {
		t.Errorf("expected a status document, got %v", doc)
	}
}

// --- Attachments ---

func TestListAttachments(t *testing.T) {
	result := call(t, NewListAttachmentsTool(), map[string]interface{}{
		"work_item": map[string]interface{}{
			"relations": []interface{}{
				map[string]interface{}{"rel": "AttachedFile", "url": "https://x/a/1", "attributes": map[string]interface{}{"name": "log.txt"}},
				map[string]interface{}{"rel": "System.LinkTypes.Hierarchy-Reverse", "url": "https://x/wi/2"},
			},
		},
	})

	var atts []azdo.Attachment
	decodeResult(t, result, &atts)
	if len(atts) != 1 || atts[0].Name != "log.txt" || atts[0].URL != "https://x/a/1" {
		t.Errorf("unexpected attachments: %+v", atts)
	}
}

func TestListAttachments_MissingDocument(t *testing.T) {
	result := call(t, NewListAttachmentsTool(), map[string]interface{}{})
	if !isErrorResult(result) {
		t.Error("expected error when work_item is missing")
	}
}

func TestDownloadAttachment_Base64(t *testing.T) {
	b := newBackend(t)
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	b.handle(http.MethodGet, "/DefaultCollection/_apis/wit/attachments/abc", func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	})

	result := call(t, NewDownloadAttachmentTool(b.factory()), map[string]interface{}{
		"url": b.srv.URL + "/DefaultCollection/_apis/wit/attachments/abc",
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	got, err := base64.StdEncoding.DecodeString(getResultText(result))
	if err != nil {
		t.Fatalf("result is not base64: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %v, want %v", got, payload)
	}
}

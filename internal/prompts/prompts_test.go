package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if result == nil || len(result.Messages) == 0 {
		t.Fatal("prompt returned no messages")
	}
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Messages[0].Content)
	}
	return tc.Text
}

func TestReviewPRPrompt(t *testing.T) {
	p := NewReviewPRPrompt()
	if p.Definition().Name != "azdo-review-pr" {
		t.Errorf("unexpected name %q", p.Definition().Name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"pr_id": "42", "repository": "web"}
	result, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, result)
	for _, want := range []string{"pr_id=42", "repository='web'", "get_pr_diffs", "set_reviewer_vote"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt should mention %q:\n%s", want, text)
		}
	}
}

func TestReviewPRPrompt_RequiresID(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"repository": "web"}
	if _, err := NewReviewPRPrompt().Handle(context.Background(), req); err == nil {
		t.Error("expected error without pr_id")
	}
}

func TestTriagePrompt_Defaults(t *testing.T) {
	result, err := NewTriagePrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "the default project") {
		t.Errorf("expected default scope:\n%s", text)
	}
	if !strings.Contains(text, "[System.State] = 'New'") {
		t.Errorf("expected default query:\n%s", text)
	}
}

func TestTriagePrompt_CustomQuery(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{
		"project": "Payments",
		"query":   "SELECT [System.Id] FROM WorkItems WHERE [System.Tags] CONTAINS 'bug'",
	}
	result, err := NewTriagePrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "project='Payments'") || !strings.Contains(text, "CONTAINS 'bug'") {
		t.Errorf("custom arguments not used:\n%s", text)
	}
}

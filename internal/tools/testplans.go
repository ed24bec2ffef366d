package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

func withPlanID() mcp.ToolOption {
	return mcp.WithNumber("plan_id", mcp.Required(), mcp.Description("Test plan id"))
}

func withSuiteID() mcp.ToolOption {
	return mcp.WithNumber("suite_id", mcp.Required(), mcp.Description("Test suite id"))
}

// ListTestPlansTool handles the list_test_plans MCP tool.
type ListTestPlansTool struct {
	newClient ClientFactory
}

// NewListTestPlansTool creates a ListTestPlansTool.
func NewListTestPlansTool(f ClientFactory) *ListTestPlansTool {
	return &ListTestPlansTool{newClient: f}
}

// Definition returns the MCP tool definition for list_test_plans.
func (t *ListTestPlansTool) Definition() mcp.Tool {
	return mcp.NewTool("list_test_plans",
		mcp.WithDescription("List test plans of a project."),
		withProject(),
	)
}

// Handle processes the list_test_plans tool call.
func (t *ListTestPlansTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListTestPlans(ctx, project)
	})
}

// CreateTestPlanTool handles the create_test_plan MCP tool.
type CreateTestPlanTool struct {
	newClient ClientFactory
}

// NewCreateTestPlanTool creates a CreateTestPlanTool.
func NewCreateTestPlanTool(f ClientFactory) *CreateTestPlanTool {
	return &CreateTestPlanTool{newClient: f}
}

// Definition returns the MCP tool definition for create_test_plan.
func (t *CreateTestPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("create_test_plan",
		mcp.WithDescription("Create a test plan."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Plan name")),
		withProject(),
		mcp.WithString("area_path", mcp.Description("Area path")),
		mcp.WithString("iteration", mcp.Description("Iteration path")),
		mcp.WithString("description", mcp.Description("Description")),
	)
}

// Handle processes the create_test_plan tool call.
func (t *CreateTestPlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, errResult := requiredString(req, "name")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	in := azdo.TestPlanInput{
		Name:        name,
		AreaPath:    req.GetString("area_path", ""),
		Iteration:   req.GetString("iteration", ""),
		Description: req.GetString("description", ""),
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CreateTestPlan(ctx, project, in)
	})
}

// ListTestSuitesTool handles the list_test_suites MCP tool.
type ListTestSuitesTool struct {
	newClient ClientFactory
}

// NewListTestSuitesTool creates a ListTestSuitesTool.
func NewListTestSuitesTool(f ClientFactory) *ListTestSuitesTool {
	return &ListTestSuitesTool{newClient: f}
}

// Definition returns the MCP tool definition for list_test_suites.
func (t *ListTestSuitesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_test_suites",
		mcp.WithDescription("List test suites of a test plan."),
		withPlanID(),
		withProject(),
	)
}

// Handle processes the list_test_suites tool call.
func (t *ListTestSuitesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, errResult := requiredInt(req, "plan_id")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListTestSuites(ctx, project, plan)
	})
}

// CreateTestSuiteTool handles the create_test_suite MCP tool.
type CreateTestSuiteTool struct {
	newClient ClientFactory
}

// NewCreateTestSuiteTool creates a CreateTestSuiteTool.
func NewCreateTestSuiteTool(f ClientFactory) *CreateTestSuiteTool {
	return &CreateTestSuiteTool{newClient: f}
}

// Definition returns the MCP tool definition for create_test_suite.
func (t *CreateTestSuiteTool) Definition() mcp.Tool {
	return mcp.NewTool("create_test_suite",
		mcp.WithDescription("Create a test suite in a test plan."),
		withPlanID(),
		mcp.WithString("name", mcp.Required(), mcp.Description("Suite name")),
		withProject(),
		mcp.WithNumber("parent_suite_id", mcp.Description("Parent suite id (default: the plan's root suite)")),
		mcp.WithString("suite_type",
			mcp.Description("Suite type (default: staticTestSuite)"),
			mcp.Enum(azdo.SuiteStatic, azdo.SuiteDynamic, azdo.SuiteRequirement),
		),
	)
}

// Handle processes the create_test_suite tool call.
func (t *CreateTestSuiteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, errResult := requiredInt(req, "plan_id")
	if errResult != nil {
		return errResult, nil
	}
	name, errResult := requiredString(req, "name")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	in := azdo.TestSuiteInput{
		Name:          name,
		ParentSuiteID: intArg(req, "parent_suite_id", 0),
		SuiteType:     req.GetString("suite_type", azdo.SuiteStatic),
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CreateTestSuite(ctx, project, plan, in)
	})
}

// suiteTool backs the tools addressing one suite of a plan.
type suiteTool struct {
	newClient ClientFactory
	name      string
	desc      string
	withCase  bool
	call      func(ctx context.Context, c *azdo.Client, project string, plan, suite, testCase int) (any, error)
}

// Definition returns the MCP tool definition.
func (t *suiteTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.desc),
		withPlanID(),
		withSuiteID(),
	}
	if t.withCase {
		opts = append(opts, mcp.WithNumber("test_case_id", mcp.Required(), mcp.Description("Test Case work item id")))
	}
	opts = append(opts, withProject())
	return mcp.NewTool(t.name, opts...)
}

// Handle processes the tool call.
func (t *suiteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, errResult := requiredInt(req, "plan_id")
	if errResult != nil {
		return errResult, nil
	}
	suite, errResult := requiredInt(req, "suite_id")
	if errResult != nil {
		return errResult, nil
	}
	var testCase int
	if t.withCase {
		if testCase, errResult = requiredInt(req, "test_case_id"); errResult != nil {
			return errResult, nil
		}
	}
	project := req.GetString("project", "")
	return run(t.newClient, func(c *azdo.Client) (any, error) {
		return t.call(ctx, c, project, plan, suite, testCase)
	})
}

// ListTestCasesTool handles the list_test_cases MCP tool.
type ListTestCasesTool struct{ suiteTool }

// NewListTestCasesTool creates a ListTestCasesTool.
func NewListTestCasesTool(f ClientFactory) *ListTestCasesTool {
	return &ListTestCasesTool{suiteTool{
		newClient: f,
		name:      "list_test_cases",
		desc:      "List test cases assigned to a suite of a plan.",
		call: func(ctx context.Context, c *azdo.Client, project string, plan, suite, _ int) (any, error) {
			return c.ListTestCases(ctx, project, plan, suite)
		},
	}}
}

// AddTestCaseToSuiteTool handles the add_test_case_to_suite MCP tool.
type AddTestCaseToSuiteTool struct{ suiteTool }

// NewAddTestCaseToSuiteTool creates an AddTestCaseToSuiteTool.
func NewAddTestCaseToSuiteTool(f ClientFactory) *AddTestCaseToSuiteTool {
	return &AddTestCaseToSuiteTool{suiteTool{
		newClient: f,
		name:      "add_test_case_to_suite",
		desc:      "Add an existing Test Case work item to a test suite.",
		withCase:  true,
		call: func(ctx context.Context, c *azdo.Client, project string, plan, suite, testCase int) (any, error) {
			return c.AddTestCaseToSuite(ctx, project, plan, suite, testCase)
		},
	}}
}

// RemoveTestCaseFromSuiteTool handles the remove_test_case_from_suite MCP tool.
type RemoveTestCaseFromSuiteTool struct{ suiteTool }

// NewRemoveTestCaseFromSuiteTool creates a RemoveTestCaseFromSuiteTool.
func NewRemoveTestCaseFromSuiteTool(f ClientFactory) *RemoveTestCaseFromSuiteTool {
	return &RemoveTestCaseFromSuiteTool{suiteTool{
		newClient: f,
		name:      "remove_test_case_from_suite",
		desc:      "Remove a test case from a test suite. The work item itself is kept.",
		withCase:  true,
		call: func(ctx context.Context, c *azdo.Client, project string, plan, suite, testCase int) (any, error) {
			return c.RemoveTestCaseFromSuite(ctx, project, plan, suite, testCase)
		},
	}}
}

// SuiteTestCaseWorkItemsTool handles the get_suite_test_case_work_items MCP tool.
type SuiteTestCaseWorkItemsTool struct {
	newClient ClientFactory
}

// NewSuiteTestCaseWorkItemsTool creates a SuiteTestCaseWorkItemsTool.
func NewSuiteTestCaseWorkItemsTool(f ClientFactory) *SuiteTestCaseWorkItemsTool {
	return &SuiteTestCaseWorkItemsTool{newClient: f}
}

// Definition returns the MCP tool definition for get_suite_test_case_work_items.
func (t *SuiteTestCaseWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_suite_test_case_work_items",
		mcp.WithDescription("Return the Test Case work items of a suite in one batch read."),
		withPlanID(),
		withSuiteID(),
		withProject(),
		mcp.WithString("expand",
			mcp.Description("Expansion (default: Fields)"),
			mcp.Enum(expandValues...),
		),
	)
}

// Handle processes the get_suite_test_case_work_items tool call.
func (t *SuiteTestCaseWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, errResult := requiredInt(req, "plan_id")
	if errResult != nil {
		return errResult, nil
	}
	suite, errResult := requiredInt(req, "suite_id")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	expand := req.GetString("expand", "Fields")
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.SuiteTestCaseWorkItems(ctx, project, plan, suite, expand)
	})
}

// CreateTestCaseTool handles the create_test_case MCP tool.
type CreateTestCaseTool struct {
	newClient ClientFactory
}

// NewCreateTestCaseTool creates a CreateTestCaseTool.
func NewCreateTestCaseTool(f ClientFactory) *CreateTestCaseTool {
	return &CreateTestCaseTool{newClient: f}
}

// Definition returns the MCP tool definition for create_test_case.
func (t *CreateTestCaseTool) Definition() mcp.Tool {
	return mcp.NewTool("create_test_case",
		mcp.WithDescription("Create a Test Case work item with common fields and optional steps."),
		withProject(),
		mcp.WithString("title", mcp.Description("Title (default: Untitled)")),
		mcp.WithString("description", mcp.Description("Description")),
		mcp.WithString("assigned_to", mcp.Description("Assignee display name or email")),
		mcp.WithString("area_path", mcp.Description("Area path")),
		mcp.WithString("iteration_path", mcp.Description("Iteration path")),
		mcp.WithArray("tags", mcp.Description("Tags"), mcp.WithStringItems()),
		mcp.WithString("state", mcp.Description("Initial state")),
		mcp.WithObject("extra_fields", mcp.Description("Additional fields keyed by reference name")),
		mcp.WithArray("steps",
			mcp.Description("Ordered steps, each {\"action\": \"...\", \"expected\": \"...\"}"),
		),
	)
}

// stepsArg reads an array of {action, expected} objects.
func stepsArg(req mcp.CallToolRequest, key string) ([]azdo.TestStep, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an array of {action, expected} objects", key)
	}
	steps := make([]azdo.TestStep, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("'%s[%d]' must be an object", key, i)
		}
		action, _ := m["action"].(string)
		expected, _ := m["expected"].(string)
		steps = append(steps, azdo.TestStep{Action: action, Expected: expected})
	}
	return steps, nil
}

// Handle processes the create_test_case tool call.
func (t *CreateTestCaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	steps, err := stepsArg(req, "steps")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	project := req.GetString("project", "")
	fields := azdo.BuildFields(workItemFieldsArg(req))
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CreateTestCase(ctx, project, fields, steps)
	})
}

// GetTestCaseWorkItemTool handles the get_test_case_work_item MCP tool.
type GetTestCaseWorkItemTool struct {
	newClient ClientFactory
}

// NewGetTestCaseWorkItemTool creates a GetTestCaseWorkItemTool.
func NewGetTestCaseWorkItemTool(f ClientFactory) *GetTestCaseWorkItemTool {
	return &GetTestCaseWorkItemTool{newClient: f}
}

// Definition returns the MCP tool definition for get_test_case_work_item.
func (t *GetTestCaseWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("get_test_case_work_item",
		mcp.WithDescription("Get a Test Case work item by id with all expansions."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Test Case work item id")),
	)
}

// Handle processes the get_test_case_work_item tool call.
func (t *GetTestCaseWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.GetTestCaseWorkItem(ctx, id)
	})
}

// GetTestCaseStepsTool handles the get_test_case_steps MCP tool.
type GetTestCaseStepsTool struct {
	newClient ClientFactory
}

// NewGetTestCaseStepsTool creates a GetTestCaseStepsTool.
func NewGetTestCaseStepsTool(f ClientFactory) *GetTestCaseStepsTool {
	return &GetTestCaseStepsTool{newClient: f}
}

// Definition returns the MCP tool definition for get_test_case_steps.
func (t *GetTestCaseStepsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_test_case_steps",
		mcp.WithDescription("Read a Test Case work item and return its steps as {action, expected} pairs."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Test Case work item id")),
	)
}

// Handle processes the get_test_case_steps tool call.
func (t *GetTestCaseStepsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}
	return run(t.newClient, func(c *azdo.Client) ([]azdo.TestStep, error) {
		return c.TestCaseSteps(ctx, id)
	})
}

// StepsFromWorkItemTool handles the get_test_case_steps_from_work_item MCP
// tool. It parses a document the host already holds and makes no request.
type StepsFromWorkItemTool struct{}

// NewStepsFromWorkItemTool creates a StepsFromWorkItemTool.
func NewStepsFromWorkItemTool() *StepsFromWorkItemTool {
	return &StepsFromWorkItemTool{}
}

// Definition returns the MCP tool definition for get_test_case_steps_from_work_item.
func (t *StepsFromWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("get_test_case_steps_from_work_item",
		mcp.WithDescription(
			"Parse the steps of a Test Case work item document (as returned by get_work_item). "+
				"Returns an empty list when the steps field is missing or unparsable.",
		),
		mcp.WithObject("work_item", mcp.Required(), mcp.Description("Work item document with a 'fields' object")),
	)
}

// Handle processes the get_test_case_steps_from_work_item tool call.
func (t *StepsFromWorkItemTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := objectArg(req, "work_item")
	if doc == nil {
		return mcp.NewToolResultError("'work_item' is required"), nil
	}
	return jsonResult(azdo.StepsFromWorkItem(doc))
}

package azdo

import (
	"context"
	"strconv"
)

// WorkItemTypeTestCase is the work item type backing every test case.
const WorkItemTypeTestCase = "Test Case"

// Suite types accepted by CreateTestSuite.
const (
	SuiteStatic      = "staticTestSuite"
	SuiteDynamic     = "dynamicTestSuite"
	SuiteRequirement = "requirementTestSuite"
)

func planPath(planID int) string {
	return "/_apis/testplan/Plans/" + strconv.Itoa(planID)
}

// ListTestPlans lists the test plans of a project.
func (c *Client) ListTestPlans(ctx context.Context, project string) ([]Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.apiURL("/_apis/testplan/plans", proj), nil)
}

// TestPlanInput describes a new test plan. Only Name is required.
type TestPlanInput struct {
	Name        string
	AreaPath    string
	Iteration   string
	Description string
}

// CreateTestPlan creates a test plan.
func (c *Client) CreateTestPlan(ctx context.Context, project string, in TestPlanInput) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"name": in.Name}
	if in.AreaPath != "" {
		body["areaPath"] = in.AreaPath
	}
	if in.Iteration != "" {
		body["iteration"] = in.Iteration
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	return c.postJSON(ctx, c.apiURL("/_apis/testplan/plans", proj), nil, body)
}

// ListTestSuites lists the suites of a plan.
func (c *Client) ListTestSuites(ctx context.Context, project string, planID int) ([]Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	return c.values(ctx, c.apiURL(planPath(planID)+"/suites", proj), nil)
}

// TestSuiteInput describes a new suite. ParentSuiteID 0 lets the backend
// attach it to the plan's root suite; SuiteType defaults to SuiteStatic.
type TestSuiteInput struct {
	Name          string
	ParentSuiteID int
	SuiteType     string
}

// CreateTestSuite creates a suite under a plan.
func (c *Client) CreateTestSuite(ctx context.Context, project string, planID int, in TestSuiteInput) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	suiteType := in.SuiteType
	if suiteType == "" {
		suiteType = SuiteStatic
	}
	body := map[string]any{
		"suiteType": suiteType,
		"name":      in.Name,
	}
	if in.ParentSuiteID > 0 {
		body["parentSuite"] = map[string]any{"id": in.ParentSuiteID}
	}
	return c.postJSON(ctx, c.apiURL(planPath(planID)+"/suites", proj), nil, body)
}

// ListTestCases lists the test cases assigned to a suite.
func (c *Client) ListTestCases(ctx context.Context, project string, planID, suiteID int) ([]Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	u := c.apiURL(planPath(planID)+"/Suites/"+strconv.Itoa(suiteID)+"/TestCase", proj)
	return c.values(ctx, u, nil)
}

// CreateTestCase creates a Test Case work item. Non-empty steps are stored
// in the steps field, replacing any value already in fields.
func (c *Client) CreateTestCase(ctx context.Context, project string, fields *FieldSet, steps []TestStep) (Document, error) {
	if fields == nil {
		fields = NewFieldSet()
	}
	if len(steps) > 0 {
		fields.Set(FieldTestSteps, FormatTestStepXML(steps))
	}
	return c.CreateWorkItem(ctx, project, WorkItemTypeTestCase, fields)
}

func suiteTestCaseURL(c *Client, project string, planID, suiteID, caseID int) string {
	return c.apiURL("/_apis/test/Plans/"+strconv.Itoa(planID)+
		"/suites/"+strconv.Itoa(suiteID)+
		"/testcases/"+strconv.Itoa(caseID), project)
}

// AddTestCaseToSuite assigns an existing Test Case work item to a suite.
func (c *Client) AddTestCaseToSuite(ctx context.Context, project string, planID, suiteID, caseID int) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	return c.postJSON(ctx, suiteTestCaseURL(c, proj, planID, suiteID, caseID), nil, nil)
}

// RemoveTestCaseFromSuite unassigns a test case. The work item is kept.
func (c *Client) RemoveTestCaseFromSuite(ctx context.Context, project string, planID, suiteID, caseID int) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	return c.deleteJSON(ctx, suiteTestCaseURL(c, proj, planID, suiteID, caseID), nil)
}

// testCaseID reads the work item id of a suite entry. The testplan API
// nests it under workItem; older shapes use testCase.
func testCaseID(entry Document) (int, bool) {
	if id, ok := asInt(field(entry, "workItem", "id")); ok {
		return id, true
	}
	return asInt(field(entry, "testCase", "id"))
}

// SuiteTestCaseWorkItems returns the Test Case work items of a suite in one
// batch read.
func (c *Client) SuiteTestCaseWorkItems(ctx context.Context, project string, planID, suiteID int, expand string) ([]Document, error) {
	cases, err := c.ListTestCases(ctx, project, planID, suiteID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(cases))
	for _, tc := range cases {
		if id, ok := testCaseID(tc); ok {
			ids = append(ids, id)
		}
	}
	return c.GetWorkItems(ctx, ids, expand)
}

// GetTestCaseWorkItem reads a Test Case work item with all expansions.
func (c *Client) GetTestCaseWorkItem(ctx context.Context, id int) (Document, error) {
	return c.GetWorkItem(ctx, id, "All")
}

// TestCaseSteps reads a Test Case and parses its steps.
func (c *Client) TestCaseSteps(ctx context.Context, id int) ([]TestStep, error) {
	wi, err := c.GetTestCaseWorkItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return StepsFromWorkItem(wi), nil
}

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

var expandValues = []string{"None", "Relations", "Fields", "Links", "All"}

// ListProjectsTool handles the list_projects MCP tool.
type ListProjectsTool struct {
	newClient ClientFactory
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(f ClientFactory) *ListProjectsTool {
	return &ListProjectsTool{newClient: f}
}

// Definition returns the MCP tool definition for list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List accessible Azure DevOps projects."),
	)
}

// Handle processes the list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListProjects(ctx)
	})
}

// SearchWorkItemsTool handles the search_work_items MCP tool.
// It runs a WIQL query and batch-reads the matching items.
type SearchWorkItemsTool struct {
	newClient ClientFactory
}

// NewSearchWorkItemsTool creates a SearchWorkItemsTool.
func NewSearchWorkItemsTool(f ClientFactory) *SearchWorkItemsTool {
	return &SearchWorkItemsTool{newClient: f}
}

// Definition returns the MCP tool definition for search_work_items.
func (t *SearchWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_work_items",
		mcp.WithDescription(
			"Search work items using WIQL and return the expanded work item documents. "+
				"Example: SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = @project "+
				"AND [System.WorkItemType] = 'Task' ORDER BY [System.ChangedDate] DESC",
		),
		mcp.WithString("wiql",
			mcp.Required(),
			mcp.Description("WIQL query selecting [System.Id]"),
		),
		withProject(),
		mcp.WithNumber("top",
			mcp.Description("Max number of results (default: 50)"),
		),
		mcp.WithString("expand",
			mcp.Description("Expansion of the returned items (default: Relations)"),
			mcp.Enum(expandValues...),
		),
	)
}

// Handle processes the search_work_items tool call.
func (t *SearchWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wiql, errResult := requiredString(req, "wiql")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	top := intArg(req, "top", 50)
	expand := req.GetString("expand", "Relations")

	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		ids, err := c.WIQLQuery(ctx, wiql, project, top)
		if err != nil {
			return nil, err
		}
		return c.GetWorkItems(ctx, ids, expand)
	})
}

// GetWorkItemTool handles the get_work_item MCP tool.
type GetWorkItemTool struct {
	newClient ClientFactory
}

// NewGetWorkItemTool creates a GetWorkItemTool.
func NewGetWorkItemTool(f ClientFactory) *GetWorkItemTool {
	return &GetWorkItemTool{newClient: f}
}

// Definition returns the MCP tool definition for get_work_item.
func (t *GetWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("get_work_item",
		mcp.WithDescription("Get a single work item by id."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("expand",
			mcp.Description("Expansion (default: All)"),
			mcp.Enum(expandValues...),
		),
	)
}

// Handle processes the get_work_item tool call.
func (t *GetWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}
	expand := req.GetString("expand", "All")
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.GetWorkItem(ctx, id, expand)
	})
}

// CreateTaskTool handles the create_task MCP tool. Despite the name it can
// create any work item type.
type CreateTaskTool struct {
	newClient ClientFactory
}

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(f ClientFactory) *CreateTaskTool {
	return &CreateTaskTool{newClient: f}
}

// Definition returns the MCP tool definition for create_task.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription(
			"Create a new work item (default type Task) in a project. "+
				"Common types: Task, Bug, User Story, Product Backlog Item.",
		),
		withProject(),
		mcp.WithString("title",
			mcp.Description("Title (default: Untitled)"),
		),
		mcp.WithString("description",
			mcp.Description("Description (HTML allowed)"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Assignee display name or email"),
		),
		mcp.WithString("area_path", mcp.Description("Area path")),
		mcp.WithString("iteration_path", mcp.Description("Iteration path")),
		mcp.WithArray("tags",
			mcp.Description("Tags to set"),
			mcp.WithStringItems(),
		),
		mcp.WithString("work_item_type",
			mcp.Description("Work item type (default: Task)"),
		),
		mcp.WithString("state", mcp.Description("Initial state")),
		mcp.WithObject("extra_fields",
			mcp.Description("Additional fields keyed by reference name, e.g. {\"Microsoft.VSTS.Common.Priority\": 1}"),
		),
	)
}

// workItemFieldsArg reads the common field arguments shared by the create tools.
func workItemFieldsArg(req mcp.CallToolRequest) azdo.WorkItemFields {
	title := req.GetString("title", "")
	if title == "" {
		title = "Untitled"
	}
	w := azdo.WorkItemFields{
		Title:         &title,
		AssignedTo:    optStringArg(req, "assigned_to"),
		State:         optStringArg(req, "state"),
		AreaPath:      optStringArg(req, "area_path"),
		IterationPath: optStringArg(req, "iteration_path"),
		Tags:          stringSliceArg(req, "tags"),
		Extra:         objectArg(req, "extra_fields"),
	}
	if d := req.GetString("description", ""); d != "" {
		w.Description = &d
	}
	return w
}

// Handle processes the create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	typ := req.GetString("work_item_type", "Task")
	fields := azdo.BuildFields(workItemFieldsArg(req))

	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.CreateWorkItem(ctx, project, typ, fields)
	})
}

// UpdateWorkItemTool handles the update_work_item MCP tool.
type UpdateWorkItemTool struct {
	newClient ClientFactory
}

// NewUpdateWorkItemTool creates an UpdateWorkItemTool.
func NewUpdateWorkItemTool(f ClientFactory) *UpdateWorkItemTool {
	return &UpdateWorkItemTool{newClient: f}
}

// Definition returns the MCP tool definition for update_work_item.
func (t *UpdateWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("update_work_item",
		mcp.WithDescription(
			"Update a work item: set fields, state, assignee or tags and optionally add a comment. "+
				"Tag changes read the current tags first and fail if the item changed meanwhile.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("assigned_to", mcp.Description("New assignee")),
		mcp.WithString("state", mcp.Description("New state")),
		mcp.WithArray("add_tags",
			mcp.Description("Tags to add"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("remove_tags",
			mcp.Description("Tags to remove (case-insensitive)"),
			mcp.WithStringItems(),
		),
		mcp.WithObject("fields",
			mcp.Description("Other fields keyed by reference name. A null value clears the field. "+
				"System.Tags here cannot be combined with add_tags or remove_tags."),
		),
		mcp.WithString("comment", mcp.Description("History comment to add")),
	)
}

// Handle processes the update_work_item tool call.
func (t *UpdateWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}

	u := azdo.WorkItemUpdate{
		Fields: azdo.BuildFields(azdo.WorkItemFields{
			Title:       optStringArg(req, "title"),
			Description: optStringArg(req, "description"),
			AssignedTo:  optStringArg(req, "assigned_to"),
			State:       optStringArg(req, "state"),
			Extra:       objectArg(req, "fields"),
		}),
		AddTags:    stringSliceArg(req, "add_tags"),
		RemoveTags: stringSliceArg(req, "remove_tags"),
		Comment:    req.GetString("comment", ""),
	}
	if u.Empty() {
		return mcp.NewToolResultError("nothing to update: pass at least one field, tag change or comment"), nil
	}

	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.UpdateWorkItemFields(ctx, id, u)
	})
}

// AddCommentTool handles the add_comment MCP tool.
type AddCommentTool struct {
	newClient ClientFactory
}

// NewAddCommentTool creates an AddCommentTool.
func NewAddCommentTool(f ClientFactory) *AddCommentTool {
	return &AddCommentTool{newClient: f}
}

// Definition returns the MCP tool definition for add_comment.
func (t *AddCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("add_comment",
		mcp.WithDescription("Add a history comment to a work item."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	)
}

// Handle processes the add_comment tool call.
func (t *AddCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}
	text, errResult := requiredString(req, "text")
	if errResult != nil {
		return errResult, nil
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.AddHistoryComment(ctx, id, text)
	})
}

// setFieldTool backs the single-field update tools.
type setFieldTool struct {
	newClient ClientFactory
	name      string
	desc      string
	arg       string
	argDesc   string
	field     string
}

// Definition returns the MCP tool definition.
func (t *setFieldTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name,
		mcp.WithDescription(t.desc),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
		mcp.WithString(t.arg, mcp.Required(), mcp.Description(t.argDesc)),
	)
}

// Handle processes the tool call.
func (t *setFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requiredInt(req, "id")
	if errResult != nil {
		return errResult, nil
	}
	value, errResult := requiredString(req, t.arg)
	if errResult != nil {
		return errResult, nil
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.UpdateWorkItem(ctx, id, []azdo.PatchOperation{
			{Op: azdo.OpAdd, Path: azdo.FieldPath(t.field), Value: value},
		})
	})
}

// AssignWorkItemTool handles the assign_work_item MCP tool.
type AssignWorkItemTool struct{ setFieldTool }

// NewAssignWorkItemTool creates an AssignWorkItemTool.
func NewAssignWorkItemTool(f ClientFactory) *AssignWorkItemTool {
	return &AssignWorkItemTool{setFieldTool{
		newClient: f,
		name:      "assign_work_item",
		desc:      "Assign a work item to a user (display name or email).",
		arg:       "assigned_to",
		argDesc:   "Assignee display name or email",
		field:     azdo.FieldAssignedTo,
	}}
}

// TransitionStateTool handles the transition_state MCP tool.
type TransitionStateTool struct{ setFieldTool }

// NewTransitionStateTool creates a TransitionStateTool.
func NewTransitionStateTool(f ClientFactory) *TransitionStateTool {
	return &TransitionStateTool{setFieldTool{
		newClient: f,
		name:      "transition_state",
		desc:      "Move a work item to a new state (e.g. New, Active, Resolved, Closed).",
		arg:       "new_state",
		argDesc:   "Target state",
		field:     azdo.FieldState,
	}}
}

// LinkWorkItemsTool handles the link_work_items MCP tool.
type LinkWorkItemsTool struct {
	newClient ClientFactory
}

// NewLinkWorkItemsTool creates a LinkWorkItemsTool.
func NewLinkWorkItemsTool(f ClientFactory) *LinkWorkItemsTool {
	return &LinkWorkItemsTool{newClient: f}
}

// Definition returns the MCP tool definition for link_work_items.
func (t *LinkWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("link_work_items",
		mcp.WithDescription("Link two work items (default: parent to child, hierarchy forward)."),
		mcp.WithNumber("source_id", mcp.Required(), mcp.Description("Work item the link is added to")),
		mcp.WithNumber("target_id", mcp.Required(), mcp.Description("Linked work item")),
		mcp.WithString("link_type",
			mcp.Description("Relation type (default: System.LinkTypes.Hierarchy-Forward)"),
			mcp.DefaultString("System.LinkTypes.Hierarchy-Forward"),
		),
	)
}

// Handle processes the link_work_items tool call.
func (t *LinkWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, errResult := requiredInt(req, "source_id")
	if errResult != nil {
		return errResult, nil
	}
	target, errResult := requiredInt(req, "target_id")
	if errResult != nil {
		return errResult, nil
	}
	linkType := req.GetString("link_type", "System.LinkTypes.Hierarchy-Forward")
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.LinkWorkItems(ctx, source, target, linkType)
	})
}

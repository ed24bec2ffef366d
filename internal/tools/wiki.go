package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

func withWiki() mcp.ToolOption {
	return mcp.WithString("wiki",
		mcp.Required(),
		mcp.Description("Wiki name or id, e.g. MyProject.wiki"),
	)
}

func withPagePath() mcp.ToolOption {
	return mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Page path, e.g. /Home or /Team/Onboarding"),
	)
}

// ListWikisTool handles the list_wikis MCP tool.
type ListWikisTool struct {
	newClient ClientFactory
}

// NewListWikisTool creates a ListWikisTool.
func NewListWikisTool(f ClientFactory) *ListWikisTool {
	return &ListWikisTool{newClient: f}
}

// Definition returns the MCP tool definition for list_wikis.
func (t *ListWikisTool) Definition() mcp.Tool {
	return mcp.NewTool("list_wikis",
		mcp.WithDescription("List wikis of a project, or of the whole collection when no project is set."),
		withProject(),
	)
}

// Handle processes the list_wikis tool call.
func (t *ListWikisTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	return run(t.newClient, func(c *azdo.Client) ([]azdo.Document, error) {
		return c.ListWikis(ctx, project)
	})
}

// ListWikiPagesTool handles the list_wiki_pages MCP tool.
type ListWikiPagesTool struct {
	newClient ClientFactory
}

// NewListWikiPagesTool creates a ListWikiPagesTool.
func NewListWikiPagesTool(f ClientFactory) *ListWikiPagesTool {
	return &ListWikiPagesTool{newClient: f}
}

// Definition returns the MCP tool definition for list_wiki_pages.
func (t *ListWikiPagesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_wiki_pages",
		mcp.WithDescription("List the page tree of a wiki, optionally below a path."),
		withWiki(),
		withProject(),
		mcp.WithString("path", mcp.Description("Root of the listing (default: wiki root)")),
		mcp.WithString("recursion_level",
			mcp.Description("How deep to list"),
			mcp.Enum("none", "oneLevel", "full"),
		),
		mcp.WithBoolean("include_content", mcp.Description("Include page content (default: false)")),
	)
}

// Handle processes the list_wiki_pages tool call.
func (t *ListWikiPagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wiki, errResult := requiredString(req, "wiki")
	if errResult != nil {
		return errResult, nil
	}
	q := azdo.WikiPageQuery{
		Project:        req.GetString("project", ""),
		Wiki:           wiki,
		Path:           req.GetString("path", ""),
		RecursionLevel: req.GetString("recursion_level", ""),
		IncludeContent: boolArg(req, "include_content", false),
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.ListWikiPages(ctx, q)
	})
}

// GetWikiPageTool handles the get_wiki_page MCP tool.
type GetWikiPageTool struct {
	newClient ClientFactory
}

// NewGetWikiPageTool creates a GetWikiPageTool.
func NewGetWikiPageTool(f ClientFactory) *GetWikiPageTool {
	return &GetWikiPageTool{newClient: f}
}

// Definition returns the MCP tool definition for get_wiki_page.
func (t *GetWikiPageTool) Definition() mcp.Tool {
	return mcp.NewTool("get_wiki_page",
		mcp.WithDescription("Get a wiki page by path, with its content by default."),
		withWiki(),
		withPagePath(),
		withProject(),
		mcp.WithBoolean("include_content", mcp.Description("Include page content (default: true)")),
	)
}

// Handle processes the get_wiki_page tool call.
func (t *GetWikiPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wiki, errResult := requiredString(req, "wiki")
	if errResult != nil {
		return errResult, nil
	}
	path, errResult := requiredString(req, "path")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	include := boolArg(req, "include_content", true)
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.GetWikiPage(ctx, project, wiki, path, include)
	})
}

// pageWriteArg reads the arguments common to page writes.
func pageWriteArg(req mcp.CallToolRequest) (azdo.WikiPageWrite, *mcp.CallToolResult) {
	wiki, errResult := requiredString(req, "wiki")
	if errResult != nil {
		return azdo.WikiPageWrite{}, errResult
	}
	path, errResult := requiredString(req, "path")
	if errResult != nil {
		return azdo.WikiPageWrite{}, errResult
	}
	if _, ok := req.GetArguments()["content"].(string); !ok {
		return azdo.WikiPageWrite{}, mcp.NewToolResultError("'content' is required")
	}
	return azdo.WikiPageWrite{
		Project: req.GetString("project", ""),
		Wiki:    wiki,
		Path:    path,
		Content: req.GetString("content", ""),
		Comment: req.GetString("comment", ""),
	}, nil
}

// UpsertWikiPageTool handles the upsert_wiki_page MCP tool.
type UpsertWikiPageTool struct {
	newClient ClientFactory
}

// NewUpsertWikiPageTool creates an UpsertWikiPageTool.
func NewUpsertWikiPageTool(f ClientFactory) *UpsertWikiPageTool {
	return &UpsertWikiPageTool{newClient: f}
}

// Definition returns the MCP tool definition for upsert_wiki_page.
func (t *UpsertWikiPageTool) Definition() mcp.Tool {
	return mcp.NewTool("upsert_wiki_page",
		mcp.WithDescription(
			"Create a wiki page, or replace its content unconditionally. "+
				"Use update_wiki_page to edit an existing page safely.",
		),
		withWiki(),
		withPagePath(),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		withProject(),
		mcp.WithString("comment", mcp.Description("Revision comment")),
	)
}

// Handle processes the upsert_wiki_page tool call.
func (t *UpsertWikiPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, errResult := pageWriteArg(req)
	if errResult != nil {
		return errResult, nil
	}
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.UpsertWikiPage(ctx, w)
	})
}

// UpdateWikiPageTool handles the update_wiki_page MCP tool.
type UpdateWikiPageTool struct {
	newClient ClientFactory
}

// NewUpdateWikiPageTool creates an UpdateWikiPageTool.
func NewUpdateWikiPageTool(f ClientFactory) *UpdateWikiPageTool {
	return &UpdateWikiPageTool{newClient: f}
}

// Definition returns the MCP tool definition for update_wiki_page.
func (t *UpdateWikiPageTool) Definition() mcp.Tool {
	return mcp.NewTool("update_wiki_page",
		mcp.WithDescription(
			"Update an existing wiki page with optimistic concurrency. "+
				"Without 'version' the current version is read first; the write fails if the page changed since. "+
				"Never creates a page.",
		),
		withWiki(),
		withPagePath(),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		withProject(),
		mcp.WithString("comment", mcp.Description("Revision comment")),
		mcp.WithString("version", mcp.Description("Page version (ETag) the edit is based on")),
	)
}

// Handle processes the update_wiki_page tool call.
func (t *UpdateWikiPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, errResult := pageWriteArg(req)
	if errResult != nil {
		return errResult, nil
	}
	version := req.GetString("version", "")
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.UpdateWikiPage(ctx, w, version)
	})
}

// DeleteWikiPageTool handles the delete_wiki_page MCP tool.
type DeleteWikiPageTool struct {
	newClient ClientFactory
}

// NewDeleteWikiPageTool creates a DeleteWikiPageTool.
func NewDeleteWikiPageTool(f ClientFactory) *DeleteWikiPageTool {
	return &DeleteWikiPageTool{newClient: f}
}

// Definition returns the MCP tool definition for delete_wiki_page.
func (t *DeleteWikiPageTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_wiki_page",
		mcp.WithDescription("Delete a wiki page by path."),
		withWiki(),
		withPagePath(),
		withProject(),
		mcp.WithString("comment", mcp.Description("Revision comment")),
	)
}

// Handle processes the delete_wiki_page tool call.
func (t *DeleteWikiPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wiki, errResult := requiredString(req, "wiki")
	if errResult != nil {
		return errResult, nil
	}
	path, errResult := requiredString(req, "path")
	if errResult != nil {
		return errResult, nil
	}
	project := req.GetString("project", "")
	comment := req.GetString("comment", "")
	return run(t.newClient, func(c *azdo.Client) (azdo.Document, error) {
		return c.DeleteWikiPage(ctx, project, wiki, path, comment)
	})
}

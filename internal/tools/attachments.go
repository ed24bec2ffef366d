package tools

import (
	"context"
	"encoding/base64"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
)

// ListAttachmentsTool handles the list_work_item_attachments MCP tool.
// It reads a document the host already holds and makes no request.
type ListAttachmentsTool struct{}

// NewListAttachmentsTool creates a ListAttachmentsTool.
func NewListAttachmentsTool() *ListAttachmentsTool {
	return &ListAttachmentsTool{}
}

// Definition returns the MCP tool definition for list_work_item_attachments.
func (t *ListAttachmentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_work_item_attachments",
		mcp.WithDescription(
			"List attachment names and URLs from a work item document. "+
				"The document must include relations (get_work_item with expand Relations or All).",
		),
		mcp.WithObject("work_item", mcp.Required(), mcp.Description("Work item document")),
	)
}

// Handle processes the list_work_item_attachments tool call.
func (t *ListAttachmentsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := objectArg(req, "work_item")
	if doc == nil {
		return mcp.NewToolResultError("'work_item' is required"), nil
	}
	return jsonResult(azdo.ExtractAttachments(doc))
}

// DownloadAttachmentTool handles the download_attachment MCP tool.
type DownloadAttachmentTool struct {
	newClient ClientFactory
}

// NewDownloadAttachmentTool creates a DownloadAttachmentTool.
func NewDownloadAttachmentTool(f ClientFactory) *DownloadAttachmentTool {
	return &DownloadAttachmentTool{newClient: f}
}

// Definition returns the MCP tool definition for download_attachment.
func (t *DownloadAttachmentTool) Definition() mcp.Tool {
	return mcp.NewTool("download_attachment",
		mcp.WithDescription("Download an attachment by its relation URL and return it base64-encoded."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Attachment URL from list_work_item_attachments")),
	)
}

// Handle processes the download_attachment tool call.
func (t *DownloadAttachmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, errResult := requiredString(req, "url")
	if errResult != nil {
		return errResult, nil
	}
	c, err := t.newClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := c.DownloadAttachment(ctx, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
}

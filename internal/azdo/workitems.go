package azdo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
)

// ListProjects returns the projects visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]Document, error) {
	return c.values(ctx, c.apiURL("/_apis/projects", ""), nil)
}

type wiqlResponse struct {
	WorkItems []struct {
		ID  *int   `json:"id"`
		URL string `json:"url"`
	} `json:"workItems"`
}

// WIQLQuery runs a WIQL query and returns the matching work item ids in the
// order the backend returned them. top <= 0 means no limit.
func (c *Client) WIQLQuery(ctx context.Context, query, project string, top int) ([]int, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if top > 0 {
		params.Set("$top", strconv.Itoa(top))
	}
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.apiURL("/_apis/wit/wiql", proj),
		params: params,
		body:   map[string]any{"query": query},
	})
	if err != nil {
		return nil, err
	}

	var out wiqlResponse
	if err := decodeInto(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decoding wiql response: %w", err)
	}
	ids := make([]int, 0, len(out.WorkItems))
	for _, wi := range out.WorkItems {
		if wi.ID != nil {
			ids = append(ids, *wi.ID)
		}
	}
	return ids, nil
}

// GetWorkItem fetches one work item. expand is None|Relations|Fields|Links|All.
func (c *Client) GetWorkItem(ctx context.Context, id int, expand string) (Document, error) {
	params := url.Values{}
	if expand != "" {
		params.Set("$expand", expand)
	}
	return c.getJSON(ctx, c.apiURL("/_apis/wit/workitems/"+strconv.Itoa(id), ""), params)
}

// GetWorkItems fetches many work items in one batch request. An empty id
// list returns immediately without contacting the backend.
func (c *Client) GetWorkItems(ctx context.Context, ids []int, expand string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}
	body := map[string]any{"ids": ids}
	if expand != "" {
		body["$expand"] = expand
	}
	doc, err := c.postJSON(ctx, c.apiURL("/_apis/wit/workitemsbatch", ""), nil, body)
	if err != nil {
		return nil, err
	}
	return listOf(doc, "value", "workItems"), nil
}

// CreateWorkItem creates a work item of the given type with one add
// operation per field. Nil values have nothing to clear and are skipped.
func (c *Client) CreateWorkItem(ctx context.Context, project, workItemType string, fields *FieldSet) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	ops := slices.DeleteFunc(fields.Operations(OpAdd), func(op PatchOperation) bool {
		return op.Op == OpRemove
	})
	u := c.apiURL("/_apis/wit/workitems/$"+seg(workItemType), proj)
	return c.patchJSON(ctx, u, ops, contentTypeJSONPatch)
}

// UpdateWorkItem applies ops to a work item as one atomic patch document.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, ops []PatchOperation) (Document, error) {
	u := c.apiURL("/_apis/wit/workitems/"+strconv.Itoa(id), "")
	return c.patchJSON(ctx, u, ops, contentTypeJSONPatch)
}

// AddHistoryComment appends a discussion entry to a work item.
func (c *Client) AddHistoryComment(ctx context.Context, id int, text string) (Document, error) {
	return c.UpdateWorkItem(ctx, id, []PatchOperation{
		{Op: OpAdd, Path: FieldPath(FieldHistory), Value: text},
	})
}

// WorkItemURL returns the fully qualified API URL of a work item, which is
// what relation entries must point at.
func (c *Client) WorkItemURL(id int) string {
	return c.collectionURL() + "/_apis/wit/workItems/" + strconv.Itoa(id)
}

// LinkWorkItems adds a relation of linkType from source to target.
func (c *Client) LinkWorkItems(ctx context.Context, sourceID, targetID int, linkType string) (Document, error) {
	return c.UpdateWorkItem(ctx, sourceID, []PatchOperation{{
		Op:   OpAdd,
		Path: "/relations/-",
		Value: map[string]any{
			"rel": linkType,
			"url": c.WorkItemURL(targetID),
		},
	}})
}

// WorkItemUpdate describes a combined field/tag/comment update.
type WorkItemUpdate struct {
	Fields     *FieldSet
	AddTags    []string
	RemoveTags []string
	Comment    string
}

// Empty reports whether the update would change nothing.
func (u WorkItemUpdate) Empty() bool {
	return u.Fields.Len() == 0 && len(u.AddTags) == 0 && len(u.RemoveTags) == 0 && u.Comment == ""
}

// UpdateWorkItemFields applies a WorkItemUpdate. Tag changes need the current
// tags, so the item is read first and the patch is guarded by a test on
// /rev: if someone else edits the item in between, the backend rejects the
// whole document instead of overwriting their tags. An explicit System.Tags
// field cannot be combined with tag edits.
func (c *Client) UpdateWorkItemFields(ctx context.Context, id int, u WorkItemUpdate) (Document, error) {
	var ops []PatchOperation

	if len(u.AddTags) > 0 || len(u.RemoveTags) > 0 {
		if _, ok := u.Fields.Get(FieldTags); ok {
			return nil, ErrTagsConflict
		}
		current, err := c.GetWorkItem(ctx, id, "")
		if err != nil {
			return nil, fmt.Errorf("reading work item %d tags: %w", id, err)
		}
		if rev, ok := asInt(current["rev"]); ok {
			ops = append(ops, PatchOperation{Op: OpTest, Path: "/rev", Value: rev})
		}
		ops = append(ops, u.Fields.Operations(OpAdd)...)
		tags := MergeTags(SplitTags(stringField(current, "fields", FieldTags)), u.AddTags, u.RemoveTags)
		ops = append(ops, PatchOperation{Op: OpAdd, Path: FieldPath(FieldTags), Value: JoinTags(tags)})
	} else {
		ops = append(ops, u.Fields.Operations(OpAdd)...)
	}

	if u.Comment != "" {
		ops = append(ops, PatchOperation{Op: OpAdd, Path: FieldPath(FieldHistory), Value: u.Comment})
	}
	return c.UpdateWorkItem(ctx, id, ops)
}

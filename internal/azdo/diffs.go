package azdo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// codeRefUnresolvable is returned by on-prem servers that cannot resolve a
// branch name to a commit for the diff API.
const codeRefUnresolvable = "TF401175"

// Version descriptor types for the diff and items APIs.
const (
	versionTypeBranch = "branch"
	versionTypeCommit = "commit"
)

// DiffOptions tunes GetPullRequestDiffs. Top and Skip page the change list
// (0 = server default).
type DiffOptions struct {
	IncludeContent bool
	Top            int
	Skip           int
}

// PullRequestDiff is the file-level change list between a PR's target and
// source. The shape is the same whether branches or commit ids were used.
type PullRequestDiff struct {
	PullRequestID int    `json:"pullRequestId"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	// BaseVersion/TargetVersion are the branch names or commit ids compared,
	// as indicated by VersionType.
	BaseVersion        string         `json:"baseVersion"`
	TargetVersion      string         `json:"targetVersion"`
	VersionType        string         `json:"versionType"`
	CommonCommit       string         `json:"commonCommit,omitempty"`
	AllChangesIncluded bool           `json:"allChangesIncluded"`
	ChangeCounts       map[string]any `json:"changeCounts,omitempty"`
	Changes            []Document     `json:"changes"`
}

// branchName strips the refs/heads/ prefix the diff API does not accept.
func branchName(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}

// GetPullRequestDiffs returns the changes a pull request introduces. The
// comparison is first requested by branch name; if the backend cannot
// resolve the refs (TF401175) it is reissued with the PR's last merge
// commit ids. Every other failure is returned as is.
func (c *Client) GetPullRequestDiffs(ctx context.Context, s Scope, id int, opts DiffOptions) (*PullRequestDiff, error) {
	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}

	pr, err := c.GetPullRequest(ctx, Scope{Project: proj, Repository: repo}, id)
	if err != nil {
		return nil, err
	}

	diff := &PullRequestDiff{
		PullRequestID: id,
		SourceRefName: stringField(pr, "sourceRefName"),
		TargetRefName: stringField(pr, "targetRefName"),
		BaseVersion:   branchName(stringField(pr, "targetRefName")),
		TargetVersion: branchName(stringField(pr, "sourceRefName")),
		VersionType:   versionTypeBranch,
	}

	doc, err := c.commitDiff(ctx, proj, repo, diff, opts)
	var reqErr *BackendRequestError
	if err != nil && errors.As(err, &reqErr) && reqErr.HasCode(codeRefUnresolvable) {
		baseCommit := stringField(pr, "lastMergeTargetCommit", "commitId")
		targetCommit := stringField(pr, "lastMergeSourceCommit", "commitId")
		if baseCommit == "" || targetCommit == "" {
			return nil, err
		}
		c.logger.Info("branch refs unresolvable, retrying diff with commit ids",
			"pull_request", id,
			"base", baseCommit,
			"target", targetCommit,
		)
		diff.BaseVersion, diff.TargetVersion, diff.VersionType = baseCommit, targetCommit, versionTypeCommit
		doc, err = c.commitDiff(ctx, proj, repo, diff, opts)
	}
	if err != nil {
		return nil, err
	}

	diff.CommonCommit = stringField(doc, "commonCommit")
	diff.AllChangesIncluded, _ = doc["allChangesIncluded"].(bool)
	diff.ChangeCounts, _ = doc["changeCounts"].(map[string]any)
	diff.Changes = listOf(doc, "changes")

	if opts.IncludeContent {
		if err := c.attachContent(ctx, proj, repo, diff); err != nil {
			return nil, err
		}
	}
	return diff, nil
}

func (c *Client) commitDiff(ctx context.Context, project, repo string, d *PullRequestDiff, opts DiffOptions) (Document, error) {
	params := url.Values{}
	params.Set("baseVersion", d.BaseVersion)
	params.Set("baseVersionType", d.VersionType)
	params.Set("targetVersion", d.TargetVersion)
	params.Set("targetVersionType", d.VersionType)
	params.Set("diffCommonCommit", "true")
	if opts.Top > 0 {
		params.Set("$top", strconv.Itoa(opts.Top))
	}
	if opts.Skip > 0 {
		params.Set("$skip", strconv.Itoa(opts.Skip))
	}
	u := c.apiURL("/_apis/git/repositories/"+seg(repo)+"/diffs/commits", project)
	return c.getJSON(ctx, u, params)
}

// attachContent adds the source-side text of every changed, non-deleted
// blob as a "content" entry on its change.
func (c *Client) attachContent(ctx context.Context, project, repo string, d *PullRequestDiff) error {
	for _, change := range d.Changes {
		path := stringField(change, "item", "path")
		if path == "" || stringField(change, "item", "gitObjectType") != "blob" {
			continue
		}
		if strings.Contains(stringField(change, "changeType"), "delete") {
			continue
		}
		item, err := c.getItem(ctx, project, repo, path, d.TargetVersion, d.VersionType)
		if err != nil {
			return fmt.Errorf("fetching content of %s: %w", path, err)
		}
		change["content"] = stringField(item, "content")
	}
	return nil
}

// getItem reads an item's metadata and text content at a version.
func (c *Client) getItem(ctx context.Context, project, repo, path, version, versionType string) (Document, error) {
	params := url.Values{}
	params.Set("path", path)
	params.Set("includeContent", "true")
	params.Set("versionDescriptor.version", version)
	params.Set("versionDescriptor.versionType", versionType)
	return c.getJSON(ctx, c.apiURL("/_apis/git/repositories/"+seg(repo)+"/items", project), params)
}

// File sides for GetPullRequestFileContent.
const (
	SideSource = "source"
	SideTarget = "target"
	SideBoth   = "both"
)

// FileVersion is a file's bytes at one side of a pull request.
type FileVersion struct {
	RefName       string `json:"refName"`
	CommitID      string `json:"commitId"`
	Size          int    `json:"size"`
	ContentBase64 string `json:"contentBase64"`
}

// PullRequestFileContent holds the requested side(s) of a file.
type PullRequestFileContent struct {
	PullRequestID int          `json:"pullRequestId"`
	Path          string       `json:"path"`
	Source        *FileVersion `json:"source,omitempty"`
	Target        *FileVersion `json:"target,omitempty"`
}

// GetPullRequestFileContent downloads a file at the PR's last merge source
// and/or target commit. side is source, target or both.
func (c *Client) GetPullRequestFileContent(ctx context.Context, s Scope, id int, path, side string) (*PullRequestFileContent, error) {
	if side == "" {
		side = SideSource
	}
	if side != SideSource && side != SideTarget && side != SideBoth {
		return nil, fmt.Errorf("invalid side %q: must be one of: source, target, both", side)
	}

	proj, repo, err := c.resolveRepo(s)
	if err != nil {
		return nil, err
	}
	pr, err := c.GetPullRequest(ctx, Scope{Project: proj, Repository: repo}, id)
	if err != nil {
		return nil, err
	}

	out := &PullRequestFileContent{PullRequestID: id, Path: path}
	fetch := func(refKey, commitKey string) (*FileVersion, error) {
		commit := stringField(pr, commitKey, "commitId")
		if commit == "" {
			return nil, fmt.Errorf("pull request %d has no %s", id, commitKey)
		}
		data, err := c.downloadItem(ctx, proj, repo, path, commit)
		if err != nil {
			return nil, err
		}
		return &FileVersion{
			RefName:       stringField(pr, refKey),
			CommitID:      commit,
			Size:          len(data),
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		}, nil
	}

	if side == SideSource || side == SideBoth {
		if out.Source, err = fetch("sourceRefName", "lastMergeSourceCommit"); err != nil {
			return nil, err
		}
	}
	if side == SideTarget || side == SideBoth {
		if out.Target, err = fetch("targetRefName", "lastMergeTargetCommit"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) downloadItem(ctx context.Context, project, repo, path, commit string) ([]byte, error) {
	params := url.Values{}
	params.Set("path", path)
	params.Set("versionDescriptor.version", commit)
	params.Set("versionDescriptor.versionType", versionTypeCommit)
	params.Set("$format", "octetStream")
	params.Set("download", "true")
	return c.getRaw(ctx, c.apiURL("/_apis/git/repositories/"+seg(repo)+"/items", project), params)
}

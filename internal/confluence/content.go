package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const contentExpand = "space,version,body.storage,ancestors"

// GetContent fetches a single content item, including its current version.
func (c *Client) GetContent(ctx context.Context, contentID string) (*Content, error) {
	if contentID == "" {
		return nil, errors.New("content id is required")
	}

	params := url.Values{}
	params.Set("expand", contentExpand)

	var result Content
	if err := c.do(ctx, http.MethodGet, "/content/"+url.PathEscape(contentID), params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindPageByTitle returns the page with the given title in spaceKey, or nil
// when the space holds no such page.
func (c *Client) FindPageByTitle(ctx context.Context, spaceKey, title string) (*Content, error) {
	params := url.Values{}
	params.Set("spaceKey", spaceKey)
	params.Set("title", title)
	params.Set("type", contentTypePage)
	params.Set("expand", contentExpand)

	var list ContentList
	if err := c.do(ctx, http.MethodGet, "/content", params, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, nil
	}
	return &list.Results[0], nil
}

// CreatePage creates a top-level page in spaceKey. body is storage-format markup.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, body string) (*Content, error) {
	return c.CreatePageWithParent(ctx, spaceKey, title, body, "")
}

// CreatePageWithParent creates a page nested under parentID. An empty
// parentID creates a top-level page and omits ancestors from the payload.
func (c *Client) CreatePageWithParent(ctx context.Context, spaceKey, title, body, parentID string) (*Content, error) {
	page := createPageRequest{
		Type:  contentTypePage,
		Title: title,
		Space: Space{Key: spaceKey},
		Body:  storageBody(body),
	}
	if parentID != "" {
		page.Ancestors = []Ancestor{{ID: parentID}}
	}

	c.logger.Debug("creating page '%s' in space %s (parent %q)", title, spaceKey, parentID)

	var result Content
	if err := c.do(ctx, http.MethodPost, "/content", nil, page, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PageUpdate is the state read by BeginUpdate. Body and Title hold what
// CommitUpdate will submit; an empty Title keeps the title that was read.
type PageUpdate struct {
	Current *Content
	Title   string
	Body    string
}

// NextVersion is the version number the update will submit.
func (u *PageUpdate) NextVersion() int {
	return u.Current.VersionNumber() + 1
}

func (u *PageUpdate) effectiveTitle() string {
	if u.Title != "" {
		return u.Title
	}
	return u.Current.Title
}

// BeginUpdate reads the current state of a page. Nothing is written until the
// returned update is passed to CommitUpdate; another writer may change the
// page in between.
func (c *Client) BeginUpdate(ctx context.Context, pageID string) (*PageUpdate, error) {
	current, err := c.GetContent(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current page version: %w", err)
	}
	return &PageUpdate{
		Current: current,
		Title:   current.Title,
		Body:    current.StorageValue(),
	}, nil
}

// CommitUpdate writes u with version Current+1. A stale version is reported
// as *VersionConflictError and is not retried.
func (c *Client) CommitUpdate(ctx context.Context, u *PageUpdate) (*Content, error) {
	if u == nil || u.Current == nil {
		return nil, errors.New("update has no current content; call BeginUpdate first")
	}

	pageID := u.Current.ID
	page := updatePageRequest{
		Type:    contentTypePage,
		Title:   u.effectiveTitle(),
		Version: Version{Number: u.NextVersion()},
		Body:    storageBody(u.Body),
	}

	c.logger.Debug("updating page %s to version %d", pageID, page.Version.Number)

	var result Content
	err := c.do(ctx, http.MethodPut, "/content/"+url.PathEscape(pageID), nil, page, &result)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusConflict {
			return nil, &VersionConflictError{ContentID: pageID, Submitted: page.Version.Number, Err: apiErr}
		}
		return nil, err
	}
	return &result, nil
}

// UpdatePage replaces the body of a page and keeps its current title.
func (c *Client) UpdatePage(ctx context.Context, pageID, body string) (*Content, error) {
	return c.UpdatePageWithTitle(ctx, pageID, body, "")
}

// UpdatePageWithTitle replaces body and, when title is non-empty, the title.
func (c *Client) UpdatePageWithTitle(ctx context.Context, pageID, body, title string) (*Content, error) {
	u, err := c.BeginUpdate(ctx, pageID)
	if err != nil {
		return nil, err
	}
	u.Body = body
	if title != "" {
		u.Title = title
	}
	return c.CommitUpdate(ctx, u)
}

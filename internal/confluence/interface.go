package confluence

import (
	"context"
	"iter"
)

// ContentClient defines the operations the CLI needs from a Confluence client.
type ContentClient interface {
	ListPages(ctx context.Context, spaceKey string) ([]Content, error)
	Pages(ctx context.Context, spaceKey string) iter.Seq2[Content, error]
	GetContent(ctx context.Context, contentID string) (*Content, error)
	FindPageByTitle(ctx context.Context, spaceKey, title string) (*Content, error)
	CreatePage(ctx context.Context, spaceKey, title, body string) (*Content, error)
	CreatePageWithParent(ctx context.Context, spaceKey, title, body, parentID string) (*Content, error)
	BeginUpdate(ctx context.Context, pageID string) (*PageUpdate, error)
	CommitUpdate(ctx context.Context, u *PageUpdate) (*Content, error)
	UpdatePage(ctx context.Context, pageID, body string) (*Content, error)
	UpdatePageWithTitle(ctx context.Context, pageID, body, title string) (*Content, error)
}

// Ensure Client implements the interface
var _ ContentClient = (*Client)(nil)

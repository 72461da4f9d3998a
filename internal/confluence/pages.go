package confluence

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

// FetchPages requests a single page of the space listing starting at offset start.
func (c *Client) FetchPages(ctx context.Context, spaceKey string, start int) (*ContentList, error) {
	params := url.Values{}
	params.Set("spaceKey", spaceKey)
	params.Set("type", contentTypePage)
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("start", strconv.Itoa(start))

	var list ContentList
	if err := c.do(ctx, http.MethodGet, "/content", params, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Pages lazily walks every page in the space in server order. Each range over
// the returned sequence starts again from offset 0. Iteration stops after the
// first error, which is yielded with a zero Content.
func (c *Client) Pages(ctx context.Context, spaceKey string) iter.Seq2[Content, error] {
	return func(yield func(Content, error) bool) {
		start := 0
		for {
			list, err := c.FetchPages(ctx, spaceKey, start)
			if err != nil {
				yield(Content{}, fmt.Errorf("failed to list pages in space %s at offset %d: %w", spaceKey, start, err))
				return
			}

			c.logger.Zerolog().Debug().
				Str("space", spaceKey).
				Int("start", start).
				Int("size", list.Size).
				Msg("fetched page listing")

			for _, page := range list.Results {
				if !yield(page, nil) {
					return
				}
			}

			if c.lastListing(list) {
				return
			}
			start = nextStart(start, list)
		}
	}
}

// lastListing decides whether list ends the walk. An empty page always ends
// it. When the server sent _links, only a missing next link ends it, since
// Confluence may return short pages after filtering restricted content.
// Without _links a short page is taken as the last one.
func (c *Client) lastListing(list *ContentList) bool {
	if list.Size <= 0 {
		return true
	}
	if next, known := list.hasNext(); known {
		return !next
	}
	limit := list.Limit
	if limit <= 0 {
		limit = c.pageSize
	}
	return list.Size < limit
}

// nextStart returns the offset following list, counted from the start the
// server reported. A reported start behind the requested one (typically an
// omitted field) falls back to the requested offset.
func nextStart(requested int, list *ContentList) int {
	from := list.Start
	if from < requested {
		from = requested
	}
	return from + list.Size
}

// ListPages returns every page in the space. A failure on any request discards
// the pages gathered so far.
func (c *Client) ListPages(ctx context.Context, spaceKey string) ([]Content, error) {
	pages := []Content{}
	for page, err := range c.Pages(ctx, spaceKey) {
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	c.logger.Debug("listed %d pages in space %s", len(pages), spaceKey)
	return pages, nil
}

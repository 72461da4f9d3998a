package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpace serves GET /rest/api/content listings over a fixed set of pages.
type fakeSpace struct {
	mu        sync.Mutex
	total     int
	withLinks bool // emit _links.next the way Confluence does
	echoLimit bool // report the limit that was applied
	failAt    int  // start offset answered with 500, -1 for never
	delayAt   int  // start offset answered slowly, -1 for never
	delay     time.Duration
	pageCap   int   // most items returned per page regardless of limit, 0 for none
	starts    []int // start offsets requested, in order
	queries   []url.Values
}

func newFakeSpace(total int) *fakeSpace {
	return &fakeSpace{total: total, withLinks: true, echoLimit: true, failAt: -1, delayAt: -1}
}

func (f *fakeSpace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("start"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	f.mu.Lock()
	f.starts = append(f.starts, start)
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if start == f.delayAt {
		time.Sleep(f.delay)
	}
	if start == f.failAt {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"statusCode":500,"message":"boom"}`))
		return
	}

	end := start + limit
	if f.pageCap > 0 && start+f.pageCap < end {
		end = start + f.pageCap
	}
	results := []map[string]interface{}{}
	for i := start; i < f.total && i < end; i++ {
		results = append(results, map[string]interface{}{
			"id":      strconv.Itoa(i),
			"type":    "page",
			"title":   fmt.Sprintf("Page %d", i),
			"version": map[string]int{"number": 1},
		})
	}

	resp := map[string]interface{}{
		"size":    len(results),
		"start":   start,
		"results": results,
	}
	if f.echoLimit {
		resp["limit"] = limit
	}
	if f.withLinks {
		links := map[string]string{"base": "http://example", "context": "/wiki"}
		if start+len(results) < f.total {
			links["next"] = fmt.Sprintf("/rest/api/content?start=%d&limit=%d", start+len(results), limit)
		}
		resp["_links"] = links
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeSpace) requestedStarts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.starts...)
}

func newSpaceClient(t *testing.T, f *fakeSpace, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	client, err := New(server.URL, "test@example.com", "test-token", opts...)
	require.NoError(t, err)
	return client
}

func assertSequentialIDs(t *testing.T, pages []Content, n int) {
	t.Helper()
	require.Len(t, pages, n)
	seen := make(map[string]bool, n)
	for i, p := range pages {
		assert.Equal(t, strconv.Itoa(i), p.ID, "page %d out of order", i)
		assert.False(t, seen[p.ID], "duplicate page %s", p.ID)
		seen[p.ID] = true
	}
}

func TestListPages_EmptySpace(t *testing.T) {
	f := newFakeSpace(0)
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "EMPTY")
	require.NoError(t, err)
	assert.NotNil(t, pages)
	assert.Empty(t, pages)
	assert.Equal(t, []int{0}, f.requestedStarts())
}

func TestListPages_QueryParameters(t *testing.T) {
	f := newFakeSpace(3)
	client := newSpaceClient(t, f)

	_, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)

	require.Len(t, f.queries, 1)
	q := f.queries[0]
	assert.Equal(t, "DOCS", q.Get("spaceKey"))
	assert.Equal(t, "page", q.Get("type"))
	assert.Equal(t, "25", q.Get("limit"))
	assert.Equal(t, "0", q.Get("start"))
}

func TestListPages_ThirtyPages(t *testing.T) {
	f := newFakeSpace(30)
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)

	assertSequentialIDs(t, pages, 30)
	assert.Equal(t, []int{0, 25}, f.requestedStarts())
}

func TestListPages_MultiplesOfPageSize(t *testing.T) {
	for _, n := range []int{25, 50, 75, 100} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			f := newFakeSpace(n)
			client := newSpaceClient(t, f)

			pages, err := client.ListPages(context.Background(), "DOCS")
			require.NoError(t, err)

			assertSequentialIDs(t, pages, n)
			assert.Len(t, f.requestedStarts(), (n+24)/25)
		})
	}
}

func TestListPages_StopsOnEmptyPageWithoutLinks(t *testing.T) {
	f := newFakeSpace(50)
	f.withLinks = false
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)

	assertSequentialIDs(t, pages, 50)
	assert.Equal(t, []int{0, 25, 50}, f.requestedStarts())
}

func TestListPages_AdvancesByServerCount(t *testing.T) {
	// Server caps the page at 10 regardless of the requested limit.
	var starts []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		starts = append(starts, start)
		size := 10
		if start >= 20 {
			size = 0
		}
		results := make([]map[string]string, size)
		for i := range results {
			results[i] = map[string]string{"id": strconv.Itoa(start + i), "title": "p"}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"size": size, "start": start, "limit": 10, "results": results,
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "u", "t")
	require.NoError(t, err)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)
	assertSequentialIDs(t, pages, 20)
	assert.Equal(t, []int{0, 10, 20}, starts)
}

func TestListPages_ShortPagesFollowNextLink(t *testing.T) {
	// Confluence trims pages it filtered for permissions but still links onward.
	f := newFakeSpace(40)
	f.pageCap = 20
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)

	assertSequentialIDs(t, pages, 40)
	assert.Equal(t, []int{0, 20}, f.requestedStarts())
	assert.Equal(t, "25", f.queries[1].Get("limit"))
}

func TestListPages_ShortPageWithoutLinksIsLast(t *testing.T) {
	f := newFakeSpace(40)
	f.pageCap = 20
	f.withLinks = false
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)

	assertSequentialIDs(t, pages, 20)
	assert.Equal(t, []int{0}, f.requestedStarts())
}

func TestListPages_EmptyPageEndsDespiteNextLink(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"size":0,"start":0,"limit":25,"results":[],"_links":{"next":"/rest/api/content?start=25"}}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "u", "t")
	require.NoError(t, err)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Equal(t, 1, requests)
}

func TestNextStart(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		list      ContentList
		want      int
	}{
		{"server start matches request", 25, ContentList{Start: 25, Size: 5}, 30},
		{"server reports its own start", 25, ContentList{Start: 40, Size: 10}, 50},
		{"start omitted by server", 25, ContentList{Size: 5}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextStart(tt.requested, &tt.list))
		})
	}
}

func TestListPages_AdvancesFromServerStart(t *testing.T) {
	// The server answers start=0 with items 0-9 but reports start 5, so the
	// following request must continue at 15.
	var starts []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		starts = append(starts, start)
		if start > 0 {
			_, _ = w.Write([]byte(`{"size":1,"start":15,"limit":25,"results":[{"id":"15","title":"last"}],"_links":{}}`))
			return
		}
		results := make([]map[string]string, 10)
		for i := range results {
			results[i] = map[string]string{"id": strconv.Itoa(i), "title": "p"}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"size": 10, "start": 5, "limit": 25, "results": results,
			"_links": map[string]string{"next": "/rest/api/content?start=15"},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "u", "t")
	require.NoError(t, err)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)
	assert.Len(t, pages, 11)
	assert.Equal(t, []int{0, 15}, starts)
}

func TestListPages_CustomPageSize(t *testing.T) {
	f := newFakeSpace(12)
	client := newSpaceClient(t, f, WithPageSize(5))

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.NoError(t, err)
	assertSequentialIDs(t, pages, 12)
	assert.Equal(t, []int{0, 5, 10}, f.requestedStarts())
	assert.Equal(t, "5", f.queries[0].Get("limit"))
}

func TestListPages_FailureAbandonsCollection(t *testing.T) {
	f := newFakeSpace(60)
	f.failAt = 25
	client := newSpaceClient(t, f)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.Error(t, err)
	assert.Nil(t, pages)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.Contains(t, err.Error(), "offset 25")
}

func TestListPages_TimeoutIsTransportError(t *testing.T) {
	f := newFakeSpace(30)
	f.delayAt = 25
	f.delay = 500 * time.Millisecond
	client := newSpaceClient(t, f, WithTimeout(50*time.Millisecond))

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.Error(t, err)
	assert.Nil(t, pages)

	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr), "expected *url.Error, got %T", err)
	assert.True(t, urlErr.Timeout())
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestListPages_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client, err := New(server.URL, "u", "t")
	require.NoError(t, err)

	pages, err := client.ListPages(context.Background(), "DOCS")
	require.Error(t, err)
	assert.Nil(t, pages)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestPages_LazyAndRestartable(t *testing.T) {
	f := newFakeSpace(60)
	client := newSpaceClient(t, f)
	seq := client.Pages(context.Background(), "DOCS")

	// Stopping early never fetches later pages.
	count := 0
	for page, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(count), page.ID)
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, []int{0}, f.requestedStarts())

	// A second range starts over from offset 0 and walks everything.
	var all []Content
	for page, err := range seq {
		require.NoError(t, err)
		all = append(all, page)
	}
	assertSequentialIDs(t, all, 60)
	assert.Equal(t, []int{0, 0, 25, 50}, f.requestedStarts())
}

func TestFetchPages_SinglePage(t *testing.T) {
	f := newFakeSpace(30)
	client := newSpaceClient(t, f)

	list, err := client.FetchPages(context.Background(), "DOCS", 25)
	require.NoError(t, err)
	assert.Equal(t, 5, list.Size)
	assert.Equal(t, 25, list.Start)
	assert.Equal(t, 25, list.Limit)
	require.Len(t, list.Results, 5)
	assert.Equal(t, "25", list.Results[0].ID)
	next, known := list.hasNext()
	assert.True(t, known)
	assert.False(t, next)
}

package confluence

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
)

// MockClient is an in-memory implementation of ContentClient for tests.
type MockClient struct {
	Store       map[string]*Content // pageID -> page
	SpacePages  map[string][]string // spaceKey -> page IDs in listing order
	CreateCalls []string            // titles created (for assertions)
	UpdateCalls []string            // titles updated
	ListErr     error               // returned by ListPages/Pages when set
	Conflicts   map[string]bool     // pageIDs whose next commit reports a version conflict
	nextID      int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Store:      make(map[string]*Content),
		SpacePages: make(map[string][]string),
		Conflicts:  make(map[string]bool),
		nextID:     1000,
	}
}

// AddPage stores a page and appends it to its space listing.
func (m *MockClient) AddPage(spaceKey string, p *Content) {
	if p.Space == nil {
		p.Space = &Space{Key: spaceKey}
	}
	if p.Version == nil {
		p.Version = &Version{Number: 1}
	}
	m.Store[p.ID] = p
	m.SpacePages[spaceKey] = append(m.SpacePages[spaceKey], p.ID)
}

func (m *MockClient) notFound(id string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Method: http.MethodGet, URL: "/content/" + id, Message: "No content found with id: " + id}
}

func (m *MockClient) ListPages(ctx context.Context, spaceKey string) ([]Content, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	pages := []Content{}
	for _, id := range m.SpacePages[spaceKey] {
		pages = append(pages, *m.Store[id])
	}
	return pages, nil
}

func (m *MockClient) Pages(ctx context.Context, spaceKey string) iter.Seq2[Content, error] {
	return func(yield func(Content, error) bool) {
		pages, err := m.ListPages(ctx, spaceKey)
		if err != nil {
			yield(Content{}, err)
			return
		}
		for _, p := range pages {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (m *MockClient) GetContent(ctx context.Context, contentID string) (*Content, error) {
	p, ok := m.Store[contentID]
	if !ok {
		return nil, m.notFound(contentID)
	}
	cp := *p
	return &cp, nil
}

func (m *MockClient) FindPageByTitle(ctx context.Context, spaceKey, title string) (*Content, error) {
	for _, id := range m.SpacePages[spaceKey] {
		if p := m.Store[id]; p.Title == title {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockClient) CreatePage(ctx context.Context, spaceKey, title, body string) (*Content, error) {
	return m.CreatePageWithParent(ctx, spaceKey, title, body, "")
}

func (m *MockClient) CreatePageWithParent(ctx context.Context, spaceKey, title, body, parentID string) (*Content, error) {
	m.nextID++
	p := &Content{
		ID:    fmt.Sprintf("%d", m.nextID),
		Type:  contentTypePage,
		Title: title,
	}
	b := storageBody(body)
	p.Body = &b
	if parentID != "" {
		p.Ancestors = []Ancestor{{ID: parentID}}
	}
	m.AddPage(spaceKey, p)
	m.CreateCalls = append(m.CreateCalls, title)
	cp := *p
	return &cp, nil
}

func (m *MockClient) BeginUpdate(ctx context.Context, pageID string) (*PageUpdate, error) {
	current, err := m.GetContent(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current page version: %w", err)
	}
	return &PageUpdate{Current: current, Title: current.Title, Body: current.StorageValue()}, nil
}

func (m *MockClient) CommitUpdate(ctx context.Context, u *PageUpdate) (*Content, error) {
	if u == nil || u.Current == nil {
		return nil, errors.New("update has no current content; call BeginUpdate first")
	}
	id := u.Current.ID
	if m.Conflicts[id] {
		delete(m.Conflicts, id)
		return nil, &VersionConflictError{
			ContentID: id,
			Submitted: u.NextVersion(),
			Err:       &APIError{StatusCode: http.StatusConflict, Method: http.MethodPut, URL: "/content/" + id, Message: "Version must be incremented on update."},
		}
	}
	p, ok := m.Store[id]
	if !ok {
		return nil, m.notFound(id)
	}
	p.Title = u.effectiveTitle()
	b := storageBody(u.Body)
	p.Body = &b
	p.Version = &Version{Number: u.NextVersion()}
	m.UpdateCalls = append(m.UpdateCalls, p.Title)
	cp := *p
	return &cp, nil
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID, body string) (*Content, error) {
	return m.UpdatePageWithTitle(ctx, pageID, body, "")
}

func (m *MockClient) UpdatePageWithTitle(ctx context.Context, pageID, body, title string) (*Content, error) {
	u, err := m.BeginUpdate(ctx, pageID)
	if err != nil {
		return nil, err
	}
	u.Body = body
	if title != "" {
		u.Title = title
	}
	return m.CommitUpdate(ctx, u)
}

var _ ContentClient = (*MockClient)(nil)

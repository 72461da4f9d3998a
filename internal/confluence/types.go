package confluence

import "encoding/json"

const (
	contentTypePage       = "page"
	representationStorage = "storage"
)

// Content is a content item as returned by the REST API. Only the fields the
// client reads are typed; Raw keeps the complete server record.
type Content struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type,omitempty"`
	Status    string          `json:"status,omitempty"`
	Title     string          `json:"title"`
	Space     *Space          `json:"space,omitempty"`
	Version   *Version        `json:"version,omitempty"`
	Body      *Body           `json:"body,omitempty"`
	Ancestors []Ancestor      `json:"ancestors,omitempty"`
	Links     Links           `json:"_links,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

type Space struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

type Version struct {
	Number int `json:"number"`
}

type Body struct {
	Storage Storage `json:"storage"`
}

// Storage is a body value tagged with its representation.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Links is the "_links" object attached to items and collections.
type Links map[string]string

// ContentList is one page of a paginated content listing.
type ContentList struct {
	Size    int       `json:"size"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Results []Content `json:"results"`
	Links   Links     `json:"_links,omitempty"`
}

// UnmarshalJSON decodes the typed fields and retains the raw document.
func (c *Content) UnmarshalJSON(data []byte) error {
	type content Content
	var decoded content
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = Content(decoded)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// VersionNumber returns the item's version, or 0 when the server omitted it.
func (c *Content) VersionNumber() int {
	if c == nil || c.Version == nil {
		return 0
	}
	return c.Version.Number
}

// SpaceKey returns the key of the containing space, if known.
func (c *Content) SpaceKey() string {
	if c == nil || c.Space == nil {
		return ""
	}
	return c.Space.Key
}

// StorageValue returns the storage-format body, if expanded.
func (c *Content) StorageValue() string {
	if c == nil || c.Body == nil {
		return ""
	}
	return c.Body.Storage.Value
}

// ParentID returns the immediate parent id, which is the last ancestor.
func (c *Content) ParentID() string {
	if c == nil || len(c.Ancestors) == 0 {
		return ""
	}
	return c.Ancestors[len(c.Ancestors)-1].ID
}

// hasNext reports whether the server advertised a following page. The second
// result is false when the response carried no _links object at all.
func (l *ContentList) hasNext() (next bool, known bool) {
	if l.Links == nil {
		return false, false
	}
	return l.Links["next"] != "", true
}

func storageBody(value string) Body {
	return Body{Storage: Storage{Value: value, Representation: representationStorage}}
}

type createPageRequest struct {
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Space     Space      `json:"space"`
	Body      Body       `json:"body"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
}

type updatePageRequest struct {
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Version Version `json:"version"`
	Body    Body    `json:"body"`
}

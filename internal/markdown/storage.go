// Package markdown converts Markdown documents into the Confluence storage
// format so pages can be written from plain text files.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Document is a Markdown source with the title it declares.
type Document struct {
	Title  string
	Source string
}

// Parse derives the title from the first level-one heading, falling back to
// the base name of name without its extension. name may be empty.
func Parse(name, src string) *Document {
	return &Document{Title: extractTitle(src, name), Source: src}
}

// ReadFile reads and parses the Markdown file at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}
	return Parse(path, string(data)), nil
}

func extractTitle(src, name string) string {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	if name == "" || name == "-" {
		return ""
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ToStorage renders Markdown as storage-format XHTML. Fenced code blocks
// become code macros; headings, lists, quotes, rules and paragraphs map to
// their XHTML elements.
func ToStorage(src string) string {
	c := &converter{}
	for _, line := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n") {
		c.line(line)
	}
	if c.inFence {
		c.flushFence()
	}
	c.closeList()
	return strings.Join(c.out, "\n")
}

type converter struct {
	out        []string
	list       string // open list element, "ul" or "ol"
	inFence    bool
	fenceLang  string
	fenceLines []string
}

func (c *converter) line(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") {
		if c.inFence {
			c.flushFence()
			return
		}
		c.closeList()
		c.inFence = true
		c.fenceLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		c.fenceLines = nil
		return
	}
	if c.inFence {
		c.fenceLines = append(c.fenceLines, line)
		return
	}

	switch {
	case trimmed == "":
		c.closeList()
	case headingLevel(trimmed) > 0:
		c.closeList()
		n := headingLevel(trimmed)
		c.out = append(c.out, fmt.Sprintf("<h%d>%s</h%d>", n, inline(strings.TrimSpace(trimmed[n+1:])), n))
	case trimmed == "---" || trimmed == "***":
		c.closeList()
		c.out = append(c.out, "<hr/>")
	case strings.HasPrefix(trimmed, "> "):
		c.closeList()
		c.out = append(c.out, "<blockquote><p>"+inline(trimmed[2:])+"</p></blockquote>")
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		c.item("ul", trimmed[2:])
	default:
		if rest, ok := orderedItem(trimmed); ok {
			c.item("ol", rest)
			return
		}
		c.closeList()
		c.out = append(c.out, "<p>"+inline(trimmed)+"</p>")
	}
}

func (c *converter) item(kind, text string) {
	if c.list != kind {
		c.closeList()
		c.out = append(c.out, "<"+kind+">")
		c.list = kind
	}
	c.out = append(c.out, "<li>"+inline(strings.TrimSpace(text))+"</li>")
}

func (c *converter) closeList() {
	if c.list != "" {
		c.out = append(c.out, "</"+c.list+">")
		c.list = ""
	}
}

func (c *converter) flushFence() {
	var sb strings.Builder
	sb.WriteString(`<ac:structured-macro ac:name="code" ac:schema-version="1">`)
	if c.fenceLang != "" {
		sb.WriteString(`<ac:parameter ac:name="language">` + escapeHTML(c.fenceLang) + `</ac:parameter>`)
	}
	sb.WriteString(`<ac:plain-text-body><![CDATA[`)
	// "]]>" cannot appear inside CDATA; split it across two sections.
	sb.WriteString(strings.ReplaceAll(strings.Join(c.fenceLines, "\n"), "]]>", "]]]]><![CDATA[>"))
	sb.WriteString(`]]></ac:plain-text-body></ac:structured-macro>`)
	c.out = append(c.out, sb.String())

	c.inFence = false
	c.fenceLang = ""
	c.fenceLines = nil
}

func headingLevel(line string) int {
	n := 0
	for n < len(line) && n < 6 && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

// orderedItem matches "12. text" and returns the text.
func orderedItem(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(line[i:], ". ") {
		return "", false
	}
	return line[i+2:], true
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

// inline escapes text and converts code spans, emphasis and links.
func inline(text string) string {
	parts := strings.Split(text, "`")
	if len(parts)%2 == 0 {
		// unbalanced backtick, treat it literally
		parts[len(parts)-2] += "`" + parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	var sb strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			sb.WriteString("<code>" + escapeHTML(part) + "</code>")
			continue
		}
		s := escapeHTML(part)
		s = wrapPairs(s, "**", "strong")
		s = wrapPairs(s, "__", "strong")
		s = wrapPairs(s, "*", "em")
		s = linkPattern.ReplaceAllString(s, `<a href="$2">$1</a>`)
		sb.WriteString(s)
	}
	return sb.String()
}

// wrapPairs replaces each complete pair of delim with an element named tag.
// An unmatched trailing delimiter is left as is.
func wrapPairs(s, delim, tag string) string {
	var sb strings.Builder
	for {
		open := strings.Index(s, delim)
		if open < 0 {
			break
		}
		end := strings.Index(s[open+len(delim):], delim)
		if end < 0 {
			break
		}
		end += open + len(delim)
		sb.WriteString(s[:open])
		sb.WriteString("<" + tag + ">" + s[open+len(delim):end] + "</" + tag + ">")
		s = s[end+len(delim):]
	}
	sb.WriteString(s)
	return sb.String()
}

func escapeHTML(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")
	return r.Replace(text)
}

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	htmldoc "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"

	"confclient/internal/confluence"
)

var (
	getPageID     string
	getPageTitle  string
	getPageSpace  string
	getPageFormat string
)

// getPageCmd prints a single content item
var getPageCmd = &cobra.Command{
	Use:   "get-page",
	Short: "Print the contents of a Confluence page",
	Long: `Fetch a single Confluence page by ID, or by title within a space.

Formats:
  storage   the storage-format body as stored by Confluence (default)
  markdown  the body converted to Markdown
  json      the complete content item as returned by the server`,
	Example: `  confclient get-page --id 123456789
  confclient get-page --space DOCS --title "My Page Title" --format markdown
  confclient get-page --id 123456789 --format json`,
	RunE: runGetPage,
}

func runGetPage(cmd *cobra.Command, args []string) error {
	if getPageID == "" && getPageTitle == "" {
		return fmt.Errorf("either --id or --title is required for get-page command")
	}
	if getPageID != "" && getPageTitle != "" {
		return fmt.Errorf("--id and --title cannot be used together")
	}

	switch getPageFormat {
	case "", "storage", "markdown", "json":
	default:
		return fmt.Errorf("unsupported format: %s", getPageFormat)
	}

	cfg, client, log, err := loadClient()
	if err != nil {
		return err
	}

	var page *confluence.Content
	if getPageID != "" {
		page, err = client.GetContent(cmd.Context(), getPageID)
		if err != nil {
			return fmt.Errorf("failed to get page %s: %w", getPageID, err)
		}
	} else {
		spaceKey, err := cfg.ResolveSpace(getPageSpace)
		if err != nil {
			return err
		}
		log.Debug("looking up '%s' in space %s", getPageTitle, spaceKey)
		page, err = client.FindPageByTitle(cmd.Context(), spaceKey, getPageTitle)
		if err != nil {
			return fmt.Errorf("failed to find page by title: %w", err)
		}
		if page == nil {
			return fmt.Errorf("page '%s' not found in space '%s'", getPageTitle, spaceKey)
		}
	}

	out := cmd.OutOrStdout()
	if getPageFormat == "json" {
		content, err := pageJSON(page)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, content)
		return nil
	}

	fmt.Fprintf(out, "# %s (ID: %s, version %d)\n\n", page.Title, page.ID, page.VersionNumber())
	content, err := generatePageOutput(page, getPageFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, content)
	return nil
}

// generatePageOutput returns the page body in the requested format.
// It does not include the header line with title/ID.
func generatePageOutput(page *confluence.Content, format string) (string, error) {
	switch format {
	case "", "storage":
		return page.StorageValue(), nil
	case "markdown":
		html := page.StorageValue()
		md, err := htmldoc.ConvertString(html)
		if err != nil {
			return html, nil // fallback to raw storage markup on conversion errors
		}
		return md, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// pageJSON pretty-prints the server's own record when it is available.
func pageJSON(page *confluence.Content) (string, error) {
	if len(page.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, page.Raw, "", "  "); err == nil {
			return buf.String(), nil
		}
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal page: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(getPageCmd)

	getPageCmd.Flags().StringVarP(&getPageID, "id", "i", "", "Page ID to fetch")
	getPageCmd.Flags().StringVarP(&getPageTitle, "title", "t", "", "Page title to look up (with --space)")
	getPageCmd.Flags().StringVarP(&getPageSpace, "space", "s", "", "Space key or alias for --title lookups")
	getPageCmd.Flags().StringVarP(&getPageFormat, "format", "f", "storage", "Output format: storage|markdown|json")
}

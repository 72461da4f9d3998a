package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"confclient/internal/confluence"
)

var (
	listSpace  string
	listFormat string
)

// listPagesCmd represents the list-pages command
var listPagesCmd = &cobra.Command{
	Use:   "list-pages",
	Short: "List every page in a Confluence space",
	Long: `List every page in a Confluence space, in the order the server returns them.

The space can be a raw space key or an alias from the "spaces" section of the
configuration file. When omitted, confluence.space_key is used.`,
	Example: `  confclient list-pages --space DOCS
  confclient list-pages --space docs --format json
  confclient list-pages -v`,
	RunE: runListPages,
}

func runListPages(cmd *cobra.Command, args []string) error {
	switch listFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format: %s", listFormat)
	}

	cfg, client, log, err := loadClient()
	if err != nil {
		return err
	}

	spaceKey, err := cfg.ResolveSpace(listSpace)
	if err != nil {
		return err
	}

	log.Debug("listing pages in space %s", spaceKey)
	pages, err := client.ListPages(cmd.Context(), spaceKey)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	out := cmd.OutOrStdout()
	if listFormat == "json" {
		records, err := pageRecords(pages)
		if err != nil {
			return err
		}
		return writeJSON(out, records)
	}
	printPageList(out, spaceKey, pages)
	return nil
}

func printPageList(out io.Writer, spaceKey string, pages []confluence.Content) {
	fmt.Fprintf(out, "🏢 Space '%s' (%d pages):\n\n", spaceKey, len(pages))
	for i, page := range pages {
		branch := "├──"
		if i == len(pages)-1 {
			branch = "└──"
		}
		fmt.Fprintf(out, "%s 📄 %s (ID: %s, v%d)\n", branch, page.Title, page.ID, page.VersionNumber())
	}
}

// pageRecords returns the server's own record for each page, falling back to
// the typed fields when none was kept.
func pageRecords(pages []confluence.Content) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0, len(pages))
	for i := range pages {
		if len(pages[i].Raw) > 0 {
			records = append(records, pages[i].Raw)
			continue
		}
		data, err := json.Marshal(&pages[i])
		if err != nil {
			return nil, fmt.Errorf("marshal page %s: %w", pages[i].ID, err)
		}
		records = append(records, data)
	}
	return records, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(listPagesCmd)

	listPagesCmd.Flags().StringVarP(&listSpace, "space", "s", "", "Confluence space key or configured alias")
	listPagesCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format: text|json")
}

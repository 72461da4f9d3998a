package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"confclient/internal/markdown"
)

var (
	createSpace  string
	createTitle  string
	createBody   string
	createFile   string
	createParent string
	createMD     bool
)

var createPageCmd = &cobra.Command{
	Use:   "create-page",
	Short: "Create a new page in a Confluence space",
	Long: `Create a new page from a storage-format body.

The body is taken from --body, or read from --file ("-" reads stdin). The
title must be unique within the space; Confluence rejects duplicates.

With --markdown the body is converted from Markdown to the storage format,
and the title defaults to the first level-one heading or the file name.`,
	Example: `  confclient create-page --space DOCS --title "Runbook" --body "<p>Hello</p>"
  confclient create-page --space DOCS --title "Child" --file child.xml --parent 123456
  cat page.xml | confclient create-page --space DOCS --title "From stdin" --file -
  confclient create-page --space DOCS --file README.md --markdown`,
	RunE: runCreatePage,
}

func runCreatePage(cmd *cobra.Command, args []string) error {
	body, err := readBody(createBody, createFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	title := createTitle
	if createMD {
		doc := markdown.Parse(createFile, body)
		body = markdown.ToStorage(doc.Source)
		if title == "" {
			title = doc.Title
		}
	}
	if title == "" {
		return fmt.Errorf("title flag is required for create-page command")
	}

	cfg, client, log, err := loadClient()
	if err != nil {
		return err
	}
	spaceKey, err := cfg.ResolveSpace(createSpace)
	if err != nil {
		return err
	}

	log.Debug("creating '%s' in space %s", title, spaceKey)
	page, err := client.CreatePageWithParent(cmd.Context(), spaceKey, title, body, createParent)
	if err != nil {
		return fmt.Errorf("failed to create page '%s': %w", title, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created page '%s' (ID: %s, version %d)\n", page.Title, page.ID, page.VersionNumber())
	return nil
}

// readBody returns inline when set, otherwise the contents of file ("-" is stdin).
func readBody(inline, file string, stdin io.Reader) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("--body and --file cannot be used together")
	case inline != "":
		return inline, nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read body file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("a page body is required: pass --body or --file")
	}
}

func init() {
	rootCmd.AddCommand(createPageCmd)

	createPageCmd.Flags().StringVarP(&createSpace, "space", "s", "", "Space key or alias (defaults to confluence.space_key)")
	createPageCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Page title (required)")
	createPageCmd.Flags().StringVarP(&createBody, "body", "b", "", "Storage-format body")
	createPageCmd.Flags().StringVarP(&createFile, "file", "F", "", "Read the body from a file, or - for stdin")
	createPageCmd.Flags().StringVarP(&createParent, "parent", "p", "", "Parent page ID (optional)")
	createPageCmd.Flags().BoolVarP(&createMD, "markdown", "m", false, "Convert the body from Markdown")
}

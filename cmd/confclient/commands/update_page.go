package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"confclient/internal/confluence"
	"confclient/internal/markdown"
)

var (
	updateID    string
	updateTitle string
	updateBody  string
	updateFile  string
	updateMD    bool
)

var updatePageCmd = &cobra.Command{
	Use:   "update-page",
	Short: "Replace the body (and optionally the title) of a page",
	Long: `Update an existing page.

The current page is read first and the new body is submitted with the next
version number. The title is kept unless --title is given. If someone else
updates the page in between, Confluence rejects the stale version and nothing
is written; re-run the command to update the latest version.

With --markdown the body is converted from Markdown to the storage format.`,
	Example: `  confclient update-page --id 123456 --file page.xml
  confclient update-page --id 123456 --body "<p>New</p>" --title "Renamed"
  confclient update-page --id 123456 --file README.md --markdown`,
	RunE: runUpdatePage,
}

func runUpdatePage(cmd *cobra.Command, args []string) error {
	if updateID == "" {
		return fmt.Errorf("id flag is required for update-page command")
	}
	body, err := readBody(updateBody, updateFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if updateMD {
		body = markdown.ToStorage(body)
	}

	_, client, log, err := loadClient()
	if err != nil {
		return err
	}

	u, err := client.BeginUpdate(cmd.Context(), updateID)
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", updateID, err)
	}
	log.Debug("page %s '%s' is at version %d", updateID, u.Current.Title, u.Current.VersionNumber())

	u.Body = body
	if updateTitle != "" {
		u.Title = updateTitle
	}

	page, err := client.CommitUpdate(cmd.Context(), u)
	if err != nil {
		if confluence.IsVersionConflict(err) {
			return fmt.Errorf("page %s changed after it was read (submitted version %d); nothing was written: %w", updateID, u.NextVersion(), err)
		}
		return fmt.Errorf("failed to update page %s: %w", updateID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated page '%s' (ID: %s, version %d)\n", page.Title, page.ID, page.VersionNumber())
	return nil
}

func init() {
	rootCmd.AddCommand(updatePageCmd)

	updatePageCmd.Flags().StringVarP(&updateID, "id", "i", "", "Page ID to update (required)")
	updatePageCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title (keeps the current title when omitted)")
	updatePageCmd.Flags().StringVarP(&updateBody, "body", "b", "", "Storage-format body")
	updatePageCmd.Flags().StringVarP(&updateFile, "file", "F", "", "Read the body from a file, or - for stdin")
	updatePageCmd.Flags().BoolVarP(&updateMD, "markdown", "m", false, "Convert the body from Markdown")
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"confclient/internal/config"
	"confclient/internal/confluence"
	"confclient/pkg/logger"
)

var (
	configFile string
	verbose    bool
	insecure   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confclient",
	Short: "Read and write Confluence pages from the command line",
	Long: `confclient is a small client for the Confluence REST API.
It lists the pages of a space, prints a single page, creates pages and
updates existing pages using the storage representation.`,
	Example: `  confclient list-pages --space DOCS
  confclient get-page --id 123456 --format markdown
  confclient create-page --space DOCS --title "Release notes" --file notes.xml
  confclient update-page --id 123456 --file notes.xml --title "Release notes v2"`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification for this run")
}

// loadClient loads the configuration and builds a client for it.
func loadClient() (*config.Config, confluence.ContentClient, *logger.Logger, error) {
	log := logger.New(verbose)

	cfg, err := config.Load(config.ResolveConfigPath(configFile))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if insecure {
		cfg.Confluence.InsecureSkipVerify = true
	}

	client, err := newConfluenceClient(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return cfg, client, log, nil
}

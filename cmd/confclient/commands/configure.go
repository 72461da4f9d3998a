package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"confclient/internal/config"
)

var (
	configureSets           []string
	configureAddSpaces      []string
	configureRemoveSpaces   []string
	configureYes            bool
	configurePrint          bool
	configureNonInteractive bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Create or edit the configuration file interactively or via flags",
	Long: `Interactively create or edit the confclient configuration file (config.yaml by default).

Features:
- Interactive prompts for the Confluence connection and space aliases
- Apply key=value overrides via --set
- Add space aliases via --add-space (e.g. --add-space "name=docs,key=DOCS")
- Remove space aliases via --remove-space <name>
- Non-interactive scripting with --non-interactive --yes --set ...
- Print resulting YAML with --print instead of writing
`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringArrayVar(&configureSets, "set", nil, "Set a config field using dotted path (e.g. confluence.base_url=http://example)")
	configureCmd.Flags().StringArrayVar(&configureAddSpaces, "add-space", nil, "Add a space alias (e.g. \"name=docs,key=DOCS\")")
	configureCmd.Flags().StringArrayVar(&configureRemoveSpaces, "remove-space", nil, "Remove a space alias by name (repeatable)")
	configureCmd.Flags().BoolVar(&configureYes, "yes", false, "Automatically confirm saving changes")
	configureCmd.Flags().BoolVar(&configurePrint, "print", false, "Print resulting YAML instead of writing to file")
	configureCmd.Flags().BoolVar(&configureNonInteractive, "non-interactive", false, "Disable interactive prompts (use with --set / --add-space)")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath(configFile)
	cfg, existed, err := loadOrInitConfig(path)
	if err != nil {
		return err
	}

	// Apply flag mutations first (non-interactive layer)
	if err := applySetOperations(cfg, configureSets); err != nil {
		return err
	}
	if err := applyAddSpaces(cfg, configureAddSpaces); err != nil {
		return err
	}
	applyRemoveSpaces(cfg, configureRemoveSpaces)

	interactive := !configureNonInteractive && len(args) == 0
	if interactive {
		if err := interactiveEdit(cfg, existed); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	outYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if configurePrint {
		cmd.Print(string(outYAML))
		return nil
	}

	if !configureYes && interactive {
		confirm := false
		prompt := &survey.Confirm{Message: "Save configuration to " + path + "?", Default: true}
		if err := survey.AskOne(prompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			cmd.Println("Aborted (no changes saved).")
			return nil
		}
	}

	if err := writeConfigFile(path, outYAML); err != nil {
		return err
	}
	cmd.Printf("Configuration saved to %s\n", path)
	return nil
}

// loadOrInitConfig reads the file as written so that defaults and
// environment overrides are never saved back into it.
func loadOrInitConfig(path string) (*config.Config, bool, error) {
	if fileExists(path) {
		cfg, err := config.ReadFile(path)
		if err != nil {
			return nil, true, err
		}
		return cfg, true, nil
	}
	return &config.Config{}, false, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func writeConfigFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applySetOperations(cfg *config.Config, sets []string) error {
	for _, s := range sets {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --set value '%s' (expected key=value)", s)
		}
		key := parts[0]
		val := parts[1]
		if err := setField(cfg, key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func setField(cfg *config.Config, key, value string) error {
	switch key {
	case "confluence.base_url":
		cfg.Confluence.BaseURL = value
	case "confluence.username":
		cfg.Confluence.Username = value
	case "confluence.api_token":
		cfg.Confluence.APIToken = value
	case "confluence.space_key":
		cfg.Confluence.SpaceKey = value
	case "confluence.insecure_skip_verify":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		cfg.Confluence.InsecureSkipVerify = b
	case "confluence.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Confluence.Timeout = d
	case "confluence.page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Confluence.PageSize = n
	default:
		return fmt.Errorf("unsupported key '%s'", key)
	}
	return nil
}

func applyAddSpaces(cfg *config.Config, defs []string) error {
	for _, d := range defs {
		alias, err := parseSpaceDefinition(d)
		if err != nil {
			return err
		}
		upsertSpace(cfg, alias)
	}
	return nil
}

func upsertSpace(cfg *config.Config, alias config.SpaceAlias) {
	for i, existing := range cfg.Spaces {
		if existing.Name == alias.Name {
			cfg.Spaces[i] = alias
			return
		}
	}
	cfg.Spaces = append(cfg.Spaces, alias)
}

func applyRemoveSpaces(cfg *config.Config, names []string) {
	if len(names) == 0 {
		return
	}
	remove := map[string]bool{}
	for _, n := range names {
		remove[n] = true
	}
	var filtered []config.SpaceAlias
	for _, s := range cfg.Spaces {
		if !remove[s.Name] {
			filtered = append(filtered, s)
		}
	}
	cfg.Spaces = filtered
}

func parseSpaceDefinition(def string) (config.SpaceAlias, error) {
	alias := config.SpaceAlias{}
	for _, item := range strings.Split(def, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kv := strings.SplitN(item, "=", 2)
		if len(kv) != 2 {
			return alias, fmt.Errorf("invalid space token '%s' (expected key=value)", item)
		}
		switch kv[0] {
		case "name":
			alias.Name = kv[1]
		case "key":
			alias.Key = kv[1]
		default:
			return alias, fmt.Errorf("unknown space field '%s'", kv[0])
		}
	}
	if alias.Name == "" || alias.Key == "" {
		return alias, errors.New("space alias requires name and key")
	}
	return alias, nil
}

// Interactive editing -------------------------------------------------------

func interactiveEdit(cfg *config.Config, existed bool) error {
	fmt.Println("Interactive configuration editor. Press Enter to accept defaults.")
	if existed {
		fmt.Println("Loaded existing configuration. You can modify sections.")
	}

	if err := promptConfluence(cfg); err != nil {
		return err
	}
	return promptSpaces(cfg)
}

func promptConfluence(cfg *config.Config) error {
	qs := []*survey.Question{
		{Name: "base_url", Prompt: &survey.Input{Message: "Confluence Base URL", Default: cfg.Confluence.BaseURL}, Validate: survey.Required},
		{Name: "username", Prompt: &survey.Input{Message: "Confluence Username", Default: cfg.Confluence.Username}, Validate: survey.Required},
		{Name: "api_token", Prompt: &survey.Password{Message: "Confluence API Token (leave blank to keep)"}},
		{Name: "space_key", Prompt: &survey.Input{Message: "Default Space Key (optional)", Default: cfg.Confluence.SpaceKey}},
		{Name: "timeout", Prompt: &survey.Input{Message: "Request Timeout", Default: durationOr(cfg.Confluence.Timeout, config.DefaultTimeout)}},
		{Name: "insecure", Prompt: &survey.Confirm{Message: "Skip TLS certificate verification?", Default: cfg.Confluence.InsecureSkipVerify}},
	}
	answers := struct {
		BaseURL  string `survey:"base_url"`
		Username string `survey:"username"`
		APIToken string `survey:"api_token"`
		SpaceKey string `survey:"space_key"`
		Timeout  string `survey:"timeout"`
		Insecure bool   `survey:"insecure"`
	}{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	cfg.Confluence.BaseURL = answers.BaseURL
	cfg.Confluence.Username = answers.Username
	if answers.APIToken != "" { // keep existing if blank
		cfg.Confluence.APIToken = answers.APIToken
	}
	cfg.Confluence.SpaceKey = answers.SpaceKey
	if d, err := time.ParseDuration(answers.Timeout); err == nil {
		cfg.Confluence.Timeout = d
	}
	cfg.Confluence.InsecureSkipVerify = answers.Insecure
	return nil
}

func promptSpaces(cfg *config.Config) error {
	for {
		var want bool
		msg := fmt.Sprintf("Add or edit a space alias? (current: %d)", len(cfg.Spaces))
		if err := survey.AskOne(&survey.Confirm{Message: msg, Default: false}, &want); err != nil {
			return err
		}
		if !want {
			return nil
		}

		var name, key string
		if err := survey.AskOne(&survey.Input{Message: "Alias Name"}, &name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		if err := survey.AskOne(&survey.Input{Message: "Space Key"}, &key, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		upsertSpace(cfg, config.SpaceAlias{Name: name, Key: key})
	}
}

func durationOr(v, fallback time.Duration) string {
	if v == 0 {
		return fallback.String()
	}
	return v.String()
}

package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"confclient/internal/config"
	"confclient/internal/confluence"
	"confclient/pkg/logger"
)

// minimal config yaml for commands requiring config
const testConfigYAML = `confluence:
  base_url: http://example
  username: u
  api_token: t
  space_key: DOCS
spaces:
  - name: eng
    key: ENG
`

// runCmdForTest runs the rootCmd singleton with args and captures its output.
func runCmdForTest(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runCmdWithInput(t, args, nil)
}

func runCmdWithInput(t *testing.T, args []string, stdin io.Reader) (stdout string, stderr string, err error) {
	t.Helper()
	resetFlags()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// resetFlags restores flag variables, which persist on the package-level commands.
func resetFlags() {
	configFile, verbose, insecure = "config.yaml", false, false
	listSpace, listFormat = "", "text"
	getPageID, getPageTitle, getPageSpace, getPageFormat = "", "", "", "storage"
	createSpace, createTitle, createBody, createFile, createParent, createMD = "", "", "", "", "", false
	updateID, updateTitle, updateBody, updateFile, updateMD = "", "", "", "", false
	configureSets, configureAddSpaces, configureRemoveSpaces = nil, nil, nil
	configureYes, configurePrint, configureNonInteractive = false, false, false
	shortVersion = false
}

func writeConfig(t *testing.T, dir string, data string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(data), 0600); err != nil {
		t.Fatalf("failed writing config: %v", err)
	}
	return p
}

func writeTempConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, t.TempDir(), testConfigYAML)
}

// withMockClient temporarily overrides the client factory. The config each
// command loaded is recorded in loaded.
func withMockClient(t *testing.T, mc *confluence.MockClient) (loaded **config.Config) {
	t.Helper()
	var cfg *config.Config
	orig := newConfluenceClient
	newConfluenceClient = func(c *config.Config, log *logger.Logger) (confluence.ContentClient, error) {
		cfg = c
		return mc, nil
	}
	t.Cleanup(func() { newConfluenceClient = orig })
	return &cfg
}

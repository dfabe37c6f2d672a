package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/adapters/driving/watch"
	"github.com/custodia-labs/importer/internal/config"
)

// testConfig replaces cats with dogs and keeps documents mentioning dogs.
const testConfig = `
workers = 2

[[post_parse]]
kind = "tagger"
type = "constant"
name = "source"
[post_parse.params]
constants = [{ name = "source", values = ["cli"] }]

[[post_parse]]
kind = "transformer"
type = "replace"
name = "dogs"
[post_parse.params]
replacements = [{ value_matcher = { pattern = "cat" }, to_value = "dog" }]

[[post_parse]]
kind = "filter"
type = "text"
name = "want-dogs"
[post_parse.params]
value_matcher = { pattern = "dog" }
`

// setupTestServices builds services from testConfig with an in-memory
// result store and restores the previous state on cleanup.
func setupTestServices(t *testing.T) {
	t.Helper()

	cfg, err := config.Parse([]byte(testConfig), config.FormatTOML)
	require.NoError(t, err)

	prevConfig, prevImport, prevResults := appConfig, importService, resultService
	appConfig, importService, resultService = cfg, nil, nil
	require.NoError(t, setupServices())

	t.Cleanup(func() {
		closeServices()
		appConfig, importService, resultService = prevConfig, prevImport, prevResults
	})
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores flag variables shared between command runs.
func resetFlags() {
	configPath = ""
	verbose = false
	importContentType, importOutputDir, importReference, importJSON = "", "", "stdin", false
	resultsAccepted, resultsRejected, resultsPrefix, resultsLimit, resultsJSON = false, false, "", 20, false
	configDumpFormat = string(config.FormatTOML)
	watchContentType, watchDebounce = "", watch.DefaultDebounce
	clearChanged(rootCmd)
}

func clearChanged(cmd *cobra.Command) {
	unset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(unset)
	cmd.PersistentFlags().VisitAll(unset)
	for _, sub := range cmd.Commands() {
		clearChanged(sub)
	}
}

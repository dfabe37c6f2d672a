package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/importer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/importer/internal/config"
	"github.com/custodia-labs/importer/internal/handlers/registry"
)

var configDumpFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and build every handler",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults and IMPORTER_* environment
overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigDump,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a value in the config file",
	Long: `Sets a dotted key in the TOML config file, for example:

  importer config set workers 8
  importer config set spool.codec zstd`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configHandlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List available handler types",
	Args:  cobra.NoArgs,
	RunE:  runConfigHandlers,
}

func init() {
	configDumpCmd.Flags().StringVarP(&configDumpFormat, "format", "f", string(config.FormatTOML), "output format (toml or yaml)")

	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configHandlersCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	handlers, err := registry.NewDefault()
	if err != nil {
		return err
	}
	if _, err := handlers.BuildAll(cfg.PreParse, cfg.MaxReadSize); err != nil {
		return fmt.Errorf("pre_parse: %w", err)
	}
	if _, err := handlers.BuildAll(cfg.PostParse, cfg.MaxReadSize); err != nil {
		return fmt.Errorf("post_parse: %w", err)
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println(st.Accepted.Render("Configuration OK"))
	printStage(cmd, st, "Pre-parse", cfg.PreParse)
	printStage(cmd, st, "Post-parse", cfg.PostParse)
	return nil
}

func printStage(cmd *cobra.Command, st outputStyles, title string, stage []config.HandlerConfig) {
	cmd.Printf("%s: %d handlers\n", st.Title.Render(title), len(stage))
	for i, h := range stage {
		cmd.Printf("  %d. %s %s\n", i+1, h.DisplayName(), st.Muted.Render(h.Kind+"/"+h.Type))
	}
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format := config.Format(configDumpFormat)
	if format == "yml" {
		format = config.FormatYAML
	}
	if format != config.FormatTOML && format != config.FormatYAML {
		return fmt.Errorf("unknown format %q (expected toml or yaml)", configDumpFormat)
	}

	data, err := config.Marshal(cfg, format)
	if err != nil {
		return err
	}
	cmd.Print(string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path := configPath
	if path != "" {
		format, err := config.FormatOf(path)
		if err != nil {
			return err
		}
		if format != config.FormatTOML {
			return fmt.Errorf("config set only edits TOML files: %s", path)
		}
	}

	store, err := file.NewConfigStore(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if err := store.Set(args[0], parseValue(args[1])); err != nil {
		return fmt.Errorf("setting %s: %w", args[0], err)
	}

	// Report edits that leave an invalid file behind.
	if _, err := config.Load(store.Path()); err != nil {
		return fmt.Errorf("%s was written but no longer loads: %w", store.Path(), err)
	}

	cmd.Printf("Set %s in %s\n", args[0], store.Path())
	return nil
}

// parseValue converts a command-line value to an integer, float or bool
// when it parses as one.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func runConfigHandlers(cmd *cobra.Command, _ []string) error {
	handlers, err := registry.NewDefault()
	if err != nil {
		return err
	}
	for _, name := range handlers.Names() {
		cmd.Println(name)
	}
	return nil
}

package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/importer/internal/adapters/driving/watch"
	"github.com/custodia-labs/importer/internal/core/domain"
)

var (
	watchContentType string
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Import files as they change",
	Long: `Watches a directory tree and imports each file that is created or
written. Hidden files are ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchContentType, "content-type", "t", "", "declared MIME type (detected when empty)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := setupServices(); err != nil {
		return err
	}
	if importService == nil {
		return errors.New("import service not configured")
	}

	st := stylesFor(cmd.OutOrStdout())
	w := watch.New(args[0], importService,
		watch.WithContentType(watchContentType),
		watch.WithDebounce(watchDebounce),
		watch.WithResults(func(path string, result *domain.ImportResult, err error) {
			if err != nil {
				cmd.PrintErrf("%s  %s: %v\n", st.Error.Render("failed"), path, err)
				return
			}
			cmd.Println(resultLine(st, result))
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(cmd.Context())
}

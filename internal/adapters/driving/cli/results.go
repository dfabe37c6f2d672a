package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/importer/internal/core/domain"
)

var (
	resultsAccepted bool
	resultsRejected bool
	resultsPrefix   string
	resultsLimit    int
	resultsJSON     bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect recorded import results",
	Long: `Lists and shows recorded import results. Results survive between runs
only with the sqlite storage driver.`,
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import results, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResultsList,
}

var resultsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one import result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsGet,
}

func init() {
	resultsListCmd.Flags().BoolVar(&resultsAccepted, "accepted", false, "only accepted documents")
	resultsListCmd.Flags().BoolVar(&resultsRejected, "rejected", false, "only rejected documents")
	resultsListCmd.Flags().StringVar(&resultsPrefix, "prefix", "", "only references starting with this prefix")
	resultsListCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 20, "maximum number of results (0 for all)")
	resultsListCmd.MarkFlagsMutuallyExclusive("accepted", "rejected")
	resultsCmd.PersistentFlags().BoolVar(&resultsJSON, "json", false, "output as JSON")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsGetCmd)
	rootCmd.AddCommand(resultsCmd)
}

func runResultsList(cmd *cobra.Command, _ []string) error {
	if err := setupServices(); err != nil {
		return err
	}
	if resultService == nil {
		return errors.New("result service not configured")
	}

	query := domain.ResultQuery{ReferencePrefix: resultsPrefix, Limit: resultsLimit}
	if resultsAccepted || resultsRejected {
		accepted := resultsAccepted
		query.Accepted = &accepted
	}

	results, err := resultService.List(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if resultsJSON {
		out := make([]resultJSON, len(results))
		for i := range results {
			out[i] = toJSON(&results[i])
		}
		return printJSON(cmd, out)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	st := stylesFor(cmd.OutOrStdout())
	for i := range results {
		cmd.Println(resultLine(st, &results[i]))
	}
	return nil
}

func runResultsGet(cmd *cobra.Command, args []string) error {
	if err := setupServices(); err != nil {
		return err
	}
	if resultService == nil {
		return errors.New("result service not configured")
	}

	result, err := resultService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("result not found: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}

	if resultsJSON {
		return printJSON(cmd, toJSON(result))
	}
	printResult(cmd, stylesFor(cmd.OutOrStdout()), result)
	return nil
}

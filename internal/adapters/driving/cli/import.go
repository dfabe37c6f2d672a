package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/importer/internal/adapters/driving/watch"
	"github.com/custodia-labs/importer/internal/core/domain"
)

var (
	importContentType string
	importOutputDir   string
	importReference   string
	importJSON        bool
)

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import files through the handler stages",
	Long: `Imports files and directories through the configured handler stages.

Directories are walked recursively; hidden files are skipped. Use "-" to
read a single document from stdin, named by --reference.

With --output, the final content of each accepted document is written to
that directory under the document's base name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importContentType, "content-type", "t", "", "declared MIME type (detected when empty)")
	importCmd.Flags().StringVarP(&importOutputDir, "output", "o", "", "directory for the content of accepted documents")
	importCmd.Flags().StringVar(&importReference, "reference", "stdin", "reference of a document read from stdin")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := setupServices(); err != nil {
		return err
	}
	if importService == nil {
		return errors.New("import service not configured")
	}

	reqs, err := importRequests(cmd, args)
	if err != nil {
		return err
	}

	var results []*domain.ImportResult
	var importErr error
	if importOutputDir != "" {
		results, importErr = importToDir(cmd, reqs)
	} else {
		results, importErr = importService.ImportAll(cmd.Context(), reqs)
	}

	if importJSON {
		out := make([]resultJSON, 0, len(results))
		for _, r := range results {
			if r != nil {
				out = append(out, toJSON(r))
			}
		}
		if err := printJSON(cmd, out); err != nil {
			return err
		}
		return importErr
	}

	st := stylesFor(cmd.OutOrStdout())
	var accepted, rejected int
	for _, r := range results {
		switch {
		case r == nil:
		case r.Accepted:
			accepted++
			cmd.Println(resultLine(st, r))
		default:
			rejected++
			cmd.Println(resultLine(st, r))
		}
	}
	failed := len(reqs) - accepted - rejected
	cmd.Println()
	cmd.Printf("Imported %d documents: %d accepted, %d rejected, %d failed\n",
		len(reqs), accepted, rejected, failed)

	if importErr != nil {
		cmd.PrintErrln(st.Error.Render("Errors:"))
		cmd.PrintErrln(importErr)
		return fmt.Errorf("%d of %d documents failed", failed, len(reqs))
	}
	return nil
}

func importRequests(cmd *cobra.Command, args []string) ([]domain.ImportRequest, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []domain.ImportRequest{{
			Reference:   importReference,
			ContentType: importContentType,
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(string(data))), nil
			},
		}}, nil
	}

	files, err := watch.Files(args)
	if err != nil {
		return nil, err
	}
	reqs := make([]domain.ImportRequest, len(files))
	for i, f := range files {
		reqs[i] = watch.FileRequest(f, importContentType)
	}
	return reqs, nil
}

// importToDir imports sequentially, writing accepted content to
// importOutputDir. A failed document does not stop the rest.
func importToDir(cmd *cobra.Command, reqs []domain.ImportRequest) ([]*domain.ImportResult, error) {
	if err := os.MkdirAll(importOutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	results := make([]*domain.ImportResult, len(reqs))
	var errs []error
	for i, req := range reqs {
		if err := cmd.Context().Err(); err != nil {
			return results, errors.Join(append(errs, err)...)
		}
		result, err := importOne(cmd, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", req.Reference, err))
			continue
		}
		results[i] = result
	}
	return results, errors.Join(errs...)
}

func importOne(cmd *cobra.Command, req domain.ImportRequest) (*domain.ImportResult, error) {
	path := filepath.Join(importOutputDir, filepath.Base(req.Reference))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	result, err := importService.ImportTo(cmd.Context(), req, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil || !result.Accepted {
		os.Remove(path) //nolint:errcheck
	}
	return result, err
}

package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// resultJSON is the JSON form of an import result.
type resultJSON struct {
	ID          string              `json:"id"`
	Reference   string              `json:"reference"`
	Accepted    bool                `json:"accepted"`
	RejectedBy  string              `json:"rejected_by,omitempty"`
	RejectedAt  string              `json:"rejected_at,omitempty"`
	Metadata    map[string][]string `json:"metadata,omitempty"`
	ContentSize int64               `json:"content_size"`
	ImportedAt  time.Time           `json:"imported_at"`
	Duration    string              `json:"duration"`
}

func toJSON(r *domain.ImportResult) resultJSON {
	out := resultJSON{
		ID:          r.ID,
		Reference:   r.Reference,
		Accepted:    r.Accepted,
		RejectedBy:  r.RejectedBy,
		Metadata:    r.Metadata,
		ContentSize: r.ContentSize,
		ImportedAt:  r.ImportedAt,
		Duration:    r.Duration.String(),
	}
	if !r.Accepted {
		out.RejectedAt = r.RejectedAt.String()
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// resultLine formats a result as one line of a listing.
func resultLine(st outputStyles, r *domain.ImportResult) string {
	if r.Accepted {
		return fmt.Sprintf("%s  %s %s", st.Accepted.Render("accepted"), r.Reference, st.Muted.Render("("+r.ID+")"))
	}
	return fmt.Sprintf("%s  %s %s", st.Rejected.Render("rejected"), r.Reference,
		st.Muted.Render(fmt.Sprintf("(by %s at %s-parse)", r.RejectedBy, r.RejectedAt)))
}

// printResult writes a detailed view of one result.
func printResult(cmd *cobra.Command, st outputStyles, r *domain.ImportResult) {
	cmd.Println(st.Title.Render(r.Reference))
	cmd.Printf("  ID:        %s\n", r.ID)
	if r.Accepted {
		cmd.Printf("  Status:    %s\n", st.Accepted.Render("accepted"))
	} else {
		cmd.Printf("  Status:    %s by %s at %s-parse\n", st.Rejected.Render("rejected"), r.RejectedBy, r.RejectedAt)
	}
	cmd.Printf("  Size:      %d bytes\n", r.ContentSize)
	cmd.Printf("  Imported:  %s (%s)\n", r.ImportedAt.Format(time.RFC3339), r.Duration)

	if len(r.Metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd.Println("  Metadata:")
	for _, k := range keys {
		cmd.Printf("    %s = %s\n", k, strings.Join(r.Metadata[k], ", "))
	}
}

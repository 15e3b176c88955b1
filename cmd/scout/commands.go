package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/scout/internal/config"
	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/catalog"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search through the recommendation pipeline",
	Long: `Run one search through the recommendation pipeline and print the JSON response.

Examples:
  scout search --query "quiet beach" --max-price 100
  scout search --query "mountains" --tags hiking,view`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := searchBody(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		out, err := a.search.Search(cmd.Context(), body)
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				_ = printJSON(cmd.OutOrStdout(), cliResponse{Results: []recommendation.Recommendation{}, Error: vErr.Message})
				return fmt.Errorf("invalid request: %s", vErr.Message)
			}
			_ = printJSON(cmd.OutOrStdout(), cliResponse{Results: []recommendation.Recommendation{}, Error: "Internal server error"})
			return fmt.Errorf("search failed: %w", err)
		}

		return printJSON(cmd.OutOrStdout(), cliResponse{Results: out.Results})
	},
}

func init() {
	addSearchFlags(searchCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "free-text query")
	cmd.Flags().Float64("min-price", 0, "minimum price")
	cmd.Flags().Float64("max-price", 0, "maximum price (unbounded when omitted)")
	cmd.Flags().String("tags", "", "comma-separated tags")
}

// cliResponse mirrors the HTTP envelope.
type cliResponse struct {
	Results []recommendation.Recommendation `json:"results"`
	Error   string                          `json:"error,omitempty"`
}

// searchBody renders the flags as the JSON body the HTTP endpoint accepts.
// Unset price flags are omitted so the request defaults apply.
func searchBody(cmd *cobra.Command) ([]byte, error) {
	query, _ := cmd.Flags().GetString("query")
	tagsStr, _ := cmd.Flags().GetString("tags")

	req := map[string]any{
		"query":        query,
		"selectedTags": splitTags(tagsStr),
	}
	if cmd.Flags().Changed("min-price") {
		req["minPrice"], _ = cmd.Flags().GetFloat64("min-price")
	}
	if cmd.Flags().Changed("max-price") {
		req["maxPrice"], _ = cmd.Flags().GetFloat64("max-price")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return body, nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// --- tags ---

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags a search may select",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("catalog")
		if path == "" {
			cfg, err := config.Load(config.GetEnv())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path = cfg.Catalog.Path
		}

		idx, err := catalog.Load(path)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		for _, tag := range idx.Vocabulary().Tags() {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	},
}

func init() {
	tagsCmd.Flags().String("catalog", "", "catalog file (defaults to catalog.path from config)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// NewStatsCmd creates the stats subcommand.  Stats describe a running
// server, so this command queries the API rather than wiring a fresh
// engine whose counters would all be zero.
func NewStatsCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show routing, validation and cache statistics of a running server",
		Example: `  chemreact stats
  chemreact stats --server http://prod-engine:8080 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			stats, err := fetchStats(cmd, cliCtx.ServerAddr, timeout)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, stats)
			}
			return PrintResult(cmd, formatStats(stats))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func fetchStats(cmd *cobra.Command, serverAddr string, timeout time.Duration) (*prediction.ServiceStats, error) {
	url := serverAddr + "/api/v1/stats"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService,
			fmt.Sprintf("cannot reach server at %s", serverAddr))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.ErrCodeExternalService,
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, string(body)))
	}

	var stats prediction.ServiceStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "malformed stats response")
	}
	return &stats, nil
}

func formatStats(stats *prediction.ServiceStats) string {
	r := stats.Router
	out := fmt.Sprintf(
		"Predictions: %d\n"+
			"  L1 exact match:  %d (%.1f%%)\n"+
			"  L2 pattern:      %d (%.1f%%)\n"+
			"  L3 reasoning:    %d (%.1f%%)\n"+
			"  L4 rules:        %d (%.1f%%)",
		r.TotalPredictions,
		r.Level1Hits, r.Level1Percentage,
		r.Level2Hits, r.Level2Percentage,
		r.Level3Hits, r.Level3Percentage,
		r.Level4Hits, r.Level4Percentage)

	v := stats.Validation
	if v.TotalValidations > 0 {
		out += fmt.Sprintf("\nValidations: %d (pass rate %.2f)", v.TotalValidations, v.PassRate)
	}
	if c := stats.Cache; c != nil {
		out += fmt.Sprintf("\nCache entries: %d", c.TotalEntries)
	}
	return out
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/austindbirch/supportflow/internal/config"
	"github.com/austindbirch/supportflow/internal/delivery"
)

// pingResult is what ping reports, in both output modes
type pingResult struct {
	Endpoint   string `json:"endpoint"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason"`
	LatencyMS  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the intake endpoint is reachable",
	Long: `Send a single HEAD request to the intake endpoint and report whether it answered.
No ticket is sent. Any HTTP response counts as reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Config{Dispatch: config.Dispatch{Endpoint: stringFlag(cmd, "endpoint")}}
		if err := cfg.ValidateDispatch(); err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		res := pingEndpoint(cmd.Context(), &http.Client{Timeout: timeout}, cfg.Dispatch.Endpoint)
		if outputJSON {
			printOutput(res)
		} else if res.Reachable {
			fmt.Fprintf(cmd.OutOrStdout(), "Pong! %s answered %d in %dms\n", res.Endpoint, res.StatusCode, res.LatencyMS)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "❌ %s unreachable (%s): %s\n", res.Endpoint, res.Reason, res.Error)
		}
		if !res.Reachable {
			return fmt.Errorf("endpoint unreachable: %s", res.Reason)
		}
		return nil
	},
}

func pingEndpoint(ctx context.Context, hc *http.Client, endpoint string) pingResult {
	if ctx == nil {
		ctx = context.Background()
	}
	res := pingResult{Endpoint: endpoint}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		res.Reason = delivery.ClassifyReason(err, 0)
		res.Error = err.Error()
		return res
	}
	req.Header.Set("User-Agent", "supportflow-ticketsim/"+Version)

	start := time.Now()
	resp, err := hc.Do(req)
	res.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		res.Reason = delivery.ClassifyReason(err, 0)
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()

	res.Reachable = true
	res.StatusCode = resp.StatusCode
	res.Reason = delivery.ClassifyReason(nil, resp.StatusCode)
	return res
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().StringP("endpoint", "e", env.Dispatch.Endpoint, "ticket intake URL")
	pingCmd.Flags().Duration("timeout", delivery.DefaultTimeout, "request timeout")
}

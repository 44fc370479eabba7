package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/austindbirch/supportflow/internal/dataset"
	"github.com/austindbirch/supportflow/internal/ticket"
)

var previewCmd = &cobra.Command{
	Use:   "preview [csv-file]",
	Short: "Show dataset statistics and the payloads that would be sent",
	Long: `Validate a dataset, print its statistics (total tickets, unique channels,
unique customers) and a preview of the first rows as they would be sent.
Nothing is sent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		full, _ := cmd.Flags().GetBool("payloads")

		src, err := loadSource(context.Background(), cmd, args)
		if err != nil {
			return err
		}
		defer src.Close()

		out := cmd.OutOrStdout()
		if err := dataset.Validate(src.ds); err != nil {
			reportSchemaError(out, err)
			return err
		}

		stats := src.ds.Stats()
		records := src.ds.Records()
		if rows >= 0 && rows < len(records) {
			records = records[:rows]
		}
		payloads := make([]ticket.Payload, len(records))
		for i, r := range records {
			payloads[i] = ticket.Build(r)
		}

		if outputJSON {
			printOutput(map[string]any{
				"source":   src.name,
				"stats":    stats,
				"payloads": payloads,
			})
			return nil
		}

		fmt.Fprintf(out, "👀 Preview of %s\n", src.name)
		fmt.Fprintf(out, "  Total tickets:    %d\n", stats.Total)
		fmt.Fprintf(out, "  Unique channels:  %d\n", stats.UniqueChannels)
		fmt.Fprintf(out, "  Unique customers: %d\n\n", stats.UniqueCustomers)

		if full {
			for _, p := range payloads {
				body, err := p.Indent()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "📋 Ticket %s payload\n%s\n", p.ExternalID, body)
			}
			return nil
		}
		printPayloadTable(out, payloads)
		return nil
	},
}

func printPayloadTable(w io.Writer, payloads []ticket.Payload) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCHANNEL\tCUSTOMER\tSENTIMENT\tSUBJECT")
	for _, p := range payloads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ExternalID, p.SourceChannel, p.Customer.Name, p.AIAnalysis.Sentiment, oneLine(p.Content.Subject, 48))
	}
	_ = tw.Flush()
}

func oneLine(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Int("rows", 10, "number of rows to preview (-1 for all)")
	previewCmd.Flags().Bool("payloads", false, "print full JSON payloads instead of a table")
	sourceFlags(previewCmd)
}

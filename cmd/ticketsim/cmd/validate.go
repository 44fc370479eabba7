package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/austindbirch/supportflow/internal/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate [csv-file]",
	Short: "Check that a dataset has the required ticket columns",
	Long: `Check that a dataset exposes every required column:
  id, channel, customer_name, subject, fullMessage, sentiment_name

Only the header is inspected. Exits non-zero when columns are missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := loadSource(context.Background(), cmd, args)
		if err != nil {
			return err
		}
		defer src.Close()

		verr := dataset.Validate(src.ds)
		if outputJSON {
			result := map[string]any{
				"source":  src.name,
				"valid":   verr == nil,
				"rows":    src.ds.Len(),
				"columns": src.ds.Columns,
			}
			if se, ok := verr.(*dataset.SchemaError); ok {
				result["missing"] = se.Missing
			}
			printOutput(result)
			return verr
		}

		if verr != nil {
			reportSchemaError(cmd.OutOrStdout(), verr)
			return verr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Valid dataset loaded from %s with %d tickets\n", src.name, src.ds.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	sourceFlags(validateCmd)
}

func joinComma(s []string) string {
	return strings.Join(s, ", ")
}

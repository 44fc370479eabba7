package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/austindbirch/supportflow/internal/config"
	"github.com/austindbirch/supportflow/internal/dataset"
	"github.com/austindbirch/supportflow/internal/db"
)

var errNoSource = errors.New("no dataset: pass a CSV file (or - for stdin) or set --dsn")

// sourceFlags registers the dataset source flags on cmd
func sourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("dsn", env.Source.DSN, "PostgreSQL DSN to load tickets from instead of a CSV file")
	cmd.Flags().String("query", env.Source.Query, "SQL query returning the ticket columns (default selects supportflow.tickets)")
}

// loadedSource is a dataset plus the pool it came from, if any
type loadedSource struct {
	ds   *dataset.Dataset
	pool *pgxpool.Pool
	name string
}

func (s *loadedSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// loadSource reads the dataset named by args[0] (CSV path, "-" for stdin) or, when no
// path is given, the result of the configured PostgreSQL query.
func loadSource(ctx context.Context, cmd *cobra.Command, args []string) (*loadedSource, error) {
	if len(args) > 0 {
		path := args[0]
		var (
			ds  *dataset.Dataset
			err error
		)
		if path == "-" {
			ds, err = dataset.ReadCSV(os.Stdin)
			path = "stdin"
		} else {
			ds, err = dataset.LoadCSVFile(path)
		}
		if err != nil {
			return nil, err
		}
		return &loadedSource{ds: ds, name: path}, nil
	}

	dsn := stringFlag(cmd, "dsn")
	if dsn == "" {
		return nil, errNoSource
	}
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to ticket database: %w", err)
	}
	src := config.Source{DSN: dsn, Query: stringFlag(cmd, "query")}
	ds, err := dataset.LoadQuery(ctx, pool, src.QueryOr(dataset.DefaultQuery))
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &loadedSource{ds: ds, pool: pool, name: "postgres"}, nil
}

// stringFlag returns the flag value, falling back to the config file when the flag
// was left at its default
func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	if !cmd.Flags().Changed(name) && viper.InConfig(name) {
		return viper.GetString(name)
	}
	return v
}

func floatFlag(cmd *cobra.Command, name string) float64 {
	v, _ := cmd.Flags().GetFloat64(name)
	if !cmd.Flags().Changed(name) && viper.InConfig(name) {
		return viper.GetFloat64(name)
	}
	return v
}

func boolFlag(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	if !cmd.Flags().Changed(name) && viper.InConfig(name) {
		return viper.GetBool(name)
	}
	return v
}

func int64Flag(cmd *cobra.Command, name string) int64 {
	v, _ := cmd.Flags().GetInt64(name)
	if !cmd.Flags().Changed(name) && viper.InConfig(name) {
		return viper.GetInt64(name)
	}
	return v
}

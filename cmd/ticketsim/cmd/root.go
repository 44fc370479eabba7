package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/austindbirch/supportflow/internal/config"
	"github.com/austindbirch/supportflow/internal/logging"
)

var (
	cfgFile      string
	outputJSON   bool
	logLevel     string
	otlpEndpoint string

	// env holds the environment-derived defaults every flag starts from
	env = config.FromEnv()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ticketsim",
	Short: "SupportFlow ticket simulator - replay support tickets against an intake API",
	Long: `SupportFlow ticket simulator (ticketsim) reads a batch of support tickets from a
CSV file or a PostgreSQL query and posts them one at a time to a ticket intake
endpoint, pausing a random interval between sends so a person can watch them arrive.

Required dataset columns: id, channel, customer_name, subject, fullMessage, sentiment_name`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetDefaultService("ticketsim")
		logging.Default().SetLevel(logging.ParseLevel(logLevel))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ticketsim.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.Observability.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", env.Observability.OTLPEndpoint, "OTLP/HTTP collector host:port for traces (empty disables)")

	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("otlp-endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ticketsim")
	}

	viper.SetEnvPrefix("TICKETSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Config file values apply to flags that were not set explicitly
	flags := rootCmd.PersistentFlags()
	if !flags.Changed("json") && viper.InConfig("json") {
		outputJSON = viper.GetBool("json")
	}
	if !flags.Changed("log-level") && viper.InConfig("log-level") {
		logLevel = viper.GetString("log-level")
	}
	if !flags.Changed("otlp-endpoint") && viper.InConfig("otlp-endpoint") {
		otlpEndpoint = viper.GetString("otlp-endpoint")
	}
}

// printOutput prints v as indented JSON, or with %+v when JSON output is off
func printOutput(v any) {
	if !outputJSON {
		fmt.Printf("%+v\n", v)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling to JSON: %v\n", err)
	}
}

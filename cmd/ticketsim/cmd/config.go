package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/austindbirch/supportflow/internal/config"
)

// configKeys are the keys accepted in the config file, mirroring the send flags
var configKeys = map[string]string{
	"endpoint":       "string",
	"delay-min":      "float",
	"delay-max":      "float",
	"seed":           "int",
	"strict-status":  "bool",
	"show-payloads":  "bool",
	"metrics-addr":   "string",
	"publish-events": "bool",
	"nsqd":           "string",
	"events-topic":   "string",
	"failures-topic": "string",
	"dsn":            "string",
	"query":          "string",
	"json":           "bool",
	"log-level":      "string",
	"otlp-endpoint":  "string",
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ticketsim configuration",
	Long:  `Manage ticketsim configuration settings.`,
}

// configViewCmd represents the config view command
var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View current configuration",
	Long:  `Display the settings a send would use, after environment and config file are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := sendConfig(sendCmd)
		if outputJSON {
			printOutput(map[string]any{
				"endpoint":       cfg.Dispatch.Endpoint,
				"delay-min":      cfg.Dispatch.DelayMin,
				"delay-max":      cfg.Dispatch.DelayMax,
				"seed":           cfg.Dispatch.Seed,
				"strict-status":  cfg.Dispatch.StrictStatus,
				"metrics-addr":   cfg.Observability.MetricsAddr,
				"publish-events": cfg.NSQ.PublishEvents,
				"nsqd":           cfg.NSQ.NsqdTCPAddr,
				"config-file":    viper.ConfigFileUsed(),
			})
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Endpoint:       %s\n", blankAs(cfg.Dispatch.Endpoint, "(not set)"))
		fmt.Fprintf(out, "  Delay:          %gs - %gs\n", cfg.Dispatch.DelayMin, cfg.Dispatch.DelayMax)
		fmt.Fprintf(out, "  Seed:           %d\n", cfg.Dispatch.Seed)
		fmt.Fprintf(out, "  Strict status:  %v\n", cfg.Dispatch.StrictStatus)
		fmt.Fprintf(out, "  Metrics addr:   %s\n", blankAs(cfg.Observability.MetricsAddr, "(disabled)"))
		fmt.Fprintf(out, "  Publish events: %v (%s)\n", cfg.NSQ.PublishEvents, cfg.NSQ.NsqdTCPAddr)
		if viper.ConfigFileUsed() != "" {
			fmt.Fprintf(out, "  Config file:    %s\n", viper.ConfigFileUsed())
		} else {
			fmt.Fprintln(out, "  Config file:    none (using defaults)")
		}
		if err := cfg.ValidateDispatch(); err != nil {
			fmt.Fprintf(out, "  ⚠️  %v\n", err)
		}
		return nil
	},
}

// configSetCmd represents the config set command
var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it to the config file.

Examples:
  ticketsim config set endpoint http://localhost:8081/tickets
  ticketsim config set delay-min 0.2
  ticketsim config set strict-status true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		kind, ok := configKeys[key]
		if !ok {
			return fmt.Errorf("invalid configuration key: %s", key)
		}
		v, err := parseConfigValue(kind, value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		viper.Set(key, v)

		path, err := configPath()
		if err != nil {
			return err
		}
		if err := viper.WriteConfigAs(path); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\nConfiguration saved to: %s\n", key, value, path)
		return nil
	},
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a default configuration file in the home directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}
		}

		viper.Set("endpoint", "http://localhost:8081/tickets")
		viper.Set("delay-min", config.DefaultDelayMin)
		viper.Set("delay-max", config.DefaultDelayMax)
		viper.Set("strict-status", false)
		viper.Set("json", false)

		if err := viper.WriteConfigAs(path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", path)
		return nil
	},
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ticketsim.yaml"), nil
}

func parseConfigValue(kind, value string) (any, error) {
	switch kind {
	case "bool":
		switch value {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q (use true/false)", value)
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("must be non-negative")
		}
		return f, nil
	case "int":
		return strconv.ParseInt(value, 10, 64)
	}
	return value, nil
}

func blankAs(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")
}

// Package cmd provides the command-line interface for bleak.
//
// Configuration is read from, in order of precedence:
//  1. Command-line flags (--config, --port, --log-level, ...)
//  2. BLEAK_<SECTION>_<OPTION> environment variables (BLEAK_SERVER_PORT, ...)
//  3. The file named by --config or BLEAK_CONFIG_FILE
//  4. .bleak.yml in the current directory
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/di"
	"github.com/conneroisu/bleak/internal/errors"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bleak",
	Short: "Render chat questions with type-driven UI components",
	Long: `bleak turns a flow of typed questions into chat UI elements.

Each question's type selects a registered element (text, textarea, radio,
multi_select, select, yes_no). Unknown types fall back to a text input.

Quick Start:
  bleak serve                       Start the chat server
  bleak render --type yes_no        Render a single question to HTML
  bleak types                       List registered question types
  bleak validate                    Check the config and question flow`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bleak.yml, can also use BLEAK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file and enables BLEAK_ overrides.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BLEAK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bleak")
	}

	viper.SetEnvPrefix("BLEAK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFileUsed returns the config file viper read, or "".
func configFileUsed() string {
	return viper.ConfigFileUsed()
}

// newContainer loads configuration and builds the service container.
func newContainer() (*di.ServiceContainer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to load configuration")
	}

	container := di.NewServiceContainer(cfg)
	if err := container.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize service container: %w", err)
	}
	return container, nil
}

func shutdownContainer(cmd *cobra.Command, container *di.ServiceContainer) {
	if err := container.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: error during container shutdown: %v\n", err)
	}
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Pouria-007/RF-Spectrum-Observatory/configs"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
)

var (
	configFile   string
	logLevel     string
	outputFormat string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "observatory",
	Short: "RF spectrum observatory analytic core",
	Long: `A mobile RF spectrum monitoring core that turns IQ sample frames into
georeferenced spectral features.

Each frame passes through a windowed FFT and PSD estimate, EMA smoothing,
noise floor tracking, and per-band power and occupancy extraction. Records
are aligned with position fixes and aggregated onto a metric tile grid to
build an RF heatmap of the surveyed area.

Frames and fixes come from deterministic synthetic sources (wideband
OFDM-like carriers with optional interference, plus a GPS route), so the
whole chain runs without radio hardware.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default searches ./configs and $HOME/.config/observatory)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(filepath.Join(home, ".config", "observatory"))
		viper.AddConfigPath("/etc/observatory")
		viper.SetConfigName("observatory")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OBSERVATORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configs.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}

		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}

		if err := v.BindEnv(f.Name, "OBSERVATORY_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// loadValidatedConfig resolves the configuration and validates it.
func loadValidatedConfig() (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := configs.ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// setupLogging applies the logging section to the global logger.
func setupLogging(cfg *configs.LoggingConfig) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	switch {
	case cfg.LogFile != "":
		fileLogger, err := logging.NewFileLogger(cfg.LogFile)
		if err != nil {
			return err
		}
		logging.SetGlobalLogger(fileLogger)
	case cfg.Format == "plain":
		logging.SetGlobalLogger(logging.NewDefaultLoggerNoColor())
	}

	logging.SetLevel(level)
	return nil
}

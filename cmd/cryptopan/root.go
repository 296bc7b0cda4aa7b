package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/config"
	"github.com/heistp/cryptopan/internal/metrics"
	"github.com/heistp/cryptopan/internal/obslog"
)

var (
	cfgFile string
	v       = viper.New()

	runID  = uuid.New()
	logger zerolog.Logger
	cfg    *config.Config
	rec    *metrics.Recorder
)

var rootCmd = &cobra.Command{
	Use:   "cryptopan",
	Short: "Prefix-preserving address pseudonymization",
	Long: `cryptopan anonymizes IP and MAC addresses using the Crypto-PAn
bit-cascade construction: addresses that shared a network prefix before
anonymization still share one afterward, under a single 32-byte secret.`,
	SilenceUsage:      true,
	PersistentPreRunE: rootPersistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cryptopan.yaml)")
	rootCmd.PersistentFlags().String("key", "", "32-byte secret (hex, base64, or raw ASCII)")
	rootCmd.PersistentFlags().String("key-file", "", "file containing the secret")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")

	_ = v.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	_ = v.BindPFlag("key_file", rootCmd.PersistentFlags().Lookup("key-file"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	v.SetEnvPrefix("CRYPTOPAN")
	v.AutomaticEnv()

	rootCmd.AddCommand(anonymizeCmd)
	rootCmd.AddCommand(keyCmd)
}

// rootPersistentPreRun reads the config file (if any) and stands up the
// structured logger before any subcommand runs.
func rootPersistentPreRun(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("cryptopan: read config: %w", err)
		}
	} else {
		v.SetConfigName("cryptopan")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("cryptopan: read config: %w", err)
			}
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	var format obslog.Format
	if cfg.Log.Format == "console" {
		format = obslog.FormatConsole
	} else {
		format = obslog.FormatJSON
	}
	base := obslog.New(obslog.Config{Level: cfg.Log.Level, Format: format, Output: os.Stderr})
	logger = obslog.WithRunID(base, runID)

	// rec is built unconditionally so anonymize's collaborators always have
	// a recorder to report to; only the /metrics HTTP endpoint itself is
	// gated behind metrics.addr.
	rec = metrics.NewRecorder(nil)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	return nil
}

// loadSecret resolves the construction secret from the bound configuration
// and reports a cryptopan-domain error on failure so callers can surface
// it without knowing about the config package's own error type.
func loadSecret() ([]byte, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptopan.ErrInvalidKey, err)
	}
	return secret, nil
}

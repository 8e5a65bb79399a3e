package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jo-hoe/cartoonize/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPathFlag string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cartoonize",
		Short:         "Photo filter web service",
		Long:          "Serves a login protected web page that applies cartoon, black and white, false color and grayscale filters to uploaded photos.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "path to the YAML config file (default $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newUserAddCmd())
	return rootCmd
}

func getConfigPath() string {
	if configPathFlag != "" {
		return configPathFlag
	}
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(cwd, "config.yaml")
}

// loadConfig reads the config and installs the configured default logger.
func loadConfig() (*core.ServiceConfig, error) {
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		return nil, err
	}

	logger, err := newLogger(config.LogFormat, config.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return config, nil
}

func newLogger(format, level string) (*slog.Logger, error) {
	parsedLevel, err := core.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: parsedLevel}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, options)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options)), nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("cartoonize failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"StoryCurator/internal/app"
	"StoryCurator/internal/config"
	"StoryCurator/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "storycurator",
	Short:         "Community story capture, governance and curation service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the capture/curation schedulers",
	RunE:  runServe,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one capture batch and print the result",
	RunE:  runProcess,
}

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Close expired votes, run one curation session and print it",
	RunE:  runCurate,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE:  printConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set STORY_CURATOR_CONFIG)")
	rootCmd.AddCommand(serveCmd, processCmd, curateCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	cfg := config.LoadFrom(configPath)
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build application: %w", err)
	}
	return application, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Serve(cmd.Context()); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func runProcess(cmd *cobra.Command, _ []string) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	return writeJSON(cmd.OutOrStdout(), application.ProcessOnce(cmd.Context()))
}

func runCurate(cmd *cobra.Command, _ []string) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.CurateOnce(cmd.Context())
	if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil && err == nil {
		err = werr
	}
	return err
}

func printConfig(cmd *cobra.Command, _ []string) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(config.LoadFrom(configPath).Redacted())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var sourceURL string

	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:          "stedentabel",
		Short:        "Search and sort the list of Dutch cities",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(
		&sourceURL, "source-url", "", "override CITIES_SOURCE_URL",
	)

	configure := func() (*Config, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		if err := cfg.applySourceURL(sourceURL); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		newServeCommand(configure),
		newTUICommand(configure),
		newExportCommand(configure),
		newPrintCommand(configure),
	)
	return rootCmd
}

func newServeCommand(configure func() (*Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the city table over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configure()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			app := newApp(cfg, logger, newCityLoader(cfg, logger))
			return app.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override GIN_ADDR")
	return cmd
}

func newTUICommand(configure func() (*Config, error)) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the city table in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configure()
			if err != nil {
				return err
			}

			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}

			logger := slog.New(slog.NewTextHandler(logOut, nil))
			app := newApp(cfg, logger, newCityLoader(cfg, logger))
			program := tea.NewProgram(newTUIModel(cmd.Context(), app.cities), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file instead of discarding them")
	return cmd
}

func newExportCommand(configure func() (*Config, error)) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the city table to a CSV or PDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configure()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			app := newApp(cfg, logger, newCityLoader(cfg, logger))
			return runExport(cmd.Context(), logger, app.cities, app.mailer, app.metrics, opts)
		},
	}
	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&opts.Format, "format", "f", exportFormatCSV, `export format ("csv" or "pdf")`)
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (defaults to cities.<format>)")
	cmd.Flags().StringVar(&opts.Keyword, "q", "", "only include cities whose name contains this keyword")
	cmd.Flags().StringVar(&opts.SortKey, "sort", "", `sort column ("city", "admin_name" or "population")`)
	cmd.Flags().StringVar(&opts.Direction, "dir", "", `sort direction ("asc" or "desc")`)
	cmd.Flags().StringVar(&opts.Email, "email", "", "mail the export to this address")
	return cmd
}

func newPrintCommand(configure func() (*Config, error)) *cobra.Command {
	var opts printOptions

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the city table to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configure()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			app := newApp(cfg, logger, newCityLoader(cfg, logger))
			return runPrint(cmd.Context(), cmd.OutOrStdout(), app.cities, opts)
		},
	}
	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&opts.Format, "format", "f", printFormatTable, `output format ("table" or "json")`)
	cmd.Flags().StringVar(&opts.Keyword, "q", "", "only include cities whose name contains this keyword")
	cmd.Flags().StringVar(&opts.SortKey, "sort", "", `sort column ("city", "admin_name" or "population")`)
	cmd.Flags().StringVar(&opts.Direction, "dir", "", `sort direction ("asc" or "desc")`)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "print at most this many rows")
	return cmd
}

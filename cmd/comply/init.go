package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/comply-core/internal/application/handlers"
	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/runlog/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a compliance workspace",
		Long:  "Creates a .comply directory with default configuration, the evidence ledger and the check-run log.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewInitHandler(func(cfg config.RunLogConfig) (ports.RunLog, error) {
		runLog, err := sqlite.NewRunLog(cfg)
		if err != nil {
			return nil, err
		}
		return runLog, nil
	})

	result, err := handler.Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created %s\n", result.ConfigPath)
	fmt.Fprintf(w, "Evidence ledger: %s\n", result.LedgerPath)
	if result.RunLogPath != "" {
		fmt.Fprintf(w, "Check-run log: %s\n", result.RunLogPath)
	}
	fmt.Fprintln(w, "Comply initialized successfully!")

	return nil
}

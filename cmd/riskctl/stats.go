package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glucorisk/backend/internal/classifier"
	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/internal/statistics"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show prediction statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := statistics.NewService(store, nil).Summary(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), statistics.Report(summary))
			return nil
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show which model files load and which one is active",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			set := loadModels(cfg)
			loaded := map[string]bool{}
			for _, name := range set.Names() {
				loaded[name] = true
			}

			out := cmd.OutOrStdout()
			for _, name := range classifier.Priority {
				status := "missing"
				if loaded[name] {
					status = "loaded"
				}
				fmt.Fprintf(out, "%-18s %s\n", name, status)
			}

			active := prediction.ModelFallback
			if model := set.Select(); model != nil {
				active = model.Name()
			}
			fmt.Fprintf(out, "\nActive: %s\n", active)
			return nil
		},
	}
}

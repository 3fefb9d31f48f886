package main

import (
	"github.com/spf13/cobra"

	"github.com/glucorisk/backend/internal/classifier"
	"github.com/glucorisk/backend/internal/inference"
	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/internal/storage/sqlite"
	"github.com/glucorisk/backend/pkg/config"
	"github.com/glucorisk/backend/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Diabetes risk prediction tooling",
		Long:          "riskctl runs the diabetes risk decision pipeline and inspects stored predictions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			return logger.Init(level, "console", "stderr")
		},
	}

	root.PersistentFlags().String("db", "", "Path to SQLite database file (overrides sqlite.path)")
	root.PersistentFlags().String("models-dir", "", "Directory holding model files (overrides models.dir)")
	root.PersistentFlags().String("log-level", "warn", "Log level")

	root.AddCommand(newPredictCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newModelsCmd())

	return root
}

// loadConfig applies the persistent flags on top of the file/env config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.SQLite.Path = p
	}
	if d, _ := cmd.Flags().GetString("models-dir"); d != "" {
		cfg.Models.Dir = d
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*sqlite.Client, error) {
	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func loadModels(cfg *config.Config) *classifier.Set {
	return classifier.LoadAll(classifier.Paths{
		GradientBoosting: cfg.Models.Path(cfg.Models.GradientBoostingFile),
		CatBoost:         cfg.Models.Path(cfg.Models.CatBoostFile),
		KNN:              cfg.Models.Path(cfg.Models.KNNFile),
	})
}

// newEngine builds an engine with the active model. store may be nil.
func newEngine(cfg *config.Config, store prediction.Store) *prediction.Engine {
	engineCfg := prediction.Config{Store: store}
	if model := loadModels(cfg).Select(); model != nil {
		engineCfg.Inferrer = inference.NewAdapter(model, inference.Config{
			FailureThreshold: uint32(cfg.Inference.FailureThreshold),
		})
	}
	return prediction.NewEngine(engineCfg)
}

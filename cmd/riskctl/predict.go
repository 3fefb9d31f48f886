package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/prediction"
)

func newPredictCmd() *cobra.Command {
	var (
		age     string
		male    bool
		present []string
		file    string
		noSave  bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the decision pipeline for one questionnaire",
		Example: "  riskctl predict --age 52 --male --yes polyuria,polydipsia\n" +
			"  riskctl predict --file answers.json --no-save",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			answers, err := buildAnswers(file, age, male, present)
			if err != nil {
				return err
			}

			var engine *prediction.Engine
			if noSave {
				engine = newEngine(cfg, nil)
			} else {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				engine = newEngine(cfg, store)
			}

			result, err := engine.Predict(cmd.Context(), answers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"id":          result.ID,
					"prediction":  result.Label,
					"probability": result.Probability,
					"model_used":  result.ModelUsed,
					"diagnosis":   result.Diagnosis(),
				})
			}

			fmt.Fprintf(out, "Diagnosis:   %s\n", result.Diagnosis())
			fmt.Fprintf(out, "Probability: %.1f%%\n", result.Probability*100)
			fmt.Fprintf(out, "Model:       %s\n", result.ModelUsed)
			if result.ID > 0 {
				fmt.Fprintf(out, "Stored as:   #%d\n", result.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&age, "age", "", "Age in years")
	cmd.Flags().BoolVar(&male, "male", false, "Gender is male")
	cmd.Flags().StringSliceVar(&present, "yes", nil, "Symptoms answered yes (e.g. polyuria,polydipsia)")
	cmd.Flags().StringVar(&file, "file", "", "Read answers from a JSON file instead of flags")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the prediction")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func buildAnswers(file, age string, male bool, present []string) (features.Answers, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read answers file: %w", err)
		}
		var answers features.Answers
		if err := json.Unmarshal(data, &answers); err != nil {
			return nil, fmt.Errorf("failed to parse answers file: %w", err)
		}
		return answers, nil
	}

	answers := features.Answers{"age": age, "gender": features.Female}
	if male {
		answers["gender"] = features.Male
	}
	for _, key := range features.Keys[features.Polyuria:] {
		answers[key] = features.Absent
	}

	for _, key := range present {
		if !isSymptom(key) {
			return nil, fmt.Errorf("unknown symptom %q", key)
		}
		answers[key] = features.Present
	}
	return answers, nil
}

func isSymptom(key string) bool {
	for _, k := range features.Keys[features.Polyuria:] {
		if k == key {
			return true
		}
	}
	return false
}

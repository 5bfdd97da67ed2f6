package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Krimson/heart-risk/internal/app"
	"github.com/Krimson/heart-risk/internal/canary"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// evaluation отчёт о проверке модели на наборе данных.
type evaluation struct {
	Records           int
	Correct           int
	EncoderMismatches int
	NoVesselRate      float64
	NoVesselRecords   int
	Canary            canary.Result
	CanaryErr         error
}

func (e *evaluation) Accuracy() float64 {
	if e.Records == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Records)
}

func newEvaluateCmd(c *cli) *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Check the loaded model against the Cleveland dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				datasetPath = c.cfg.DatasetPath
			}
			ds, err := features.LoadDatasetFile(datasetPath)
			if err != nil {
				return err
			}

			classifier, closers, err := app.LoadClassifier(cmd.Context(), c.cfg, c.logger, true)
			defer closers.Close()
			if err != nil {
				return err
			}

			report, err := evaluate(cmd.Context(), ds, scoring.NewScorer(classifier), c.logger)
			if err != nil {
				return err
			}
			printEvaluation(cmd.OutOrStdout(), report)
			if report.CanaryErr != nil {
				return report.CanaryErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to heart.csv (defaults to dataset_path from config)")
	return cmd
}

// evaluate сверяет раскладку набора с Columns, кодировщик формы с матрицей
// набора и предсказания модели с метками. Оценка идёт по всему набору.
func evaluate(ctx context.Context, ds *features.Dataset, scorer *scoring.Scorer, logger *slog.Logger) (*evaluation, error) {
	design, err := ds.Design()
	if err != nil {
		return nil, err
	}
	observations, err := ds.Observations()
	if err != nil {
		return nil, err
	}

	if !scorer.Available() {
		return nil, scoring.ErrModelUnavailable
	}

	report := &evaluation{Records: ds.Len()}
	for i, row := range design.Rows {
		if features.Encode(observations[i]) != row {
			report.EncoderMismatches++
		}

		a, err := scorer.Score(ctx, row)
		if err != nil {
			return nil, err
		}
		label := 0
		if a.High() {
			label = 1
		}
		if label == ds.Labels[i] {
			report.Correct++
		}
	}

	report.NoVesselRate, report.NoVesselRecords = ds.DiseaseRate(func(codes clinical.Codes) bool {
		return codes.CA == 0
	})

	probe := canary.NewProbe(scorer, logger)
	report.Canary, report.CanaryErr = probe.Check(ctx)
	if report.CanaryErr != nil && !errors.Is(report.CanaryErr, canary.ErrCanaryFailed) {
		return nil, report.CanaryErr
	}
	return report, nil
}

func printEvaluation(w io.Writer, e *evaluation) {
	fmt.Fprintf(w, "records:            %d\n", e.Records)
	fmt.Fprintf(w, "accuracy:           %.3f (%d/%d)\n", e.Accuracy(), e.Correct, e.Records)
	fmt.Fprintf(w, "encoder mismatches: %d\n", e.EncoderMismatches)
	fmt.Fprintf(w, "disease rate ca=0:  %.3f (%d records)\n", e.NoVesselRate, e.NoVesselRecords)
	if e.CanaryErr != nil {
		fmt.Fprintf(w, "canary:             FAILED %s\n", e.Canary.Error)
	} else {
		fmt.Fprintf(w, "canary:             ok, %s %.1f%%\n", e.Canary.Label, e.Canary.Percentage)
	}
}

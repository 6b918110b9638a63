// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyonml/autosearch/pkg/automl"
	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/ux"
)

var (
	searchDataPath     string
	searchNoDataChecks bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a pipeline search over a CSV dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		X, y, err := loadData(searchDataPath, cfg.Target)
		if err != nil {
			return err
		}
		search, err := buildSearcher()
		if err != nil {
			return err
		}

		var opts []automl.RunOption
		if searchNoDataChecks {
			opts = append(opts, automl.WithoutDataChecks())
		}
		start := time.Now()
		if err := search.Run(cmd.Context(), X, y, opts...); err != nil {
			return err
		}
		logger.Info("search finished", "elapsed", time.Since(start).Round(time.Millisecond))

		printRankings(search.Rankings())

		if cfg.Store != "" {
			if err := search.Save(cfg.Store); err != nil {
				return err
			}
			fmt.Printf("\nResults saved to %s\n", cfg.Store)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchDataPath, "data", "", "CSV dataset with a header row")
	searchCmd.Flags().StringVar(&cfg.Target, "target", cfg.Target, "target column name")
	searchCmd.Flags().IntVar(&cfg.MaxPipelines, "max-pipelines", cfg.MaxPipelines, "maximum candidates to evaluate")
	searchCmd.Flags().StringVar(&cfg.MaxTime, "max-time", cfg.MaxTime, "wall-clock budget, e.g. 30s or 5m")
	searchCmd.Flags().IntVar(&cfg.Patience, "patience", cfg.Patience, "stop after this many candidates without improvement")
	searchCmd.Flags().Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "minimum relative improvement that resets patience")
	searchCmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "fold evaluation parallelism")
	searchCmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	searchCmd.Flags().StringVar(&cfg.ErrorPolicy, "error-policy", cfg.ErrorPolicy, "raise or contain")
	searchCmd.Flags().BoolVar(&cfg.OptimizeThresholds, "optimize-thresholds", cfg.OptimizeThresholds, "tune the binary decision threshold")
	searchCmd.Flags().BoolVar(&searchNoDataChecks, "no-data-checks", false, "skip pre-search data validation")
	searchCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(searchCmd)
}

func loadData(path, target string) (*dataset.Table, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return dataset.ReadCSV(f, target)
}

func printRankings(ranked []automl.PipelineResult) {
	styled := ux.IsTerminal()
	if styled {
		fmt.Println(ux.Styles.Title.Render("Rankings"))
	} else {
		fmt.Println("Rankings")
	}
	table := ux.NewTable(styled, "id", "pipeline", "score", "high variance", "parameters")
	for _, r := range ranked {
		table.AddRow(
			fmt.Sprintf("%d", r.ID),
			r.PipelineName,
			formatScore(r.Score),
			fmt.Sprintf("%t", r.HighVarianceCV),
			fmt.Sprintf("%d components", len(r.Parameters)),
		)
	}
	fmt.Print(table.Render())
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.6f", v)
}

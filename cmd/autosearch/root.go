// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/halcyonml/autosearch/pkg/automl"
	"github.com/halcyonml/autosearch/pkg/automl/objectives"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
	"github.com/halcyonml/autosearch/pkg/logging"
)

// cliConfig mirrors the command-line flags so a YAML file can set
// defaults for repeated runs.
type cliConfig struct {
	Problem            string  `yaml:"problem"`
	Objective          string  `yaml:"objective"`
	Target             string  `yaml:"target"`
	MaxPipelines       int     `yaml:"max_pipelines"`
	MaxTime            string  `yaml:"max_time"`
	Patience           int     `yaml:"patience"`
	Tolerance          float64 `yaml:"tolerance"`
	Workers            int     `yaml:"workers"`
	Seed               uint64  `yaml:"seed"`
	ErrorPolicy        string  `yaml:"error_policy"`
	OptimizeThresholds bool    `yaml:"optimize_thresholds"`
	Store              string  `yaml:"store"`
	LogLevel           string  `yaml:"log_level"`
}

var (
	cfgFile string
	cfg     = cliConfig{
		Problem:     "binary",
		Target:      "target",
		ErrorPolicy: "raise",
		LogLevel:    "info",
	}
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "autosearch",
	Short: "Automated machine learning pipeline search",
	Long: `autosearch evaluates candidate ML pipelines with cross-validation,
tunes their hyperparameters, and ranks everything it finds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			data, err := os.ReadFile(cfgFile)
			if err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("parsing config: %w", err)
			}
		}
		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(cfg.LogLevel),
			Service: "autosearch",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file with flag defaults")
	rootCmd.PersistentFlags().StringVar(&cfg.Problem, "problem", cfg.Problem, "problem type: binary, multiclass, or regression")
	rootCmd.PersistentFlags().StringVar(&cfg.Objective, "objective", cfg.Objective, "primary objective (default chosen per problem type)")
	rootCmd.PersistentFlags().StringVar(&cfg.Store, "store", cfg.Store, "results store directory for save/load")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}

// buildSearcher turns the CLI config into a ready searcher.
func buildSearcher() (*automl.AutoMLSearch, error) {
	problem, err := problems.Parse(cfg.Problem)
	if err != nil {
		return nil, err
	}
	acfg := automl.Config{
		Problem:            problem,
		MaxPipelines:       cfg.MaxPipelines,
		Patience:           cfg.Patience,
		Tolerance:          cfg.Tolerance,
		Workers:            cfg.Workers,
		Seed:               cfg.Seed,
		OptimizeThresholds: cfg.OptimizeThresholds,
		Logger:             logger,
	}
	if cfg.Objective != "" {
		obj, err := objectives.Get(cfg.Objective)
		if err != nil {
			return nil, err
		}
		acfg.Objective = obj
	}
	if cfg.MaxTime != "" {
		d, err := time.ParseDuration(cfg.MaxTime)
		if err != nil {
			return nil, fmt.Errorf("parsing max time: %w", err)
		}
		acfg.MaxTime = d
	}
	policy, err := automl.ParseErrorPolicy(cfg.ErrorPolicy)
	if err != nil {
		return nil, err
	}
	acfg.ErrorPolicy = policy
	return automl.New(acfg)
}

// loadSearcher builds a searcher and restores a saved store into it.
func loadSearcher() (*automl.AutoMLSearch, error) {
	if cfg.Store == "" {
		return nil, fmt.Errorf("--store is required for this command")
	}
	search, err := buildSearcher()
	if err != nil {
		return nil, err
	}
	if err := search.Load(cfg.Store); err != nil {
		return nil, err
	}
	return search, nil
}

// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var rankingsFull bool

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Print rankings from a saved results store",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, err := loadSearcher()
		if err != nil {
			return err
		}
		if rankingsFull {
			printRankings(search.FullRankings())
		} else {
			printRankings(search.Rankings())
		}
		return nil
	},
}

func init() {
	rankingsCmd.Flags().BoolVar(&rankingsFull, "full", false, "include every result, duplicates too")
	rootCmd.AddCommand(rankingsCmd)
}

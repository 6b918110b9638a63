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
	"strconv"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <id>",
	Short: "Print the full report for one pipeline result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("id must be an integer: %q", args[0])
		}
		search, err := loadSearcher()
		if err != nil {
			return err
		}
		return search.Describe(id, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

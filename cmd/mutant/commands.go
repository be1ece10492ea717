// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mutant",
		Short: "Detect mutant DNA",
		Long: `mutant decides whether a DNA sequence belongs to a mutant: a grid of
A, C, T and G with four identical bases in a row, column or diagonal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	return rootCmd
}

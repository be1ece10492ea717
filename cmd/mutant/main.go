// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mutant checks DNA sequences locally, serves the sequencer API,
// and queries a running server.
package main

import (
	"os"

	"github.com/awnumar/memguard"

	"github.com/frahik/mutant-dna-sequencer/pkg/ux"
)

func main() {
	defer memguard.Purge()
	if err := newRootCmd().Execute(); err != nil {
		ux.NewPrinter(os.Stderr).Error(err)
		memguard.Purge()
		os.Exit(1)
	}
}

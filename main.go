// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors
//
// dm32prog - DM-32 radio programmer
//
// A CLI tool for reading and writing the configuration of DM-32 series DMR
// transceivers over a serial link.

package main

import (
	"os"

	"github.com/dm32dev/dm32prog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors
//
// goccp - CAN Calibration Protocol (CCP v2.1) master.

package main

import (
	"fmt"
	"os"

	"github.com/ecukit/goccp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

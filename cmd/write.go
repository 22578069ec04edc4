// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecukit/goccp/pkg/ccp"
)

var writeExtension uint8

var writeCmd = &cobra.Command{
	Use:   "write <address> <hexbytes>",
	Short: "Write slave memory",
	Long: `Write bytes to slave memory via SET_MTA and repeated DNLOAD commands.
The data is given as a hex string, e.g. "DEADBEEF" or "de ad be ef".
Writes go to calibration memory; what the slave does with them is up to
its calibration page setup.`,
	Args: cobra.ExactArgs(2),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().Uint8Var(&writeExtension, "extension", 0, "Address extension")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	cleaned := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.ToLower(args[1]))
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return fmt.Errorf("invalid hex data: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to write")
	}

	master, _, err := newMaster()
	if err != nil {
		return err
	}
	defer master.Stop()
	ctx := cmd.Context()

	if err := master.Connect(ctx, stationAddress); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer master.Disconnect(ctx, false, stationAddress)

	if err := master.SetMTA(ctx, ccp.MTA0, writeExtension, address); err != nil {
		return fmt.Errorf("set mta: %w", err)
	}

	written := 0
	for written < len(data) {
		chunk := data[written:]
		if len(chunk) > 5 {
			chunk = chunk[:5]
		}
		var word uint64
		for _, b := range chunk {
			word = word<<8 | uint64(b)
		}
		_, next, err := master.Dnload(ctx, uint8(len(chunk)), word)
		if err != nil {
			return fmt.Errorf("dnload at 0x%08X: %w", address+uint32(written), err)
		}
		written += len(chunk)
		logger.Debug("dnload chunk acknowledged", zap.Uint32("next_mta", next))
	}

	fmt.Printf("Wrote %d byte(s) at 0x%08X\n", written, address)
	return nil
}

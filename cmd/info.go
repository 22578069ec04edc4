// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecukit/goccp/pkg/ccp"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Probe the slave: connect, version, identification",
	Long: `Connect to the slave, negotiate the protocol version, exchange station
identifiers and disconnect again. A quick way to verify the bus setup,
arbitration IDs and station address before calibrating.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	master, connInfo, err := newMaster()
	if err != nil {
		return err
	}
	defer master.Stop()
	ctx := cmd.Context()

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("CRO 0x%03X / DTO 0x%03X, station 0x%04X\n\n", croID, dtoID, stationAddress)

	if err := master.Connect(ctx, stationAddress); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	major, minor, err := master.GetCCPVersion(ctx)
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	fmt.Printf("CCP version:  %d.%d\n", major, minor)

	id, err := master.ExchangeID(ctx)
	if err != nil {
		return fmt.Errorf("exchange id: %w", err)
	}
	fmt.Printf("Slave ID:     %d byte(s), data type 0x%02X\n", id.IDLength, id.DataType)
	fmt.Printf("Resources:    available 0x%02X, protected 0x%02X\n", id.AvailabilityMask, id.ProtectionMask)

	if id.IDLength > 0 {
		name, err := uploadSlaveID(ctx, master, id.IDLength)
		if err == nil && len(name) > 0 {
			fmt.Printf("Station name: %q\n", name)
		}
	}

	return master.Disconnect(ctx, false, stationAddress)
}

// uploadSlaveID reads the slave's ID string, which EXCHANGE_ID leaves
// addressed by MTA0.
func uploadSlaveID(ctx context.Context, master *ccp.Master, length uint8) (string, error) {
	var out []byte
	for length > 0 {
		n := length
		if n > 5 {
			n = 5
		}
		chunk, err := master.Upload(ctx, n)
		if err != nil {
			return "", err
		}
		out = append(out, chunk...)
		length -= n
	}
	return string(out), nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ecukit/goccp/pkg/ccp"
)

var readExtension uint8

var readCmd = &cobra.Command{
	Use:   "read <address> <length>",
	Short: "Read slave memory",
	Long: `Read a block of slave memory via SET_MTA and repeated UPLOAD commands
and print it as a hex dump. The address accepts decimal or 0x-prefixed
hexadecimal.`,
	Args: cobra.ExactArgs(2),
	RunE: runRead,
}

func init() {
	readCmd.Flags().Uint8Var(&readExtension, "extension", 0, "Address extension")
	rootCmd.AddCommand(readCmd)
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

func runRead(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	length, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		return fmt.Errorf("invalid length %q: %w", args[1], err)
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

	if err := master.SetMTA(ctx, ccp.MTA0, readExtension, address); err != nil {
		return fmt.Errorf("set mta: %w", err)
	}

	// MTA0 auto-increments in the slave, so chunks just follow on.
	data := make([]byte, 0, length)
	for remaining := int(length); remaining > 0; {
		n := remaining
		if n > 5 {
			n = 5
		}
		chunk, err := master.Upload(ctx, uint8(n))
		if err != nil {
			return fmt.Errorf("upload at 0x%08X: %w", address+uint32(len(data)), err)
		}
		data = append(data, chunk...)
		remaining -= n
	}

	hexDump(address, data)
	return nil
}

func hexDump(base uint32, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("%08X  ", base+uint32(off))
		for i := off; i < end; i++ {
			fmt.Printf("%02X ", data[i])
		}
		for i := end; i < off+16; i++ {
			fmt.Print("   ")
		}
		fmt.Print(" |")
		for i := off; i < end; i++ {
			c := data[i]
			if c < 0x20 || c > 0x7E {
				c = '.'
			}
			fmt.Printf("%c", c)
		}
		fmt.Println("|")
	}
}

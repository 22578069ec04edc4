// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	cfgFile string

	// SocketCAN flags
	canIface string

	// SLCAN serial adapter flags
	portName   string
	serialBaud int
	canBitrate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// CCP session flags
	croID          uint32
	dtoID          uint32
	stationAddress uint16
	extendedIDs    bool
	cmdTimeout     time.Duration

	// Logging flags
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "goccp",
	Short: "CAN Calibration Protocol master",
	Long: `goccp - a CCP v2.1 master for calibrating and measuring ECUs over CAN.

Reads and writes ECU memory and sets up periodic DAQ telemetry of
selected variables, without touching ECU firmware.

Bus connection modes:
  SocketCAN: --interface can0                       (Linux)
  SLCAN:     --port /dev/ttyUSB0 [--baud 115200] [--bitrate 500000]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the GOCCP_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.

Arbitration IDs, the station address and the DAQ element list can be kept
in a profile file (--config, default ./goccp.yaml).`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initLogging(); err != nil {
			return err
		}
		return initConfig()
	}

	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&cfgFile, "config", "c", "", "Profile file (YAML)")

	// SocketCAN flags
	pf.StringVarP(&canIface, "interface", "i", "", "SocketCAN interface (e.g. can0)")

	// SLCAN flags
	pf.StringVarP(&portName, "port", "p", "", "SLCAN serial port device")
	pf.IntVarP(&serialBaud, "baud", "b", 115200, "Serial baud rate (SLCAN only)")
	pf.IntVar(&canBitrate, "bitrate", 500000, "CAN bitrate (SLCAN only)")

	// WebSocket flags
	pf.StringVarP(&wsURL, "url", "u", "", "CAN bridge WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// CCP flags
	pf.Uint32Var(&croID, "cro-id", 0x6FA, "Arbitration ID for master commands (CRO)")
	pf.Uint32Var(&dtoID, "dto-id", 0x6FB, "Arbitration ID for slave replies (DTO)")
	pf.Uint16Var(&stationAddress, "station", 0x39, "Slave station address")
	pf.BoolVar(&extendedIDs, "extended", false, "Use 29-bit arbitration IDs")
	pf.DurationVar(&cmdTimeout, "timeout", 500*time.Millisecond, "Command reply timeout")

	// Logging flags
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ecukit/goccp/pkg/canbus"
	"github.com/ecukit/goccp/pkg/ccp"
)

// openBus opens the CAN connection selected by the persistent flags:
// SocketCAN, SLCAN serial adapter or WebSocket bridge.
func openBus() (canbus.Bus, string, error) {
	if canIface != "" {
		bus, err := canbus.OpenSocketCAN(canIface)
		if err != nil {
			return nil, "", err
		}
		return bus, fmt.Sprintf("SocketCAN: %s", canIface), nil
	}

	if portName != "" {
		bus, err := canbus.OpenSLCAN(portName, serialBaud, canBitrate)
		if err != nil {
			return nil, "", err
		}
		return bus, fmt.Sprintf("SLCAN: %s @ %d baud, %d bit/s", portName, serialBaud, canBitrate), nil
	}

	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, "", err
			}
		}
		bus, err := canbus.OpenWSCAN(canbus.WSCANConfig{
			URL:           wsURL,
			Username:      wsUsername,
			Password:      password,
			SkipSSLVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}
		return bus, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	return nil, "", fmt.Errorf("one of --interface, --port or --url must be specified")
}

// newMaster opens the bus and builds a Master from the session flags.
// The caller owns the master; Stop also closes the bus.
func newMaster() (*ccp.Master, string, error) {
	bus, info, err := openBus()
	if err != nil {
		return nil, "", err
	}

	opts := []ccp.Option{
		ccp.WithTimeout(cmdTimeout),
		ccp.WithLogger(logger),
	}
	if extendedIDs {
		opts = append(opts, ccp.WithExtendedIDs())
	}
	return ccp.NewMaster(bus, croID, dtoID, opts...), info, nil
}

// getPassword retrieves the bridge password from the environment or
// prompts for it without echo.
func getPassword() (string, error) {
	if pw := os.Getenv("GOCCP_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal; fall back to reading a line with echo.
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

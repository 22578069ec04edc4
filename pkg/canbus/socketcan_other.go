// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

//go:build !linux

package canbus

import "fmt"

// OpenSocketCAN is only available on Linux.
func OpenSocketCAN(ifname string) (Bus, error) {
	return nil, fmt.Errorf("canbus: SocketCAN is not supported on this platform")
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ecukit/goccp/pkg/ccp"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live DAQ monitor (TUI)",
	Long: `Run a DAQ session of the profile's elements and show the latest value of
every signal in a live terminal table, together with bus traffic
statistics. Press 'q' to stop the session and quit.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Uint8Var(&daqEventChannel, "event-channel", 0, "Slave event channel driving the DAQ lists")
	monitorCmd.Flags().Uint16Var(&daqPrescaler, "prescaler", 1, "Event channel rate prescaler")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	elements, err := loadElements()
	if err != nil {
		return err
	}

	master, connInfo, err := newMaster()
	if err != nil {
		return err
	}
	defer master.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session := ccp.NewDAQSession(master, stationAddress, elements,
		ccp.WithEventChannel(daqEventChannel),
		ccp.WithRatePrescaler(daqPrescaler),
		ccp.WithSessionLogger(logger),
	)
	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	p := tea.NewProgram(newMonitorModel(connInfo, elements, master.Stats()))

	// Feed decoded samples into the TUI until it quits.
	go func() {
		for {
			samples, err := session.Read(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					p.Send(monitorErrMsg{err})
				}
				return
			}
			p.Send(monitorSamplesMsg(samples))
		}
	}()

	_, runErr := p.Run()
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := session.Stop(stopCtx); err != nil {
		logger.Warn("session teardown failed")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

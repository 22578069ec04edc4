// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecukit/goccp/pkg/ccp"
	"github.com/ecukit/goccp/pkg/daqrec"
)

var (
	daqEventChannel uint8
	daqPrescaler    uint16
	daqRecordFile   string
	daqDuration     time.Duration
)

var daqCmd = &cobra.Command{
	Use:   "daq",
	Short: "Run a DAQ session and stream decoded samples",
	Long: `Set up data acquisition of the elements listed in the profile file and
stream decoded samples to stdout until interrupted (or --duration
elapses). With --record, samples are also appended to a CBOR file that
"goccp replay" style tooling can consume later.`,
	RunE: runDAQ,
}

func init() {
	daqCmd.Flags().Uint8Var(&daqEventChannel, "event-channel", 0, "Slave event channel driving the DAQ lists")
	daqCmd.Flags().Uint16Var(&daqPrescaler, "prescaler", 1, "Event channel rate prescaler")
	daqCmd.Flags().StringVar(&daqRecordFile, "record", "", "Append samples to this CBOR file")
	daqCmd.Flags().DurationVar(&daqDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(daqCmd)
}

func runDAQ(cmd *cobra.Command, args []string) error {
	elements, err := loadElements()
	if err != nil {
		return err
	}

	master, connInfo, err := newMaster()
	if err != nil {
		return err
	}
	defer master.Stop()

	var recorder *daqrec.Writer
	if daqRecordFile != "" {
		f, err := os.OpenFile(daqRecordFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer f.Close()
		recorder = daqrec.NewWriter(f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if daqDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, daqDuration)
		defer cancel()
	}

	session := ccp.NewDAQSession(master, stationAddress, elements,
		ccp.WithEventChannel(daqEventChannel),
		ccp.WithRatePrescaler(daqPrescaler),
		ccp.WithSessionLogger(logger),
	)

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Acquiring %d element(s); press Ctrl+C to stop\n\n", len(elements))

	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	// Teardown with a fresh context; the stream context is likely
	// already cancelled when we get here.
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := session.Stop(stopCtx); err != nil {
			fmt.Fprintf(os.Stderr, "session teardown: %v\n", err)
		}
	}()

	for {
		samples, err := session.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		for _, s := range samples {
			fmt.Printf("%s  %-24s %12.4f\n", s.Timestamp.Format("15:04:05.000"), s.Name, s.Value)
		}
		if recorder != nil {
			if err := recorder.WriteAll(samples); err != nil {
				return fmt.Errorf("record samples: %w", err)
			}
		}
	}
}

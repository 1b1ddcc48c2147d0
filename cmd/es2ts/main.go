/*
NAME
  main.go

DESCRIPTION
  es2ts wraps a bare elementary stream file into a single-program
  transport stream, one ES unit per PES access unit.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/spf13/cobra"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/container/ts"
	"github.com/kynesim/gomts/es"
)

var (
	outPath    string
	streamType uint8
	videoPID   uint16
	tsID       uint16
)

func main() {
	cmd := &cobra.Command{
		Use:   "es2ts <input.es>",
		Short: "Wrap an elementary stream into a transport stream",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "out.ts", "output TS file")
	cmd.Flags().Uint8VarP(&streamType, "stream-type", "s", pes.StreamTypeH264, "PMT stream_type of the ES")
	cmd.Flags().Uint16VarP(&videoPID, "pid", "p", 0x0100, "elementary stream PID")
	cmd.Flags().Uint16VarP(&tsID, "ts-id", "t", 1, "transport_stream_id")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Debug, os.Stderr, false)

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := ts.NewWriter(out, log, tsID)
	if err != nil {
		return err
	}
	w.ConfigureStream(streamType, videoPID)

	streamID := byte(pes.VideoStreamID)
	if streamType == pes.StreamTypeAAC || streamType == pes.StreamTypePCM || streamType == pes.StreamTypeADPCM {
		streamID = pes.AudioStreamIDLo
	}

	sc := es.NewScanner(in)
	var units int
	for {
		u, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.WriteAccessUnit(videoPID, streamID, u.Data); err != nil {
			return err
		}
		units++
	}
	log.Info("wrapped elementary stream", "units", units, "output", outPath)
	return nil
}

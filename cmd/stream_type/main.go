/*
NAME
  main.go

DESCRIPTION
  stream_type prints the PID and PMT stream_type of every elementary
  stream declared by each program listed in a transport stream's first
  PAT packet, the minimal report tstools' stream_type binary produced.

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
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/spf13/cobra"

	"github.com/kynesim/gomts/container/ts"
)

func main() {
	cmd := &cobra.Command{
		Use:   "stream_type <input.ts>",
		Short: "Print the PMT stream_type of each elementary stream",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Warning, os.Stderr, false)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	patPkt, _, err := ts.FindPid(data, ts.PatPID)
	if err != nil {
		return err
	}
	progs, err := ts.Programs(patPkt)
	if err != nil {
		return err
	}

	for prog, pmtPID := range progs {
		pmtPkt, _, err := ts.FindPid(data, pmtPID)
		if err != nil {
			log.Warning("PMT PID not found in clip", "program", prog, "pid", pmtPID)
			continue
		}
		streams, err := ts.Streams(pmtPkt, log)
		if err != nil {
			log.Warning("could not decode PMT", "program", prog, "err", err)
			continue
		}
		fmt.Printf("program %d:\n", prog)
		for _, s := range streams {
			fmt.Printf("  PID %#04x stream_type %#02x\n", s.ElementaryPID, s.StreamType)
		}
	}
	return nil
}

/*
NAME
  main.go

DESCRIPTION
  ts2es extracts the elementary stream payload of a single PID from a
  transport stream file, reassembling PES packets and writing each
  access unit's bytes out in order.

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
	"github.com/kynesim/gomts/ioseek"
)

var (
	outPath string
	pid     uint16
)

func main() {
	cmd := &cobra.Command{
		Use:   "ts2es <input.ts>",
		Short: "Extract one PID's elementary stream from a transport stream",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "out.es", "output ES file")
	cmd.Flags().Uint16VarP(&pid, "pid", "p", 0x0100, "PID to extract")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Debug, os.Stderr, false)

	src, err := ioseek.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	r := ts.NewReader(src, log)
	reasm := pes.NewReassembler(log)

	var units int
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if p.PID != pid {
			continue
		}
		pkt, done, err := reasm.Feed(p.PID, p.PUSI, p.Payload)
		if err != nil {
			log.Warning("reassembly warning", "err", err)
			continue
		}
		if !done {
			continue
		}
		if _, err := out.Write(pkt.Data); err != nil {
			return err
		}
		units++
	}
	log.Info("extracted elementary stream", "units", units, "output", outPath)
	return nil
}

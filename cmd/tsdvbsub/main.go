/*
NAME
  main.go

DESCRIPTION
  tsdvbsub extracts the reassembled PES payloads of a user-private (DVB
  subtitle) PID from a transport stream into a series of numbered
  segment files, one per PES packet, mirroring tstools' tsdvbsub
  without decoding the subtitle region/page syntax inside each
  segment.

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
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"github.com/spf13/cobra"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/container/ts"
	"github.com/kynesim/gomts/ioseek"
)

var (
	outDir string
	pid    uint16
)

func main() {
	cmd := &cobra.Command{
		Use:   "tsdvbsub <input.ts>",
		Short: "Extract a private PID's PES segments as numbered files",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "directory for segment files")
	cmd.Flags().Uint16VarP(&pid, "pid", "p", 0, "subtitle elementary stream PID")
	cmd.MarkFlagRequired("pid")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Warning, os.Stderr, false)

	src, err := ioseek.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	r := ts.NewReader(src, log)
	reasm := pes.NewReassembler(log)

	var segment int
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
		name := filepath.Join(outDir, fmt.Sprintf("seg%04d.bin", segment))
		if err := os.WriteFile(name, pkt.Data, 0o644); err != nil {
			return err
		}
		segment++
	}
	log.Info("extracted subtitle segments", "count", segment, "dir", outDir)
	return nil
}

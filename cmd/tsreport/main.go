/*
NAME
  main.go

DESCRIPTION
  tsreport prints a summary of a transport stream's PAT and PMT(s):
  program numbers, PMT PIDs, and each program's elementary stream list
  with its stream_type and MIME type where known.

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
	"github.com/kynesim/gomts/container/ts/psi"
	"github.com/kynesim/gomts/ioseek"
)

func main() {
	cmd := &cobra.Command{
		Use:   "tsreport <input.ts>",
		Short: "Report the PAT/PMT structure of a transport stream",
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

	src, err := ioseek.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	r := ts.NewReader(src, log)

	patAsm := psi.NewAssembler(log)
	pmtAsm := make(map[uint16]*psi.Assembler)
	var pat *psi.PAT

	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch {
		case p.PID == ts.PatPID:
			section, done, err := patAsm.Feed(p.PUSI, p.Payload)
			if err != nil {
				log.Warning("PAT assembly warning", "err", err)
				continue
			}
			if !done {
				continue
			}
			pat, err = psi.ParsePAT(section)
			if err != nil {
				log.Warning("PAT parse warning", "err", err)
				continue
			}
			for _, prog := range pat.Programs {
				if _, ok := pmtAsm[prog.PMTPID]; !ok {
					pmtAsm[prog.PMTPID] = psi.NewAssembler(log)
				}
			}
		default:
			asm, ok := pmtAsm[p.PID]
			if !ok {
				continue
			}
			section, done, err := asm.Feed(p.PUSI, p.Payload)
			if err != nil {
				log.Warning("PMT assembly warning", "err", err)
				continue
			}
			if !done {
				continue
			}
			pmt, err := psi.ParsePMT(section, log)
			if err != nil {
				log.Warning("PMT parse warning", "err", err)
				continue
			}
			printPMT(p.PID, pmt)
		}
	}

	if pat == nil {
		fmt.Println("no PAT found")
		return nil
	}
	fmt.Printf("transport_stream_id=%d\n", pat.TransportStreamID)
	for _, prog := range pat.Programs {
		fmt.Printf("program %d -> PMT PID %#04x\n", prog.ProgramNumber, prog.PMTPID)
	}
	return nil
}

func printPMT(pid uint16, pmt *psi.PMT) {
	fmt.Printf("PMT on PID %#04x: program %d, PCR PID %#04x\n", pid, pmt.ProgramNumber, pmt.PCRPID)
	for _, s := range pmt.Streams {
		mime, err := pes.StreamTypeMIMEType(s.StreamType)
		if err != nil {
			mime = "unknown"
		}
		fmt.Printf("  PID %#04x stream_type %#02x (%s)\n", s.ElementaryPID, s.StreamType, mime)
	}
}

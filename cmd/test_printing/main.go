/*
NAME
  main.go

DESCRIPTION
  test_printing prints one line per transport stream packet: its PID,
  PUSI, adaptation field control, continuity_counter, and any PCR it
  carries, the field dump tstools' test_printing binary produced for
  comparing an encoder's output byte-for-byte against a reference.

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

	"github.com/kynesim/gomts/container/ts"
	"github.com/kynesim/gomts/ioseek"
)

func main() {
	cmd := &cobra.Command{
		Use:   "test_printing <input.ts>",
		Short: "Print a field dump of every packet in a transport stream",
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
	var n int
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%8d pid=%#04x pusi=%-5v afc=%d cc=%-2d", n, p.PID, p.PUSI, p.AFC, p.CC)
		if p.PCRF {
			line += fmt.Sprintf(" pcr=%d", p.PCR)
		}
		fmt.Println(line)
		n++
	}
	return nil
}

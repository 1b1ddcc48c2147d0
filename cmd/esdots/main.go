/*
NAME
  main.go

DESCRIPTION
  esdots scans a bare elementary stream file unit by unit, printing a
  dot for every unitsPerDot units seen and a final count, the same
  low-ceremony progress indicator tstools' esdots produced for long ES
  dumps.

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

	"github.com/spf13/cobra"

	"github.com/kynesim/gomts/es"
)

var unitsPerDot int

func main() {
	cmd := &cobra.Command{
		Use:   "esdots <input.es>",
		Short: "Print a dot per N elementary stream units scanned",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().IntVarP(&unitsPerDot, "per-dot", "n", 100, "units per printed dot")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	sc := es.NewScanner(in)
	var count int
	for {
		_, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
		if count%unitsPerDot == 0 {
			fmt.Print(".")
		}
	}
	fmt.Printf("\n%d units\n", count)
	return nil
}

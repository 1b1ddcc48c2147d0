/*
NAME
  main.go

DESCRIPTION
  ts_packet_insert splices a single 188-byte TS packet (read from a
  file) into a clip at a given packet offset, then runs the
  discontinuity repairer over every PID the inserted packet and its
  neighbours carry so the spliced clip's continuity_counter gap is
  flagged rather than silently wrong, the same role tstools'
  ts_packet_insert played for constructing test clips with deliberate
  splice points.

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

	"github.com/spf13/cobra"

	"github.com/kynesim/gomts/container/ts"
)

var (
	outPath    string
	insertPath string
	atPacket   int
)

func main() {
	cmd := &cobra.Command{
		Use:   "ts_packet_insert <clip.ts>",
		Short: "Insert a TS packet into a clip and repair the resulting discontinuity",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "out.ts", "output clip")
	cmd.Flags().StringVarP(&insertPath, "packet", "i", "", "188-byte packet file to insert")
	cmd.Flags().IntVarP(&atPacket, "at", "a", 0, "packet index to insert before")
	cmd.MarkFlagRequired("packet")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	clip, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	insert, err := os.ReadFile(insertPath)
	if err != nil {
		return err
	}
	if len(insert) != ts.PacketSize {
		return fmt.Errorf("ts_packet_insert: packet file must be exactly %d bytes, got %d", ts.PacketSize, len(insert))
	}
	if atPacket < 0 || atPacket > len(clip)/ts.PacketSize {
		return fmt.Errorf("ts_packet_insert: index %d out of range for a %d-packet clip", atPacket, len(clip)/ts.PacketSize)
	}

	at := atPacket * ts.PacketSize
	spliced := make([]byte, 0, len(clip)+ts.PacketSize)
	spliced = append(spliced, clip[:at]...)
	spliced = append(spliced, insert...)
	spliced = append(spliced, clip[at:]...)

	pids := make(map[uint16]bool)
	for i := 0; i+ts.PacketSize <= len(spliced); i += ts.PacketSize {
		pkt, err := ts.ParsePacket(spliced[i : i+ts.PacketSize])
		if err != nil {
			continue
		}
		pids[pkt.PID] = true
	}
	tracked := make([]uint16, 0, len(pids))
	for pid := range pids {
		tracked = append(tracked, pid)
	}
	repairer := ts.NewDiscontinuityRepairer(tracked...)
	for i := 0; i+ts.PacketSize <= len(spliced); i += ts.PacketSize {
		if err := repairer.Repair(spliced[i : i+ts.PacketSize]); err != nil {
			return fmt.Errorf("ts_packet_insert: repairing packet %d: %w", i/ts.PacketSize, err)
		}
	}

	return os.WriteFile(outPath, spliced, 0o644)
}

/*
NAME
  std.go

DESCRIPTION
  std.go provides constructors for minimal, single-program/single-stream
  PAT and PMT values, used as sane defaults by the writer and as fixtures
  in tests.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

// Standard program/PID defaults used when nothing more specific is
// configured.
const (
	StdProgramNumber = 0x0001
	StdPMTPID        = 0x1000
)

// NewStandardPAT returns a PAT with a single program entry mapping
// StdProgramNumber to pmtPID.
func NewStandardPAT(transportStreamID uint16, pmtPID uint16) *PAT {
	return &PAT{
		TransportStreamID: transportStreamID,
		CurrentNext:       true,
		Programs: []Program{
			{ProgramNumber: StdProgramNumber, PMTPID: pmtPID},
		},
	}
}

// NewStandardPMT returns a PMT for a single program with pcrPID as its
// PCR PID and no elementary streams declared yet.
func NewStandardPMT(pcrPID uint16) *PMT {
	return &PMT{
		ProgramNumber: StdProgramNumber,
		CurrentNext:   true,
		PCRPID:        pcrPID,
	}
}

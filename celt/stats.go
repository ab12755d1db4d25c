package celt

import "sync/atomic"

// Stats counts engine objects that have been created and not yet destroyed.
type Stats struct {
	Modes    int64
	Encoders int64
	Decoders int64
}

var live struct {
	modes    atomic.Int64
	encoders atomic.Int64
	decoders atomic.Int64
}

// LiveObjects returns the number of live modes and handles in the process.
// A leaked handle shows up here until the process exits.
func LiveObjects() Stats {
	return Stats{
		Modes:    live.modes.Load(),
		Encoders: live.encoders.Load(),
		Decoders: live.decoders.Load(),
	}
}

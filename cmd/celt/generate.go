package main

import (
	"fmt"
	"strings"

	"github.com/thesyncim/gocelt/internal/audiofile"
	"github.com/thesyncim/gocelt/internal/cli"
	"github.com/thesyncim/gocelt/internal/testsignal"
)

// GenerateCmd writes a deterministic test signal.
type GenerateCmd struct {
	Output   string  `arg:"" name:"output" help:"Output WAV file."`
	Signal   string  `help:"Signal kind: multisine, chirp, impulses, speech or silence." default:"speech"`
	Seconds  float64 `help:"Length in seconds." default:"2"`
	Rate     int     `help:"Sample rate in Hz." default:"48000"`
	Channels int     `help:"Channel count." default:"1"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	if c.Seconds <= 0 {
		return fmt.Errorf("invalid length %gs", c.Seconds)
	}
	frames := int(c.Seconds * float64(c.Rate))
	samples, err := testsignal.Generate(c.Signal, c.Rate, frames, c.Channels)
	if err != nil {
		return fmt.Errorf("%w (kinds: %s)", err, strings.Join(testsignal.Kinds(), ", "))
	}
	w, err := audiofile.CreateWAV(c.Output, c.Rate, c.Channels)
	if err != nil {
		return err
	}
	if err := w.Write(samples); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if !g.Quiet {
		cli.PrintSuccess(fmt.Sprintf("Wrote %d frames of %s to %s", frames, c.Signal, c.Output))
	}
	return nil
}

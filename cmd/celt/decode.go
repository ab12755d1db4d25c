package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/container/ogg"
	"github.com/thesyncim/gocelt/internal/audiofile"
	"github.com/thesyncim/gocelt/internal/cli"
	log "github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/ui"
)

// DecodeCmd decodes an Ogg CELT file to WAV.
type DecodeCmd struct {
	Input  string `arg:"" name:"input" help:"Input Ogg CELT file." type:"existingfile"`
	Output string `arg:"" name:"output" help:"Output WAV file."`
}

// openStream opens an Ogg CELT file and a decoder matching its header.
func openStream(path string) (*os.File, *ogg.Reader, *gocelt.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := ogg.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	dec, err := gocelt.NewDecoder(gocelt.Config{
		SampleRate:   r.SampleRate(),
		FrameSize:    r.FrameSize(),
		Channels:     r.Channels(),
		ResourceMode: gocelt.Manual,
	})
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	return f, r, dec, nil
}

// streamLength returns the samples per channel the stream encodes, or -1
// when it has no end page.
func streamLength(r *ogg.Reader) int64 {
	end, ok := r.EndGranulePos()
	if !ok {
		return -1
	}
	return max(0, int64(end)-int64(r.Delay()))
}

func (c *DecodeCmd) Run(g *Globals) error {
	f, r, dec, err := openStream(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()
	defer func() {
		if err := dec.Release(); err != nil {
			log.Warn("Decoder release failed", "err", err)
		}
	}()

	out, err := audiofile.CreateWAV(c.Output, r.SampleRate(), r.Channels())
	if err != nil {
		return err
	}

	start := time.Now()
	var st jobStats
	trim := newDelayTrimmer(out, r.Channels(), r.Delay())
	err = runJob(g, "Decoding "+c.Input, func(report func(ui.Progress)) error {
		for {
			packet, _, err := r.ReadPacket()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if len(packet) == 0 {
				packet = nil
				st.lost++
			}
			pcm, err := dec.DecodeFloat32(packet)
			if err != nil {
				return err
			}
			if err := trim.Write(pcm); err != nil {
				return err
			}
			st.frames++
			st.bytes += int64(len(packet))
			if st.frames%32 == 0 {
				report(st.progress(0))
			}
		}
		report(st.progress(st.frames))
		return trim.Finish(streamLength(r))
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if !g.Quiet {
		audio := time.Duration(out.Frames()) * time.Second / time.Duration(r.SampleRate())
		cli.PrintSummary("Decoded "+c.Output, []cli.Field{
			{Key: "Frames", Value: fmt.Sprint(st.frames)},
			{Key: "Lost", Value: fmt.Sprint(st.lost)},
			{Key: "Duration", Value: cli.FormatDuration(audio)},
			{Key: "Speed", Value: cli.FormatSpeed(audio, time.Since(start))},
		})
	}
	return nil
}

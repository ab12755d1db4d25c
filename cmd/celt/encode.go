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

// EncodeCmd encodes an audio file to Ogg CELT.
type EncodeCmd struct {
	Input          string `arg:"" name:"input" help:"Input WAV, FLAC or MP3 file." type:"existingfile"`
	Output         string `arg:"" name:"output" help:"Output Ogg CELT file."`
	Frame          int    `help:"Samples per channel in each frame." default:"256"`
	Bytes          int    `help:"Target packet size in bytes." default:"960"`
	Channels       int    `help:"Output channels, 1 or 2; 0 keeps the input layout." default:"0"`
	Title          string `help:"TITLE comment to store in the stream."`
	PacketsPerPage int    `help:"Packets grouped on each Ogg page." default:"1"`
}

// outputChannels picks the session channel count for an input layout.
func outputChannels(requested, input int) (int, error) {
	switch {
	case requested == 1 || requested == 2:
		return requested, nil
	case requested != 0:
		return 0, fmt.Errorf("invalid channels value: %d (must be 0, 1 or 2)", requested)
	case input > 2:
		return 0, fmt.Errorf("input has %d channels; pass --channels 1 or 2 to downmix", input)
	}
	return input, nil
}

type jobStats struct {
	frames int64
	bytes  int64
	lost   int64
}

func (s *jobStats) progress(total int64) ui.Progress {
	return ui.Progress{Frames: s.frames, Total: total, Bytes: s.bytes, Lost: s.lost}
}

func (c *EncodeCmd) Run(g *Globals) error {
	in, err := audiofile.Open(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	channels, err := outputChannels(c.Channels, in.Channels())
	if err != nil {
		return err
	}
	cfg := gocelt.Config{
		SampleRate:   in.SampleRate(),
		FrameSize:    c.Frame,
		Channels:     channels,
		ResourceMode: gocelt.Manual,
	}
	enc, err := gocelt.NewEncoder(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := enc.Release(); err != nil {
			log.Warn("Encoder release failed", "err", err)
		}
	}()

	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	src := newFrameSource(in, channels, c.Frame)
	total := src.totalFrames()
	var st jobStats
	log.Debug("Encoding", "input", c.Input, "rate", cfg.SampleRate, "channels", channels, "frame", c.Frame, "bytes", c.Bytes)

	err = runJob(g, "Encoding "+c.Input, func(report func(ui.Progress)) error {
		bw := bufio.NewWriter(f)
		comments := &ogg.Comments{Vendor: ogg.Vendor}
		comments.Add("ENCODER", "gocelt "+version)
		if c.Title != "" {
			comments.Add("TITLE", c.Title)
		}
		w, err := ogg.NewWriterWithConfig(bw, ogg.WriterConfig{
			SampleRate:     cfg.SampleRate,
			Channels:       channels,
			FrameSize:      c.Frame,
			Delay:          enc.Lookahead(),
			Comments:       comments,
			PacketsPerPage: c.PacketsPerPage,
		})
		if err != nil {
			return err
		}
		for {
			frame, err := src.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			packet, err := enc.EncodeFloat32(frame, c.Bytes)
			if err != nil {
				return err
			}
			if err := w.WritePacket(packet); err != nil {
				return err
			}
			st.frames++
			st.bytes += int64(len(packet))
			if st.frames%32 == 0 {
				report(st.progress(total))
			}
		}
		report(st.progress(total))
		// The final granule marks where the input ended inside the padded
		// last frames.
		if err := w.CloseAt(uint64(src.inputFrames() + int64(enc.Lookahead()))); err != nil {
			return err
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}

	if !g.Quiet {
		audio := time.Duration(src.inputFrames()) * time.Second / time.Duration(cfg.SampleRate)
		cli.PrintSummary("Encoded "+c.Output, []cli.Field{
			{Key: "Frames", Value: fmt.Sprint(st.frames)},
			{Key: "Duration", Value: cli.FormatDuration(audio)},
			{Key: "Packets", Value: cli.FormatBytes(st.bytes)},
			{Key: "Bitrate", Value: cli.FormatBitrate(st.bytes, audio)},
			{Key: "Speed", Value: cli.FormatSpeed(audio, time.Since(start))},
		})
	}
	return nil
}

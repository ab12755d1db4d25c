package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/internal/audiofile"
	"github.com/thesyncim/gocelt/internal/cli"
	log "github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/ui"
)

// RoundtripCmd pipes an audio file through an encode stream and a decode
// stream running concurrently, dropping packets on the way if asked.
type RoundtripCmd struct {
	Input    string  `arg:"" name:"input" help:"Input WAV, FLAC or MP3 file." type:"existingfile"`
	Output   string  `arg:"" name:"output" help:"Output WAV file."`
	Frame    int     `help:"Samples per channel in each frame." default:"256"`
	Bytes    int     `help:"Target packet size in bytes." default:"960"`
	Channels int     `help:"Output channels, 1 or 2; 0 keeps the input layout." default:"0"`
	Loss     float64 `help:"Percentage of packets to drop." default:"0"`
	Seed     uint64  `help:"Seed for the packet loss pattern." default:"1"`
}

type roundtripStats struct {
	frames, bytes, lost atomic.Int64
}

func (s *roundtripStats) progress(total int64) ui.Progress {
	return ui.Progress{Frames: s.frames.Load(), Total: total, Bytes: s.bytes.Load(), Lost: s.lost.Load()}
}

// lossySink forwards packets to the decode stage, replacing dropped ones
// with empty chunks.
type lossySink struct {
	ctx   context.Context
	out   chan<- []byte
	drop  func() bool
	stats *roundtripStats
}

func (s *lossySink) WriteChunk(packet []byte) error {
	s.stats.bytes.Add(int64(len(packet)))
	if s.drop() {
		s.stats.lost.Add(1)
		packet = []byte{}
	}
	select {
	case s.out <- packet:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// wavSink writes decoded float32 chunks to a WAV file through a delay
// trimmer.
type wavSink struct {
	w      *delayTrimmer
	stats  *roundtripStats
	report func()
}

func (s *wavSink) WriteChunk(chunk []byte) error {
	if err := s.w.Write(float32sFromLE(chunk)); err != nil {
		return err
	}
	if s.stats.frames.Add(1)%32 == 0 {
		s.report()
	}
	return nil
}

func (c *RoundtripCmd) Run(g *Globals) error {
	if c.Loss < 0 || c.Loss > 100 {
		return fmt.Errorf("invalid loss %g: must be in [0, 100]", c.Loss)
	}
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
	pool := gocelt.NewModePool(nil)
	enc, err := gocelt.NewEncoder(cfg, gocelt.WithModePool(pool))
	if err != nil {
		return err
	}
	defer release("encoder", enc.Release)
	dec, err := gocelt.NewDecoder(cfg, gocelt.WithModePool(pool))
	if err != nil {
		return err
	}
	defer release("decoder", dec.Release)

	es, err := gocelt.NewEncodeStream(enc, gocelt.FormatFloat32LE, c.Bytes)
	if err != nil {
		return err
	}
	ds, err := gocelt.NewDecodeStream(dec, gocelt.FormatFloat32LE)
	if err != nil {
		return err
	}

	out, err := audiofile.CreateWAV(c.Output, cfg.SampleRate, channels)
	if err != nil {
		return err
	}

	src := newFrameSource(in, channels, c.Frame)
	total := src.totalFrames()
	trim := newDelayTrimmer(out, channels, dec.Lookahead())
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed))
	var st roundtripStats
	start := time.Now()

	err = runJob(g, "Round trip "+c.Input, func(report func(ui.Progress)) error {
		group, ctx := errgroup.WithContext(context.Background())
		packets := make(chan []byte, 16)

		group.Go(func() error {
			defer close(packets)
			sink := &lossySink{
				ctx:   ctx,
				out:   packets,
				drop:  func() bool { return rng.Float64()*100 < c.Loss },
				stats: &st,
			}
			return es.Run(ctx, src, sink)
		})
		group.Go(func() error {
			sink := &wavSink{w: trim, stats: &st, report: func() { report(st.progress(total)) }}
			return ds.Run(ctx, gocelt.ChanSource(packets), sink)
		})
		err := group.Wait()
		report(st.progress(total))
		if err != nil {
			return err
		}
		return trim.Finish(src.inputFrames())
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if !g.Quiet {
		frames := st.frames.Load()
		audio := time.Duration(src.inputFrames()) * time.Second / time.Duration(cfg.SampleRate)
		cli.PrintSummary("Round trip "+c.Output, []cli.Field{
			{Key: "Frames", Value: fmt.Sprint(frames)},
			{Key: "Lost", Value: fmt.Sprint(st.lost.Load())},
			{Key: "Bitrate", Value: cli.FormatBitrate(st.bytes.Load(), audio)},
			{Key: "Speed", Value: cli.FormatSpeed(audio, time.Since(start))},
		})
	}
	return nil
}

func release(what string, f func() error) {
	if err := f(); err != nil {
		log.Warn("Release failed", "session", what, "err", err)
	}
}

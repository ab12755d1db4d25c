package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/thesyncim/gocelt/internal/cli"
	log "github.com/thesyncim/gocelt/internal/logger"
)

// InfoCmd prints the stream headers and packet statistics.
type InfoCmd struct {
	Input string `arg:"" name:"input" help:"Ogg CELT file." type:"existingfile"`
}

// StreamInfo summarizes an Ogg CELT file.
type StreamInfo struct {
	Version    string
	SampleRate int
	Channels   int
	FrameSize  int
	Vendor     string
	Comments   []string
	Packets    int64
	Lost       int64
	Bytes      int64
	MinPacket  int
	MaxPacket  int
	Samples    int64 // per channel, delay and padding removed
	Duration   time.Duration
}

func inspect(path string) (*StreamInfo, error) {
	f, r, dec, err := openStream(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer release("decoder", dec.Release)

	info := &StreamInfo{
		Version:    r.Header.Version,
		SampleRate: r.SampleRate(),
		Channels:   r.Channels(),
		FrameSize:  r.FrameSize(),
		Vendor:     r.Comments.Vendor,
		Comments:   r.Comments.Comments,
	}
	for {
		packet, _, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		info.Packets++
		if len(packet) == 0 {
			info.Lost++
			continue
		}
		info.Bytes += int64(len(packet))
		if info.MinPacket == 0 || len(packet) < info.MinPacket {
			info.MinPacket = len(packet)
		}
		info.MaxPacket = max(info.MaxPacket, len(packet))
	}
	samples := streamLength(r)
	if samples < 0 {
		samples = max(0, info.Packets*int64(info.FrameSize)-int64(r.Delay()))
	}
	info.Samples = samples
	info.Duration = time.Duration(samples) * time.Second / time.Duration(info.SampleRate)
	log.Debug("Inspected stream", "path", path, "packets", info.Packets, "granule", r.GranulePos())
	return info, nil
}

func (c *InfoCmd) Run(g *Globals) error {
	info, err := inspect(c.Input)
	if err != nil {
		return err
	}
	fields := []cli.Field{
		{Key: "Encoder version", Value: info.Version},
		{Key: "Sample rate", Value: fmt.Sprintf("%d Hz", info.SampleRate)},
		{Key: "Channels", Value: fmt.Sprint(info.Channels)},
		{Key: "Frame size", Value: fmt.Sprint(info.FrameSize)},
		{Key: "Vendor", Value: info.Vendor},
		{Key: "Packets", Value: fmt.Sprintf("%d (%d lost)", info.Packets, info.Lost)},
		{Key: "Packet size", Value: fmt.Sprintf("%d-%d bytes", info.MinPacket, info.MaxPacket)},
		{Key: "Duration", Value: cli.FormatDuration(info.Duration)},
		{Key: "Bitrate", Value: cli.FormatBitrate(info.Bytes, info.Duration)},
	}
	for _, kv := range info.Comments {
		fields = append(fields, cli.Field{Key: "Comment", Value: kv})
	}
	cli.PrintSummary(c.Input, fields)
	return nil
}

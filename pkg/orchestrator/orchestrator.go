// Package orchestrator drives the decode pipeline from source to sink.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/user/framegrab/pkg/convert"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/pipeline"
	"github.com/user/framegrab/pkg/ports"
)

// SourceOpener opens a packet source for a path.
type SourceOpener func(path string) (ports.PacketSource, error)

// DecoderOpener opens a decoder for the selected stream.
type DecoderOpener func(desc media.StreamDescriptor) (ports.FrameDecoder, error)

// Config wires the collaborators of a pipeline run.
type Config struct {
	OpenSource  SourceOpener
	OpenDecoder DecoderOpener
	Sink        ports.FrameSink

	// Policy ends the run early. Nil runs to the end of the stream.
	Policy pipeline.Policy

	// TargetSize is the size frames are converted to. Zero keeps the
	// stream size.
	TargetSize media.Size
}

// Orchestrator runs one pipeline at a time.
type Orchestrator struct {
	config Config
	logger ports.Logger
	state  atomic.Int32
}

// New creates a new Orchestrator.
func New(config Config, logger ports.Logger) *Orchestrator {
	if config.Policy == nil {
		config.Policy = pipeline.Never
	}
	return &Orchestrator{
		config: config,
		logger: logger,
	}
}

// State returns the current driver state.
func (o *Orchestrator) State() pipeline.State {
	return pipeline.State(o.state.Load())
}

func (o *Orchestrator) setState(s pipeline.State) {
	o.state.Store(int32(s))
	o.logger.Debug("Pipeline state: %s", s)
}

// run holds the resources acquired by one Run call.
type run struct {
	source    ports.PacketSource
	decoder   ports.FrameDecoder
	converter *convert.Converter
	sinkInUse bool
	stream    media.StreamDescriptor
	result    pipeline.Result
	stopped   bool
}

// Run decodes the video stream at path and dispatches every frame to the
// sink until the stream ends, the policy stops it or ctx is cancelled.
// Cancellation is a graceful stop. Resources are released in reverse order
// of acquisition before Run returns, the sink last.
func (o *Orchestrator) Run(ctx context.Context, path string) (result pipeline.Result, err error) {
	o.setState(pipeline.StateInit)
	r := &run{}
	defer func() {
		if cerr := o.teardown(r); err == nil {
			err = cerr
		}
		r.result.Stopped = r.stopped
		result = r.result
		o.setState(pipeline.StateDone)
	}()

	if err := o.init(r, path); err != nil {
		o.logger.Error("Failed to start pipeline: %s", err)
		return r.result, err
	}

	o.setState(pipeline.StateRunning)
	eos, err := o.loop(ctx, r)
	if err != nil {
		o.logger.Error("Pipeline aborted: %s", err)
		return r.result, err
	}

	o.setState(pipeline.StateDraining)
	if eos {
		if err := o.drain(r); err != nil {
			o.logger.Error("Pipeline aborted: %s", err)
			return r.result, err
		}
	}

	o.logger.Info("Pipeline finished: %d frames from %d packets", r.result.Frames, r.result.Packets)
	return r.result, nil
}

func (o *Orchestrator) init(r *run, path string) error {
	src, err := o.config.OpenSource(path)
	if err != nil {
		if !errors.Is(err, media.ErrOpen) {
			err = fmt.Errorf("%w: %s: %v", media.ErrOpen, path, err)
		}
		return err
	}
	r.source = src

	desc, err := src.SelectVideoStream()
	if err != nil {
		return err
	}
	r.stream = desc
	r.result.Stream = desc
	o.logger.Info("Input %s: stream #%d, %s, %s, %dx%d",
		path, desc.Index, desc.Codec, desc.Format, desc.Width, desc.Height)

	dec, err := o.config.OpenDecoder(desc)
	if err != nil {
		return err
	}
	r.decoder = dec

	target := o.config.TargetSize
	if target.IsZero() {
		target = desc.Size()
	}

	r.sinkInUse = true
	format, err := o.config.Sink.Configure(target)
	if err != nil {
		return err
	}

	conv, err := convert.New(desc.Format, desc.Size(), format, target)
	if err != nil {
		return err
	}
	r.converter = conv
	r.result.Target = target
	r.result.TargetFormat = format
	return nil
}

// loop reads packets until the end of the stream or a stop. It reports
// whether the end of the stream was reached.
func (o *Orchestrator) loop(ctx context.Context, r *run) (bool, error) {
	for {
		if ctx.Err() != nil {
			o.logger.Info("Interrupted, shutting down...")
			r.stopped = true
			return false, nil
		}
		if o.config.Policy.Done(r.result.Frames) {
			r.stopped = true
			return false, nil
		}

		pkt, err := r.source.NextPacket()
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		r.result.Packets++

		if err := o.process(r, pkt); err != nil {
			return false, err
		}
		if r.stopped {
			return false, nil
		}
	}
}

// process feeds one packet to the decoder and dispatches the frames it
// completes. The packet is released before returning.
func (o *Orchestrator) process(r *run, pkt *media.Packet) error {
	defer pkt.Release()

	if pkt.StreamIndex != r.stream.Index {
		r.result.Foreign++
		return nil
	}

	if err := r.decoder.SendPacket(pkt); err != nil {
		if errors.Is(err, media.ErrDecode) {
			r.result.Skipped++
			o.logger.Debug("Skipping packet %d: %s", r.result.Packets, err)
			return nil
		}
		return err
	}
	return o.dispatchAll(r)
}

func (o *Orchestrator) drain(r *run) error {
	if err := r.decoder.Flush(); err != nil {
		return err
	}
	return o.dispatchAll(r)
}

func (o *Orchestrator) dispatchAll(r *run) error {
	for frame, err := range pipeline.Frames(r.decoder) {
		if err != nil {
			if errors.Is(err, media.ErrDecode) {
				r.result.Skipped++
				o.logger.Debug("Skipping undecodable frame: %s", err)
				continue
			}
			return err
		}
		if err := o.dispatch(r, frame); err != nil {
			return err
		}
		if o.config.Policy.Done(r.result.Frames) {
			r.stopped = true
			return nil
		}
	}
	return nil
}

func (o *Orchestrator) dispatch(r *run, frame *media.Frame) error {
	out, err := r.converter.Convert(frame)
	if err != nil {
		return err
	}
	index := r.result.Frames + 1
	if err := o.config.Sink.Write(out, index); err != nil {
		return err
	}
	r.result.Frames = index
	return nil
}

// teardown releases converter, decoder and source in that order, then
// the sink if it was configured. The first error is returned.
func (o *Orchestrator) teardown(r *run) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if r.converter != nil {
		r.converter.Close()
		r.converter = nil
	}
	if r.decoder != nil {
		keep(r.decoder.Close())
		r.decoder = nil
	}
	if r.source != nil {
		keep(r.source.Close())
		r.source = nil
	}
	if r.sinkInUse {
		keep(o.config.Sink.Close())
		r.sinkInUse = false
	}
	return first
}

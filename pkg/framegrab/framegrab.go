// Package framegrab provides a high-level API for decoding the video stream
// of a file into frame images or onto a display.
package framegrab

import (
	"context"
	"time"

	"github.com/user/framegrab/pkg/adapters/displaysink"
	"github.com/user/framegrab/pkg/adapters/filesink"
	"github.com/user/framegrab/pkg/adapters/smartdecoder"
	"github.com/user/framegrab/pkg/config"
	"github.com/user/framegrab/pkg/orchestrator"
	"github.com/user/framegrab/pkg/pipeline"
	"github.com/user/framegrab/pkg/ports"
	"github.com/user/framegrab/pkg/summarizer"
)

// Runner runs pipelines configured by a Config.
type Runner struct {
	cfg    config.Config
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Runner. cfg is expected to be validated.
func New(cfg config.Config, fs ports.FileSystem, logger ports.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		fs:     fs,
		logger: logger,
	}
}

// Grab saves the first MaxFrames frames of path as PPM files.
func (r *Runner) Grab(ctx context.Context, path string) (pipeline.Result, error) {
	sink := filesink.New(r.cfg.OutputDir, r.cfg.FilePattern, r.fs, r.logger)
	return r.run(ctx, path, sink, r.cfg.FrameCap(), "file", sink.Written)
}

// Play shows every frame of path through presenter until the stream ends
// or the window is closed. A non-zero MaxFrames also ends the run.
func (r *Runner) Play(ctx context.Context, path string, presenter ports.Presenter) (pipeline.Result, error) {
	sink := displaysink.New(presenter, r.cfg.WindowTitle, r.logger.WithComponent("display"))
	policy := pipeline.Either(pipeline.QuitSignal{Source: sink}, r.cfg.FrameCap())
	return r.run(ctx, path, sink, policy, "display", nil)
}

func (r *Runner) run(ctx context.Context, path string, sink ports.FrameSink, policy pipeline.Policy, sinkName string, files func() []string) (pipeline.Result, error) {
	selector, err := smartdecoder.New(smartdecoder.Options{
		Backend:    r.cfg.DecoderBackend(),
		FFmpegPath: r.cfg.FFmpegPath,
	}, r.logger.WithComponent("decoder"))
	if err != nil {
		return pipeline.Result{}, err
	}

	orch := orchestrator.New(orchestrator.Config{
		OpenSource:  selector.OpenSource,
		OpenDecoder: selector.NewDecoder,
		Sink:        sink,
		Policy:      policy,
		TargetSize:  r.cfg.TargetSize(),
	}, r.logger)

	start := time.Now()
	result, err := orch.Run(ctx, path)
	if err != nil {
		return result, err
	}

	if r.cfg.Summary != "" {
		var written []string
		if files != nil {
			written = files()
		}
		info := selector.Info()
		summary := summarizer.NewBuilder().
			WithInput(path, string(info.Backend), info.Decoder).
			WithResult(result).
			WithSink(sinkName, written).
			WithDuration(time.Since(start)).
			Build()

		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), r.fs)
		if err := writer.Write(r.cfg.Summary, summary); err != nil {
			r.logger.Warn("Failed to write summary: %s", err)
		} else {
			r.logger.Info("Summary written to %s", r.cfg.Summary)
		}
	}

	return result, nil
}

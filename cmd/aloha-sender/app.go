package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"alohanet/pkg/chunk"
	"alohanet/pkg/config"
	"alohanet/pkg/netstack"
	"alohanet/pkg/observability"
	"alohanet/pkg/protocol"
	"alohanet/pkg/report"
	"alohanet/pkg/sender"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		return 1
	}
	if cfg.Sender.File == "" {
		_, _ = os.Stderr.WriteString("no file to send: set -file or sender.file\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("aloha-sender started",
		zap.String("app", cfg.AppName),
		zap.String("file", cfg.Sender.File),
		zap.String("channel", cfg.Sender.ChannelAddr),
		zap.Int("frame_size", cfg.Sender.FrameSize))

	station, err := protocol.LocalStationID()
	if err != nil {
		zap.L().Error("failed to derive station id", zap.Error(err))
		return 1
	}

	// Chunk before dialing: a bad file or frame size must fail before any
	// connection attempt.
	frames, fileBytes, err := chunk.FromFile(cfg.Sender.File, cfg.Sender.FrameSize, station)
	if err != nil {
		zap.L().Error("failed to chunk file", zap.Error(err))
		return 1
	}
	zap.L().Info("file chunked",
		zap.Int64("bytes", fileBytes),
		zap.Int("frames", len(frames)),
		zap.String("station", station.String()))

	tr, err := netstack.NewByKind(cfg.Transport.Kind)
	if err != nil {
		zap.L().Error("failed to build transport", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := netstack.Dial(ctx, tr, cfg.Sender.ChannelAddr, netstack.Options{
		BackoffInitial: time.Duration(cfg.Net.DialBackoffInitialMS) * time.Millisecond,
		BackoffMax:     time.Duration(cfg.Net.DialBackoffMaxMS) * time.Millisecond,
		BackoffJitter:  time.Duration(cfg.Net.DialBackoffJitterMS) * time.Millisecond,
	})
	if err != nil {
		zap.L().Error("failed to reach channel", zap.Error(err))
		return 1
	}
	defer sess.Close()

	st, err := sess.Stream(ctx)
	if err != nil {
		zap.L().Error("failed to open stream", zap.Error(err))
		return 1
	}

	tx, err := sender.New(st, sender.Options{
		Station:     station,
		Slot:        time.Duration(cfg.Sender.SlotTimeMS) * time.Millisecond,
		Timeout:     time.Duration(cfg.Sender.TimeoutS) * time.Second,
		MaxAttempts: cfg.Sender.MaxAttempts,
		Rand:        rand.New(rand.NewSource(cfg.Sender.Seed)),
	}, zap.L())
	if err != nil {
		zap.L().Error("failed to build transmitter", zap.Error(err))
		return 1
	}

	res := tx.Send(ctx, frames)
	res.File = cfg.Sender.File
	res.FileBytes = fileBytes

	report.RenderTransfer(os.Stderr, res)
	if err := report.Dump(cfg.Report.Output, cfg.Report.Format, res); err != nil {
		zap.L().Warn("failed to write report dump", zap.Error(err))
	}
	if !res.Success {
		return 1
	}
	return 0
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.ChannelAddr != "" {
		cfg.Sender.ChannelAddr = opts.ChannelAddr
	}
	if opts.File != "" {
		cfg.Sender.File = opts.File
	}
	if opts.FrameSize > 0 {
		cfg.Sender.FrameSize = opts.FrameSize
	}
	if opts.SlotTimeMS > 0 {
		cfg.Sender.SlotTimeMS = opts.SlotTimeMS
	}
	if opts.TimeoutS > 0 {
		cfg.Sender.TimeoutS = opts.TimeoutS
	}
	if opts.Seed != 0 {
		cfg.Sender.Seed = opts.Seed
	}
	if opts.MaxAttempts > 0 {
		cfg.Sender.MaxAttempts = opts.MaxAttempts
	}
}

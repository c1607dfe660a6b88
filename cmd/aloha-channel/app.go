package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"alohanet/pkg/channel"
	"alohanet/pkg/config"
	"alohanet/pkg/netstack"
	"alohanet/pkg/observability"
	"alohanet/pkg/report"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	if opts.Listen != "" {
		cfg.Channel.Listen = opts.Listen
	}
	if opts.SlotTimeMS > 0 {
		cfg.Channel.SlotTimeMS = opts.SlotTimeMS
	}
	if err := cfg.Validate(); err != nil {
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("aloha-channel started",
		zap.String("app", cfg.AppName),
		zap.String("listen", cfg.Channel.Listen),
		zap.Int("slot_ms", cfg.Channel.SlotTimeMS),
		zap.String("transport", cfg.Transport.Kind))

	tr, err := netstack.NewByKind(cfg.Transport.Kind)
	if err != nil {
		zap.L().Error("failed to build transport", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis, err := tr.Listen(ctx, cfg.Channel.Listen)
	if err != nil {
		zap.L().Error("failed to listen", zap.String("addr", cfg.Channel.Listen), zap.Error(err))
		return 1
	}

	// EOF on stdin ends arbitration, as the administrative stop signal.
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				zap.L().Info("stdin closed, shutting down")
				cancel()
				return
			}
		}
	}()

	slot := time.Duration(cfg.Channel.SlotTimeMS) * time.Millisecond
	eng := channel.New(lis, slot, zap.L())
	zap.L().Info("arbitrating", zap.String("addr", eng.Addr()))
	stats := eng.Run(ctx)

	report.RenderPeers(os.Stderr, stats)
	if err := report.Dump(cfg.Report.Output, cfg.Report.Format, stats); err != nil {
		zap.L().Warn("failed to write report dump", zap.Error(err))
	}
	return 0
}

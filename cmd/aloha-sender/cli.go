package main

import "flag"

// Options holds CLI options for the sender.
type Options struct {
	ConfigPath  string
	ChannelAddr string
	File        string
	FrameSize   int
	SlotTimeMS  int
	TimeoutS    int
	Seed        int64
	MaxAttempts int
}

// ParseFlags parses CLI flags from args and returns Options. Flag values
// override the config file.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("aloha-sender", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.ChannelAddr, "addr", "", "Channel address (overrides sender.channel_addr)")
	fs.StringVar(&opts.File, "file", "", "File to transmit (overrides sender.file)")
	fs.IntVar(&opts.FrameSize, "frame-size", 0, "Payload bytes per frame (overrides sender.frame_size)")
	fs.IntVar(&opts.SlotTimeMS, "slot", 0, "Slot time in milliseconds (overrides sender.slot_time_ms)")
	fs.IntVar(&opts.TimeoutS, "timeout", 0, "Per-attempt ack timeout in seconds (overrides sender.timeout_s)")
	fs.Int64Var(&opts.Seed, "seed", 0, "Backoff RNG seed (overrides sender.seed)")
	fs.IntVar(&opts.MaxAttempts, "max-attempts", 0, "Attempts per frame (overrides sender.max_attempts)")
	_ = fs.Parse(args)
	return opts
}

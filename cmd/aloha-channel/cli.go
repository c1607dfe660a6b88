package main

import "flag"

// Options holds CLI options for the channel.
type Options struct {
	ConfigPath string
	Listen     string
	SlotTimeMS int
}

// ParseFlags parses CLI flags from args and returns Options. Flag values
// override the config file.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("aloha-channel", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.Listen, "listen", "", "Listen address (overrides channel.listen)")
	fs.IntVar(&opts.SlotTimeMS, "slot", 0, "Slot time in milliseconds (overrides channel.slot_time_ms)")
	_ = fs.Parse(args)
	return opts
}

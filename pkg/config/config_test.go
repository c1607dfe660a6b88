package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"alohanet/pkg/protocol"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "tcp", cfg.Transport.Kind)
	require.Equal(t, 10, cfg.Sender.MaxAttempts)
}

func TestValidateRejectsOversizedFrame(t *testing.T) {
	cfg := Default()
	cfg.Sender.FrameSize = protocol.MaxPayloadSize + 1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Log.Level = "chatty" },
		func(c *Config) { c.Transport.Kind = "carrier-pigeon" },
		func(c *Config) { c.Channel.SlotTimeMS = 0 },
		func(c *Config) { c.Sender.TimeoutS = -1 },
		func(c *Config) { c.Sender.MaxAttempts = 0 },
		func(c *Config) { c.Sender.FrameSize = 0 },
		func(c *Config) { c.Report.Format = "xml" },
	} {
		cfg := Default()
		mutate(cfg)
		require.Error(t, cfg.Validate())
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("ALOHANET_CONFIG", "")
	t.Setenv("ALOHANET_SENDER_MAX_ATTEMPTS", "4")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Sender.MaxAttempts)
	require.Equal(t, Default().Channel.Listen, cfg.Channel.Listen)
}

package server

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "index", cfg.Root)
	require.Equal(t, 500*datasize.MB, cfg.RegionCapacity)
	require.Equal(t, 600, cfg.RequestBufferSize)
	require.Zero(t, cfg.FixedAddress, "the OS should choose the region address by default")
	require.Zero(t, cfg.ReadTimeout)
	require.Zero(t, cfg.WriteTimeout)
	require.False(t, cfg.EnableLogging, "EnableLogging should be false by default (performance)")
	require.Equal(t, ResetPerRequest, cfg.ResetPolicy())
	require.NoError(t, cfg.Validate())
}

func TestConfigFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{
		"-listen.addr=127.0.0.1:9090",
		"-root=public",
		"-region.capacity=64KB",
		"-region.reset-every=10",
		"-read-timeout=5s",
		"-log.requests",
	})
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9090", cfg.ListenAddr)
	require.Equal(t, "public", cfg.Root)
	require.Equal(t, 64*datasize.KB, cfg.RegionCapacity)
	require.Equal(t, "every-10", cfg.ResetPolicy().String())
	require.Equal(t, 5*time.Second, cfg.ReadTimeout)
	require.True(t, cfg.EnableLogging)
	require.NoError(t, cfg.Validate())
}

func TestConfigLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weasel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: site
region_capacity: 2MB
region_reset_every: 0
log_level: debug
`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	require.Equal(t, "site", cfg.Root)
	require.Equal(t, 2*datasize.MB, cfg.RegionCapacity)
	require.Equal(t, ResetNever, cfg.ResetPolicy())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, ":8080", cfg.ListenAddr, "unset keys keep their defaults")

	require.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty root":          func(c *Config) { c.Root = "" },
		"zero capacity":       func(c *Config) { c.RegionCapacity = 0 },
		"negative reset":      func(c *Config) { c.ResetEvery = -1 },
		"zero request buffer": func(c *Config) { c.RequestBufferSize = 0 },
		"bad log level":       func(c *Config) { c.LogLevel = "loud" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestResetPolicy(t *testing.T) {
	require.True(t, ResetPerRequest.Before(0))
	require.True(t, ResetPerRequest.Before(5))
	require.False(t, ResetNever.Before(0))
	require.False(t, ResetNever.Before(1_000_000))

	p := ResetEveryN(4)
	require.False(t, p.Before(0))
	require.False(t, p.Before(3))
	require.True(t, p.Before(4))

	require.Equal(t, ResetPerRequest, ResetEveryN(1))
	require.Equal(t, ResetPerRequest, ResetEveryN(0))
}

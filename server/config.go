package server

import (
	"flag"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr        string            `yaml:"listen_addr"`
	Root              string            `yaml:"root"`
	RegionCapacity    datasize.ByteSize `yaml:"region_capacity"`
	FixedAddress      uint64            `yaml:"region_fixed_address"`
	ResetEvery        int               `yaml:"region_reset_every"`
	RequestBufferSize int               `yaml:"request_buffer_size"`
	ReadTimeout       time.Duration     `yaml:"read_timeout"`
	WriteTimeout      time.Duration     `yaml:"write_timeout"`
	LogLevel          string            `yaml:"log_level"`
	EnableLogging     bool              `yaml:"log_requests"`
	MetricsAddr       string            `yaml:"metrics_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":8080",
		Root:              "index",
		RegionCapacity:    500 * datasize.MB,
		ResetEvery:        1,
		RequestBufferSize: 600,
		LogLevel:          "info",
		EnableLogging:     false,
	}
}

// RegisterFlags registers the config flags, using the current values as
// defaults.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.ListenAddr, "listen.addr", c.ListenAddr, "Address to accept connections on.")
	f.StringVar(&c.Root, "root", c.Root, "Directory files are served from.")
	f.TextVar(&c.RegionCapacity, "region.capacity", c.RegionCapacity, "Bytes reserved for request buffers. Bounds the largest servable file.")
	f.Uint64Var(&c.FixedAddress, "region.fixed-address", c.FixedAddress, "Map the region at this virtual address. 0 lets the OS choose.")
	f.IntVar(&c.ResetEvery, "region.reset-every", c.ResetEvery, "Reclaim the region every N requests. 1 reclaims before each request, 0 never reclaims.")
	f.IntVar(&c.RequestBufferSize, "request.buffer-size", c.RequestBufferSize, "Maximum bytes read from a connection.")
	f.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Deadline for reading a request. 0 disables.")
	f.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "Deadline for writing a response. 0 disables.")
	f.StringVar(&c.LogLevel, "log.level", c.LogLevel, "Only log messages with the given severity or above. One of: debug, info, warn, error.")
	f.BoolVar(&c.EnableLogging, "log.requests", c.EnableLogging, "Log every request.")
	f.StringVar(&c.MetricsAddr, "metrics.addr", c.MetricsAddr, "Address to expose Prometheus metrics on. Empty disables.")
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if c.RegionCapacity == 0 {
		return errors.New("region capacity must be positive")
	}
	if uint64(c.RegionCapacity) > uint64(maxInt) {
		return errors.Errorf("region capacity %s does not fit in memory", c.RegionCapacity.HR())
	}
	if c.ResetEvery < 0 {
		return errors.Errorf("invalid reset interval %d", c.ResetEvery)
	}
	if c.RequestBufferSize <= 0 {
		return errors.New("request buffer size must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ResetPolicy maps ResetEvery to a policy.
func (c *Config) ResetPolicy() ResetPolicy {
	switch c.ResetEvery {
	case 0:
		return ResetNever
	case 1:
		return ResetPerRequest
	default:
		return ResetEveryN(c.ResetEvery)
	}
}

const maxInt = int(^uint(0) >> 1)

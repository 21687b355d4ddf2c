package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codetesla51/weasel/region"
	"github.com/codetesla51/weasel/server"
)

func main() {
	code := 0
	defer func() { os.Exit(code) }()

	cfg := server.DefaultConfig()

	// The config file provides defaults; flags given on the command line
	// override it.
	var configFile string
	if path := configFileFromArgs(os.Args[1:]); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "failed loading config: %v\n", err)
			os.Exit(1)
		}
	}
	flag.StringVar(&configFile, "config.file", "", "YAML file to load configuration from.")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := server.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}

	var opts []region.Option
	if cfg.FixedAddress != 0 {
		opts = append(opts, region.WithFixedAddress(uintptr(cfg.FixedAddress)))
	}
	r, err := region.New(int(cfg.RegionCapacity), opts...)
	checkFatal(logger, "reserving request region", err)
	defer func() {
		checkFatal(logger, "releasing request region", r.Close())
	}()
	level.Info(logger).Log("msg", "reserved request region",
		"capacity", humanize.IBytes(uint64(r.Cap())),
		"base", fmt.Sprintf("%#x", r.Base()),
		"fixed", r.Fixed())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg, r, logger, reg)

	ctx := context.Background()
	l, err := server.Listen(ctx, cfg.ListenAddr)
	checkFatal(logger, "opening listener", err)

	var g run.Group
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			level.Info(logger).Log("msg", "server listening", "addr", l.Addr(), "root", cfg.Root, "reset", srv.Policy())
			return srv.Serve(ctx, l)
		}, func(error) {
			cancel()
			l.Close()
		})
	}
	if cfg.MetricsAddr != "" {
		ml, err := net.Listen("tcp", cfg.MetricsAddr)
		checkFatal(logger, "opening metrics listener", err)
		hs := &http.Server{Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})}
		g.Add(func() error {
			level.Info(logger).Log("msg", "metrics listening", "addr", ml.Addr())
			if err := hs.Serve(ml); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			hs.Close()
		})
	}
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	if err := g.Run(); err != nil && !errors.Is(err, run.ErrSignal) {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		code = 1
		return
	}
	level.Info(logger).Log("msg", "server stopped")
}

// configFileFromArgs finds -config.file before the flag set is parsed.
func configFileFromArgs(args []string) string {
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if len(name) == len(arg) {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config.file="); ok {
			return v
		}
		if name == "config.file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func checkFatal(logger log.Logger, location string, err error) {
	if err == nil {
		return
	}
	level.Error(logger).Log("msg", "error "+location, "err", err)
	os.Exit(1)
}

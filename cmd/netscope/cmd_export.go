package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/HerbHall/netscope/internal/config"
	"github.com/HerbHall/netscope/internal/export"
	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/internal/server"
	"go.uber.org/zap"
)

// runExport collects one snapshot and writes it to a directory without
// starting the server. Returns the process exit code.
func runExport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	format := fs.String("format", "json", "export format: json, csv, or pdf")
	out := fs.String("out", "", "output directory (default: export.dir)")
	timeout := fs.Duration("timeout", 30*time.Second, "collection timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, err := export.ParseFormat(*format); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	dir := *out
	if dir == "" {
		dir = viperCfg.GetString("export.dir")
	}

	pcfg := provider.DefaultConfig()
	if err := config.New(viperCfg).ForPlugin("network").Unmarshal(&pcfg); err != nil {
		fmt.Fprintf(stderr, "invalid network configuration: %v\n", err)
		return 1
	}
	if err := pcfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid network configuration: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	p := provider.New(pcfg.Source(logger), notify.LogSink{Logger: logger.Named("toast")},
		provider.WithLogger(logger.Named("provider")))
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = p.Drain(dctx)
	}()
	if _, err := p.Refresh(ctx); err != nil {
		fmt.Fprintf(stderr, "collect network data: %v\n", err)
		return 1
	}

	f, err := p.Export(ctx, *format, export.DirDeliverer{Dir: dir})
	if err != nil {
		fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}
	logger.Info("export written", zap.String("dir", dir), zap.String("file", f.Name))
	fmt.Fprintln(stdout, f.Name)
	return 0
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bulletin/internal/viewload"
	"github.com/okian/bulletin/pkg/logger"
)

const (
	defaultViews    = 10_000
	defaultEntities = 50
	defaultTimeout  = 30 * time.Second
	defaultSettle   = 2 * time.Second
)

func main() {
	cfg := &viewload.Config{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	flag.IntVar(&cfg.NumViews, "views", defaultViews, "Number of views to submit")
	flag.IntVar(&cfg.Entities, "entities", defaultEntities, "Entity IDs are drawn from 1..N")
	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent submitters")
	flag.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flag.StringVar(&cfg.Token, "token", "", "Admin session token used to fetch the top lists afterwards")
	flag.DurationVar(&cfg.Settle, "settle", defaultSettle, "Wait before fetching the top lists")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := viewload.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "view load failed", logger.Error(err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/edurate/internal/adapters/textgen"
	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/batch"
	"github.com/okian/edurate/internal/config"
	"github.com/okian/edurate/pkg/logger"
)

const defaultRunTimeout = 30 * time.Minute

func main() {
	var (
		dir     = flag.String("dir", "", "Directory holding daily report CSV files")
		output  = flag.String("output", "", "Write the ranking to this CSV file")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent report readers")
		verbose = flag.Bool("verbose", false, "Log every rated report")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		batch.ShowHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithCheckpointSchedule(""),
	}
	if cfg.TextGen.APIKey != "" {
		opts = append(opts, service.WithCompleter(textgen.NewClient(cfg.TextGen.APIKey,
			textgen.WithBaseURL(cfg.TextGen.BaseURL),
			textgen.WithModel(cfg.TextGen.Model),
			textgen.WithTimeout(time.Duration(cfg.TextGen.TimeoutMS)*time.Millisecond),
		)))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start rating service", logger.Error(err))
		os.Exit(1)
	}

	_, err = batch.Run(ctx, batch.Config{
		Dir:     *dir,
		Output:  *output,
		Workers: *workers,
		Verbose: *verbose,
	}, svc)
	svc.Stop()
	if err != nil {
		log.Error(ctx, "batch rating failed", logger.Error(err))
		os.Exit(1)
	}
}

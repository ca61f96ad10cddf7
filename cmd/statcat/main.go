// Command statcat reads stats snapshots from processes publishing over named
// pipes. With -pid it reads one process, otherwise every pipe in the directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/statpipe/internal/config"
	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/reader"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	dir := flag.String("dir", "", "directory holding the stats pipes")
	pid := flag.Int("pid", 0, "read only this process")
	timeout := flag.Duration("timeout", 0, "how long to wait for each writer")
	sum := flag.Bool("sum", false, "print one snapshot summed across processes")
	removeDead := flag.Bool("remove-dead", false, "unlink pipes whose process is gone")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "statcat:", err)
		return 2
	}
	if *dir != "" {
		cfg.Publish.Dir = *dir
	}

	logger, err := log.New(cfg.LogLevel(), log.WithEncoding(cfg.Log.Encoding))
	if err != nil {
		fmt.Fprintln(os.Stderr, "statcat:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	opts := cfg.ReaderOptions()
	if *timeout > 0 {
		opts.Timeout = *timeout
	}
	opts.RemoveDead = *removeDead
	r := reader.New(opts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pid > 0 {
		snap, err := r.Read(ctx, r.PathFor(cfg.Publish.Dir, *pid))
		if err != nil {
			fmt.Fprintf(os.Stderr, "statcat: pid %d: %v\n", *pid, err)
			return 1
		}
		fmt.Print(snap.String())
		return 0
	}

	start := time.Now()
	results, err := r.Scan(ctx, cfg.Publish.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "statcat:", err)
		return 1
	}
	logger.Debug("scan finished", log.Int("pipes", len(results)), log.Duration("took", time.Since(start)))

	if *sum {
		fmt.Print(reader.Sum(results).String())
		return 0
	}

	status := 0
	for _, res := range results {
		switch {
		case res.Removed:
			fmt.Fprintf(os.Stderr, "statcat: removed dead pipe %s\n", res.Path)
		case res.Err != nil:
			fmt.Fprintf(os.Stderr, "statcat: pid %d: %v\n", res.PID, res.Err)
			status = 1
		default:
			fmt.Printf("# pid %d\n", res.PID)
			fmt.Print(res.Snapshot.String())
		}
	}
	return status
}

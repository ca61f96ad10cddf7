package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/statpipe/sdk/go/statpipe"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dir := flag.String("dir", "", "directory to create the stats pipe in")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exp, err := statpipe.Init(ctx, statpipe.WithConfigFile(*configPath), statpipe.WithDir(*dir))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting exporter:", err)
		os.Exit(1)
	}

	ticks, err := exp.CreateCounter("my.ticks", statpipe.KindFloat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating counter:", err)
		_ = exp.Close()
		os.Exit(1)
	}
	tocks, err := exp.CreateCounter("my.tocks", statpipe.KindInteger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating counter:", err)
		_ = exp.Close()
		os.Exit(1)
	}

	statpipe.Increment(ticks)
	for range 10 {
		_ = statpipe.IncrementBy(tocks, statpipe.Int(2))
	}
	statpipe.Increment(tocks)

	fmt.Println("publishing stats at", exp.Path())

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-stopCh:
			break loop
		case <-ticker.C:
			statpipe.Increment(ticks)
		}
	}

	cancel()
	if err := exp.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Stats publishing ended early:", err)
	}
}

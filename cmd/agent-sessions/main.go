package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ozansz/agent-sessions/internal/logging"
	"github.com/ozansz/agent-sessions/internal/platform"
	"github.com/ozansz/agent-sessions/internal/session"
)

const Version = "0.3.1"

func main() {
	var (
		watch    = flag.Bool("watch", false, "keep running and re-print on changes")
		interval = flag.Duration("interval", 3*time.Second, "poll interval in watch mode")
		compact  = flag.Bool("compact", false, "single-line JSON output")
		debug    = flag.Bool("debug", false, "write verbose logs to ~/.agent-sessions/logs")
		version  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("agent-sessions v%s (%s)\n", Version, platform.Detect())
		return
	}

	cfg := session.LoadUserConfig()

	logCfg := logging.Config{
		Level: cfg.Log.Level,
		Debug: *debug || cfg.Debug,
	}
	if logCfg.Debug {
		logCfg.LogDir = logging.DefaultLogDir()
	}
	logging.Init(logCfg)
	defer logging.Close()

	if !platform.SupportsProcessCwd() {
		fmt.Fprintln(os.Stderr, "warning: cannot read process working directories on this platform; sessions will not be matched")
	}

	poller := session.NewPoller()

	if !*watch {
		printResponse(poller.Poll(), *compact)
		return
	}

	runWatch(poller, *interval, *compact)
}

// runWatch re-polls on a fixed interval and immediately after transcript
// changes, printing one JSON document per poll.
func runWatch(poller *session.Poller, interval time.Duration, compact bool) {
	log := logging.Logger()

	changes := make(chan struct{}, 1)
	watcher, err := session.NewTranscriptWatcher(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		log.Warn("transcript_watcher_unavailable", slog.String("error", err.Error()))
	} else {
		go watcher.Start()
		defer watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printResponse(poller.Poll(), compact)
	for {
		select {
		case <-ticker.C:
			printResponse(poller.Poll(), compact)
		case <-changes:
			printResponse(poller.Poll(), compact)
		case sig := <-sigCh:
			log.Info("shutting_down", slog.String("signal", sig.String()))
			return
		}
	}
}

func printResponse(resp session.SessionsResponse, compact bool) {
	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"bdr-canlib/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		iface       = flag.String("iface", "vcan0", "SocketCAN interface name")
		catalogPath = flag.String("catalog", "", "Signal catalog (.csv or .dbc); built-in catalog when empty")
		replayPath  = flag.String("replay", "", "candump log to decode instead of the live interface")
		scriptPath  = flag.String("script", "", "JSON command script sent once at start")
		logLevel    = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		logFile     = flag.String("log-file", "monitor.log", "Log file path")
	)
	flag.Parse()

	log, err := utils.NewFileLogger(*logFile, utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logFile + ": " + err.Error() + "\n")
		return 1
	}
	defer log.Close()

	cfg := RunnerConfig{
		Interface:   *iface,
		CatalogPath: *catalogPath,
		ReplayPath:  *replayPath,
		ScriptPath:  *scriptPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return 1
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		return 1
	}
	return 0
}

// Command envoy 在 Windows 服务控制管理器下以服务方式运行代理，否则以控制台进程运行。
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davinci26/envoy/server"
	"github.com/davinci26/envoy/service"
	"github.com/davinci26/envoy/stats"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env 文件可选
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	var out io.Writer = os.Stderr
	var logFile *server.LogFile
	if cfg.LogPath != "" {
		logFile, err = server.OpenLogFile(cfg.LogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			return 1
		}
		defer logFile.Close()
		out = logFile
	}
	logger := server.NewLogger(out, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	m := stats.New("", prometheus.DefaultRegisterer)
	iopts := []server.InstanceOption{
		server.WithLogger(logger),
		server.WithMetrics(m, prometheus.DefaultGatherer),
	}
	if logFile != nil {
		iopts = append(iopts, server.WithReopenLogs(logFile.Reopen))
	}

	host := service.NewHost(
		server.NewFactory(cfg, os.Stdout, iopts...),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithWaitHint(cfg.DrainTimeout),
	)

	ran, err := service.TryRunAsService(cfg.ServiceName, host)
	if err != nil {
		logger.Error("could not determine whether running as a service", slog.String("error", err.Error()))
		return 1
	}
	if ran {
		return 0
	}
	return host.Start(os.Args[1:]).ProcessCode()
}

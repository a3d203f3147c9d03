package server

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davinci26/envoy/service"
)

// Version 在构建时通过 -ldflags 注入
var Version = "dev"

const (
	ModeServe    = "serve"
	ModeValidate = "validate"
)

// Options 为命令行参数
type Options struct {
	ConfigPath string
	Mode       string
	DrainTime  time.Duration
}

// ParseOptions 解析命令行参数（不含程序名）。解析失败返回 MalformedArgs，
// --help、--version 与 --mode validate 成功时返回 NoServing。
func ParseOptions(args []string, stdout io.Writer) (Options, error) {
	var (
		opts        Options
		drainTimeS  int
		showVersion bool
	)
	fs := flag.NewFlagSet("envoy", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&opts.ConfigPath, "config-path", "", "path to the bootstrap configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "shorthand for --config-path")
	fs.StringVar(&opts.Mode, "mode", ModeServe, "one of 'serve' or 'validate'")
	fs.IntVar(&drainTimeS, "drain-time-s", 0, "seconds to drain the admin endpoint on shutdown (0 uses ENVOY_DRAIN_TIMEOUT)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, service.NewStartupError(service.NoServing, nil)
		}
		return opts, service.NewStartupError(service.MalformedArgs, err)
	}
	if fs.NArg() > 0 {
		return opts, service.NewStartupError(service.MalformedArgs,
			fmt.Errorf("unexpected positional arguments %q", fs.Args()))
	}
	if showVersion {
		fmt.Fprintf(stdout, "envoy version: %s\n", Version)
		return opts, service.NewStartupError(service.NoServing, nil)
	}
	if drainTimeS < 0 {
		return opts, service.NewStartupError(service.MalformedArgs,
			fmt.Errorf("--drain-time-s must not be negative, got %d", drainTimeS))
	}
	opts.DrainTime = time.Duration(drainTimeS) * time.Second

	switch opts.Mode {
	case ModeServe:
	case ModeValidate:
		if err := checkConfigPath(opts.ConfigPath, true); err != nil {
			return opts, service.NewStartupError(service.InitFailure, err)
		}
		fmt.Fprintf(stdout, "configuration '%s' OK\n", opts.ConfigPath)
		return opts, service.NewStartupError(service.NoServing, nil)
	default:
		return opts, service.NewStartupError(service.MalformedArgs,
			fmt.Errorf("unknown --mode %q", opts.Mode))
	}

	if err := checkConfigPath(opts.ConfigPath, false); err != nil {
		return opts, service.NewStartupError(service.InitFailure, err)
	}
	return opts, nil
}

func checkConfigPath(path string, required bool) error {
	if path == "" {
		if required {
			return errors.New("--config-path is required")
		}
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to read config %s: %w", path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("config %s is a directory", path)
	}
	return nil
}

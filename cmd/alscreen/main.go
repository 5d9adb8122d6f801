// Command alscreen runs active learning reviews for systematic review
// screening.
//
// Usage:
//
//	alscreen [-config file.yaml] simulate|oracle|undo|report|delete
//	alscreen -V
//
// Options come from the YAML file named by -config or ALSCREEN_CONFIG and
// from ALSCREEN_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/alscreen/internal/adapters/http/api"
	service "github.com/okian/alscreen/internal/app"
	"github.com/okian/alscreen/internal/config"
	"github.com/okian/alscreen/internal/domain/simulate"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
)

// Process exit codes.
const (
	exitOK    = 0
	exitError = 1
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("alscreen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (overrides "+config.EnvConfig+")")
	var showVersion bool
	fs.BoolVar(&showVersion, "V", false, "Print the version and exit")
	fs.BoolVar(&showVersion, "version", false, "Print the version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: alscreen [-config file.yaml] simulate|oracle|undo|report|delete")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if showVersion {
		fmt.Fprintln(stdout, "alscreen "+version)
		return exitOK
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitError
	}
	command := fs.Arg(0)
	switch command {
	case "simulate", "oracle", "undo", "report", "delete":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fs.Usage()
		return exitError
	}

	if *configPath != "" {
		if err := os.Setenv(config.EnvConfig, *configPath); err != nil {
			fmt.Fprintln(stderr, "failed to set config path: "+err.Error())
			return exitError
		}
	}
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		fmt.Fprintln(stderr, "failed to load config: "+err.Error())
		return exitError
	}

	if err := logger.Init(logger.WithOutput(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging: "+err.Error())
		return exitError
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		fmt.Fprintln(stderr, "invalid log_level: "+err.Error())
		return exitError
	}
	log := logger.Named("alscreen")
	metrics.SetEnabled(cfg.MetricsEnabled)

	svc := service.New(cfg,
		service.WithLogger(log),
		service.WithConsole(stdin, stdout),
	)

	serverDone := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	if cfg.MetricsAddr != "" {
		go metrics.RunSystemCollector(ctx)
		go func() {
			serverDone <- api.NewServer(svc).ListenAndServe(ctx, cfg.MetricsAddr, log.Named("http"), nil)
		}()
	} else {
		serverDone <- nil
	}

	err = execute(ctx, command, svc, stdout)
	cancel()
	if serr := <-serverDone; serr != nil {
		log.Error(ctx, "observability server failed", logger.Error(serr))
	}
	if err != nil {
		log.Error(ctx, command+" failed", logger.Error(err))
		return exitError
	}
	return exitOK
}

func execute(ctx context.Context, command string, svc *service.Service, stdout io.Writer) error {
	switch command {
	case "simulate":
		rep, err := svc.Simulate(ctx)
		if err != nil {
			return err
		}
		printSummary(stdout, rep)
		return nil
	case "oracle":
		return svc.Oracle(ctx)
	case "undo":
		removed, err := svc.Undo(ctx)
		if err != nil {
			return err
		}
		for _, ev := range removed {
			fmt.Fprintf(stdout, "removed record %d (%s, cycle %d)\n", ev.RecordID, ev.Label, ev.Cycle)
		}
		return nil
	case "report":
		rep, err := svc.Report(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "delete":
		if err := svc.Delete(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "review state deleted")
		return nil
	}
	return errors.New("unknown command " + command)
}

func printSummary(w io.Writer, rep simulate.Report) {
	fmt.Fprintf(w, "cycles:          %d\n", rep.Cycles)
	fmt.Fprintf(w, "records read:    %d of %d\n", rep.Read, rep.Pool)
	fmt.Fprintf(w, "relevant found:  %d of %d\n", rep.Found, rep.Relevant)
	if rep.WSS95 != nil {
		fmt.Fprintf(w, "WSS@95:          %.4f\n", *rep.WSS95)
	}
	if rep.WSS100 != nil {
		fmt.Fprintf(w, "WSS@100:         %.4f\n", *rep.WSS100)
	}
	fmt.Fprintf(w, "RRF@10:          %.4f\n", rep.RRF10)
	fmt.Fprintf(w, "ATD:             %.2f\n", rep.ATD)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mogaika/hyperbola_tools/build"
	"github.com/mogaika/hyperbola_tools/config"
	"github.com/mogaika/hyperbola_tools/scene"
	"github.com/mogaika/hyperbola_tools/status"
	"github.com/mogaika/hyperbola_tools/utils"
)

const (
	exitOK = iota
	exitFatal
	exitEntriesFailed
)

const watchDebounce = 300 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, utils.Logger())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	var configPath string
	var workers int
	var verbose, watch bool

	flags := flag.NewFlagSet("hyperbolatools", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.StringVar(&configPath, "config", "", "Path to yaml build config")
	flags.IntVar(&workers, "j", 0, "Number of files processed in parallel (default from config, 1)")
	flags.BoolVar(&verbose, "v", false, "Debug logging")
	flags.BoolVar(&watch, "watch", false, "Keep running and rebuild when the resource folder changes")
	flags.Usage = func() {
		fmt.Fprintln(stdout, "Usage: hyperbolatools [flags] [resource folder] [output path]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitFatal
	}
	if flags.NArg() < 2 {
		flags.Usage()
		return exitFatal
	}

	resourcePath := utils.StripQuotes(flags.Arg(0))
	outputPath := utils.StripQuotes(flags.Arg(1))

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(utils.StripQuotes(configPath)); err != nil {
			fmt.Fprintln(stdout, err)
			return exitFatal
		}
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stdout, err)
		return exitFatal
	}
	if err := utils.SetLogLevel(logger, cfg.LogLevel); err != nil {
		fmt.Fprintln(stdout, err)
		return exitFatal
	}

	fmt.Fprintln(stdout, "== HyperbolaTools v1 ==")
	fmt.Fprintf(stdout, "Resource folder is: %q\n", resourcePath)
	fmt.Fprintf(stdout, "Output folder is: %q\n", outputPath)

	d := build.NewDriver(resourcePath, outputPath, cfg, scene.GLTFDecoder{}, status.New(stdout), logger)
	rep, err := d.Run(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "Fatal: %v\n", err)
		return exitFatal
	}
	summary(stdout, rep)

	if watch {
		err := build.Watch(ctx, d, watchDebounce, func(rep *build.Report, err error) {
			if err != nil {
				logger.Error("rebuild failed", "err", err)
				return
			}
			summary(stdout, rep)
		})
		if err != nil {
			fmt.Fprintf(stdout, "Fatal: %v\n", err)
			return exitFatal
		}
		return exitOK
	}

	if rep.Failed != 0 {
		return exitEntriesFailed
	}
	return exitOK
}

func summary(w io.Writer, rep *build.Report) {
	fmt.Fprintf(w, "%d files: %d up to date, %d copied, %d converted, %d failed\n",
		rep.Total, rep.UpToDate, rep.Copied, rep.Converted, rep.Failed)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/tilestitch/internal/config"
	"github.com/banshee-data/tilestitch/internal/monitoring"
	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/banshee-data/tilestitch/internal/report"
	"github.com/banshee-data/tilestitch/internal/storage/sqlite"
	"github.com/banshee-data/tilestitch/internal/tileio"
	"github.com/banshee-data/tilestitch/internal/version"
)

var (
	problemPath = flag.String("problem", "", "Problem JSON file (required)")
	configPath  = flag.String("config", "", "Solver config JSON file (defaults built in)")
	outPath     = flag.String("out", "", "Write the result JSON here instead of stdout")
	dbPath      = flag.String("db", "", "Record the run in this SQLite database")
	label       = flag.String("label", "", "Label stored with the run")
	plotPath    = flag.String("plot", "", "Write the error history PNG here")
	htmlPath    = flag.String("html", "", "Write the tile scatter HTML here")
	quiet       = flag.Bool("quiet", false, "Suppress progress logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type runArgs struct {
	problem, config, out, db, label, plot, html string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("tileopt %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *problemPath == "" {
		log.Fatal("-problem is required")
	}
	if *quiet {
		restore := monitoring.SuppressOutput()
		defer restore()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := runArgs{
		problem: *problemPath,
		config:  *configPath,
		out:     *outPath,
		db:      *dbPath,
		label:   *label,
		plot:    *plotPath,
		html:    *htmlPath,
	}
	res, err := run(ctx, args, os.Stdout)
	if err != nil {
		log.Fatalf("tileopt: %v", err)
	}
	if res.Status != optimizer.StatusSolved {
		os.Exit(2)
	}
}

// run solves one problem file and writes the requested artefacts.
func run(ctx context.Context, a runArgs, stdout io.Writer) (*optimizer.Result, error) {
	cfg := config.EmptySolverConfig()
	if a.config != "" {
		var err error
		if cfg, err = config.LoadSolverConfig(a.config); err != nil {
			return nil, err
		}
	}

	problem, err := tileio.LoadProblem(a.problem)
	if err != nil {
		return nil, err
	}
	if problem.Dim == 0 {
		problem.Dim = cfg.GetDimensions()
	}

	res, err := optimizer.Optimize(ctx, problem, optimizer.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	if err := writeResult(a.out, stdout, res); err != nil {
		return nil, err
	}

	if a.db != "" {
		db, err := sqlite.Open(a.db)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		runID, err := sqlite.NewRunStore(db, nil).SaveRun(ctx, a.label, res)
		if err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		monitoring.Logf("Recorded run %s in %s", runID, a.db)
	}

	if a.plot != "" {
		err := report.SaveErrorHistoryPlot(a.plot, res.Diagnostics.ErrorHistory)
		switch {
		case errors.Is(err, report.ErrNoData):
			monitoring.Logf("No error history to plot")
		case err != nil:
			return nil, fmt.Errorf("plot: %w", err)
		}
	}

	if a.html != "" && res.Status == optimizer.StatusSolved {
		f, err := os.Create(a.html)
		if err != nil {
			return nil, err
		}
		if err := report.RenderTileScatter(f, res); err != nil {
			f.Close()
			return nil, fmt.Errorf("scatter: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func writeResult(path string, stdout io.Writer, res *optimizer.Result) error {
	if path == "" {
		return tileio.WriteResult(stdout, res)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tileio.WriteResult(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

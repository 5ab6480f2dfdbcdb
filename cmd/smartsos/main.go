// Command smartsos runs the Smart-SOS telemetry monitor: a simulated sensor
// feed appended to a CSV log, a live dashboard, a history viewer and a
// date-filtered export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/luki/smartsos/internal/config"
	"github.com/luki/smartsos/internal/export"
	"github.com/luki/smartsos/internal/ingest"
	"github.com/luki/smartsos/internal/logging"
	"github.com/luki/smartsos/internal/monitor"
	"github.com/luki/smartsos/internal/query"
	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
	"github.com/luki/smartsos/internal/viewer"
)

func main() {
	args := os.Args[1:]
	cmd := "monitor"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "monitor":
		err = runMonitor(args)
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "help", "-h", "--help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ce *store.CorruptDataError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "Fix or move %s and try again; it is never overwritten while unreadable.\n", ce.Path)
		}
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Usage: smartsos [command] [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  monitor   Live dashboard with simulated readings (default)")
	fmt.Println("  view      Browse recorded readings day by day")
	fmt.Println("  export    Write the readings of a date range to a file")
	fmt.Println("  help      Show this help")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config <file>     YAML config (default: ./smartsos.yaml, ~/.config/smartsos/smartsos.yaml)")
	fmt.Println("  -data <file>       Backing CSV file (default: iot_data.csv)")
	fmt.Println("  -interval <secs>   Seconds between readings (monitor)")
	fmt.Println("  -headless          Print readings instead of the dashboard (monitor)")
	fmt.Println("  -from, -to <date>  Inclusive date range, YYYY-MM-DD (export; default: all)")
	fmt.Println("  -o <file>          Export target; .csv, .xlsx or .parquet (export)")
	fmt.Println()
	fmt.Println("Environment: SMARTSOS_BACKING_FILE_PATH, SMARTSOS_TICK_INTERVAL_SECONDS, SMARTSOS_LOG_LEVEL, ...")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  smartsos")
	fmt.Println("  smartsos monitor -interval 2 -headless")
	fmt.Println("  smartsos export -from 2024-01-01 -to 2024-01-31 -o january.xlsx")
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	config string
	data   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML config file")
	fs.StringVar(&c.data, "data", "", "backing CSV file")
}

// load reads the config and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if c.data != "" {
		cfg.BackingFilePath = c.data
	}
	return cfg, nil
}

// initLogging routes logs to the configured file when the terminal belongs
// to a TUI, and to stderr otherwise.
func initLogging(cfg *config.Config, toFile bool) (io.Closer, error) {
	level, err := config.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := logging.Options{Level: level}
	if toFile {
		opts.File = cfg.Log.File
	}
	return logging.Init(opts)
}

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	interval := fs.Int("interval", 0, "seconds between readings (0 = config)")
	headless := fs.Bool("headless", false, "print readings instead of the dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *interval > 0 {
		cfg.TickIntervalSeconds = *interval
	}

	if !*headless && !term.IsTerminal(os.Stdout.Fd()) {
		*headless = true
	}

	closer, err := initLogging(cfg, !*headless)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logging.Component("main")

	st := store.New(cfg.BackingFilePath)
	initial, loadErr := st.Load()
	if loadErr != nil {
		log.Error("load failed", "path", st.Path(), "error", loadErr)
	} else {
		log.Info("loaded log", "path", st.Path(), "readings", len(initial))
	}

	if *headless {
		if loadErr != nil {
			return loadErr
		}
		return runHeadless(cfg, st, initial, log)
	}

	ctrl := ingest.New(st, sensor.NewGenerator(), initial,
		ingest.WithLogger(logging.Component("ingest")))

	p := tea.NewProgram(
		monitor.New(monitor.Options{
			Controller: ctrl,
			DataPath:   st.Path(),
			ExportPath: cfg.ExportPath,
			Interval:   cfg.TickInterval(),
			ChartWidth: cfg.ChartWidth,
			LoadErr:    loadErr,
			Logger:     logging.Component("monitor"),
		}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	log.Info("monitor exited", "readings", ctrl.Len())
	return err
}

func runHeadless(cfg *config.Config, st *store.Store, initial []sensor.Reading, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := ingest.New(st, sensor.NewGenerator(), initial,
		ingest.WithLogger(logging.Component("ingest")),
		ingest.WithObserver(func(r sensor.Reading, err error) {
			fmt.Println(r.String())
			if err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			}
		}),
	)

	fmt.Printf("Recording to %s every %s (%d readings so far). Press Ctrl+C to stop.\n",
		st.Path(), cfg.TickInterval(), ctrl.Len())

	err := ctrl.Run(ctx, cfg.TickInterval())
	if errors.Is(err, context.Canceled) {
		log.Info("stopped", "readings", ctrl.Len())
		return nil
	}
	return err
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	closer, err := initLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	return viewer.Run(store.New(cfg.BackingFilePath))
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	from := fs.String("from", "", "first day, YYYY-MM-DD (default: first day in the log)")
	to := fs.String("to", "", "last day, YYYY-MM-DD (default: last day in the log)")
	out := fs.String("o", "", "output file (default: config export_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *out != "" {
		cfg.ExportPath = *out
	}

	closer, err := initLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logging.Component("export")

	st := store.New(cfg.BackingFilePath)
	readings, err := st.Load()
	if err != nil {
		return err
	}

	rng, err := exportRange(readings, *from, *to)
	if err != nil {
		return fmt.Errorf("export %s: %w", st.Path(), err)
	}

	view := query.FilterRange(readings, rng)
	f, err := export.WriteFile(cfg.ExportPath, view)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	log.Info("exported", "path", cfg.ExportPath, "format", f.String(), "range", rng.String(), "readings", len(view))
	fmt.Printf("Exported %d of %d readings (%s) to %s\n", len(view), len(readings), rng, cfg.ExportPath)
	return nil
}

// errEmptyLog is returned when an export range defaults to the bounds of a
// log that has none.
var errEmptyLog = errors.New("log is empty")

// exportRange resolves the -from/-to flags, defaulting to the log bounds.
func exportRange(readings []sensor.Reading, from, to string) (query.Range, error) {
	rng, ok := query.Bounds(readings)
	if !ok && (from == "" || to == "") {
		return rng, errEmptyLog
	}
	if from != "" {
		d, err := query.ParseDate(from)
		if err != nil {
			return rng, err
		}
		rng.Start = d
	}
	if to != "" {
		d, err := query.ParseDate(to)
		if err != nil {
			return rng, err
		}
		rng.End = d
	}
	return rng, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"stockstats/internal/app"
	"stockstats/internal/config"
	"stockstats/internal/exporter"
	"stockstats/internal/infrastructure"
	"stockstats/internal/services"
	"stockstats/internal/validation"
	"stockstats/pkg/contracts"
	"stockstats/pkg/contracts/domain"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// command is one stockstats sub-command
type command struct {
	name     string
	aliases  []string
	summary  string
	analysis bool
	serve    bool
	exec     func(ctx context.Context, svc *services.StockService, q domain.Query) (exporter.Result, error)
}

var commands = []command{
	{
		name:    "list-symbols",
		summary: "list the symbols of the dataset with their descriptions",
		exec: func(ctx context.Context, svc *services.StockService, _ domain.Query) (exporter.Result, error) {
			catalog, err := svc.ListSymbols(ctx)
			if err != nil {
				return exporter.Result{}, err
			}
			return exporter.CatalogResult(catalog), nil
		},
	},
	{
		name:     services.StatMonthAverages,
		summary:  "average open and close price per month",
		analysis: true,
		exec: func(ctx context.Context, svc *services.StockService, q domain.Query) (exporter.Result, error) {
			res, err := svc.MonthAverages(ctx, q)
			if err != nil {
				return exporter.Result{}, err
			}
			return exporter.MonthAveragesResult(res), nil
		},
	},
	{
		name:     services.StatTopVarianceDays,
		aliases:  []string{"best-days"},
		summary:  "day with the widest high-low spread",
		analysis: true,
		exec: func(ctx context.Context, svc *services.StockService, q domain.Query) (exporter.Result, error) {
			res, err := svc.TopVarianceDays(ctx, q)
			if err != nil {
				return exporter.Result{}, err
			}
			return exporter.VarianceResult(res), nil
		},
	},
	{
		name:     services.StatBusyDays,
		summary:  "days with volume more than 10% above the average",
		analysis: true,
		exec: func(ctx context.Context, svc *services.StockService, q domain.Query) (exporter.Result, error) {
			res, err := svc.BusyDays(ctx, q)
			if err != nil {
				return exporter.Result{}, err
			}
			return exporter.BusyDaysResult(res), nil
		},
	},
	{
		name:     services.StatBiggestLoser,
		summary:  "symbols with the most days closing below the open",
		analysis: true,
		exec: func(ctx context.Context, svc *services.StockService, q domain.Query) (exporter.Result, error) {
			res, err := svc.BiggestLoser(ctx, q)
			if err != nil {
				return exporter.Result{}, err
			}
			return exporter.BiggestLoserResult(res), nil
		},
	},
	{
		name:    "serve",
		summary: "serve the statistics over HTTP",
		serve:   true,
	},
}

// usageError is an argument problem; it exits with status 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// invocation holds the parsed command line of one run
type invocation struct {
	cmd        command
	key        string
	configPath string
	addr       string
	query      domain.Query
	export     exporter.Options
}

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return exitOK
	case "version":
		fmt.Fprintln(stdout, contracts.GetFullVersionString(config.AppName))
		return exitOK
	}

	cmd, ok := lookupCommand(args[0])
	if !ok {
		fmt.Fprintf(stderr, "%s: unknown command %q\n\n", config.AppName, args[0])
		printUsage(stderr)
		return exitUsage
	}

	inv, err := parseInvocation(cmd, args[1:], stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "%s %s: %s\n", config.AppName, cmd.name, ue.msg)
			fmt.Fprintf(stderr, "usage: %s\n", commandUsage(cmd))
		}
		return exitUsage
	}

	cfg, err := config.Load(inv.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return exitFailure
	}

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return exitFailure
	}
	defer closeLog()

	ctx = infrastructure.EnsureTraceID(ctx)

	if inv.export.Path != "" {
		if err := validation.NewFileValidator(logger).ValidateOutputFile(inv.export.Path, string(inv.export.Format)); err != nil {
			fmt.Fprintf(stderr, "%s %s: %v\n", config.AppName, cmd.name, err)
			return exitUsage
		}
	}

	return execute(ctx, inv, cfg, logger, stdout, stderr)
}

// execute builds the application and runs the command against it
func execute(ctx context.Context, inv *invocation, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	application, err := app.NewApplication(cfg, logger, app.Options{APIKey: inv.key, Addr: inv.addr})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return exitFailure
	}
	defer func() {
		if err := application.Close(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "Cleanup failed", slog.String("error", err.Error()))
		}
	}()

	if inv.cmd.serve {
		if err := application.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "Server failed", slog.String("error", err.Error()))
			fmt.Fprintf(stderr, "%s serve: %v\n", config.AppName, err)
			return exitFailure
		}
		return exitOK
	}

	logger.DebugContext(ctx, "Running command",
		slog.String("command", inv.cmd.name),
		slog.Any("symbols", inv.query.Symbols),
		slog.Bool("adjusted", inv.query.Adjusted))

	result, err := inv.cmd.exec(ctx, application.StockService, inv.query)
	if err != nil {
		logger.ErrorContext(ctx, "Command failed",
			slog.String("command", inv.cmd.name),
			slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "%s %s: %v\n", config.AppName, inv.cmd.name, err)
		return exitFailure
	}

	if err := exporter.New(logger).Export(stdout, result, inv.export); err != nil {
		logger.ErrorContext(ctx, "Failed to write result", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "%s %s: %v\n", config.AppName, inv.cmd.name, err)
		return exitFailure
	}
	return exitOK
}

// parseInvocation reads the flags and positionals of cmd
func parseInvocation(cmd command, args []string, stderr io.Writer) (*invocation, error) {
	inv := &invocation{cmd: cmd}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s\n\nflags:\n", commandUsage(cmd))
		fs.PrintDefaults()
	}

	var (
		format string
		pretty bool
		bom    bool
		out    string
	)
	fs.StringVar(&inv.key, "key", os.Getenv(config.APIKeyEnv), "provider API key (default $"+config.APIKeyEnv+")")
	fs.StringVar(&inv.configPath, "config", "", "path to a YAML configuration file")
	if cmd.serve {
		fs.StringVar(&inv.addr, "addr", "", "listen address (default from configuration)")
	} else {
		fs.StringVar(&format, "format", string(exporter.FormatJSON), "output format: json, csv or xlsx")
		fs.BoolVar(&pretty, "pretty", false, "indent JSON output and sort its keys")
		fs.BoolVar(&bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
		fs.StringVar(&out, "out", "", "write the result to this file instead of stdout")
	}
	if cmd.analysis {
		fs.BoolVar(&inv.query.Adjusted, "adjusted", false, "use split and dividend adjusted prices")
	}

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(inv.key) == "" {
		return nil, usagef("an API key is required (--key or $%s)", config.APIKeyEnv)
	}

	if !cmd.serve {
		f, err := exporter.ParseFormat(format)
		if err != nil {
			return nil, usagef("%v", err)
		}
		if f == exporter.FormatXLSX && out == "" {
			return nil, usagef("--format xlsx requires --out")
		}
		inv.export = exporter.Options{Format: f, Pretty: pretty, BOM: bom, Path: out}
	}

	if !cmd.analysis {
		if len(positional) > 0 {
			return nil, usagef("unexpected arguments: %s", strings.Join(positional, " "))
		}
		return inv, nil
	}

	if len(positional) < 3 {
		return nil, usagef("expected start_month end_month and at least one symbol")
	}
	rng, err := validation.ParseMonthRange(positional[0], positional[1])
	if err != nil {
		return nil, usagef("%v", err)
	}
	symbols := validation.NormalizeSymbols(positional[2:])
	if len(symbols) == 0 {
		return nil, usagef("expected at least one symbol")
	}
	inv.query.Symbols = symbols
	inv.query.Range = rng
	return inv, nil
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, alias := range c.aliases {
			if alias == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func commandUsage(cmd command) string {
	switch {
	case cmd.analysis:
		return fmt.Sprintf("%s %s [flags] start_month end_month symbol...", config.AppName, cmd.name)
	default:
		return fmt.Sprintf("%s %s [flags]", config.AppName, cmd.name)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <command> [flags] [start_month end_month symbol...]\n\ncommands:\n", config.AppName)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		name := c.name
		if len(c.aliases) > 0 {
			name += " (" + strings.Join(c.aliases, ", ") + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, c.summary)
	}
	fmt.Fprintf(tw, "  %s\t%s\n", "version", "print version information")
	tw.Flush()
	fmt.Fprintf(w, "\nMonths are YYYY-MM; the end month runs to its last day.\n"+
		"Run '%s <command> -h' for the flags of a command.\n", config.AppName)
}

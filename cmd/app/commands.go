package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"StockCast/internal/di"
	"StockCast/internal/domain/models"
	"StockCast/internal/presentation"
	"StockCast/pkg/config"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/tidwall/pretty"
)

const defaultConfig = "config/config.yaml"

// configPath returns CONFIG_PATH or the default config location.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfig
}

func loadConfig(p string) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(p)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

type serveCmd struct {
	configPath string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard web server" }
func (*serveCmd) Usage() string {
	return `serve [-config <path>]

  Serves the dashboard, the JSON API and the live websocket.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", configPath(), "config file path")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "app initialization failed: %v\n", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "app error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type forecastCmd struct {
	configPath string
	name       string
	years      int
	asJSON     bool
	style      string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "run one forecast and print the report" }
func (*forecastCmd) Usage() string {
	return `forecast [-name <company>] [-years n] [-json] [-style dark|light|notty]

  Fetches the history of a catalog company, fits the model and prints
  the raw and forecast tables.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", configPath(), "config file path")
	f.StringVar(&c.name, "name", "", "company name from the catalog (defaults to the first one)")
	f.IntVar(&c.years, "years", 0, "forecast horizon in years, 1-5 (defaults to forecast.default_years)")
	f.BoolVar(&c.asJSON, "json", false, "print the whole view as JSON")
	f.StringVar(&c.style, "style", "dark", "glamour style for the markdown report")
}

func (c *forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.years == 0 {
		c.years = cfg.Forecast.DefaultYears
	}
	if c.years < models.MinYears || c.years > models.MaxYears {
		fmt.Fprintf(os.Stderr, "Error: %v\n", models.ErrInvalidSelection)
		return subcommands.ExitUsageError
	}

	dash, cleanup, err := di.InitializeDashboard(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	view, err := dash.Run(ctx, "", models.Selection{Name: c.name, Years: c.years})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		b, err := json.Marshal(view)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		os.Stdout.Write(pretty.Pretty(b))
		return subcommands.ExitSuccess
	}

	printMarkdown(presentation.Report(view), c.style)
	return subcommands.ExitSuccess
}

type catalogCmd struct {
	configPath string
}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "list the selectable companies" }
func (*catalogCmd) Usage() string {
	return `catalog [-config <path>]

  Prints the company catalog.
`
}

func (c *catalogCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", configPath(), "config file path")
}

func (c *catalogCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	dash, cleanup, err := di.InitializeDashboard(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	entries, err := dash.Catalog().Entries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("| Name | Symbol |\n| --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s |\n", e.Name, e.Symbol)
	}
	printMarkdown(b.String(), "dark")
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md, style string) {
	out, err := glamour.Render(md, style)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

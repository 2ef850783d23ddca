package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/files"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/mcp"
	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// cliDeps is what every command runs against. open fills it from the global
// flags unless components were provided up front.
type cliDeps struct {
	components *bootstrap.Components
	cfg        *config.Config
	logger     *slog.Logger
	out        io.Writer
	errOut     io.Writer

	// opts is passed to bootstrap.Build.
	opts  bootstrap.Options
	owned bool
}

// open loads configuration and wires the store and services.
func (d *cliDeps) open(c *cli.Context) error {
	if d.components != nil {
		return nil
	}

	cfg, err := config.LoadDir(c.String("config-dir"), c.String("profile"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("[CONFIG_ERROR] %v", err), 1)
	}

	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("[CONFIG_ERROR] %v", err), 1)
	}

	// stdout carries command output and MCP frames, so logs go to stderr.
	logger := logging.NewWithWriter(&logging.Config{
		Level:   c.String("log-level"),
		Format:  "text",
		Service: "quotectl",
		Version: Version,
	}, d.errOut)

	components, err := bootstrap.Build(c.Context, cfg, logger, d.opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("[STORAGE_ERROR] %v", err), 1)
	}

	d.components = components
	d.cfg = cfg
	d.logger = logger
	d.owned = true

	return nil
}

// close releases what open created.
func (d *cliDeps) close(_ *cli.Context) error {
	if !d.owned {
		return nil
	}

	d.owned = false

	return d.components.Close()
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *cliDeps) *cli.App {
	app := &cli.App{
		Name:    "quotectl",
		Usage:   "Manage the local quote collection",
		Version: Version,
		Flags:   globalFlags(),
		Before:  d.open,
		After:   d.close,
		Commands: []*cli.Command{
			randomCmd(d),
			addCmd(d),
			listCmd(d),
			categoriesCmd(d),
			filterCmd(d),
			exportCmd(d),
			importCmd(d),
			syncCmd(d),
			mcpCmd(d),
		},
	}
	// Errors are returned to main rather than exiting, so tests see them.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}

	app.Writer = d.out
	app.ErrWriter = d.errOut

	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config-dir", Value: config.DefaultConfigDir, Usage: "Directory holding base.yaml and profile files"},
		&cli.StringFlag{Name: "profile", EnvVars: []string{"APP_ENVIRONMENT"}, Usage: "Config profile to layer over base.yaml"},
		&cli.StringFlag{Name: "db", Usage: "Quote database path (overrides storage.path)"},
		&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "trace, debug, info, warn or error"},
	}
}

func randomCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Show a random quote",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: `Category, or "all" (defaults to the saved filter)`},
			&cli.BoolFlag{Name: "json", Usage: "Print the selection as JSON"},
		},
		Action: func(c *cli.Context) error {
			sel, err := d.components.Quotes.RandomQuote(c.Context, strings.TrimSpace(c.String("category")))
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(d.out, dto.FromSelection(sel))
			}

			return outputLine(d.out, sel.Display())
		},
	}
}

func addCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a quote",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Quote text"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Quote category"},
		},
		Action: func(c *cli.Context) error {
			q, err := d.components.Quotes.AddQuote(c.Context, c.String("text"), c.String("category"))
			if err != nil {
				return outputError(err)
			}

			return outputLine(d.out, q.AddedMessage())
		},
	}
}

func listCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the collection as JSON",
		Action: func(c *cli.Context) error {
			quotes := d.components.Quotes.List(c.Context)

			out := make([]dto.Quote, 0, len(quotes))
			for _, q := range quotes {
				out = append(out, dto.FromQuote(q))
			}

			return outputJSON(d.out, out)
		},
	}
}

func categoriesCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List filter options and the saved filter",
		Action: func(c *cli.Context) error {
			list := d.components.Quotes.Categories(c.Context)

			return outputJSON(d.out, dto.CategoriesResponse{Options: list.Options, Selected: list.Selected})
		},
	}
}

func filterCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "Save the category filter",
		ArgsUsage: "<category|all>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("[BAD_REQUEST] filter takes exactly one category", 1)
			}

			filter, err := d.components.Quotes.SetFilter(c.Context, strings.TrimSpace(c.Args().First()))
			if err != nil {
				return outputError(err)
			}

			return outputLine(d.out, "filter: "+filter)
		},
	}
}

func exportCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the collection to quotes.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Directory to write into (defaults to export.dir)"},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("out")
			if dir == "" {
				dir = d.cfg.Export.Dir
			}

			data, err := d.components.Quotes.Export(c.Context)
			if err != nil {
				return outputError(err)
			}

			path, err := files.WriteExport(dir, data)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(d.out, dto.ExportFileResponse{Path: path, Count: d.components.Quotes.Count(c.Context)})
		},
	}
}

func importCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Append quotes from a JSON array file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("[BAD_REQUEST] import takes exactly one file", 1)
			}

			data, err := files.ReadImport(c.Args().First(), d.cfg.Export.MaxImportBytes)
			if err != nil {
				return outputError(err)
			}

			n, err := d.components.Quotes.Import(c.Context, data)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(d.out, dto.ImportResponse{Imported: n, Total: d.components.Quotes.Count(c.Context)})
		},
	}
}

func syncCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile with the remote now (remote wins)",
		Action: func(c *cli.Context) error {
			outcome, err := d.components.Sync.Sync(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(d.out, dto.FromSyncOutcome(outcome))
		},
	}
}

func mcpCmd(d *cliDeps) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the quote tools over MCP on stdio",
		Action: func(_ *cli.Context) error {
			h := mcp.NewHandlers(mcp.HandlersConfig{
				Quotes:         d.components.Quotes,
				ExportDir:      d.cfg.Export.Dir,
				MaxImportBytes: d.cfg.Export.MaxImportBytes,
				Logger:         d.logger,
			})

			return mcp.Serve(h, Version)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func outputLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

// outputError formats err as "[CODE] message" with exit status 1. Unlike
// the HTTP surface the full text of internal errors is shown.
func outputError(err error) error {
	_, resp := dto.MapDomainError(err)

	message := resp.Error.Message
	if resp.Error.Code == dto.ErrorCodeInternal {
		message = err.Error()
	}

	return cli.Exit(fmt.Sprintf("[%s] %s", resp.Error.Code, message), 1)
}

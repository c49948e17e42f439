package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/studio/internal/builder"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/convert"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/finance"
	"github.com/hpungsan/studio/internal/mcp"
	"github.com/hpungsan/studio/internal/metrics"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
	"github.com/hpungsan/studio/internal/web"
)

// lockFile guards against two servers sharing one data directory.
const lockFile = "serve.lock"

// cliEnv carries what commands need. It is nil for --help and --version.
type cliEnv struct {
	db      *sql.DB
	cfg     *config.Config
	logger  *slog.Logger
	dataDir string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:    "studio",
		Usage:   "Template conversion, expense tracking and one-page site builder",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Always print JSON, even on a terminal"},
		},
		Commands: []*cli.Command{
			serveCmd(env),
			seedCmd(env),
			uploadsCmd(env),
			jobsCmd(env),
			libraryCmd(env),
			expensesCmd(env),
			catalogCmd(env),
			suggestCmd(env),
			toolsCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd starts the HTTP API.
func serveCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Interface to listen on (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (overrides config)"},
			&cli.BoolFlag{Name: "async", Usage: "Run conversions on background workers"},
		},
		Action: func(c *cli.Context) error {
			cfg := env.cfg
			if c.IsSet("bind") {
				cfg.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.Bool("async") {
				cfg.ConversionAsync = true
			}

			lock := flock.New(filepath.Join(env.dataDir, lockFile))
			ok, err := lock.TryLock()
			if err != nil {
				return outputError(errors.NewIOFailure(err))
			}
			if !ok {
				return outputError(errors.NewConflict("another studio server is using " + env.dataDir))
			}
			defer func() { _ = lock.Unlock() }()

			ctx := c.Context
			m := metrics.New()
			conv := convert.New(env.db, cfg, env.logger, convert.WithMetrics(m))

			var runner ops.Runner = convert.Sync{Exec: conv}
			var requeue ops.Runner
			if cfg.ConversionAsync {
				pool := convert.NewPool(conv, cfg.ConversionWorkers, cfg.ConversionQueueSize, env.logger, m)
				if err := pool.Start(ctx); err != nil {
					return outputError(errors.NewInternal(err))
				}
				defer pool.Stop()
				runner, requeue = pool, pool
			}
			release, err := startJobs(ctx, env, requeue)
			if err != nil {
				return outputError(err)
			}
			defer release()

			suggester, err := builder.NewSuggester(ctx, cfg, env.logger)
			if err != nil {
				env.logger.Warn("suggest.gemini_unavailable", "error", err)
				suggester = builder.TemplateSuggester{}
			}

			srv := web.NewServer(web.Deps{
				DB:        env.db,
				Config:    cfg,
				Logger:    env.logger,
				Metrics:   m,
				Runner:    runner,
				Suggester: suggester,
				Version:   Version,
			})
			return web.Run(ctx, srv, env.logger)
		},
	}
}

// seedCmd loads the built-in service catalogs.
func seedCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create or refresh the default service catalogs",
		Action: func(c *cli.Context) error {
			res, err := builder.SeedCatalogs(c.Context, env.db, env.logger)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(res)
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
	}
}

func uploadsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "uploads",
		Usage: "Manage uploaded design images",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Upload a design image",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (defaults to the file name)"},
					&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					f, err := ops.OpenForRead(path, ops.ImageExtensions...)
					if err != nil {
						return outputError(err)
					}
					defer f.Close()

					u, err := ops.CreateUpload(c.Context, env.db, env.cfg, ops.CreateUploadInput{
						Filename: filepath.Base(path),
						Title:    c.String("title"),
						Notes:    c.String("notes"),
						Image:    f,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(u)
				},
			},
			{
				Name:  "list",
				Usage: "List uploads, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
				}, pageFlags()...),
				Action: func(c *cli.Context) error {
					out, err := ops.ListUploads(c.Context, env.db, ops.ListUploadsInput{
						Status: c.String("status"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					rows := make([][]string, 0, len(out.Items))
					for _, u := range out.Items {
						rows = append(rows, []string{u.ID, u.Title, string(u.Status), formatTime(u.CreatedAt)})
					}
					return outputList(c, out, []string{"ID", "TITLE", "STATUS", "CREATED"}, rows)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an upload, its image and its jobs",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if err := ops.DeleteUpload(c.Context, env.db, env.cfg, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"id": id, "deleted": true})
				},
			},
		},
	}
}

func jobsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Run and inspect conversion jobs",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Convert an upload and wait for the result",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "upload", Aliases: []string{"u"}, Required: true, Usage: "Upload ID"},
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Required: true, Usage: "DJANGO or NEXTJS"},
				},
				Action: func(c *cli.Context) error {
					input, err := ops.ParseCreateJobArgs(map[string]any{
						"upload": c.String("upload"),
						"target": strings.ToUpper(c.String("target")),
					})
					if err != nil {
						return outputError(err)
					}
					release, err := holdJobsLock(env)
					if err != nil {
						return outputError(err)
					}
					defer release()
					runner := convert.Sync{Exec: convert.New(env.db, env.cfg, env.logger)}
					job, err := ops.CreateJob(c.Context, env.db, runner, *input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(job)
				},
			},
			{
				Name:  "list",
				Usage: "List jobs, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "upload", Aliases: []string{"u"}, Usage: "Filter by upload"},
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
					&cli.StringFlag{Name: "target", Usage: "Filter by target"},
				}, pageFlags()...),
				Action: func(c *cli.Context) error {
					out, err := ops.ListJobs(c.Context, env.db, ops.ListJobsInput{
						UploadID: c.String("upload"),
						Status:   c.String("status"),
						Target:   c.String("target"),
						Limit:    c.Int("limit"),
						Offset:   c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					rows := make([][]string, 0, len(out.Items))
					for _, j := range out.Items {
						rows = append(rows, []string{j.ID, j.UploadID, string(j.Target), string(j.Status), formatTime(j.UpdatedAt)})
					}
					return outputList(c, out, []string{"ID", "UPLOAD", "TARGET", "STATUS", "UPDATED"}, rows)
				},
			},
			{
				Name:      "get",
				Usage:     "Show a job and its log",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					job, err := ops.GetJob(c.Context, env.db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(job)
				},
			},
			{
				Name:  "schema",
				Usage: "Print the create-job request schema",
				Action: func(c *cli.Context) error {
					return outputJSON(ops.JobSchema())
				},
			},
		},
	}
}

func libraryCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Browse and curate the template library",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List library templates",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
					&cli.StringFlag{Name: "subcategory", Usage: "Filter by subcategory"},
					&cli.StringFlag{Name: "target", Usage: "Filter by target"},
					&cli.StringFlag{Name: "q", Usage: "Search name, description and tags"},
				}, pageFlags()...),
				Action: func(c *cli.Context) error {
					out, err := ops.ListLibrary(c.Context, env.db, ops.ListLibraryInput{
						Category:    c.String("category"),
						Subcategory: c.String("subcategory"),
						Target:      c.String("target"),
						Query:       c.String("q"),
						Limit:       c.Int("limit"),
						Offset:      c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					rows := make([][]string, 0, len(out.Items))
					for _, it := range out.Items {
						rows = append(rows, []string{it.ID, it.Name, string(it.Target), it.Category + "/" + it.Subcategory, strings.Join(it.Tags, ",")})
					}
					return outputList(c, out, []string{"ID", "NAME", "TARGET", "CATEGORY", "TAGS"}, rows)
				},
			},
			{
				Name:  "promote",
				Usage: "Add a successful job's archive to the library",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "job", Aliases: []string{"j"}, Required: true, Usage: "Job ID"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Library name"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category (default main-website)"},
					&cli.StringFlag{Name: "subcategory", Usage: "Subcategory (default homepage)"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
				},
				Action: func(c *cli.Context) error {
					item, err := ops.PromoteToLibrary(c.Context, env.db, env.cfg, ops.PromoteInput{
						JobID:       c.String("job"),
						Name:        c.String("name"),
						Category:    c.String("category"),
						Subcategory: c.String("subcategory"),
						Description: c.String("description"),
						Tags:        parseTags(c.String("tags")),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(item)
				},
			},
			{
				Name:  "categories",
				Usage: "Show the category tree with counts",
				Action: func(c *cli.Context) error {
					tree, err := ops.LibraryCategories(c.Context, env.db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(tree)
				},
			},
			{
				Name:      "readme",
				Usage:     "Print a template's README",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw", Usage: "Print markdown source"},
					&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Usage: "Print only this heading"},
				},
				Action: func(c *cli.Context) error {
					var data []byte
					if name := c.String("section"); name != "" {
						section, err := ops.LibraryReadmeSection(c.Context, env.db, env.cfg, c.Args().First(), name)
						if err != nil {
							return outputError(err)
						}
						data = []byte(section.Markdown())
					} else {
						md, err := ops.LibraryReadme(c.Context, env.db, env.cfg, c.Args().First())
						if err != nil {
							return outputError(err)
						}
						data = md
					}
					if c.Bool("raw") || !isTerminal(os.Stdout) {
						_, err := os.Stdout.Write(data)
						return err
					}
					r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					out, err := r.Render(string(data))
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					fmt.Print(out)
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "Copy a template archive to a local .zip file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Destination (default: download file name)"},
				},
				Action: func(c *cli.Context) error {
					file, err := ops.LibraryArchive(c.Context, env.db, env.cfg, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					dest := c.String("out")
					if dest == "" {
						dest = file.Filename
					}
					n, err := copyToFile(file.Path, dest, ".zip")
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"path": dest, "bytes": n})
				},
			},
		},
	}
}

func ownerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "owner",
		Value:   model.DefaultOwner,
		EnvVars: []string{"STUDIO_OWNER"},
		Usage:   "Owner of the finance records",
	}
}

func expenseFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "Earliest date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "to", Usage: "Latest date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "vendor", Usage: "Vendor ID"},
		&cli.StringFlag{Name: "category", Usage: "Category ID"},
		&cli.StringFlag{Name: "paid", Usage: "true or false"},
	}
}

func expenseFilters(c *cli.Context) finance.ListExpensesInput {
	return finance.ListExpensesInput{
		From:       c.String("from"),
		To:         c.String("to"),
		VendorID:   c.String("vendor"),
		CategoryID: c.String("category"),
		Paid:       c.String("paid"),
	}
}

func expensesCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "expenses",
		Usage: "Track business expenses",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import expenses from a CSV file",
				ArgsUsage: "<file.csv>",
				Flags:     []cli.Flag{ownerFlag()},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					f, err := ops.OpenForRead(path, ".csv")
					if err != nil {
						return outputError(err)
					}
					defer f.Close()
					res, err := finance.ImportCSV(c.Context, env.db, env.cfg, c.String("owner"), filepath.Base(path), f)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(res)
				},
			},
			{
				Name:  "list",
				Usage: "List expenses, newest first",
				Flags: append([]cli.Flag{ownerFlag()}, expenseFilterFlags()...),
				Action: func(c *cli.Context) error {
					list, err := finance.ListExpenses(c.Context, env.db, c.String("owner"), expenseFilters(c))
					if err != nil {
						return outputError(err)
					}
					rows := make([][]string, 0, len(list))
					for _, e := range list {
						paid := ""
						if e.PaidDate != nil {
							paid = *e.PaidDate
						}
						rows = append(rows, []string{e.ID, e.Date, e.VendorName, e.Description,
							finance.FormatMoney(e.Amount.Decimal, e.Currency), paid})
					}
					return outputList(c, list, []string{"ID", "DATE", "VENDOR", "DESCRIPTION", "AMOUNT", "PAID"}, rows)
				},
			},
			{
				Name:  "summary",
				Usage: "Total expenses for this month or year to date",
				Flags: []cli.Flag{
					ownerFlag(),
					&cli.StringFlag{Name: "period", Value: finance.PeriodMonth, Usage: "month or ytd"},
				},
				Action: func(c *cli.Context) error {
					out, err := finance.Summary(c.Context, env.db, env.cfg, c.String("owner"), c.String("period"), timeNow())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:      "mark-paid",
				Usage:     "Mark an expense as paid",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					ownerFlag(),
					&cli.StringFlag{Name: "date", Usage: "Payment date (default today)"},
					&cli.StringFlag{Name: "reference", Aliases: []string{"r"}, Usage: "Payment reference"},
				},
				Action: func(c *cli.Context) error {
					out, err := finance.MarkPaid(c.Context, env.db, c.String("owner"), c.Args().First(), finance.MarkPaidInput{
						PaidDate:  c.String("date"),
						Reference: c.String("reference"),
					}, timeNow())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:  "export",
				Usage: "Write expenses to an .xlsx workbook",
				Flags: append([]cli.Flag{
					ownerFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Destination .xlsx file"},
				}, expenseFilterFlags()...),
				Action: func(c *cli.Context) error {
					dest := c.String("out")
					f, err := ops.CreateForWrite(dest, ".xlsx")
					if err != nil {
						return outputError(err)
					}
					n, err := finance.ExportXLSX(c.Context, env.db, c.String("owner"), expenseFilters(c), f, env.logger)
					if cerr := f.Close(); err == nil && cerr != nil {
						err = errors.NewIOFailure(cerr)
					}
					if err != nil {
						_ = os.Remove(dest)
						return outputError(err)
					}
					return outputJSON(map[string]any{"path": dest, "count": n})
				},
			},
		},
	}
}

func catalogCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "catalog",
		Usage:     "Show suggested services, for one business type or all",
		ArgsUsage: "[business_type]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				out, err := builder.GetCatalog(c.Context, env.db, c.Args().First())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(out)
			}
			list, err := builder.ListCatalogs(c.Context, env.db)
			if err != nil {
				return outputError(err)
			}
			rows := make([][]string, 0, len(list))
			for _, cat := range list {
				rows = append(rows, []string{cat.BusinessType, strings.Join(cat.Services, ", ")})
			}
			return outputList(c, list, []string{"TYPE", "SERVICES"}, rows)
		},
	}
}

func suggestCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest a business description",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Business name"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Business type"},
			&cli.StringFlag{Name: "tone", Usage: "professional, friendly or modern"},
			&cli.StringFlag{Name: "services", Usage: "Comma-separated services"},
			&cli.StringFlag{Name: "text", Usage: "Draft to improve"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum characters (default 200)"},
		},
		Action: func(c *cli.Context) error {
			s, err := builder.NewSuggester(c.Context, env.cfg, env.logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			out, err := builder.Suggest(c.Context, s, builder.SuggestInput{
				Text:         c.String("text"),
				BusinessName: c.String("name"),
				BusinessType: c.String("type"),
				Services:     parseTags(c.String("services")),
				Tone:         c.String("tone"),
				CharLimit:    c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// toolsCmd lists the MCP tools and whether config disables them.
func toolsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List MCP tools and their enabled state",
		Action: func(c *cli.Context) error {
			disabled := mcp.ExpandDisabled(env.cfg.DisabledTools)
			type toolState struct {
				Name    string `json:"name"`
				Enabled bool   `json:"enabled"`
			}
			names := mcp.AllToolNames()
			out := make([]toolState, 0, len(names))
			rows := make([][]string, 0, len(names))
			for _, n := range names {
				out = append(out, toolState{Name: n, Enabled: !disabled[n]})
				rows = append(rows, []string{n, fmt.Sprint(!disabled[n])})
			}
			return outputList(c, out, []string{"TOOL", "ENABLED"}, rows)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputList prints rows as a table on a terminal and v as JSON otherwise.
func outputList(c *cli.Context, v any, headers []string, rows [][]string) error {
	if c.Bool("json") || !isTerminal(os.Stdout) {
		return outputJSON(v)
	}
	fmt.Println(renderTable(headers, rows))
	return nil
}

// outputError formats error for CLI. Field errors are listed one per line.
func outputError(err error) error {
	var se *errors.StudioError
	if !stderrors.As(err, &se) {
		return cli.Exit(err.Error(), 1)
	}
	msg := fmt.Sprintf("[%s] %s", se.Code, se.Message)
	if fields, ok := se.Details["fields"].(map[string][]string); ok {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			msg += fmt.Sprintf("\n  %s: %s", name, strings.Join(fields[name], " "))
		}
	}
	return cli.Exit(msg, 1)
}

// copyToFile copies src to a new file at dest.
func copyToFile(src, dest string, exts ...string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.NewIOFailure(err)
	}
	defer in.Close()

	out, err := ops.CreateForWrite(dest, exts...)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, errors.NewIOFailure(err)
	}
	return n, nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

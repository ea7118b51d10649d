package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/ops"
	"github.com/away0419/eunoia/internal/schedule"
	"github.com/away0419/eunoia/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *ops.Deps) *cli.App {
	app := &cli.App{
		Name:    "eunoia",
		Usage:   "A few words a day: idioms, proverbs, vocabulary and quizzes",
		Version: Version,
		Commands: []*cli.Command{
			todayCmd(deps),
			quizCmd(deps),
			answerCmd(deps),
			historyCmd(deps),
			rememberCmd(deps),
			forgetCmd(deps),
			categoryCmd(deps),
			wordCmd(deps),
			fetchCmd(deps),
			serveCmd(deps),
			exportCmd(deps),
			importCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
	}
}

// todayCmd creates the today command.
func todayCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Show today's words",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day to show (YYYY-MM-DD, default today)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category (key or name)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Today(c.Context, deps, ops.TodayInput{
				Date:     c.String("date"),
				Category: c.String("category"),
			})
			return emit(c, output, err)
		},
	}
}

// quizCmd creates the quiz command.
func quizCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "quiz",
		Usage: "Draw a quiz batch from previously seen words",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show answer tallies and exposure counts",
				Action: func(c *cli.Context) error {
					output, err := ops.QuizStats(c.Context, deps)
					return emit(c, output, err)
				},
			},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.QuizDraw(c.Context, deps)
			return emit(c, output, err)
		},
	}
}

// answerCmd creates the answer command.
func answerCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "answer",
		Usage:     "Record a quiz answer",
		ArgsUsage: "<category> <word>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "meaning", Aliases: []string{"m"}, Usage: "Meaning (default: looked up in history)"},
			&cli.BoolFlag{Name: "correct", Usage: "The answer was right"},
			&cli.BoolFlag{Name: "wrong", Usage: "The answer was wrong"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: eunoia answer <category> <word> --correct|--wrong"))
			}
			if c.Bool("correct") == c.Bool("wrong") {
				return outputError(errors.NewInvalidRequest("exactly one of --correct or --wrong is required"))
			}
			output, err := ops.QuizAnswer(c.Context, deps, ops.QuizAnswerInput{
				Category: c.Args().Get(0),
				Text:     c.Args().Get(1),
				Meaning:  c.String("meaning"),
				Correct:  c.Bool("correct"),
			})
			return emit(c, output, err)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List previously seen words, newest first",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category (key or name)"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Filter by day (YYYY-MM-DD)"},
		}, pageFlags()...),
		Action: func(c *cli.Context) error {
			output, err := ops.HistoryList(c.Context, deps, ops.HistoryListInput{
				Category: c.String("category"),
				Date:     c.String("date"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			return emit(c, output, err)
		},
	}
}

// rememberCmd creates the remember command.
func rememberCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "remember",
		Usage:     "Record a word as seen",
		ArgsUsage: "<category> <word>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day seen (YYYY-MM-DD, default today)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: eunoia remember <category> <word>"))
			}
			output, err := ops.Remember(c.Context, deps, ops.RememberInput{
				Category: c.Args().Get(0),
				Text:     c.Args().Get(1),
				Date:     c.String("date"),
			})
			return emit(c, output, err)
		},
	}
}

// forgetCmd creates the forget command.
func forgetCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "forget",
		Usage:     "Remove a word from the history",
		ArgsUsage: "<category> <word>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "meaning", Aliases: []string{"m"}, Usage: "Only the entry with this meaning"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Only the entry on this day"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: eunoia forget <category> <word>"))
			}
			output, err := ops.Forget(c.Context, deps, ops.ForgetInput{
				Category: c.Args().Get(0),
				Text:     c.Args().Get(1),
				Meaning:  c.String("meaning"),
				Date:     c.String("date"),
			})
			return emit(c, output, err)
		},
	}
}

// categoryCmd creates the category command group.
func categoryCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage categories",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories with word counts",
				Action: func(c *cli.Context) error {
					output, err := ops.CategoryList(c.Context, deps)
					return emit(c, output, err)
				},
			},
			{
				Name:      "create",
				Usage:     "Create a custom category",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					output, err := ops.CategoryCreate(c.Context, deps, ops.CategoryCreateInput{Name: c.Args().First()})
					return emit(c, output, err)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a custom category and its words",
				ArgsUsage: "<category>",
				Action: func(c *cli.Context) error {
					output, err := ops.CategoryDelete(c.Context, deps, ops.CategoryDeleteInput{Category: c.Args().First()})
					return emit(c, output, err)
				},
			},
		},
	}
}

// wordCmd creates the word command group.
func wordCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "word",
		Usage: "Manage the words of a category",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a category's words",
				ArgsUsage: "<category>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Filter by source: bundled|user|ai"},
				}, pageFlags()...),
				Action: func(c *cli.Context) error {
					output, err := ops.WordList(c.Context, deps, ops.WordListInput{
						Category: c.Args().First(),
						Source:   c.String("source"),
						Limit:    c.Int("limit"),
						Offset:   c.Int("offset"),
					})
					return emit(c, output, err)
				},
			},
			{
				Name:      "add",
				Usage:     "Add a word to a category",
				ArgsUsage: "<category> <word> <meaning>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return outputError(errors.NewInvalidRequest("usage: eunoia word add <category> <word> <meaning>"))
					}
					output, err := ops.WordAdd(c.Context, deps, ops.WordAddInput{
						Category: c.Args().Get(0),
						Text:     c.Args().Get(1),
						Meaning:  c.Args().Get(2),
					})
					return emit(c, output, err)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a user-added or generated word",
				ArgsUsage: "<category> <word>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "meaning", Aliases: []string{"m"}, Usage: "Disambiguate by meaning"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: eunoia word delete <category> <word>"))
					}
					output, err := ops.WordDelete(c.Context, deps, ops.WordDeleteInput{
						Category: c.Args().Get(0),
						Text:     c.Args().Get(1),
						Meaning:  c.String("meaning"),
					})
					return emit(c, output, err)
				},
			},
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Generate today's new words for every category",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Run even if today's fetch already completed"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, deps, ops.FetchInput{Force: c.Bool("force")})
			return emit(c, output, err)
		},
	}
}

// serveCmd creates the serve command: JSON API plus the daily fetch.
func serveCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON API and the daily fetch scheduler",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
			&cli.BoolFlag{Name: "no-schedule", Usage: "Do not run the daily fetch"},
			&cli.BoolFlag{Name: "fetch-now", Usage: "Run a forced fetch before serving"},
		},
		Action: func(c *cli.Context) error {
			cfg := deps.Config
			bind := c.String("bind")
			if bind == "" {
				bind = cfg.WebBind
			}
			port := c.Int("port")
			if port == 0 {
				port = cfg.WebPort
			}

			stop, err := startFetching(c.Context, deps, c.Bool("fetch-now"), !c.Bool("no-schedule"))
			if err != nil {
				return outputError(err)
			}
			defer stop()

			srv := web.NewServer(deps, Version, bind, port)
			if err := web.Run(srv, deps.Log); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return outputError(err)
			}
			return nil
		},
	}
}

// startFetching runs the startup fetch when fetchNow is set and starts the
// daily loop when daily is set. A failed startup fetch is logged; serving
// goes on with the words already stored. The returned stop is always safe to call.
func startFetching(ctx context.Context, deps *ops.Deps, fetchNow, daily bool) (func(), error) {
	sched := newScheduler(deps)
	if fetchNow {
		if err := sched.RunNow(ctx); err != nil {
			deps.Log.WithError(err).Warn("startup fetch failed")
		}
	}
	if !daily {
		return func() {}, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := sched.Start(ctx); err != nil {
		cancel()
		return nil, err
	}
	return func() {
		sched.Stop()
		cancel()
	}, nil
}

// newScheduler wires the daily fetch to the configured slot and connectivity probe.
func newScheduler(deps *ops.Deps) *schedule.Daily {
	cfg := deps.Config
	log := deps.Log.WithField("component", "scheduler")

	job := func(ctx context.Context, force bool) error {
		res, err := ops.Fetch(ctx, deps, ops.FetchInput{Force: force})
		if err != nil {
			return err
		}
		log.WithField("date", res.Date).WithField("skipped", res.Skipped).Info("daily fetch finished")
		return nil
	}

	var probe schedule.Probe
	if addr := schedule.ProbeAddress(cfg.ConnectivityHost, cfg.AIBaseURL); addr != "" {
		probe = schedule.TCPProbe(addr, 5*time.Second)
	}

	sc := schedule.DefaultConfig()
	sc.Hour, sc.Minute = cfg.FetchHour, cfg.FetchMinute
	return schedule.NewDaily(job, probe, sc, log)
}

// exportCmd creates the export command.
func exportCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export categories, words and history to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.eunoia/exports/<category>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, deps, ops.ExportInput{
				Path:     c.String("path"),
				Category: c.String("category"),
			})
			return emit(c, output, err)
		},
	}
}

// importCmd creates the import command.
func importCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import categories, words and history from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeMerge), Usage: "Import mode: merge|strict"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, deps, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			return emit(c, output, err)
		},
	}
}

// Helper functions

// emit prints output as JSON, or formats err for the CLI.
func emit[T any](c *cli.Context, output T, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(c, output)
}

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var eErr *errors.EunoiaError
	if stderrors.As(err, &eErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", eErr.Code, eErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
